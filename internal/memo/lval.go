package memo

import "github.com/juncdeinda/forgetti/internal/ast"

// optimizeLVal is spec.md §4.5. Only identifiers and member expressions
// are supported; destructuring passes through unchanged without
// invalidating any binding, a documented limitation (spec.md §9 open
// question, §7 "passive fallback").
func (o *Optimizer) optimizeLVal(scope *Scope, target ast.Expr, dirty bool) OptimizedExpression {
	switch t := target.Data.(type) {
	case *ast.EIdentifier:
		if dirty {
			scope.invalidate(t.Ref)
		}
		return OptimizedExpression{Expr: target}
	case *ast.EDot:
		return o.memoizeMemberTarget(scope, target, t.Target, ast.Expr{})
	case *ast.EIndex:
		return o.memoizeMemberTarget(scope, target, t.Target, t.Index)
	default:
		// Destructuring or any other LVal shape: returned unchanged, no
		// invalidation performed (spec.md §4.5).
		return OptimizedExpression{Expr: target, Constant: true}
	}
}

// memoizeMemberTarget implements memoizeMemberExpression for an LVal
// position: the object (and, when present, the computed key) become
// dependencies, but the member access itself is never wrapped in
// createMemo since it names a write target, not a read.
func (o *Optimizer) memoizeMemberTarget(scope *Scope, target ast.Expr, obj ast.Expr, key ast.Expr) OptimizedExpression {
	objOE := o.optimizeExpr(scope, obj)
	var deps []ast.Expr
	if !objOE.Constant {
		deps = append(deps, objOE.Expr)
	}
	var rebuilt ast.Expr
	if key.Data != nil {
		keyOE := o.optimizeExpr(scope, key)
		if !keyOE.Constant {
			deps = append(deps, keyOE.Expr)
		}
		rebuilt = ast.Expr{Loc: target.Loc, Data: &ast.EIndex{Target: objOE.Expr, Index: keyOE.Expr}}
	} else {
		dot := target.Data.(*ast.EDot)
		rebuilt = ast.Expr{Loc: target.Loc, Data: &ast.EDot{Target: objOE.Expr, Name: dot.Name, NameLoc: dot.NameLoc}}
	}
	return OptimizedExpression{Expr: rebuilt, Deps: nonNilDeps(deps), Constant: len(deps) == 0}
}

// optimizeAssignment is the "assignment" row of spec.md §4.2's dispatch
// table: the left side is rewritten via optimizeLVal with dirty=true, the
// right side is memoized as a dependency, and the reassembled assignment
// is returned WITHOUT itself being wrapped in createMemo.
func (o *Optimizer) optimizeAssignment(scope *Scope, expr ast.Expr, e *ast.EBinary) OptimizedExpression {
	leftOE := o.optimizeLVal(scope, e.Left, true)
	rightOE := o.optimizeExpr(scope, e.Right)
	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.EBinary{Op: e.Op, Left: leftOE.Expr, Right: rightOE.Expr}}

	var deps []ast.Expr
	deps = append(deps, leftOE.Deps...)
	if !rightOE.Constant {
		deps = append(deps, rightOE.Expr)
	}
	return OptimizedExpression{Expr: rebuilt, Deps: nonNilDeps(deps)}
}

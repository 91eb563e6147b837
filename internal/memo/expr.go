package memo

import "github.com/juncdeinda/forgetti/internal/ast"

// optimizeExpr is optimizeExpression from spec.md §4.2: the dispatch table
// keyed by expression node kind. Every branch returns an OptimizedExpression
// whose Expr replaces the original node in the rewritten tree.
func (o *Optimizer) optimizeExpr(scope *Scope, expr ast.Expr) OptimizedExpression {
	if expr.Data == nil {
		return Const(expr)
	}

	switch e := expr.Data.(type) {
	case *ast.EBoolean, *ast.ENull, *ast.EUndefined, *ast.ENumber, *ast.EBigInt, *ast.EString, *ast.ERegExp, *ast.EThis, *ast.EMissing:
		return Const(expr)

	case *ast.EIdentifier:
		return o.optimizeIdentifier(scope, expr, e)

	case *ast.EDot:
		return o.optimizeDot(scope, expr, e)

	case *ast.EIndex:
		return o.optimizeIndex(scope, expr, e)

	case *ast.EIf:
		return o.optimizeConditional(scope, e)

	case *ast.EBinary:
		return o.optimizeBinary(scope, expr, e)

	case *ast.EUnary:
		return o.optimizeUnary(scope, expr, e)

	case *ast.ECall:
		return o.optimizeCall(scope, expr.Loc, e)

	case *ast.EArrow:
		return o.optimizeFunctionLiteral(scope, expr)

	case *ast.EFunction:
		return o.optimizeFunctionLiteral(scope, expr)

	case *ast.EArray:
		return o.optimizeArray(scope, e)

	case *ast.EObject:
		return o.optimizeObject(scope, e)

	case *ast.ENew:
		return o.optimizeNew(scope, expr, e)

	case *ast.ETemplate:
		return o.optimizeTemplate(scope, expr, e)

	case *ast.EAwait:
		inner := o.optimizeExpr(scope, e.Value)
		return OptimizedExpression{Expr: ast.Expr{Loc: expr.Loc, Data: &ast.EAwait{Value: inner.Expr}}}

	case *ast.EYield:
		var v ast.Expr
		if e.ValueOrNil.Data != nil {
			v = o.optimizeExpr(scope, e.ValueOrNil).Expr
		}
		return OptimizedExpression{Expr: ast.Expr{Loc: expr.Loc, Data: &ast.EYield{ValueOrNil: v, IsStar: e.IsStar}}}

	case *ast.EJSXElement:
		return o.optimizeJSX(scope, expr, e)

	case *ast.ESpread:
		inner := o.optimizeExpr(scope, e.Value)
		rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.ESpread{Value: inner.Expr}}
		return OptimizedExpression{Expr: rebuilt, Constant: inner.Constant}

	default:
		return Const(expr)
	}
}

func (o *Optimizer) optimizeIdentifier(scope *Scope, expr ast.Expr, e *ast.EIdentifier) OptimizedExpression {
	if o.analyzer.isForeignOrConstant(scope, e.Ref) {
		return Const(expr)
	}
	if oe, ok := scope.lookupOptimized(e.Ref); ok {
		return oe
	}
	return o.createMemo(scope, KindMemo, expr, nil, false)
}

func (o *Optimizer) optimizeDot(scope *Scope, expr ast.Expr, e *ast.EDot) OptimizedExpression {
	targetOE := o.optimizeExpr(scope, e.Target)
	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.EDot{Target: targetOE.Expr, Name: e.Name, NameLoc: e.NameLoc}}
	if targetOE.Constant {
		return Const(rebuilt)
	}
	return o.createMemo(scope, KindMemo, rebuilt, []ast.Expr{targetOE.Expr}, false)
}

func (o *Optimizer) optimizeIndex(scope *Scope, expr ast.Expr, e *ast.EIndex) OptimizedExpression {
	targetOE := o.optimizeExpr(scope, e.Target)
	indexOE := o.optimizeExpr(scope, e.Index)
	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.EIndex{Target: targetOE.Expr, Index: indexOE.Expr}}
	if targetOE.Constant && indexOE.Constant {
		return Const(rebuilt)
	}
	var deps []ast.Expr
	if !targetOE.Constant {
		deps = append(deps, targetOE.Expr)
	}
	if !indexOE.Constant {
		deps = append(deps, indexOE.Expr)
	}
	return o.createMemo(scope, KindMemo, rebuilt, deps, false)
}

// optimizeConditional implements the "lower to if/else over a shared
// result binding" shape spec.md §4.2 prescribes for the ternary, so a
// memoized branch can carry its own nested Scope rather than forcing both
// arms to share one header.
func (o *Optimizer) optimizeConditional(scope *Scope, e *ast.EIf) OptimizedExpression {
	testOE := o.optimizeExpr(scope, e.Test)

	r := o.freshTemp("_r")
	scope.emit(ast.Stmt{Data: &ast.SLocal{Kind: ast.LocalLet, Decls: []ast.Decl{{Binding: identBinding(r)}}}})

	yesScope := scope.child()
	yesOE := o.optimizeExpr(yesScope, e.Yes)
	yesScope.emit(assignStmt(identExprValue(r), yesOE.Expr))

	noScope := scope.child()
	noOE := o.optimizeExpr(noScope, e.No)
	noScope.emit(assignStmt(identExprValue(r), noOE.Expr))

	ifStmt := ast.Stmt{Data: &ast.SIf{
		Test:    testOE.Expr,
		Yes:     blockStmt(yesScope.getStatements()),
		NoOrNil: blockStmt(noScope.getStatements()),
	}}
	scope.emit(ifStmt)

	return OptimizedExpression{Expr: identExprValue(r)}
}

func (o *Optimizer) optimizeBinary(scope *Scope, expr ast.Expr, e *ast.EBinary) OptimizedExpression {
	if e.Op == ast.BinOpComma {
		return o.optimizeSequence(scope, expr, e)
	}
	if e.Op.IsLogical() {
		return o.optimizeLogical(scope, e)
	}
	if e.Op.BinaryAssignTarget() != ast.AssignTargetNone {
		return o.optimizeAssignment(scope, expr, e)
	}

	leftOE := o.optimizeExpr(scope, e.Left)
	rightOE := o.optimizeExpr(scope, e.Right)
	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.EBinary{Op: e.Op, Left: leftOE.Expr, Right: rightOE.Expr}}
	if leftOE.Constant && rightOE.Constant {
		return Const(rebuilt)
	}
	var deps []ast.Expr
	if !leftOE.Constant {
		deps = append(deps, leftOE.Expr)
	}
	if !rightOE.Constant {
		deps = append(deps, rightOE.Expr)
	}
	return o.createMemo(scope, KindMemo, rebuilt, deps, false)
}

func (o *Optimizer) optimizeSequence(scope *Scope, expr ast.Expr, e *ast.EBinary) OptimizedExpression {
	leftOE := o.optimizeExpr(scope, e.Left)
	rightOE := o.optimizeExpr(scope, e.Right)
	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.EBinary{Op: ast.BinOpComma, Left: leftOE.Expr, Right: rightOE.Expr}}
	return OptimizedExpression{Expr: rebuilt, Constant: leftOE.Constant && rightOE.Constant}
}

// testForOp builds the emitted short-circuit guard for each logical
// operator kind, per spec.md §4.2's logical row.
func testForOp(op ast.OpCode, c ast.Expr) ast.Expr {
	switch op {
	case ast.BinOpLogicalOr:
		return ast.Not(c)
	case ast.BinOpNullishCoalescing:
		return ast.Expr{Data: &ast.EBinary{Op: ast.BinOpLooseEq, Left: c, Right: ast.Expr{Data: ast.ENullShared}}}
	default: // BinOpLogicalAnd
		return c
	}
}

func (o *Optimizer) optimizeLogical(scope *Scope, e *ast.EBinary) OptimizedExpression {
	leftOE := o.optimizeExpr(scope, e.Left)

	c := o.freshTemp("_c")
	scope.emit(declStmt(ast.LocalLet, c, leftOE.Expr))

	rightScope := scope.child()
	rightOE := o.optimizeExpr(rightScope, e.Right)
	rightScope.emit(assignStmt(identExprValue(c), rightOE.Expr))

	ifStmt := ast.Stmt{Data: &ast.SIf{
		Test: testForOp(e.Op, identExprValue(c)),
		Yes:  blockStmt(rightScope.getStatements()),
	}}
	scope.emit(ifStmt)

	return OptimizedExpression{Expr: identExprValue(c)}
}

func (o *Optimizer) optimizeUnary(scope *Scope, expr ast.Expr, e *ast.EUnary) OptimizedExpression {
	argOE := o.optimizeExpr(scope, e.Value)
	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.EUnary{Op: e.Op, Value: argOE.Expr}}
	if argOE.Constant {
		return Const(rebuilt)
	}
	return o.createMemo(scope, KindMemo, rebuilt, []ast.Expr{argOE.Expr}, false)
}

func (o *Optimizer) optimizeArray(scope *Scope, e *ast.EArray) OptimizedExpression {
	items := make([]ast.Expr, len(e.Items))
	var deps []ast.Expr
	for i, item := range e.Items {
		if spread, ok := item.Data.(*ast.ESpread); ok {
			innerOE := o.optimizeExpr(scope, spread.Value)
			items[i] = ast.Expr{Loc: item.Loc, Data: &ast.ESpread{Value: innerOE.Expr}}
			if !innerOE.Constant {
				deps = append(deps, innerOE.Expr)
			}
			continue
		}
		oe := o.optimizeExpr(scope, item)
		items[i] = oe.Expr
		if !oe.Constant {
			deps = append(deps, oe.Expr)
		}
	}
	rebuilt := ast.Expr{Data: &ast.EArray{Items: items, IsSingleLine: e.IsSingleLine}}
	if len(deps) == 0 {
		return Const(rebuilt)
	}
	return o.createMemo(scope, KindMemo, rebuilt, deps, false)
}

func (o *Optimizer) optimizeObject(scope *Scope, e *ast.EObject) OptimizedExpression {
	props := make([]ast.Property, len(e.Properties))
	var deps []ast.Expr
	for i, p := range e.Properties {
		key := p.Key
		if p.IsComputed {
			keyOE := o.optimizeExpr(scope, p.Key)
			key = keyOE.Expr
			if !keyOE.Constant {
				deps = append(deps, keyOE.Expr)
			}
		}
		valOE := o.optimizeExpr(scope, p.ValueOrNil)
		if !valOE.Constant {
			deps = append(deps, valOE.Expr)
		}
		props[i] = ast.Property{Kind: p.Kind, Key: key, ValueOrNil: valOE.Expr, IsComputed: p.IsComputed}
	}
	rebuilt := ast.Expr{Data: &ast.EObject{Properties: props, IsSingleLine: e.IsSingleLine}}
	if len(deps) == 0 {
		return Const(rebuilt)
	}
	return o.createMemo(scope, KindMemo, rebuilt, deps, false)
}

func (o *Optimizer) optimizeNew(scope *Scope, expr ast.Expr, e *ast.ENew) OptimizedExpression {
	targetOE := o.optimizeExpr(scope, e.Target)
	args, argDeps, argsConstant := o.optimizeArgList(scope, e.Args)
	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.ENew{Target: targetOE.Expr, Args: args}}
	if targetOE.Constant && argsConstant {
		return Const(rebuilt)
	}
	deps := argDeps
	if !targetOE.Constant {
		deps = append([]ast.Expr{targetOE.Expr}, deps...)
	}
	return o.createMemo(scope, KindMemo, rebuilt, deps, false)
}

func (o *Optimizer) optimizeArgList(scope *Scope, args []ast.Expr) ([]ast.Expr, []ast.Expr, bool) {
	out := make([]ast.Expr, len(args))
	var deps []ast.Expr
	constant := true
	for i, a := range args {
		oe := o.optimizeExpr(scope, a)
		out[i] = oe.Expr
		if !oe.Constant {
			constant = false
			deps = append(deps, oe.Expr)
		}
	}
	return out, deps, constant
}

func (o *Optimizer) optimizeTemplate(scope *Scope, expr ast.Expr, e *ast.ETemplate) OptimizedExpression {
	var tag *ast.Expr
	var deps []ast.Expr
	if e.Tag != nil {
		tagOE := o.optimizeExpr(scope, *e.Tag)
		t := tagOE.Expr
		tag = &t
		if !tagOE.Constant {
			deps = append(deps, tagOE.Expr)
		}
	}
	parts := make([]ast.TemplatePart, len(e.Parts))
	for i, p := range e.Parts {
		oe := o.optimizeExpr(scope, p.Value)
		parts[i] = ast.TemplatePart{Value: oe.Expr, Tail: p.Tail}
		if !oe.Constant {
			deps = append(deps, oe.Expr)
		}
	}
	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.ETemplate{Tag: tag, Head: e.Head, Parts: parts}}
	return o.createMemo(scope, KindMemo, rebuilt, deps, false)
}

func (o *Optimizer) optimizeJSX(scope *Scope, expr ast.Expr, e *ast.EJSXElement) OptimizedExpression {
	if !o.Preset.JSXMemo {
		return Const(expr)
	}

	var deps []ast.Expr

	props := make([]ast.JSXProperty, len(e.Properties))
	for i, p := range e.Properties {
		key := p.Key
		if !p.IsSpread && key.Data != nil {
			keyOE := o.optimizeExpr(scope, key)
			key = keyOE.Expr
			if !keyOE.Constant {
				deps = append(deps, keyOE.Expr)
			}
		}
		valOE := o.optimizeExpr(scope, p.ValueOrNil)
		if !valOE.Constant {
			deps = append(deps, valOE.Expr)
		}
		props[i] = ast.JSXProperty{Key: key, ValueOrNil: valOE.Expr, IsSpread: p.IsSpread}
	}

	children := make([]ast.Expr, len(e.Children))
	for i, c := range e.Children {
		childOE := o.optimizeExpr(scope, c)
		children[i] = childOE.Expr
		if !childOE.Constant {
			deps = append(deps, childOE.Expr)
		}
	}

	rebuilt := ast.Expr{Loc: expr.Loc, Data: &ast.EJSXElement{Tag: e.Tag, Properties: props, Children: children}}
	if len(deps) == 0 {
		return Const(rebuilt)
	}
	return o.createMemo(scope, KindMemo, rebuilt, deps, false)
}

func assignStmt(target ast.Expr, value ast.Expr) ast.Stmt {
	return ast.Stmt{Data: &ast.SExpr{Value: ast.Expr{Data: &ast.EBinary{Op: ast.BinOpAssign, Left: target, Right: value}}}}
}

func blockStmt(stmts []ast.Stmt) ast.Stmt {
	return ast.Stmt{Data: &ast.SBlock{Stmts: stmts}}
}

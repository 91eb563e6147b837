package memo

import "github.com/juncdeinda/forgetti/internal/ast"

// optimizeFunctionLiteral handles both the "function/arrow expression" row
// of spec.md §4.2 and the `callback`/closure-analysis branch of §4.3: the
// free variables of fn relative to the enclosing component are each
// memoized as a dependency, then the function literal itself is wrapped
// in createMemo so re-creating the closure is skipped when nothing it
// closes over has changed.
func (o *Optimizer) optimizeFunctionLiteral(scope *Scope, fn ast.Expr) OptimizedExpression {
	deps := o.freeVarDeps(scope, fn)
	return o.createMemo(scope, KindMemo, fn, deps, false)
}

// freeVarDeps resolves the free identifiers of fn (excluding its own
// parameter bindings) against the active scope, memoizing each one that is
// not foreign/constant, and returns the resulting dependency list. Names
// bound by a variable declaration inside fn are excluded from that
// declaration onward, but other body-level bindings (for-in/for-of heads,
// catch parameters, reads before the declaration) are not distinguished
// from a true closure-over-outer-scope reference; this
// pass has no per-function lexical scope of its own to consult, only the
// single component-wide boundary, so a local temporary can in rare cases
// be listed as a redundant dependency. Harmless: an extra, always-equal
// dependency only ever makes a guard less likely to short-circuit, never
// incorrect.
func (o *Optimizer) freeVarDeps(scope *Scope, fn ast.Expr) []ast.Expr {
	bound := make(map[ast.Ref]bool)
	collectBoundArgs(fn, bound)

	var refs []ast.Ref
	seen := make(map[ast.Ref]bool)
	collectFreeRefs(fn.Data, bound, seen, &refs)

	var deps []ast.Expr
	for _, ref := range refs {
		if o.analyzer.isForeignOrConstant(scope, ref) {
			continue
		}
		oe := o.optimizeExpr(scope, identExprValue(ref))
		if !oe.Constant {
			deps = append(deps, oe.Expr)
		}
	}
	return deps
}

func collectBoundArgs(fn ast.Expr, bound map[ast.Ref]bool) {
	var args []ast.Arg
	switch f := fn.Data.(type) {
	case *ast.EArrow:
		args = f.Args
	case *ast.EFunction:
		args = f.Fn.Args
	}
	for _, a := range args {
		collectBoundBinding(a.Binding, bound)
	}
}

func collectBoundBinding(b ast.Binding, bound map[ast.Ref]bool) {
	switch bd := b.Data.(type) {
	case *ast.BIdentifier:
		bound[bd.Ref] = true
	case *ast.BArray:
		for _, item := range bd.Items {
			collectBoundBinding(item.Binding, bound)
		}
	case *ast.BObject:
		for _, p := range bd.Properties {
			collectBoundBinding(p.Value, bound)
		}
	}
}

// collectFreeRefs walks a function literal's body collecting every
// EIdentifier read not present in bound, in first-encountered order.
func collectFreeRefs(e ast.E, bound map[ast.Ref]bool, seen map[ast.Ref]bool, out *[]ast.Ref) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.EIdentifier:
		if !bound[n.Ref] && !seen[n.Ref] {
			seen[n.Ref] = true
			*out = append(*out, n.Ref)
		}
	case *ast.EUnary:
		collectFreeRefs(n.Value.Data, bound, seen, out)
	case *ast.EBinary:
		collectFreeRefs(n.Left.Data, bound, seen, out)
		collectFreeRefs(n.Right.Data, bound, seen, out)
	case *ast.EDot:
		collectFreeRefs(n.Target.Data, bound, seen, out)
	case *ast.EIndex:
		collectFreeRefs(n.Target.Data, bound, seen, out)
		collectFreeRefs(n.Index.Data, bound, seen, out)
	case *ast.ECall:
		collectFreeRefs(n.Target.Data, bound, seen, out)
		for _, a := range n.Args {
			collectFreeRefs(a.Data, bound, seen, out)
		}
	case *ast.ENew:
		collectFreeRefs(n.Target.Data, bound, seen, out)
		for _, a := range n.Args {
			collectFreeRefs(a.Data, bound, seen, out)
		}
	case *ast.EArray:
		for _, item := range n.Items {
			collectFreeRefs(item.Data, bound, seen, out)
		}
	case *ast.EObject:
		for _, p := range n.Properties {
			if p.IsComputed {
				collectFreeRefs(p.Key.Data, bound, seen, out)
			}
			collectFreeRefs(p.ValueOrNil.Data, bound, seen, out)
		}
	case *ast.ESpread:
		collectFreeRefs(n.Value.Data, bound, seen, out)
	case *ast.ETemplate:
		for _, p := range n.Parts {
			collectFreeRefs(p.Value.Data, bound, seen, out)
		}
		if n.Tag != nil {
			collectFreeRefs(n.Tag.Data, bound, seen, out)
		}
	case *ast.EIf:
		collectFreeRefs(n.Test.Data, bound, seen, out)
		collectFreeRefs(n.Yes.Data, bound, seen, out)
		collectFreeRefs(n.No.Data, bound, seen, out)
	case *ast.EAwait:
		collectFreeRefs(n.Value.Data, bound, seen, out)
	case *ast.EYield:
		collectFreeRefs(n.ValueOrNil.Data, bound, seen, out)
	case *ast.EJSXElement:
		if n.Tag != nil {
			collectFreeRefs(n.Tag.Data, bound, seen, out)
		}
		for _, p := range n.Properties {
			if !p.IsSpread {
				collectFreeRefs(p.Key.Data, bound, seen, out)
			}
			collectFreeRefs(p.ValueOrNil.Data, bound, seen, out)
		}
		for _, c := range n.Children {
			collectFreeRefs(c.Data, bound, seen, out)
		}
	case *ast.EArrow:
		nested := make(map[ast.Ref]bool, len(bound))
		for k := range bound {
			nested[k] = true
		}
		for _, a := range n.Args {
			collectBoundBinding(a.Binding, nested)
		}
		if n.PreferExpr {
			collectFreeRefs(n.PreferExprValue.Data, nested, seen, out)
		} else {
			for _, s := range n.Body.Stmts {
				collectFreeRefsStmt(s.Data, nested, seen, out)
			}
		}
	case *ast.EFunction:
		nested := make(map[ast.Ref]bool, len(bound))
		for k := range bound {
			nested[k] = true
		}
		for _, a := range n.Fn.Args {
			collectBoundBinding(a.Binding, nested)
		}
		for _, s := range n.Fn.Body.Stmts {
			collectFreeRefsStmt(s.Data, nested, seen, out)
		}
	}
}

func collectFreeRefsStmt(s ast.S, bound map[ast.Ref]bool, seen map[ast.Ref]bool, out *[]ast.Ref) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *ast.SBlock:
		for _, st := range n.Stmts {
			collectFreeRefsStmt(st.Data, bound, seen, out)
		}
	case *ast.SExpr:
		collectFreeRefs(n.Value.Data, bound, seen, out)
	case *ast.SLocal:
		for _, d := range n.Decls {
			collectFreeRefs(d.ValueOrNil.Data, bound, seen, out)
			collectBoundBinding(d.Binding, bound)
		}
	case *ast.SIf:
		collectFreeRefs(n.Test.Data, bound, seen, out)
		collectFreeRefsStmt(n.Yes.Data, bound, seen, out)
		if n.NoOrNil.Data != nil {
			collectFreeRefsStmt(n.NoOrNil.Data, bound, seen, out)
		}
	case *ast.SReturn:
		collectFreeRefs(n.ValueOrNil.Data, bound, seen, out)
	case *ast.SThrow:
		collectFreeRefs(n.Value.Data, bound, seen, out)
	case *ast.SFor:
		if n.InitOrNil.Data != nil {
			collectFreeRefsStmt(n.InitOrNil.Data, bound, seen, out)
		}
		collectFreeRefs(n.TestOrNil.Data, bound, seen, out)
		collectFreeRefs(n.UpdateOrNil.Data, bound, seen, out)
		collectFreeRefsStmt(n.Body.Data, bound, seen, out)
	case *ast.SForIn:
		collectFreeRefs(n.Value.Data, bound, seen, out)
		collectFreeRefsStmt(n.Body.Data, bound, seen, out)
	case *ast.SForOf:
		collectFreeRefs(n.Value.Data, bound, seen, out)
		collectFreeRefsStmt(n.Body.Data, bound, seen, out)
	case *ast.SWhile:
		collectFreeRefs(n.Test.Data, bound, seen, out)
		collectFreeRefsStmt(n.Body.Data, bound, seen, out)
	case *ast.SDoWhile:
		collectFreeRefs(n.Test.Data, bound, seen, out)
		collectFreeRefsStmt(n.Body.Data, bound, seen, out)
	case *ast.SSwitch:
		collectFreeRefs(n.Test.Data, bound, seen, out)
		for _, c := range n.Cases {
			collectFreeRefs(c.ValueOrNil.Data, bound, seen, out)
			for _, st := range c.Body {
				collectFreeRefsStmt(st.Data, bound, seen, out)
			}
		}
	case *ast.STry:
		for _, st := range n.Body {
			collectFreeRefsStmt(st.Data, bound, seen, out)
		}
		if n.Catch != nil {
			for _, st := range n.Catch.Body {
				collectFreeRefsStmt(st.Data, bound, seen, out)
			}
		}
		for _, st := range n.FinallyOrNil {
			collectFreeRefsStmt(st.Data, bound, seen, out)
		}
	case *ast.SLabel:
		collectFreeRefsStmt(n.Stmt.Data, bound, seen, out)
	case *ast.SSkip:
		collectFreeRefsStmt(n.Stmt.Data, bound, seen, out)
	}
}

package memo

import "github.com/juncdeinda/forgetti/internal/ast"

// optimizeStmtsInto is the top of the statement walk spec.md §4.4
// describes: each statement is rewritten via optimizeStmt and appended to
// scope's statement list in order.
func (o *Optimizer) optimizeStmtsInto(stmts []ast.Stmt, scope *Scope) {
	for _, s := range stmts {
		rewritten := o.optimizeStmt(scope, s)
		if rewritten.Data != nil {
			scope.emit(rewritten)
		}
	}
}

// optimizeStmt rewrites a single statement against scope, returning the
// replacement without appending it anywhere: callers decide whether (and
// where) the result is attached, since a for-loop's init clause, say,
// must stay nested inside the SFor node rather than being spliced into
// the enclosing statement list.
func (o *Optimizer) optimizeStmt(scope *Scope, s ast.Stmt) ast.Stmt {
	switch st := s.Data.(type) {
	case *ast.SSkip:
		return s

	case *ast.SEmpty, *ast.SBreak, *ast.SContinue:
		return s

	case *ast.SExpr:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SExpr{Value: o.optimizeExpr(scope, st.Value).Expr}}

	case *ast.SLocal:
		decls := make([]ast.Decl, len(st.Decls))
		for i, d := range st.Decls {
			var val ast.Expr
			if d.ValueOrNil.Data != nil {
				val = o.optimizeExpr(scope, d.ValueOrNil).Expr
			}
			decls[i] = ast.Decl{Binding: d.Binding, ValueOrNil: val}
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SLocal{Kind: st.Kind, Decls: decls}}

	case *ast.SReturn:
		var v ast.Expr
		if st.ValueOrNil.Data != nil {
			v = o.optimizeExpr(scope, st.ValueOrNil).Expr
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SReturn{ValueOrNil: v}}

	case *ast.SThrow:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SThrow{Value: o.optimizeExpr(scope, st.Value).Expr}}

	case *ast.SBlock:
		child := scope.child()
		o.optimizeStmtsInto(st.Stmts, child)
		return blockStmt(child.getStatements())

	case *ast.SIf:
		return o.optimizeIfStmt(scope, s, st)

	case *ast.SFor:
		return o.optimizeForStmt(scope, s, st)

	case *ast.SForIn:
		return o.optimizeForInStmt(scope, s, st)

	case *ast.SForOf:
		return o.optimizeForOfStmt(scope, s, st)

	case *ast.SWhile:
		return o.optimizeWhileStmt(scope, s, st)

	case *ast.SDoWhile:
		return o.optimizeDoWhileStmt(scope, s, st)

	case *ast.SSwitch:
		return o.optimizeSwitchStmt(scope, s, st)

	case *ast.STry:
		return o.optimizeTryStmt(scope, s, st)

	case *ast.SLabel:
		child := scope.child()
		body := o.optimizeStmt(child, st.Stmt)
		if body.Data != nil {
			child.emit(body)
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SLabel{Name: st.Name, Stmt: blockStmt(child.getStatements())}}

	default:
		return s
	}
}

// stmtsOf normalizes a statement-or-block position (an if-arm or loop
// body) to the flat statement list the child scope walk wants,
// so a bare single statement and an explicit block are treated uniformly.
func stmtsOf(s ast.Stmt) []ast.Stmt {
	if s.Data == nil {
		return nil
	}
	if b, ok := s.Data.(*ast.SBlock); ok {
		return b.Stmts
	}
	return []ast.Stmt{s}
}

func (o *Optimizer) optimizeIfStmt(scope *Scope, s ast.Stmt, st *ast.SIf) ast.Stmt {
	testOE := o.optimizeExpr(scope, st.Test)

	yesScope := scope.child()
	o.optimizeStmtsInto(stmtsOf(st.Yes), yesScope)
	yesStmt := blockStmt(yesScope.getStatements())

	var noStmt ast.Stmt
	if st.NoOrNil.Data != nil {
		noScope := scope.child()
		o.optimizeStmtsInto(stmtsOf(st.NoOrNil), noScope)
		noStmt = blockStmt(noScope.getStatements())
	}

	return ast.Stmt{Loc: s.Loc, Data: &ast.SIf{Test: testOE.Expr, Yes: yesStmt, NoOrNil: noStmt}}
}

// optimizeLoopBody is the common tail of every loop statement kind
// (spec.md §4.4 "Loop"): a child scope marked as a loop body is created
// via Scope.childLoop (which declares nothing by itself: the outer
// dynamic-size branch declaration is added to the enclosing scope the
// first time the body allocates a slot of that kind), the body is walked
// into it, and
// its finalized statements — prefixed by the per-iteration branch header,
// per Scope.getStatements' isInLoop case — become the new loop body.
func (o *Optimizer) optimizeLoopBody(enclosing *Scope, body ast.Stmt) ast.Stmt {
	child := enclosing.childLoop()
	o.optimizeStmtsInto(stmtsOf(body), child)
	return blockStmt(child.getStatements())
}

func (o *Optimizer) optimizeForStmt(scope *Scope, s ast.Stmt, st *ast.SFor) ast.Stmt {
	var init ast.Stmt
	if st.InitOrNil.Data != nil {
		init = o.optimizeStmt(scope, st.InitOrNil)
	}
	var test, update ast.Expr
	if st.TestOrNil.Data != nil {
		test = o.optimizeExpr(scope, st.TestOrNil).Expr
	}
	if st.UpdateOrNil.Data != nil {
		update = o.optimizeExpr(scope, st.UpdateOrNil).Expr
	}
	body := o.optimizeLoopBody(scope, st.Body)
	return ast.Stmt{Loc: s.Loc, Data: &ast.SFor{InitOrNil: init, TestOrNil: test, UpdateOrNil: update, Body: body}}
}

// optimizeForInStmt optimizes the right-hand side in the enclosing scope
// before entering the loop body, per spec.md §4.4.
func (o *Optimizer) optimizeForInStmt(scope *Scope, s ast.Stmt, st *ast.SForIn) ast.Stmt {
	valueOE := o.optimizeExpr(scope, st.Value)
	body := o.optimizeLoopBody(scope, st.Body)
	return ast.Stmt{Loc: s.Loc, Data: &ast.SForIn{
		BindingKind: st.BindingKind, InitBinding: st.InitBinding, InitTarget: st.InitTarget,
		Value: valueOE.Expr, Body: body,
	}}
}

func (o *Optimizer) optimizeForOfStmt(scope *Scope, s ast.Stmt, st *ast.SForOf) ast.Stmt {
	valueOE := o.optimizeExpr(scope, st.Value)
	body := o.optimizeLoopBody(scope, st.Body)
	return ast.Stmt{Loc: s.Loc, Data: &ast.SForOf{
		BindingKind: st.BindingKind, InitBinding: st.InitBinding, InitTarget: st.InitTarget,
		IsAwait: st.IsAwait, Value: valueOE.Expr, Body: body,
	}}
}

func (o *Optimizer) optimizeWhileStmt(scope *Scope, s ast.Stmt, st *ast.SWhile) ast.Stmt {
	testOE := o.optimizeExpr(scope, st.Test)
	body := o.optimizeLoopBody(scope, st.Body)
	return ast.Stmt{Loc: s.Loc, Data: &ast.SWhile{Test: testOE.Expr, Body: body}}
}

func (o *Optimizer) optimizeDoWhileStmt(scope *Scope, s ast.Stmt, st *ast.SDoWhile) ast.Stmt {
	body := o.optimizeLoopBody(scope, st.Body)
	testOE := o.optimizeExpr(scope, st.Test)
	return ast.Stmt{Loc: s.Loc, Data: &ast.SDoWhile{Body: body, Test: testOE.Expr}}
}

func (o *Optimizer) optimizeSwitchStmt(scope *Scope, s ast.Stmt, st *ast.SSwitch) ast.Stmt {
	testOE := o.optimizeExpr(scope, st.Test)
	cases := make([]ast.Case, len(st.Cases))
	for i, c := range st.Cases {
		var val ast.Expr
		if c.ValueOrNil.Data != nil {
			val = o.optimizeExpr(scope, c.ValueOrNil).Expr
		}
		caseScope := scope.child()
		o.optimizeStmtsInto(c.Body, caseScope)
		cases[i] = ast.Case{ValueOrNil: val, Body: caseScope.getStatements()}
	}
	return ast.Stmt{Loc: s.Loc, Data: &ast.SSwitch{Test: testOE.Expr, Cases: cases}}
}

func (o *Optimizer) optimizeTryStmt(scope *Scope, s ast.Stmt, st *ast.STry) ast.Stmt {
	bodyScope := scope.child()
	o.optimizeStmtsInto(st.Body, bodyScope)

	var catch *ast.Catch
	if st.Catch != nil {
		catchScope := scope.child()
		o.optimizeStmtsInto(st.Catch.Body, catchScope)
		catch = &ast.Catch{BindingOrNil: st.Catch.BindingOrNil, Body: catchScope.getStatements()}
	}

	var finallyStmts []ast.Stmt
	if st.FinallyOrNil != nil {
		finallyScope := scope.child()
		o.optimizeStmtsInto(st.FinallyOrNil, finallyScope)
		finallyStmts = finallyScope.getStatements()
	}

	return ast.Stmt{Loc: s.Loc, Data: &ast.STry{Body: bodyScope.getStatements(), Catch: catch, FinallyOrNil: finallyStmts}}
}

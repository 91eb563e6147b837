package memo

import "github.com/juncdeinda/forgetti/internal/ast"

// Simplify is the pre-pass spec.md §4.6 describes: a small constant-folder
// that collapses conditionals and logical expressions whose test is
// statically determinate, so the Optimizer sees fewer indeterminate
// branches to allocate branch scopes for. Grounded on the same shape as
// esbuild's mangleStmts/mangleIf/mangleIfExpr, narrowed to the
// truthy/falsy/nullish/indeterminate lattice this spec defines (arrays,
// objects and functions are always indeterminate, since reference-to-
// primitive coercion makes their truthiness a runtime host behavior, not
// a property of the literal).
func Simplify(stmts []ast.Stmt) []ast.Stmt {
	return simplifyStmts(stmts)
}

type truthiness uint8

const (
	determYes truthiness = iota
	determNo
	determNullish
	indeterminate
)

func isDeterminate(t truthiness) bool { return t != indeterminate }

// isFalsyOrNullish covers the two "goes to the else branch" cases spec.md
// §4.6 groups together for conditionals, if-statements and while-tests.
func isFalsyOrNullish(t truthiness) bool { return t == determNo || t == determNullish }

func classify(expr ast.Expr) truthiness {
	switch e := expr.Data.(type) {
	case *ast.EBoolean:
		if e.Value {
			return determYes
		}
		return determNo
	case *ast.ENull:
		return determNullish
	case *ast.EUndefined:
		return determNullish
	case *ast.ENumber:
		if e.Value == 0 || e.Value != e.Value { // includes NaN, which is falsy
			return determNo
		}
		return determYes
	case *ast.EString:
		if e.Value == "" {
			return determNo
		}
		return determYes
	case *ast.EBigInt:
		if e.Value == "0" {
			return determNo
		}
		return determYes
	default:
		return indeterminate
	}
}

func simplifyStmts(stmts []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		rewritten := simplifyStmt(s)
		if rewritten.Data != nil {
			out = append(out, rewritten)
		}
	}
	return out
}

func simplifyStmt(s ast.Stmt) ast.Stmt {
	switch st := s.Data.(type) {
	case *ast.SIf:
		test := simplifyExpr(st.Test)
		cls := classify(test)
		if cls == determYes {
			return simplifyStmt(st.Yes)
		}
		if isFalsyOrNullish(cls) {
			if st.NoOrNil.Data != nil {
				return simplifyStmt(st.NoOrNil)
			}
			return ast.Stmt{}
		}
		var no ast.Stmt
		if st.NoOrNil.Data != nil {
			no = simplifyStmt(st.NoOrNil)
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SIf{Test: test, Yes: simplifyStmt(st.Yes), NoOrNil: no}}

	case *ast.SWhile:
		test := simplifyExpr(st.Test)
		if isFalsyOrNullish(classify(test)) {
			return ast.Stmt{}
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SWhile{Test: test, Body: simplifyStmt(st.Body)}}

	case *ast.SBlock:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SBlock{Stmts: simplifyStmts(st.Stmts)}}

	case *ast.SExpr:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SExpr{Value: simplifyExpr(st.Value)}}

	case *ast.SLocal:
		decls := make([]ast.Decl, len(st.Decls))
		for i, d := range st.Decls {
			var v ast.Expr
			if d.ValueOrNil.Data != nil {
				v = simplifyExpr(d.ValueOrNil)
			}
			decls[i] = ast.Decl{Binding: d.Binding, ValueOrNil: v}
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SLocal{Kind: st.Kind, Decls: decls}}

	case *ast.SReturn:
		var v ast.Expr
		if st.ValueOrNil.Data != nil {
			v = simplifyExpr(st.ValueOrNil)
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SReturn{ValueOrNil: v}}

	case *ast.SThrow:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SThrow{Value: simplifyExpr(st.Value)}}

	case *ast.SFor:
		var init ast.Stmt
		if st.InitOrNil.Data != nil {
			init = simplifyStmt(st.InitOrNil)
		}
		var test, update ast.Expr
		if st.TestOrNil.Data != nil {
			test = simplifyExpr(st.TestOrNil)
		}
		if st.UpdateOrNil.Data != nil {
			update = simplifyExpr(st.UpdateOrNil)
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SFor{InitOrNil: init, TestOrNil: test, UpdateOrNil: update, Body: simplifyStmt(st.Body)}}

	case *ast.SForIn:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SForIn{
			BindingKind: st.BindingKind, InitBinding: st.InitBinding, InitTarget: st.InitTarget,
			Value: simplifyExpr(st.Value), Body: simplifyStmt(st.Body),
		}}

	case *ast.SForOf:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SForOf{
			BindingKind: st.BindingKind, InitBinding: st.InitBinding, InitTarget: st.InitTarget,
			IsAwait: st.IsAwait, Value: simplifyExpr(st.Value), Body: simplifyStmt(st.Body),
		}}

	case *ast.SDoWhile:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SDoWhile{Body: simplifyStmt(st.Body), Test: simplifyExpr(st.Test)}}

	case *ast.SSwitch:
		cases := make([]ast.Case, len(st.Cases))
		for i, c := range st.Cases {
			var v ast.Expr
			if c.ValueOrNil.Data != nil {
				v = simplifyExpr(c.ValueOrNil)
			}
			cases[i] = ast.Case{ValueOrNil: v, Body: simplifyStmts(c.Body)}
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.SSwitch{Test: simplifyExpr(st.Test), Cases: cases}}

	case *ast.STry:
		var catch *ast.Catch
		if st.Catch != nil {
			catch = &ast.Catch{BindingOrNil: st.Catch.BindingOrNil, Body: simplifyStmts(st.Catch.Body)}
		}
		var finallyStmts []ast.Stmt
		if st.FinallyOrNil != nil {
			finallyStmts = simplifyStmts(st.FinallyOrNil)
		}
		return ast.Stmt{Loc: s.Loc, Data: &ast.STry{Body: simplifyStmts(st.Body), Catch: catch, FinallyOrNil: finallyStmts}}

	case *ast.SLabel:
		return ast.Stmt{Loc: s.Loc, Data: &ast.SLabel{Name: st.Name, Stmt: simplifyStmt(st.Stmt)}}

	default:
		return s
	}
}

func simplifyExpr(expr ast.Expr) ast.Expr {
	if expr.Data == nil {
		return expr
	}
	switch e := expr.Data.(type) {
	case *ast.EIf:
		test := simplifyExpr(e.Test)
		cls := classify(test)
		if cls == determYes {
			return simplifyExpr(e.Yes)
		}
		if isFalsyOrNullish(cls) {
			return simplifyExpr(e.No)
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EIf{Test: test, Yes: simplifyExpr(e.Yes), No: simplifyExpr(e.No)}}

	case *ast.EBinary:
		if e.Op.IsLogical() {
			left := simplifyExpr(e.Left)
			cls := classify(left)
			switch e.Op {
			case ast.BinOpNullishCoalescing:
				if cls == determNullish {
					return simplifyExpr(e.Right)
				}
				if isDeterminate(cls) {
					return left
				}
			case ast.BinOpLogicalOr:
				if cls == determNo {
					return simplifyExpr(e.Right)
				}
				if cls == determYes {
					return left
				}
			case ast.BinOpLogicalAnd:
				if cls == determYes {
					return simplifyExpr(e.Right)
				}
				if isFalsyOrNullish(cls) {
					return left
				}
			}
			return ast.Expr{Loc: expr.Loc, Data: &ast.EBinary{Op: e.Op, Left: left, Right: simplifyExpr(e.Right)}}
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EBinary{Op: e.Op, Left: simplifyExpr(e.Left), Right: simplifyExpr(e.Right)}}

	case *ast.EUnary:
		value := simplifyExpr(e.Value)
		switch e.Op {
		case ast.UnOpVoid:
			if isDeterminate(classify(value)) {
				return ast.Expr{Loc: expr.Loc, Data: &ast.EUnary{Op: ast.UnOpVoid, Value: ast.Expr{Data: &ast.ENumber{Value: 0}}}}
			}
		case ast.UnOpNot:
			cls := classify(value)
			if cls == determYes {
				return ast.Expr{Loc: expr.Loc, Data: &ast.EBoolean{Value: false}}
			}
			if isFalsyOrNullish(cls) {
				return ast.Expr{Loc: expr.Loc, Data: &ast.EBoolean{Value: true}}
			}
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EUnary{Op: e.Op, Value: value}}

	case *ast.EDot:
		return ast.Expr{Loc: expr.Loc, Data: &ast.EDot{Target: simplifyExpr(e.Target), Name: e.Name, NameLoc: e.NameLoc}}

	case *ast.EIndex:
		return ast.Expr{Loc: expr.Loc, Data: &ast.EIndex{Target: simplifyExpr(e.Target), Index: simplifyExpr(e.Index)}}

	case *ast.ECall:
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = simplifyExpr(a)
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.ECall{Target: simplifyExpr(e.Target), Args: args}}

	case *ast.ENew:
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = simplifyExpr(a)
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.ENew{Target: simplifyExpr(e.Target), Args: args}}

	case *ast.EArray:
		items := make([]ast.Expr, len(e.Items))
		for i, item := range e.Items {
			items[i] = simplifyExpr(item)
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EArray{Items: items, IsSingleLine: e.IsSingleLine}}

	case *ast.EObject:
		props := make([]ast.Property, len(e.Properties))
		for i, p := range e.Properties {
			key := p.Key
			if p.IsComputed {
				key = simplifyExpr(p.Key)
			}
			props[i] = ast.Property{Kind: p.Kind, Key: key, ValueOrNil: simplifyExpr(p.ValueOrNil), IsComputed: p.IsComputed}
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EObject{Properties: props, IsSingleLine: e.IsSingleLine}}

	case *ast.ESpread:
		return ast.Expr{Loc: expr.Loc, Data: &ast.ESpread{Value: simplifyExpr(e.Value)}}

	case *ast.ETemplate:
		parts := make([]ast.TemplatePart, len(e.Parts))
		for i, p := range e.Parts {
			parts[i] = ast.TemplatePart{Value: simplifyExpr(p.Value), Tail: p.Tail}
		}
		var tag *ast.Expr
		if e.Tag != nil {
			t := simplifyExpr(*e.Tag)
			tag = &t
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.ETemplate{Tag: tag, Head: e.Head, Parts: parts}}

	case *ast.EAwait:
		return ast.Expr{Loc: expr.Loc, Data: &ast.EAwait{Value: simplifyExpr(e.Value)}}

	case *ast.EYield:
		var v ast.Expr
		if e.ValueOrNil.Data != nil {
			v = simplifyExpr(e.ValueOrNil)
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EYield{ValueOrNil: v, IsStar: e.IsStar}}

	case *ast.EJSXElement:
		props := make([]ast.JSXProperty, len(e.Properties))
		for i, p := range e.Properties {
			key := p.Key
			if !p.IsSpread {
				key = simplifyExpr(p.Key)
			}
			props[i] = ast.JSXProperty{Key: key, ValueOrNil: simplifyExpr(p.ValueOrNil), IsSpread: p.IsSpread}
		}
		children := make([]ast.Expr, len(e.Children))
		for i, c := range e.Children {
			children[i] = simplifyExpr(c)
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EJSXElement{Tag: e.Tag, Properties: props, Children: children}}

	case *ast.EArrow:
		if e.PreferExpr {
			return ast.Expr{Loc: expr.Loc, Data: &ast.EArrow{
				Args: e.Args, PreferExpr: true, PreferExprValue: simplifyExpr(e.PreferExprValue),
				IsAsync: e.IsAsync, HasRestArg: e.HasRestArg,
			}}
		}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EArrow{
			Args: e.Args, Body: ast.FnBody{Loc: e.Body.Loc, Stmts: simplifyStmts(e.Body.Stmts)},
			IsAsync: e.IsAsync, HasRestArg: e.HasRestArg,
		}}

	case *ast.EFunction:
		fn := e.Fn
		fn.Body = ast.FnBody{Loc: e.Fn.Body.Loc, Stmts: simplifyStmts(e.Fn.Body.Stmts)}
		return ast.Expr{Loc: expr.Loc, Data: &ast.EFunction{Fn: fn}}

	default:
		return expr
	}
}

package ast

import "github.com/juncdeinda/forgetti/internal/logger"

// JoinWithLeftAssociativeOp builds "a op b", or returns whichever side is
// present when the other is the zero Expr — used by the Optimizer to fold
// a list of dependency expressions with "&&" (spec.md §4.2 createMemo
// guard construction) the same way the teacher folds conditions when
// mangling "if" statements (js_parser.go mangleIf).
func JoinWithLeftAssociativeOp(op OpCode, a Expr, b Expr) Expr {
	if a.Data == nil {
		return b
	}
	if b.Data == nil {
		return a
	}
	return Expr{Loc: a.Loc, Data: &EBinary{Op: op, Left: a, Right: b}}
}

func JoinAllWithLeftAssociativeOp(op OpCode, all []Expr) (result Expr) {
	for _, value := range all {
		result = JoinWithLeftAssociativeOp(op, result, value)
	}
	return
}

func JoinWithComma(a Expr, b Expr) Expr {
	if a.Data == nil {
		return b
	}
	if b.Data == nil {
		return a
	}
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpComma, Left: a, Right: b}}
}

// Not builds the logical negation of expr, collapsing a double negation
// the same way the teacher's js_ast.Not does, so the Simplifier doesn't
// need a special case for "!!x".
func Not(expr Expr) Expr {
	if u, ok := expr.Data.(*EUnary); ok && u.Op == UnOpNot {
		return u.Value
	}
	return Expr{Loc: expr.Loc, Data: &EUnary{Op: UnOpNot, Value: expr}}
}

// Ident builds a fresh read of ref at loc.
func Ident(loc logger.Loc, ref Ref) Expr {
	return Expr{Loc: loc, Data: &EIdentifier{Ref: ref}}
}

func Bool(loc logger.Loc, v bool) Expr {
	return Expr{Loc: loc, Data: &EBoolean{Value: v}}
}

func Num(loc logger.Loc, v float64) Expr {
	return Expr{Loc: loc, Data: &ENumber{Value: v}}
}

func SameIdentifier(a Expr, b Expr) bool {
	ai, ok := a.Data.(*EIdentifier)
	if !ok {
		return false
	}
	bi, ok := b.Data.(*EIdentifier)
	return ok && ai.Ref == bi.Ref
}

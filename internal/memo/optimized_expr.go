// Package memo implements the Optimizer: the recursive AST-to-AST
// transform spec.md describes (§2-§4). It is the direct analogue of
// esbuild's internal/js_parser visitor (visitExprInOut / visitStmts /
// mangleStmts), generalized from "lower unsupported syntax, fold constants
// for minification" to "memoize non-trivial sub-expressions against a
// per-invocation cache" — same recursive-descent-with-a-scope-stack shape,
// different rewrite goal.
package memo

import "github.com/juncdeinda/forgetti/internal/ast"

// OptimizedExpression is the triple spec.md §3 defines: the (possibly
// rewritten) expression, its dependency list, and whether it has been
// proven invariant across invocations.
//
// Deps is nil for "no dependencies" (covers both the constant and the
// "omitted" cases — callers that care about the difference also check
// Constant) and holds one or more entries otherwise; createMemo's contract
// (spec.md §4.2) treats a single-entry Deps identically to a bare
// dependency expression.
type OptimizedExpression struct {
	Expr     ast.Expr
	Deps     []ast.Expr
	Constant bool
}

// Const wraps expr as a proven-invariant OptimizedExpression with no
// dependencies — the literal/nested-wrapper/foreign-identifier case.
func Const(expr ast.Expr) OptimizedExpression {
	return OptimizedExpression{Expr: expr, Constant: true}
}

// Plain wraps expr with the given dependencies and constant=false.
func Plain(expr ast.Expr, deps ...ast.Expr) OptimizedExpression {
	return OptimizedExpression{Expr: expr, Deps: nonNilDeps(deps)}
}

func nonNilDeps(deps []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, 0, len(deps))
	for _, d := range deps {
		if d.Data != nil {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

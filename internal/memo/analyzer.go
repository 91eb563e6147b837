package memo

import (
	"github.com/juncdeinda/forgetti/internal/ast"
	"github.com/juncdeinda/forgetti/internal/config"
)

// ExprAnalyzer implements the two judgments spec.md §4.1 names:
// isConstant and classifyHookCall. It holds no state of its own beyond a
// back-reference to the owning Optimizer (for the component's lexical
// boundary, the preset, and the symbol table needed to resolve a callee
// to its bare name) plus a per-node memo table, mirroring esbuild's habit
// of caching visit results keyed by node identity (js_parser's
// isUnbound/knownGlobal caches).
type ExprAnalyzer struct {
	owner *Optimizer
	cache map[ast.E]bool
}

func NewExprAnalyzer(owner *Optimizer) *ExprAnalyzer {
	return &ExprAnalyzer{owner: owner, cache: make(map[ast.E]bool)}
}

// isConstant reports whether expr can be proven invariant across
// invocations, consulting only the constants sets of scope's chain: every
// identifier it reads is foreign to the component, a global, or already
// in a scope's constants set, and it contains nothing the runtime
// contract forbids treating as pure (hook calls, assignments,
// yield/await, memoizable JSX, or a call/member-read on a non-constant
// receiver).
func (a *ExprAnalyzer) isConstant(scope *Scope, expr ast.Expr) bool {
	if expr.Data == nil {
		return true
	}
	if v, ok := a.cache[expr.Data]; ok {
		return v
	}
	result := a.computeConstant(scope, expr)
	a.cache[expr.Data] = result
	return result
}

func (a *ExprAnalyzer) computeConstant(scope *Scope, expr ast.Expr) bool {
	switch e := expr.Data.(type) {
	case *ast.EBoolean, *ast.ENull, *ast.EUndefined, *ast.ENumber, *ast.EBigInt, *ast.EString, *ast.ERegExp, *ast.EThis, *ast.EMissing:
		return true
	case *ast.EIdentifier:
		return a.isForeignOrConstant(scope, e.Ref)
	case *ast.EUnary:
		return a.isConstant(scope, e.Value)
	case *ast.EBinary:
		if e.Op.BinaryAssignTarget() != ast.AssignTargetNone {
			return false
		}
		return a.isConstant(scope, e.Left) && a.isConstant(scope, e.Right)
	case *ast.EDot:
		return a.isConstant(scope, e.Target)
	case *ast.EIndex:
		return a.isConstant(scope, e.Target) && a.isConstant(scope, e.Index)
	case *ast.ECall:
		if kind := a.classifyHookCall(e); kind != config.HookNone && kind != config.HookSkip {
			return false
		}
		if !a.isConstant(scope, e.Target) {
			return false
		}
		for _, arg := range e.Args {
			if !a.isConstant(scope, arg) {
				return false
			}
		}
		return true
	case *ast.ENew:
		if !a.isConstant(scope, e.Target) {
			return false
		}
		for _, arg := range e.Args {
			if !a.isConstant(scope, arg) {
				return false
			}
		}
		return true
	case *ast.EArray:
		for _, item := range e.Items {
			if !a.isConstant(scope, item) {
				return false
			}
		}
		return true
	case *ast.EObject:
		for _, p := range e.Properties {
			if p.IsComputed && !a.isConstant(scope, p.Key) {
				return false
			}
			if !a.isConstant(scope, p.ValueOrNil) {
				return false
			}
		}
		return true
	case *ast.ESpread:
		return a.isConstant(scope, e.Value)
	case *ast.EIf:
		return a.isConstant(scope, e.Test) && a.isConstant(scope, e.Yes) && a.isConstant(scope, e.No)
	case *ast.ETemplate:
		return false
	case *ast.EAwait, *ast.EYield:
		return false
	case *ast.EJSXElement:
		return !a.owner.Preset.JSXMemo
	case *ast.EArrow, *ast.EFunction:
		return false
	default:
		return true
	}
}

// isForeignOrConstant is the identifier leaf of isConstant: true when ref
// resolves outside the component's lexical boundary, or has already been
// proven invariant in the active scope chain.
func (a *ExprAnalyzer) isForeignOrConstant(scope *Scope, ref ast.Ref) bool {
	if scope != nil && scope.IsConstant(ref) {
		return true
	}
	if a.owner.componentScope == nil {
		return true
	}
	return !a.owner.componentScope.Contains(ref, a.owner.componentScope)
}

// classifyHookCall resolves a call expression's callee against the
// preset, returning the HookKind the statement/expression dispatch in
// hooks.go specializes on.
func (a *ExprAnalyzer) classifyHookCall(call *ast.ECall) config.HookKind {
	return a.owner.Preset.Classify(a.calleeName(call.Target))
}

// calleeName extracts the bare identifier name of a call target when it
// is a direct, unqualified reference; member-expression and other callee
// shapes never match a configured hook name.
func (a *ExprAnalyzer) calleeName(target ast.Expr) string {
	id, ok := target.Data.(*ast.EIdentifier)
	if !ok {
		return ""
	}
	return a.owner.symbols.Get(id.Ref).OriginalName
}

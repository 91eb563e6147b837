package memo

import (
	"github.com/juncdeinda/forgetti/internal/ast"
	"github.com/juncdeinda/forgetti/internal/config"
	"github.com/juncdeinda/forgetti/internal/logger"
)

// optimizeCall dispatches a call expression by classifyHookCall, per
// spec.md §4.3. HookSkip is folded into HookNone's treatment, per the
// open question in spec.md §9: "the pass should treat such calls as
// none-equivalent unless future specification distinguishes them."
func (o *Optimizer) optimizeCall(scope *Scope, loc logger.Loc, call *ast.ECall) OptimizedExpression {
	switch o.analyzer.classifyHookCall(call) {
	case config.HookMemo:
		return o.hookMemo(scope, loc, call)
	case config.HookCallback:
		return o.hookCallback(scope, loc, call)
	case config.HookRef:
		return o.hookRef(scope, call)
	case config.HookEffect:
		return o.hookEffect(scope, loc, call)
	case config.HookCustom:
		return o.hookCustom(scope, call)
	default: // HookNone, HookSkip
		return o.hookOrdinaryCall(scope, call)
	}
}

// explicitDeps optimizes a supplied dependency-list expression. A literal
// array is decomposed element-by-element (spec.md §4.3 "optimize it to
// obtain its dependency list"); any other expression shape is treated as
// a single dependency.
func (o *Optimizer) explicitDeps(scope *Scope, depsExpr ast.Expr) []ast.Expr {
	if arr, ok := depsExpr.Data.(*ast.EArray); ok {
		out := make([]ast.Expr, 0, len(arr.Items))
		for _, item := range arr.Items {
			out = append(out, o.optimizeExpr(scope, item).Expr)
		}
		return out
	}
	return []ast.Expr{o.optimizeExpr(scope, depsExpr).Expr}
}

// inlineCallBody extracts the value an immediately-invoked callback
// computes, so that e.g. `useMemo(() => compute(), deps)` memoizes
// `compute()` directly rather than memoizing a freshly re-created closure
// and then a separate call to it. Arrows with a block body (anything
// requiring statement-level control flow inside the callback) fall back
// to memoizing an explicit call to the rewritten function, a documented
// simplification: such a body is not walked by the statement dispatch,
// only its outer call site is.
func (o *Optimizer) inlineCallBody(scope *Scope, fn ast.Expr) ast.Expr {
	if arrow, ok := fn.Data.(*ast.EArrow); ok && arrow.PreferExpr {
		return o.optimizeExpr(scope, arrow.PreferExprValue).Expr
	}
	fnOE := o.optimizeExpr(scope, fn)
	return ast.Expr{Data: &ast.ECall{Target: fnOE.Expr}}
}

// hookMemo is `memo(fn, deps?)`.
func (o *Optimizer) hookMemo(scope *Scope, loc logger.Loc, call *ast.ECall) OptimizedExpression {
	if len(call.Args) == 0 {
		o.abort(loc, "expected a function argument")
		return OptimizedExpression{}
	}
	fn := call.Args[0]
	var deps []ast.Expr
	if len(call.Args) >= 2 {
		deps = o.explicitDeps(scope, call.Args[1])
	} else {
		deps = o.freeVarDeps(scope, fn)
	}
	body := o.inlineCallBody(scope, fn)
	return o.createMemo(scope, KindMemo, body, deps, len(deps) == 0)
}

// hookCallback is `callback(fn, deps?)`: same dependency derivation as
// hookMemo, but createMemo wraps fn itself rather than a call to it.
func (o *Optimizer) hookCallback(scope *Scope, loc logger.Loc, call *ast.ECall) OptimizedExpression {
	if len(call.Args) == 0 {
		o.abort(loc, "expected a function argument")
		return OptimizedExpression{}
	}
	fn := call.Args[0]
	var deps []ast.Expr
	if len(call.Args) >= 2 {
		deps = o.explicitDeps(scope, call.Args[1])
	} else {
		deps = o.freeVarDeps(scope, fn)
	}
	return o.createMemo(scope, KindMemo, fn, deps, len(deps) == 0)
}

// hookRef is `ref(init?)`: synthesizes `{ current: init ?? void 0 }` and
// stores it one-time on the ref cache.
func (o *Optimizer) hookRef(scope *Scope, call *ast.ECall) OptimizedExpression {
	var init ast.Expr
	if len(call.Args) > 0 {
		arg := call.Args[0]
		if spread, ok := arg.Data.(*ast.ESpread); ok {
			init = ast.Expr{Data: &ast.EIndex{Target: spread.Value, Index: ast.Expr{Data: &ast.ENumber{Value: 0}}}}
		} else {
			init = arg
		}
	} else {
		init = ast.Expr{Data: ast.EUndefinedShared}
	}
	initOE := o.optimizeExpr(scope, init)
	obj := ast.Expr{Data: &ast.EObject{Properties: []ast.Property{
		{Kind: ast.PropertyNormal, Key: ast.Expr{Data: &ast.EString{Value: "current"}}, ValueOrNil: initOE.Expr},
	}}}
	return o.createMemo(scope, KindRef, obj, nil, true)
}

// hookEffect is `effect(fn, deps?)`: the call is left in place (never
// cached itself) but its second argument is normalized to an array
// literal of the dependency expressions, so it flows to enclosing
// guards without itself allocating a slot.
func (o *Optimizer) hookEffect(scope *Scope, loc logger.Loc, call *ast.ECall) OptimizedExpression {
	if len(call.Args) == 0 {
		o.abort(loc, "expected a function argument")
		return OptimizedExpression{}
	}
	fn := call.Args[0]
	fnOE := o.optimizeExpr(scope, fn)

	var depsArr ast.Expr
	if len(call.Args) >= 2 {
		deps := o.explicitDeps(scope, call.Args[1])
		depsArr = ast.Expr{Data: &ast.EArray{Items: deps}}
	} else {
		depsArr = ast.Expr{Data: &ast.EArray{Items: []ast.Expr{fnOE.Expr}}}
	}

	rebuilt := ast.Expr{Data: &ast.ECall{Target: call.Target, Args: []ast.Expr{fnOE.Expr, depsArr}}}
	return OptimizedExpression{Expr: rebuilt, Deps: nonNilDeps(depsArr.Data.(*ast.EArray).Items)}
}

// hookCustom memoizes the callee and arguments as dependencies but leaves
// the call itself unmemoized, since a user-declared hook is assumed
// stateful.
func (o *Optimizer) hookCustom(scope *Scope, call *ast.ECall) OptimizedExpression {
	targetOE := o.optimizeExpr(scope, call.Target)
	args, argDeps, _ := o.optimizeArgList(scope, call.Args)
	rebuilt := ast.Expr{Data: &ast.ECall{Target: targetOE.Expr, Args: args}}
	deps := argDeps
	if !targetOE.Constant {
		deps = append([]ast.Expr{targetOE.Expr}, deps...)
	}
	return OptimizedExpression{Expr: rebuilt, Deps: nonNilDeps(deps)}
}

// hookOrdinaryCall is `none`: callee and arguments are memoized as
// dependencies, then the whole call is wrapped in createMemo.
func (o *Optimizer) hookOrdinaryCall(scope *Scope, call *ast.ECall) OptimizedExpression {
	targetOE := o.optimizeExpr(scope, call.Target)
	args, argDeps, argsConstant := o.optimizeArgList(scope, call.Args)
	rebuilt := ast.Expr{Data: &ast.ECall{Target: targetOE.Expr, Args: args}}
	if targetOE.Constant && argsConstant {
		return Const(rebuilt)
	}
	deps := argDeps
	if !targetOE.Constant {
		deps = append([]ast.Expr{targetOE.Expr}, deps...)
	}
	return o.createMemo(scope, KindMemo, rebuilt, deps, false)
}

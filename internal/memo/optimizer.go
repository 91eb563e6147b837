package memo

import (
	"github.com/juncdeinda/forgetti/internal/ast"
	"github.com/juncdeinda/forgetti/internal/config"
	"github.com/juncdeinda/forgetti/internal/logger"
)

// Optimizer is the recursive descent transformer spec.md §2 and §4
// describe. One Optimizer rewrites exactly one component; it owns the
// symbol table for the fresh bindings it mints (headers, guards, memoized
// values) and the current position in the Scope tree (spec.md §5: a
// single descent with explicit save/restore of "current scope").
type Optimizer struct {
	Log    *logger.Log
	Preset *config.Preset

	symbols    *ast.SymbolMap
	outerIndex uint32

	// componentScope is the lexical boundary (spec.md §4.1): identifiers
	// resolving outside it are foreign/global and therefore constant.
	componentScope *ast.Scope

	analyzer *ExprAnalyzer

	runtimeRefs map[string]ast.Ref

	aborted bool
}

// NewOptimizer builds an Optimizer for one component. symbols is the
// SymbolMap the fresh identifiers this pass mints get appended to, at
// outerIndex; componentScope is the lexical scope of the component
// function body.
func NewOptimizer(log *logger.Log, preset *config.Preset, symbols *ast.SymbolMap, outerIndex uint32, componentScope *ast.Scope) *Optimizer {
	o := &Optimizer{
		Log:            log,
		Preset:         preset,
		symbols:        symbols,
		outerIndex:     outerIndex,
		componentScope: componentScope,
		runtimeRefs:    make(map[string]ast.Ref),
	}
	o.analyzer = NewExprAnalyzer(o)
	return o
}

// OptimizeComponent rewrites a component body in place and returns the new
// statement list. It returns ok=false if the log picked up an error
// (spec.md §7: no partial rewrite — callers must discard the result and
// keep the original input when ok is false).
func (o *Optimizer) OptimizeComponent(body []ast.Stmt) ([]ast.Stmt, bool) {
	simplified := Simplify(body)
	root := newRootScope(o)
	o.optimizeStmtsInto(simplified, root)
	if o.aborted || o.Log.HasErrors() {
		return nil, false
	}
	return root.getStatements(), true
}

func (o *Optimizer) abort(loc logger.Loc, format string, args ...interface{}) {
	o.aborted = true
	o.Log.AddErrorf(loc, format, args...)
}

// freshTemp mints a new synthetic binding with the given name prefix,
// appended to this component's slice of the shared SymbolMap.
func (o *Optimizer) freshTemp(prefix string) ast.Ref {
	slice := o.symbols.Outer[o.outerIndex]
	idx := uint32(len(slice))
	name := prefix
	if idx > 0 {
		name = prefix + itoa(idx)
	}
	o.symbols.Outer[o.outerIndex] = append(slice, ast.Symbol{OriginalName: name, Kind: ast.SymbolOther})
	return ast.Ref{OuterIndex: o.outerIndex, InnerIndex: idx}
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	digits := [10]byte{}
	n := len(digits)
	for v > 0 {
		n--
		digits[n] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[n:])
}

// runtimeRef resolves a logical runtime import name (spec.md §6: "cache",
// "ref", "branch", "equals", plus the underlying host hooks "useMemo" and
// "useRef") to a Ref the printer will render using the preset's
// ImportResolver, deduplicating per logical name within this component.
func (o *Optimizer) runtimeRef(logicalName string) ast.Ref {
	if ref, ok := o.runtimeRefs[logicalName]; ok {
		return ref
	}
	localName := logicalName
	if o.Preset != nil && o.Preset.ResolveImport != nil {
		localName = o.Preset.ResolveImport(logicalName)
	}
	slice := o.symbols.Outer[o.outerIndex]
	idx := uint32(len(slice))
	o.symbols.Outer[o.outerIndex] = append(slice, ast.Symbol{OriginalName: localName, Kind: ast.SymbolOther})
	ref := ast.Ref{OuterIndex: o.outerIndex, InnerIndex: idx}
	o.runtimeRefs[logicalName] = ref
	return ref
}

func (o *Optimizer) branchCall(header ast.Expr, slot ast.Expr, size int) ast.Expr {
	return ast.Expr{Data: &ast.ECall{
		Target: identExprValue(o.runtimeRef(o.Preset.Runtime.Branch)),
		Args:   []ast.Expr{header, slot, {Data: &ast.ENumber{Value: float64(size)}}},
	}}
}

func (o *Optimizer) rootCacheCall(kind CacheKind, size int) ast.Expr {
	if kind == KindRef {
		return ast.Expr{Data: &ast.ECall{
			Target: identExprValue(o.runtimeRef(o.Preset.Runtime.Ref)),
			Args:   []ast.Expr{identExprValue(o.runtimeRef(o.Preset.Runtime.UseRef)), {Data: &ast.ENumber{Value: float64(size)}}},
		}}
	}
	return ast.Expr{Data: &ast.ECall{
		Target: identExprValue(o.runtimeRef(o.Preset.Runtime.Cache)),
		Args:   []ast.Expr{identExprValue(o.runtimeRef(o.Preset.Runtime.UseMemo)), {Data: &ast.ENumber{Value: float64(size)}}},
	}}
}

func (o *Optimizer) equalsCall(header ast.Expr, idx ast.Expr, value ast.Expr) ast.Expr {
	return ast.Expr{Data: &ast.ECall{
		Target: identExprValue(o.runtimeRef(o.Preset.Runtime.Equals)),
		Args:   []ast.Expr{header, idx, value},
	}}
}

func declStmt(kind ast.LocalKind, ref ast.Ref, value ast.Expr) ast.Stmt {
	return ast.Stmt{Data: &ast.SLocal{Kind: kind, Decls: []ast.Decl{
		{Binding: identBinding(ref), ValueOrNil: value},
	}}}
}

// foldDeps reduces dependency expressions left-to-right with "&&",
// skipping duplicate *identifier* dependencies by binding identity rather
// than by name (spec.md §9 "Duplicate dependency elision": two different
// bindings that happen to share a name must not collapse). Non-identifier
// dependencies are concatenated verbatim since their own memoization
// already guarantees their freshness.
func foldDeps(deps []ast.Expr) ast.Expr {
	var result ast.Expr
	seen := make(map[ast.Ref]bool)
	for _, d := range deps {
		if id, ok := d.Data.(*ast.EIdentifier); ok {
			if seen[id.Ref] {
				continue
			}
			seen[id.Ref] = true
		}
		result = ast.JoinWithLeftAssociativeOp(ast.BinOpLogicalAnd, result, d)
	}
	return result
}

// createMemo is the central primitive spec.md §4.2 specifies. kind selects
// which cache scope.header serves (memo or ref); oneTime requests the
// single-evaluation constant form; deps, when non-empty, is AND-folded
// into the guard, otherwise an equals() runtime guard is synthesized.
func (o *Optimizer) createMemo(scope *Scope, kind CacheKind, expr ast.Expr, deps []ast.Expr, oneTime bool) OptimizedExpression {
	header := scope.header(kind)
	i := scope.allocSlot(kind)
	idxExpr := ast.Expr{Data: &ast.ENumber{Value: float64(i)}}
	slotExpr := ast.Expr{Data: &ast.EIndex{Target: header, Index: idxExpr}}
	v := o.freshTemp("_v")

	if oneTime {
		inCheck := ast.Expr{Data: &ast.EBinary{Op: ast.BinOpIn, Left: idxExpr, Right: header}}
		assign := ast.Expr{Data: &ast.EBinary{Op: ast.BinOpAssign, Left: slotExpr, Right: expr}}
		value := ast.Expr{Data: &ast.EIf{Test: inCheck, Yes: slotExpr, No: assign}}
		scope.emit(declStmt(ast.LocalLet, v, value))
		scope.markConstant(v)
		result := OptimizedExpression{Expr: identExprValue(v), Constant: true}
		o.linkOptimized(scope, expr, v, result)
		return result
	}

	var guard ast.Expr
	if len(deps) == 0 {
		guard = o.equalsCall(header, idxExpr, expr)
	} else {
		guard = foldDeps(deps)
	}

	var eqExpr ast.Expr
	if _, ok := guard.Data.(*ast.EIdentifier); ok {
		eqExpr = guard
	} else {
		eq := o.freshTemp("_e")
		scope.emit(declStmt(ast.LocalLet, eq, guard))
		eqExpr = identExprValue(eq)
	}

	assign := ast.Expr{Data: &ast.EBinary{Op: ast.BinOpAssign, Left: slotExpr, Right: expr}}
	value := ast.Expr{Data: &ast.EIf{Test: eqExpr, Yes: slotExpr, No: assign}}
	scope.emit(declStmt(ast.LocalLet, v, value))

	result := OptimizedExpression{Expr: identExprValue(v), Deps: nonNilDeps(deps)}
	o.linkOptimized(scope, expr, v, result)
	return result
}

// linkOptimized records the scope de-duplication entries spec.md §4.2
// describes: "If expr was itself an identifier, record the mapping
// expr -> result ... Also record v -> result".
func (o *Optimizer) linkOptimized(scope *Scope, expr ast.Expr, v ast.Ref, result OptimizedExpression) {
	if id, ok := expr.Data.(*ast.EIdentifier); ok {
		scope.recordOptimized(id.Ref, result)
	}
	scope.recordOptimized(v, result)
}

package memo

import (
	"strings"
	"testing"

	"github.com/juncdeinda/forgetti/internal/ast"
	"github.com/juncdeinda/forgetti/internal/config"
	"github.com/juncdeinda/forgetti/internal/logger"
)

// appendSymbol appends a fresh unbound symbol (e.g. a free global like
// "useState" or "console") to the component's symbol table and returns its
// Ref, mirroring how newTestComponent registers parameters.
func (c *testComponent) appendSymbol(name string) ast.Ref {
	c.symbols.Outer[0] = append(c.symbols.Outer[0], ast.Symbol{OriginalName: name, Kind: ast.SymbolUnbound})
	return ast.Ref{OuterIndex: 0, InnerIndex: uint32(len(c.symbols.Outer[0]) - 1)}
}

// declareLocal registers name as a genuine component-scope binding (the
// same bookkeeping newTestComponent does for parameters), for tests that
// need a local var/let declared mid-body rather than a function parameter.
func (c *testComponent) declareLocal(name string) ast.Ref {
	ref := c.appendSymbol(name)
	c.symbols.Outer[0][ref.InnerIndex].Kind = ast.SymbolHoisted
	c.scope.Members[name] = ast.ScopeMember{Ref: ref}
	return ref
}

// function C(p) { return p.x + p.y; }
func TestOptimizeMemberSum(t *testing.T) {
	c := newTestComponent("p")
	body := []ast.Stmt{
		{Data: &ast.SReturn{ValueOrNil: ast.Expr{Data: &ast.EBinary{
			Op:    ast.BinOpAdd,
			Left:  ast.Expr{Data: &ast.EDot{Target: c.ident("p"), Name: "x"}},
			Right: ast.Expr{Data: &ast.EDot{Target: c.ident("p"), Name: "y"}},
		}}}},
	}

	out := c.optimize(t, nil, body)
	printed := c.print(out)

	if got := strings.Count(printed, "cache(useMemo, "); got != 1 {
		t.Fatalf("expected exactly one cache(useMemo, ...) declaration, got %d:\n%s", got, printed)
	}
	// p is read twice (via .x and .y) but must be memoized once: one
	// referential-guard slot for p, one each for p.x and p.y, one for the
	// sum — four distinct memo values, not five, since this pass never
	// allocates a slot purely for holding a statement's return expression
	// (the Return row only says "optimize argument", nothing more).
	if got := strings.Count(printed, "let _v"); got != 4 {
		t.Fatalf("expected 4 memoized value declarations, got %d:\n%s", got, printed)
	}
}

// function C(a) { return a ? <B x={a}/> : null; }
func TestOptimizeConditionalLowersToIfElse(t *testing.T) {
	c := newTestComponent("a")
	tagRef := c.appendSymbol("B")
	jsx := ast.Expr{Data: &ast.EJSXElement{
		Tag: ptr(ast.Expr{Data: &ast.EIdentifier{Ref: tagRef}}),
		Properties: []ast.JSXProperty{
			{Key: ast.Expr{Data: &ast.EString{Value: "x"}}, ValueOrNil: c.ident("a")},
		},
	}}
	body := []ast.Stmt{
		{Data: &ast.SReturn{ValueOrNil: ast.Expr{Data: &ast.EIf{
			Test: c.ident("a"),
			Yes:  jsx,
			No:   ast.Expr{Data: ast.ENullShared},
		}}}},
	}

	out := c.optimize(t, nil, body)
	printed := c.print(out)

	if !strings.Contains(printed, "if (") {
		t.Fatalf("expected the ternary to lower to an if/else statement:\n%s", printed)
	}
	if strings.Count(printed, "_r") == 0 {
		t.Fatalf("expected a fresh result binding for the conditional:\n%s", printed)
	}
}

// useMemo(() => compute(), []) should produce a one-time slot (the "in
// header" guard), not a referential-equality guard.
func TestHookMemoWithEmptyDepsIsOneTime(t *testing.T) {
	c := newTestComponent()
	computeRef := c.appendSymbol("compute")
	useMemoRef := c.appendSymbol("useMemo")
	resultRef := c.appendSymbol("result")

	call := ast.Expr{Data: &ast.ECall{
		Target: identExprValue(useMemoRef),
		Args: []ast.Expr{
			{Data: &ast.EArrow{PreferExpr: true, PreferExprValue: ast.Expr{Data: &ast.ECall{
				Target: identExprValue(computeRef),
			}}}},
			{Data: &ast.EArray{}},
		},
	}}
	body := []ast.Stmt{
		{Data: &ast.SLocal{Kind: ast.LocalConst, Decls: []ast.Decl{
			{Binding: ast.Binding{Data: &ast.BIdentifier{Ref: resultRef}}, ValueOrNil: call},
		}}},
	}

	out := c.optimize(t, nil, body)
	printed := c.print(out)

	if !strings.Contains(printed, " in ") {
		t.Fatalf("expected the one-time 'in header' guard, got:\n%s", printed)
	}
	if strings.Contains(printed, "equals(") {
		t.Fatalf("a one-time memo must not use the equals() guard:\n%s", printed)
	}
	if !strings.Contains(printed, "compute()") {
		t.Fatalf("expected the arrow body to be inlined directly:\n%s", printed)
	}
}

// function C(items) { for (const it of items) { use(it, items); } }
func TestLoopAllocatesPerIterationBranchHeader(t *testing.T) {
	c := newTestComponent("items")
	useRef := c.appendSymbol("use")
	itRef := c.appendSymbol("it")

	body := []ast.Stmt{
		{Data: &ast.SForOf{
			BindingKind: ast.ForBindingConst,
			InitBinding: ast.Binding{Data: &ast.BIdentifier{Ref: itRef}},
			Value:       c.ident("items"),
			Body: ast.Stmt{Data: &ast.SBlock{Stmts: []ast.Stmt{
				{Data: &ast.SExpr{Value: ast.Expr{Data: &ast.ECall{
					Target: identExprValue(useRef),
					Args:   []ast.Expr{identExprValue(itRef), c.ident("items")},
				}}}},
			}}},
		}},
	}

	out := c.optimize(t, nil, body)
	printed := c.print(out)

	if !strings.Contains(printed, "for (const") {
		t.Fatalf("expected a for-of statement to survive rewriting:\n%s", printed)
	}
	// the loop body only reads `items` (a memo, never a ref), so exactly one
	// outer dynamic-size branch() is declared in the enclosing scope (for
	// the memo cache), plus one per-iteration branch() header derived from
	// it — never a ref-kind declaration, since nothing in the loop touches
	// the ref cache.
	if got := strings.Count(printed, "branch("); got != 2 {
		t.Fatalf("expected exactly the outer memo branch declaration plus a per-iteration branch call, got %d:\n%s", got, printed)
	}
	if strings.Contains(printed, "ref(") {
		t.Fatalf("a loop that never touches the ref cache must not declare a ref() root:\n%s", printed)
	}
	if !strings.Contains(printed, "++_i") {
		t.Fatalf("expected the per-iteration index increment:\n%s", printed)
	}
}

// function C() { let x = 0; x; x = useState(); return x; }
func TestAssignmentInvalidatesTrackedBinding(t *testing.T) {
	c := newTestComponent()
	xRef := c.declareLocal("x")
	useStateRef := c.appendSymbol("useState")

	body := []ast.Stmt{
		{Data: &ast.SLocal{Kind: ast.LocalLet, Decls: []ast.Decl{
			{Binding: ast.Binding{Data: &ast.BIdentifier{Ref: xRef}}, ValueOrNil: ast.Expr{Data: &ast.ENumber{Value: 0}}},
		}}},
		{Data: &ast.SExpr{Value: identExprValue(xRef)}},
		{Data: &ast.SExpr{Value: ast.Expr{Data: &ast.EBinary{
			Op:    ast.BinOpAssign,
			Left:  identExprValue(xRef),
			Right: ast.Expr{Data: &ast.ECall{Target: identExprValue(useStateRef)}},
		}}}},
		{Data: &ast.SReturn{ValueOrNil: identExprValue(xRef)}},
	}

	out := c.optimize(t, nil, body)
	printed := c.print(out)

	// The read of x before the assignment tracks it; the post-assignment read
	// must allocate a fresh memo slot rather than reusing that stale
	// optimized-identifier entry; the assignment itself is rewritten in place
	// without ever wrapping the whole "x = useState()" expression in createMemo.
	if got := strings.Count(printed, "let _v"); got != 2 {
		t.Fatalf("expected two memoized reads of x (one before and one after the assignment), got %d:\n%s", got, printed)
	}
	if !strings.Contains(printed, "useState()") {
		t.Fatalf("expected the assignment's right-hand side to survive unmemoized:\n%s", printed)
	}
}

// useMemo() with no arguments must abort the pass with a diagnostic rather
// than panic on an out-of-range Args[0] (spec.md §7).
func TestHookMemoWithNoArgsAborts(t *testing.T) {
	c := newTestComponent()
	useMemoRef := c.appendSymbol("useMemo")

	body := []ast.Stmt{
		{Data: &ast.SExpr{Value: ast.Expr{Data: &ast.ECall{
			Target: identExprValue(useMemoRef),
		}}}},
	}

	opt := NewOptimizer(&logger.Log{}, config.DefaultPreset(), c.symbols, 0, c.scope)
	if _, ok := opt.OptimizeComponent(body); ok {
		t.Fatalf("expected optimization to abort on a zero-argument useMemo() call")
	}
	if !opt.Log.HasErrors() {
		t.Fatalf("expected a diagnostic to be recorded for the aborted call")
	}
}

// function C(items) { for (const it of items) { const r = useRef(it); } }
// A loop whose body only touches the ref cache must declare a ref(...) root
// and the ref-kind outer branch, never a memo-kind one.
func TestLoopOnlyDeclaresUsedCacheKind(t *testing.T) {
	c := newTestComponent("items")
	useRefRef := c.appendSymbol("useRef")
	itRef := c.appendSymbol("it")
	rRef := c.declareLocal("r")

	body := []ast.Stmt{
		{Data: &ast.SForOf{
			BindingKind: ast.ForBindingConst,
			InitBinding: ast.Binding{Data: &ast.BIdentifier{Ref: itRef}},
			Value:       c.ident("items"),
			Body: ast.Stmt{Data: &ast.SBlock{Stmts: []ast.Stmt{
				{Data: &ast.SLocal{Kind: ast.LocalConst, Decls: []ast.Decl{
					{Binding: ast.Binding{Data: &ast.BIdentifier{Ref: rRef}}, ValueOrNil: ast.Expr{Data: &ast.ECall{
						Target: identExprValue(useRefRef),
						Args:   []ast.Expr{identExprValue(itRef)},
					}}},
				}}},
			}}},
		}},
	}

	out := c.optimize(t, nil, body)
	printed := c.print(out)

	// items itself is memoized by the for-of head in the enclosing scope, so
	// the root memo cache holds exactly that one slot; the loop body adds no
	// memo-kind branch on top of it.
	if got := strings.Count(printed, "cache(useMemo, 1)"); got != 1 {
		t.Fatalf("expected a single one-slot cache() root for the for-of value, got %d:\n%s", got, printed)
	}
	if strings.Contains(printed, "branch(_c") {
		t.Fatalf("a loop that never touches the memo cache must not declare a memo-kind branch:\n%s", printed)
	}
	if !strings.Contains(printed, "ref(useRef") {
		t.Fatalf("expected a ref() root declaration for the ref hook:\n%s", printed)
	}
}

func ptr(e ast.Expr) *ast.Expr { return &e }

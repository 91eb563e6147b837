package memo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/juncdeinda/forgetti/internal/ast"
	"github.com/juncdeinda/forgetti/internal/config"
	"github.com/juncdeinda/forgetti/internal/logger"
	"github.com/juncdeinda/forgetti/internal/printer"
	"github.com/kylelemons/godebug/diff"
)

// assertEqual mirrors the teacher's bundler_test.go helper of the same
// name: a multi-line mismatch is reported as a diff, everything else as a
// plain inequality.
func assertEqual(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if a != b {
		stringA := fmt.Sprintf("%v", a)
		stringB := fmt.Sprintf("%v", b)
		if strings.Contains(stringA, "\n") || strings.Contains(stringB, "\n") {
			t.Fatal(diff.Diff(stringB, stringA))
		} else {
			t.Fatalf("%s != %s", stringA, stringB)
		}
	}
}

// testComponent is a minimal single-function NodePath: a SymbolMap with
// one outer slot, a lexical Scope with the given parameter names
// pre-registered as members, and the Refs to build expressions against
// those parameters.
type testComponent struct {
	symbols *ast.SymbolMap
	scope   *ast.Scope
	params  map[string]ast.Ref
}

func newTestComponent(paramNames ...string) *testComponent {
	symbols := ast.NewSymbolMap(1)
	scope := ast.NewScope(ast.ScopeFunctionBody, nil)
	params := make(map[string]ast.Ref, len(paramNames))
	for _, name := range paramNames {
		symbols.Outer[0] = append(symbols.Outer[0], ast.Symbol{OriginalName: name, Kind: ast.SymbolHoisted})
		ref := ast.Ref{OuterIndex: 0, InnerIndex: uint32(len(symbols.Outer[0]) - 1)}
		scope.Members[name] = ast.ScopeMember{Ref: ref}
		params[name] = ref
	}
	return &testComponent{symbols: &symbols, scope: scope, params: params}
}

func (c *testComponent) ident(name string) ast.Expr {
	ref, ok := c.params[name]
	if !ok {
		panic("unknown param " + name)
	}
	return identExprValue(ref)
}

func (c *testComponent) optimize(t *testing.T, preset *config.Preset, body []ast.Stmt) []ast.Stmt {
	t.Helper()
	if preset == nil {
		preset = config.DefaultPreset()
	}
	opt := NewOptimizer(&logger.Log{}, preset, c.symbols, 0, c.scope)
	out, ok := opt.OptimizeComponent(body)
	if !ok {
		t.Fatalf("optimization failed: %v", opt.Log.Msgs())
	}
	return out
}

func (c *testComponent) print(stmts []ast.Stmt) string {
	names := func(ref ast.Ref) string {
		slice := c.symbols.Outer[ref.OuterIndex]
		if int(ref.InnerIndex) >= len(slice) {
			return ""
		}
		return slice[ref.InnerIndex].OriginalName
	}
	return printer.Print(stmts, names)
}

func countSubstr(s string, sub string) int {
	return strings.Count(s, sub)
}

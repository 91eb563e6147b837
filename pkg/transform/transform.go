// Package transform is the public entry point onto the Optimizer
// (spec.md §2-§4): given one component's body, its lexical scope, and a
// StateContext (preset, symbol table), it returns the rewritten body. The
// surrounding compiler — locating component boundaries in a larger file,
// parsing source text into this AST, merging presets, writing the result
// back out — is out of scope (spec.md §1) and lives, if at all, above
// this package.
package transform

import (
	"github.com/juncdeinda/forgetti/internal/ast"
	"github.com/juncdeinda/forgetti/internal/config"
	"github.com/juncdeinda/forgetti/internal/logger"
	"github.com/juncdeinda/forgetti/internal/memo"
	"github.com/juncdeinda/forgetti/internal/printer"
)

// Component is the minimal NodePath spec.md §6 describes: a single
// function body plus the lexical scope the original parse built for it.
type Component struct {
	Body  []ast.Stmt
	Scope *ast.Scope
}

// Result carries the rewritten body plus the log accumulated while
// producing it. OK is false iff the log picked up an error, in which case
// Body is nil and the caller must fall back to the original input
// (spec.md §7: no partial rewrite).
type Result struct {
	Body []ast.Stmt
	Log  *logger.Log
	OK   bool
}

// Transform rewrites one component body in place against preset, using
// symbols as the table fresh synthetic bindings are appended to at
// outerIndex — the same SymbolMap and outer index the surrounding
// compiler minted the component's own bindings under, so Refs it already
// holds (e.g. in Component.Scope) keep resolving correctly after the
// rewrite.
func Transform(preset *config.Preset, symbols *ast.SymbolMap, outerIndex uint32, component Component) Result {
	log := &logger.Log{}
	opt := memo.NewOptimizer(log, preset, symbols, outerIndex, component.Scope)
	body, ok := opt.OptimizeComponent(component.Body)
	return Result{Body: body, Log: log, OK: ok}
}

// Print renders a rewritten body back to source text, resolving Refs
// against symbols — the same inverse operation a caller would use on its
// own component bodies that were never routed through this package at
// all, so tests can compare the Optimizer's and the original printer's
// output with one function.
func Print(stmts []ast.Stmt, symbols *ast.SymbolMap) string {
	return printer.Print(stmts, NamesFromSymbols(symbols))
}

// NamesFromSymbols adapts a SymbolMap to printer.Names.
func NamesFromSymbols(symbols *ast.SymbolMap) printer.Names {
	return func(ref ast.Ref) string {
		if int(ref.OuterIndex) >= len(symbols.Outer) {
			return ""
		}
		slice := symbols.Outer[ref.OuterIndex]
		if int(ref.InnerIndex) >= len(slice) {
			return ""
		}
		return slice[ref.InnerIndex].OriginalName
	}
}

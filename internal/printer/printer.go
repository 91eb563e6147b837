// Package printer renders an ast.Expr/ast.Stmt tree back to source text.
// It exists only to make the Optimizer's output observable in tests (spec.md
// §1 places source parsing and code generation beyond "an AST in the same
// source dialect" out of scope, so there is no lexer/parser here, only the
// inverse of internal/ast's node shapes).
//
// The structure — a precedence-aware printExpr that recurses with a
// minimum-binding-power argument and wraps in parens when the child binds
// looser — is the same shape as esbuild's internal/js_printer, trimmed to
// the node set internal/ast defines and to single-line statement bodies (no
// source maps, no minification, no comments: none of those are in scope).
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juncdeinda/forgetti/internal/ast"
)

type Printer struct {
	sb          strings.Builder
	symbolNames func(ast.Ref) string
}

// Names resolves a Ref to the identifier text the printer should emit for
// it. Tests and pkg/transform both supply this from whatever symbol table
// owns the component being printed.
type Names func(ast.Ref) string

func New(names Names) *Printer {
	return &Printer{symbolNames: names}
}

func Print(stmts []ast.Stmt, names Names) string {
	p := New(names)
	p.PrintStmts(stmts, 0)
	return p.sb.String()
}

func PrintExpr(expr ast.Expr, names Names) string {
	p := New(names)
	p.printExpr(expr, ast.LLowest)
	return p.sb.String()
}

func (p *Printer) name(ref ast.Ref) string {
	if p.symbolNames != nil {
		if n := p.symbolNames(ref); n != "" {
			return n
		}
	}
	return fmt.Sprintf("ref$%d.%d", ref.OuterIndex, ref.InnerIndex)
}

func (p *Printer) indent(level int) {
	for i := 0; i < level; i++ {
		p.sb.WriteString("  ")
	}
}

func (p *Printer) PrintStmts(stmts []ast.Stmt, level int) {
	for _, stmt := range stmts {
		p.printStmt(stmt, level)
	}
}

func (p *Printer) printBlock(stmts []ast.Stmt, level int) {
	p.sb.WriteString("{\n")
	p.PrintStmts(stmts, level+1)
	p.indent(level)
	p.sb.WriteString("}")
}

func declKindText(kind ast.LocalKind) string {
	switch kind {
	case ast.LocalVar:
		return "var"
	case ast.LocalConst:
		return "const"
	default:
		return "let"
	}
}

func (p *Printer) printBinding(b ast.Binding) {
	switch d := b.Data.(type) {
	case *ast.BIdentifier:
		p.sb.WriteString(p.name(d.Ref))
	case *ast.BArray:
		p.sb.WriteString("[")
		for i, item := range d.Items {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			if item.IsSpread {
				p.sb.WriteString("...")
			}
			p.printBinding(item.Binding)
			if item.DefaultOrNil.Data != nil {
				p.sb.WriteString(" = ")
				p.printExpr(item.DefaultOrNil, ast.LComma)
			}
		}
		p.sb.WriteString("]")
	case *ast.BObject:
		p.sb.WriteString("{")
		for i, prop := range d.Properties {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			if prop.IsSpread {
				p.sb.WriteString("...")
				p.printBinding(prop.Value)
				continue
			}
			p.printExpr(prop.Key, ast.LLowest)
			p.sb.WriteString(": ")
			p.printBinding(prop.Value)
			if prop.DefaultOrNil.Data != nil {
				p.sb.WriteString(" = ")
				p.printExpr(prop.DefaultOrNil, ast.LComma)
			}
		}
		p.sb.WriteString("}")
	default:
		p.sb.WriteString("<missing>")
	}
}

func (p *Printer) printStmt(stmt ast.Stmt, level int) {
	p.indent(level)
	p.printStmtBody(stmt, level)
}

// printStmtBody prints stmt's text without writing the leading indent —
// used both by printStmt (which indents first) and by callers that have
// already written a prefix on the current line (e.g. "else ", "label: ").
func (p *Printer) printStmtBody(stmt ast.Stmt, level int) {
	switch s := stmt.Data.(type) {
	case *ast.SSkip:
		p.printStmtBody(s.Stmt, level)
		return

	case *ast.SBlock:
		p.printBlock(s.Stmts, level)
		p.sb.WriteString("\n")

	case *ast.SEmpty:
		p.sb.WriteString(";\n")

	case *ast.SExpr:
		p.printExpr(s.Value, ast.LLowest)
		p.sb.WriteString(";\n")

	case *ast.SLocal:
		p.sb.WriteString(declKindText(s.Kind))
		p.sb.WriteString(" ")
		for i, d := range s.Decls {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printBinding(d.Binding)
			if d.ValueOrNil.Data != nil {
				p.sb.WriteString(" = ")
				p.printExpr(d.ValueOrNil, ast.LComma)
			}
		}
		p.sb.WriteString(";\n")

	case *ast.SIf:
		p.sb.WriteString("if (")
		p.printExpr(s.Test, ast.LLowest)
		p.sb.WriteString(") ")
		p.printBlockStmt(s.Yes, level)
		if s.NoOrNil.Data != nil {
			p.sb.WriteString(" else ")
			p.printStmtBody(s.NoOrNil, level)
			return
		}
		p.sb.WriteString("\n")

	case *ast.SFor:
		p.sb.WriteString("for (")
		if s.InitOrNil.Data != nil {
			p.printStmtHeader(s.InitOrNil)
		}
		p.sb.WriteString("; ")
		if s.TestOrNil.Data != nil {
			p.printExpr(s.TestOrNil, ast.LLowest)
		}
		p.sb.WriteString("; ")
		if s.UpdateOrNil.Data != nil {
			p.printExpr(s.UpdateOrNil, ast.LLowest)
		}
		p.sb.WriteString(") ")
		p.printBlockStmt(s.Body, level)
		p.sb.WriteString("\n")

	case *ast.SForOf:
		p.sb.WriteString("for (")
		p.printForHead(s.BindingKind, s.InitBinding, s.InitTarget)
		p.sb.WriteString(" of ")
		p.printExpr(s.Value, ast.LLowest)
		p.sb.WriteString(") ")
		p.printBlockStmt(s.Body, level)
		p.sb.WriteString("\n")

	case *ast.SForIn:
		p.sb.WriteString("for (")
		p.printForHead(s.BindingKind, s.InitBinding, s.InitTarget)
		p.sb.WriteString(" in ")
		p.printExpr(s.Value, ast.LLowest)
		p.sb.WriteString(") ")
		p.printBlockStmt(s.Body, level)
		p.sb.WriteString("\n")

	case *ast.SWhile:
		p.sb.WriteString("while (")
		p.printExpr(s.Test, ast.LLowest)
		p.sb.WriteString(") ")
		p.printBlockStmt(s.Body, level)
		p.sb.WriteString("\n")

	case *ast.SDoWhile:
		p.sb.WriteString("do ")
		p.printBlockStmt(s.Body, level)
		p.sb.WriteString(" while (")
		p.printExpr(s.Test, ast.LLowest)
		p.sb.WriteString(");\n")

	case *ast.STry:
		p.sb.WriteString("try ")
		p.printBlock(s.Body, level)
		if s.Catch != nil {
			p.sb.WriteString(" catch ")
			if s.Catch.BindingOrNil != nil {
				p.sb.WriteString("(")
				p.printBinding(*s.Catch.BindingOrNil)
				p.sb.WriteString(") ")
			}
			p.printBlock(s.Catch.Body, level)
		}
		if s.FinallyOrNil != nil {
			p.sb.WriteString(" finally ")
			p.printBlock(s.FinallyOrNil, level)
		}
		p.sb.WriteString("\n")

	case *ast.SSwitch:
		p.sb.WriteString("switch (")
		p.printExpr(s.Test, ast.LLowest)
		p.sb.WriteString(") {\n")
		for _, c := range s.Cases {
			p.indent(level + 1)
			if c.ValueOrNil.Data != nil {
				p.sb.WriteString("case ")
				p.printExpr(c.ValueOrNil, ast.LLowest)
				p.sb.WriteString(":\n")
			} else {
				p.sb.WriteString("default:\n")
			}
			p.PrintStmts(c.Body, level+2)
		}
		p.indent(level)
		p.sb.WriteString("}\n")

	case *ast.SReturn:
		p.sb.WriteString("return")
		if s.ValueOrNil.Data != nil {
			p.sb.WriteString(" ")
			p.printExpr(s.ValueOrNil, ast.LLowest)
		}
		p.sb.WriteString(";\n")

	case *ast.SThrow:
		p.sb.WriteString("throw ")
		p.printExpr(s.Value, ast.LLowest)
		p.sb.WriteString(";\n")

	case *ast.SBreak:
		p.sb.WriteString("break")
		if s.Label != nil {
			p.sb.WriteString(" " + *s.Label)
		}
		p.sb.WriteString(";\n")

	case *ast.SContinue:
		p.sb.WriteString("continue")
		if s.Label != nil {
			p.sb.WriteString(" " + *s.Label)
		}
		p.sb.WriteString(";\n")

	case *ast.SLabel:
		p.sb.WriteString(s.Name + ": ")
		p.printStmtBody(s.Stmt, level)

	default:
		p.sb.WriteString(fmt.Sprintf("/* unknown stmt %T */;\n", s))
	}
}

func (p *Printer) printForHead(kind ast.ForBinding, binding ast.Binding, target ast.Expr) {
	switch kind {
	case ast.ForBindingVar:
		p.sb.WriteString("var ")
		p.printBinding(binding)
	case ast.ForBindingLet:
		p.sb.WriteString("let ")
		p.printBinding(binding)
	case ast.ForBindingConst:
		p.sb.WriteString("const ")
		p.printBinding(binding)
	default:
		p.printExpr(target, ast.LLowest)
	}
}

func (p *Printer) printStmtHeader(stmt ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *ast.SLocal:
		p.sb.WriteString(declKindText(s.Kind))
		p.sb.WriteString(" ")
		for i, d := range s.Decls {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printBinding(d.Binding)
			if d.ValueOrNil.Data != nil {
				p.sb.WriteString(" = ")
				p.printExpr(d.ValueOrNil, ast.LComma)
			}
		}
	case *ast.SExpr:
		p.printExpr(s.Value, ast.LLowest)
	}
}

// printBlockStmt prints stmt as the body of an if/for/while — wrapping in
// braces unless it already is a block, matching common JS-printer style.
func (p *Printer) printBlockStmt(stmt ast.Stmt, level int) {
	if block, ok := stmt.Data.(*ast.SBlock); ok {
		p.printBlock(block.Stmts, level)
		return
	}
	p.sb.WriteString("{\n")
	p.printStmt(stmt, level+1)
	p.indent(level)
	p.sb.WriteString("}")
}

func (p *Printer) wrap(level ast.L, minLevel ast.L, body func()) {
	wrap := level >= minLevel
	if wrap {
		p.sb.WriteString("(")
	}
	body()
	if wrap {
		p.sb.WriteString(")")
	}
}

func (p *Printer) printExpr(expr ast.Expr, level ast.L) {
	switch e := expr.Data.(type) {
	case nil:
		// absent expression; nothing to print (used for array holes)

	case *ast.EMissing:
		// nothing

	case *ast.EUndefined:
		p.sb.WriteString("void 0")

	case *ast.ENull:
		p.sb.WriteString("null")

	case *ast.EThis:
		p.sb.WriteString("this")

	case *ast.EBoolean:
		if e.Value {
			p.sb.WriteString("true")
		} else {
			p.sb.WriteString("false")
		}

	case *ast.ENumber:
		p.sb.WriteString(formatNumber(e.Value))

	case *ast.EBigInt:
		p.sb.WriteString(e.Value + "n")

	case *ast.EString:
		p.sb.WriteString(quoteString(e.Value))

	case *ast.ERegExp:
		p.sb.WriteString(e.Value)

	case *ast.EIdentifier:
		p.sb.WriteString(p.name(e.Ref))

	case *ast.ESpread:
		p.sb.WriteString("...")
		p.printExpr(e.Value, ast.LComma)

	case *ast.EArray:
		p.sb.WriteString("[")
		for i, item := range e.Items {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printExpr(item, ast.LComma)
		}
		p.sb.WriteString("]")

	case *ast.EObject:
		p.sb.WriteString("{")
		for i, prop := range e.Properties {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printProperty(prop)
		}
		p.sb.WriteString("}")

	case *ast.EUnary:
		entry := ast.OpTable[e.Op]
		p.wrap(level, ast.LPrefix, func() {
			if e.Op.IsUnaryUpdate() && e.Op >= ast.UnOpPostDec {
				p.printExpr(e.Value, ast.LPostfix)
				p.sb.WriteString(entry.Text)
				return
			}
			p.sb.WriteString(entry.Text)
			if isWordOp(entry.Text) {
				p.sb.WriteString(" ")
			}
			p.printExpr(e.Value, ast.LPrefix)
		})

	case *ast.EBinary:
		p.printBinary(e, level)

	case *ast.EIf:
		p.wrap(level, ast.LConditional+1, func() {
			p.printExpr(e.Test, ast.LNullishCoalescing+1)
			p.sb.WriteString(" ? ")
			p.printExpr(e.Yes, ast.LAssign)
			p.sb.WriteString(" : ")
			p.printExpr(e.No, ast.LAssign)
		})

	case *ast.EDot:
		p.wrap(level, ast.LMember, func() {
			p.printExpr(e.Target, ast.LMember)
			p.sb.WriteString(".")
			p.sb.WriteString(e.Name)
		})

	case *ast.EIndex:
		p.wrap(level, ast.LMember, func() {
			p.printExpr(e.Target, ast.LMember)
			p.sb.WriteString("[")
			p.printExpr(e.Index, ast.LLowest)
			p.sb.WriteString("]")
		})

	case *ast.ECall:
		p.wrap(level, ast.LCall, func() {
			p.printExpr(e.Target, ast.LCall)
			p.printArgs(e.Args)
		})

	case *ast.ENew:
		p.wrap(level, ast.LCall, func() {
			p.sb.WriteString("new ")
			p.printExpr(e.Target, ast.LMember)
			p.printArgs(e.Args)
		})

	case *ast.EAwait:
		p.wrap(level, ast.LPrefix, func() {
			p.sb.WriteString("await ")
			p.printExpr(e.Value, ast.LPrefix)
		})

	case *ast.EYield:
		p.wrap(level, ast.LAssign, func() {
			p.sb.WriteString("yield")
			if e.IsStar {
				p.sb.WriteString("*")
			}
			if e.ValueOrNil.Data != nil {
				p.sb.WriteString(" ")
				p.printExpr(e.ValueOrNil, ast.LYield)
			}
		})

	case *ast.ETemplate:
		if e.Tag != nil {
			p.printExpr(*e.Tag, ast.LMember)
		}
		p.sb.WriteString("`")
		p.sb.WriteString(e.Head)
		for _, part := range e.Parts {
			p.sb.WriteString("${")
			p.printExpr(part.Value, ast.LLowest)
			p.sb.WriteString("}")
			p.sb.WriteString(part.Tail)
		}
		p.sb.WriteString("`")

	case *ast.EArrow:
		p.wrap(level, ast.LAssign, func() {
			if e.IsAsync {
				p.sb.WriteString("async ")
			}
			p.sb.WriteString("(")
			p.printArgsList(e.Args)
			p.sb.WriteString(") => ")
			if e.PreferExpr {
				p.printExpr(e.PreferExprValue, ast.LComma)
			} else {
				p.printBlock(e.Body.Stmts, 0)
			}
		})

	case *ast.EFunction:
		p.sb.WriteString("function")
		if e.Fn.Name != nil {
			p.sb.WriteString(" " + p.name(*e.Fn.Name))
		}
		p.sb.WriteString("(")
		p.printArgsList(e.Fn.Args)
		p.sb.WriteString(") ")
		p.printBlock(e.Fn.Body.Stmts, 0)

	case *ast.EJSXElement:
		p.printJSX(e)

	default:
		p.sb.WriteString(fmt.Sprintf("/* unknown expr %T */", e))
	}
}

func (p *Printer) printArgsList(args []ast.Arg) {
	for i, a := range args {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.printBinding(a.Binding)
		if a.DefaultOrNil.Data != nil {
			p.sb.WriteString(" = ")
			p.printExpr(a.DefaultOrNil, ast.LComma)
		}
	}
}

func (p *Printer) printArgs(args []ast.Expr) {
	p.sb.WriteString("(")
	for i, a := range args {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.printExpr(a, ast.LComma)
	}
	p.sb.WriteString(")")
}

func (p *Printer) printProperty(prop ast.Property) {
	if prop.Kind == ast.PropertySpread {
		p.sb.WriteString("...")
		p.printExpr(prop.ValueOrNil, ast.LComma)
		return
	}
	if prop.IsComputed {
		p.sb.WriteString("[")
		p.printExpr(prop.Key, ast.LComma)
		p.sb.WriteString("]")
	} else {
		p.printExpr(prop.Key, ast.LLowest)
	}
	p.sb.WriteString(": ")
	p.printExpr(prop.ValueOrNil, ast.LComma)
}

func (p *Printer) printJSX(e *ast.EJSXElement) {
	tag := "Fragment"
	if e.Tag != nil {
		tag = printer_exprText(p, *e.Tag)
	}
	p.sb.WriteString("<" + tag)
	for _, prop := range e.Properties {
		p.sb.WriteString(" ")
		if prop.IsSpread {
			p.sb.WriteString("{...")
			p.printExpr(prop.ValueOrNil, ast.LComma)
			p.sb.WriteString("}")
			continue
		}
		p.printExpr(prop.Key, ast.LLowest)
		if prop.ValueOrNil.Data != nil {
			p.sb.WriteString("={")
			p.printExpr(prop.ValueOrNil, ast.LComma)
			p.sb.WriteString("}")
		}
	}
	if len(e.Children) == 0 {
		p.sb.WriteString(" />")
		return
	}
	p.sb.WriteString(">")
	for _, c := range e.Children {
		p.sb.WriteString("{")
		p.printExpr(c, ast.LComma)
		p.sb.WriteString("}")
	}
	p.sb.WriteString("</" + tag + ">")
}

func printer_exprText(p *Printer, e ast.Expr) string {
	sub := New(p.symbolNames)
	sub.printExpr(e, ast.LLowest)
	return sub.sb.String()
}

func (p *Printer) printBinary(e *ast.EBinary, level ast.L) {
	entry := ast.OpTable[e.Op]
	wrap := level > entry.Level
	if wrap {
		p.sb.WriteString("(")
	}
	leftLevel := entry.Level
	rightLevel := entry.Level + 1
	if e.Op.BinaryAssignTarget() != ast.AssignTargetNone {
		leftLevel = ast.LCall
		rightLevel = ast.LAssign
	}
	p.printExpr(e.Left, leftLevel)
	p.sb.WriteString(" " + entry.Text + " ")
	p.printExpr(e.Right, rightLevel)
	if wrap {
		p.sb.WriteString(")")
	}
}

func isWordOp(text string) bool {
	switch text {
	case "void", "typeof", "delete":
		return true
	default:
		return false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func quoteString(s string) string {
	return strconv.Quote(s)
}

// Package ast is the node representation the Optimizer rewrites, adapted
// from esbuild's internal/js_ast: every expression/statement is a thin
// struct of a source Loc plus a Data field typed as a marker interface
// (E for expressions, S for statements), with one concrete E*/S* struct per
// node kind. Bindings are referenced by a two-part Ref into a SymbolMap,
// exactly as in the teacher, and lexical scoping during the original parse
// is recorded in a Scope tree distinct from the Optimizer's own per-block
// cache bookkeeping (memo.Scope) — see SPEC_FULL.md §1.1.
//
// Only the node kinds the Optimizer's dispatch table (spec.md §4.2) and
// statement walk (spec.md §4.4) need are represented; this is not a
// general-purpose JS/TS AST (no decorators, no classes, no TS-only
// declarations) since those never flow through a component body's
// memoization.
package ast

import "github.com/juncdeinda/forgetti/internal/logger"

// L is an operator-precedence level, used by the printer to decide when to
// parenthesize, and by the Optimizer nowhere directly — kept alongside
// OpCode because the two are defined together upstream.
type L int

const (
	LLowest L = iota
	LComma
	LSpread
	LYield
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LBitwiseOr
	LBitwiseXor
	LBitwiseAnd
	LEquals
	LCompare
	LShift
	LAdd
	LMultiply
	LExponentiation
	LPrefix
	LPostfix
	LNew
	LCall
	LMember
)

type OpCode int

const (
	// Prefix
	UnOpPos OpCode = iota
	UnOpNeg
	UnOpCpl
	UnOpNot
	UnOpVoid
	UnOpTypeof
	UnOpDelete

	// Prefix update
	UnOpPreDec
	UnOpPreInc

	// Postfix update
	UnOpPostDec
	UnOpPostInc

	// Left-associative binary
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpRem
	BinOpPow
	BinOpLt
	BinOpLe
	BinOpGt
	BinOpGe
	BinOpIn
	BinOpInstanceof
	BinOpShl
	BinOpShr
	BinOpUShr
	BinOpLooseEq
	BinOpLooseNe
	BinOpStrictEq
	BinOpStrictNe
	BinOpNullishCoalescing
	BinOpLogicalOr
	BinOpLogicalAnd
	BinOpBitwiseOr
	BinOpBitwiseAnd
	BinOpBitwiseXor

	// Non-associative
	BinOpComma

	// Right-associative (assignment family)
	BinOpAssign
	BinOpAddAssign
	BinOpSubAssign
	BinOpMulAssign
	BinOpDivAssign
	BinOpRemAssign
	BinOpPowAssign
	BinOpShlAssign
	BinOpShrAssign
	BinOpUShrAssign
	BinOpBitwiseOrAssign
	BinOpBitwiseAndAssign
	BinOpBitwiseXorAssign
	BinOpNullishCoalescingAssign
	BinOpLogicalOrAssign
	BinOpLogicalAndAssign
)

type AssignTarget uint8

const (
	AssignTargetNone AssignTarget = iota
	AssignTargetReplace
	AssignTargetUpdate
)

// IsLogical reports whether op is one of the short-circuiting logical
// operators the Optimizer dispatches to its "logical" treatment (spec.md
// §4.2 logical row) rather than its plain "binary" treatment.
func (op OpCode) IsLogical() bool {
	return op == BinOpLogicalAnd || op == BinOpLogicalOr || op == BinOpNullishCoalescing
}

// BinaryAssignTarget mirrors esbuild's OpCode.BinaryAssignTarget: it is how
// the Optimizer tells an ordinary binary expression apart from an
// assignment expression without a dedicated EAssign node, the same
// encoding the teacher uses.
func (op OpCode) BinaryAssignTarget() AssignTarget {
	if op == BinOpAssign {
		return AssignTargetReplace
	}
	if op > BinOpAssign {
		return AssignTargetUpdate
	}
	return AssignTargetNone
}

func (op OpCode) IsUnaryUpdate() bool {
	return op == UnOpPreDec || op == UnOpPreInc || op == UnOpPostDec || op == UnOpPostInc
}

type opTableEntry struct {
	Text  string
	Level L
}

var OpTable = []opTableEntry{
	{"+", LPrefix}, {"-", LPrefix}, {"~", LPrefix}, {"!", LPrefix},
	{"void", LPrefix}, {"typeof", LPrefix}, {"delete", LPrefix},
	{"--", LPrefix}, {"++", LPrefix},
	{"--", LPostfix}, {"++", LPostfix},
	{"+", LAdd}, {"-", LAdd}, {"*", LMultiply}, {"/", LMultiply}, {"%", LMultiply}, {"**", LExponentiation},
	{"<", LCompare}, {"<=", LCompare}, {">", LCompare}, {">=", LCompare}, {"in", LCompare}, {"instanceof", LCompare},
	{"<<", LShift}, {">>", LShift}, {">>>", LShift},
	{"==", LEquals}, {"!=", LEquals}, {"===", LEquals}, {"!==", LEquals},
	{"??", LNullishCoalescing}, {"||", LLogicalOr}, {"&&", LLogicalAnd},
	{"|", LBitwiseOr}, {"&", LBitwiseAnd}, {"^", LBitwiseXor},
	{",", LComma},
	{"=", LAssign}, {"+=", LAssign}, {"-=", LAssign}, {"*=", LAssign}, {"/=", LAssign}, {"%=", LAssign}, {"**=", LAssign},
	{"<<=", LAssign}, {">>=", LAssign}, {">>>=", LAssign}, {"|=", LAssign}, {"&=", LAssign}, {"^=", LAssign},
	{"??=", LAssign}, {"||=", LAssign}, {"&&=", LAssign},
}

// Ref is a two-part reference into a SymbolMap: OuterIndex picks the source
// file/parse unit, InnerIndex the symbol within it. Carried unmodified from
// esbuild so that a Ref minted by the surrounding compiler (out of scope
// here, spec.md §1) round-trips through this pass untouched.
type Ref struct {
	OuterIndex uint32
	InnerIndex uint32
}

var InvalidRef = Ref{OuterIndex: ^uint32(0), InnerIndex: ^uint32(0)}

func (r Ref) IsValid() bool { return r != InvalidRef }

type SymbolKind uint8

const (
	SymbolUnbound SymbolKind = iota // free variable: global or foreign binding
	SymbolHoisted                  // var / function argument
	SymbolConst
	SymbolOther
)

type Symbol struct {
	OriginalName string
	Kind         SymbolKind
}

type SymbolMap struct {
	Outer [][]Symbol
}

func NewSymbolMap(sourceCount int) SymbolMap {
	return SymbolMap{Outer: make([][]Symbol, sourceCount)}
}

func (sm SymbolMap) Get(ref Ref) *Symbol {
	return &sm.Outer[ref.OuterIndex][ref.InnerIndex]
}

// ScopeKind distinguishes the lexical lvalue-hoisting scopes produced by
// the original parse from the Optimizer's own per-block cache Scope
// (memo.Scope, spec.md §3) — this is the same split the teacher makes
// between js_ast.Scope (parse-time lexical scope) and parser-local
// bookkeeping.
type ScopeKind int

const (
	ScopeBlock ScopeKind = iota
	ScopeFunctionArgs
	ScopeFunctionBody
)

type ScopeMember struct {
	Ref Ref
	Loc logger.Loc
}

// Scope is the lexical scope tree of the component as produced by whatever
// parsed it; the Optimizer consults it read-only to resolve identifiers to
// Refs and to tell foreign/global bindings apart from bindings the
// component itself declares (spec.md §4.1 ExprAnalyzer.isConstant).
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope
	Members  map[string]ScopeMember
}

func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, Members: make(map[string]ScopeMember)}
}

// Contains reports whether ref names a binding declared in this scope or
// any of its ancestors, stopping at (and including) boundary. A ref that
// resolves to nothing within [this, boundary] is foreign relative to
// boundary.
func (s *Scope) Contains(ref Ref, boundary *Scope) bool {
	for scope := s; scope != nil; scope = scope.Parent {
		for _, m := range scope.Members {
			if m.Ref == ref {
				return true
			}
		}
		if scope == boundary {
			break
		}
	}
	return false
}

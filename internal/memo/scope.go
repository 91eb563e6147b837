package memo

import "github.com/juncdeinda/forgetti/internal/ast"

// CacheKind distinguishes the memo cache from the ref cache (spec.md §3:
// "two tables" — here, two independent header/slot-counter lines per
// Scope). Header isolation (spec.md §8 property 3) falls out of keeping
// these completely separate: nothing ever mixes a memoIndex allocation
// with a refHeader, or vice versa.
type CacheKind uint8

const (
	KindMemo CacheKind = iota
	KindRef
)

// cacheLine is the per-kind half of a Scope: the header identifier
// (created lazily on first use, spec.md §3 invariant 2) and the next slot
// index to hand out (spec.md §3 invariant 1: contiguous from 0, never
// reused).
type cacheLine struct {
	header    *ast.Ref
	nextIndex int
}

func (c *cacheLine) alloc() int {
	i := c.nextIndex
	c.nextIndex++
	return i
}

// Scope is the Optimizer's per-block cache-allocation record (spec.md §3).
// It is distinct from the lexical ast.Scope the original parse produced:
// ast.Scope answers "what does this identifier refer to", memo.Scope
// answers "which cache slot backs this memoized value". Scopes form a tree
// that mirrors the statement walk's block structure (spec.md §3
// Lifecycle).
type Scope struct {
	owner  *Optimizer
	parent *Scope

	lines [2]cacheLine

	// isInLoop marks this scope as a loop body (spec.md §4.4). loopMemo/
	// loopRef hold the dynamic-size branch header declared in the
	// *enclosing* scope before the loop; loopIdx is the iteration counter
	// declared alongside the first of them actually needed. The scope's own
	// lines[*].header is instead the *per-iteration* header, derived from
	// loopMemo/loopRef via "branch(loopHeader, ++loopIdx, size)" as the
	// body's first statement. All three are populated lazily, by kind, the
	// first time the loop body actually allocates a slot of that kind
	// (ensureLoopPrelude) — a loop that never touches the ref cache must
	// never force a ref(...) root declaration into the component.
	isInLoop          bool
	loopMemo          ast.Ref
	loopRef           ast.Ref
	loopIdx           ast.Ref
	loopIdxDeclared   bool
	loopOuterDeclared [2]bool

	statements []ast.Stmt

	// optimized de-duplicates re-reads of the same binding within the
	// scope chain (spec.md §3: "weak mapping from original-binding
	// identifier node to its OptimizedExpression; entries are removed when
	// the binding is re-assigned").
	optimized map[ast.Ref]OptimizedExpression

	// constants records bindings the Optimizer has proven invariant
	// (spec.md §4.2 createMemo one-time-constant case, and the result
	// identifier of a one-time memo is registered here too).
	constants map[ast.Ref]bool
}

func newRootScope(owner *Optimizer) *Scope {
	return &Scope{
		owner:     owner,
		optimized: make(map[ast.Ref]OptimizedExpression),
		constants: make(map[ast.Ref]bool),
	}
}

func (s *Scope) child() *Scope {
	return &Scope{
		owner:     s.owner,
		parent:    s,
		optimized: make(map[ast.Ref]OptimizedExpression),
		constants: make(map[ast.Ref]bool),
	}
}

// childLoop creates a child scope marked as a loop body. It declares
// nothing by itself: the outer dynamic-size branch declaration for each
// cache kind, and the shared iteration counter, are only ever emitted once
// the loop body is found to actually need them (ensureLoopPrelude), so a
// loop whose body never touches the ref cache never forces a ref(...) root
// declaration into the component (spec.md §4.4, §6's "one ref (if any ref
// slot was used)").
func (s *Scope) childLoop() *Scope {
	child := s.child()
	child.isInLoop = true
	return child
}

// ensureLoopPrelude lazily declares, in the enclosing scope s.parent, the
// pieces a loop body needs the first time it allocates a slot of kind: the
// shared iteration counter (once, regardless of kind) and this kind's own
// outer dynamic-size branch header (once per kind actually used).
func (s *Scope) ensureLoopPrelude(kind CacheKind) {
	if !s.loopIdxDeclared {
		s.loopIdxDeclared = true
		s.loopIdx = s.owner.freshTemp("_i")
		s.parent.statements = append(s.parent.statements, ast.Stmt{Data: &ast.SLocal{
			Kind: ast.LocalLet,
			Decls: []ast.Decl{
				{Binding: identBinding(s.loopIdx), ValueOrNil: ast.Expr{Data: &ast.ENumber{Value: 0}}},
			},
		}})
	}

	if s.loopOuterDeclared[kind] {
		return
	}
	s.loopOuterDeclared[kind] = true

	parentHeader, parentSlot := s.parent.reserveBranchSlot(kind)
	outer := s.owner.freshTemp(headerPrefix(kind))
	s.setLoopHeaderRef(kind, outer)
	s.parent.statements = append(s.parent.statements, ast.Stmt{Data: &ast.SLocal{
		Kind: ast.LocalLet,
		Decls: []ast.Decl{
			{Binding: identBinding(outer), ValueOrNil: s.owner.branchCall(parentHeader, ast.Expr{Data: &ast.ENumber{Value: float64(parentSlot)}}, 0)},
		},
	}})
}

func (s *Scope) setLoopHeaderRef(kind CacheKind, ref ast.Ref) {
	if kind == KindRef {
		s.loopRef = ref
		return
	}
	s.loopMemo = ref
}

// reserveBranchSlot allocates the slot a child scope will be hosted at,
// lazily creating s's own header of the given kind first (spec.md §9
// "Scope tree with upward allocation": a child reserves a slot in its
// *parent*, and the parent's own header is created on demand, recursively,
// the moment it is first needed — never eagerly).
func (s *Scope) reserveBranchSlot(kind CacheKind) (ast.Expr, int) {
	header := s.header(kind)
	slot := s.lines[kind].alloc()
	return header, slot
}

// header returns an expression reading this scope's header for kind,
// creating (but not yet declaring — that happens at finalize) the header
// identifier on first use.
func (s *Scope) header(kind CacheKind) ast.Expr {
	line := &s.lines[kind]
	if line.header == nil {
		if s.isInLoop {
			s.ensureLoopPrelude(kind)
		}
		ref := s.owner.freshTemp(headerPrefix(kind))
		line.header = &ref
	}
	return ast.Expr{Data: &ast.EIdentifier{Ref: *line.header}}
}

func headerPrefix(kind CacheKind) string {
	if kind == KindRef {
		return "_r"
	}
	return "_c"
}

func (s *Scope) emit(stmt ast.Stmt) {
	s.statements = append(s.statements, stmt)
}

func (s *Scope) allocSlot(kind CacheKind) int {
	return s.lines[kind].alloc()
}

func (s *Scope) markConstant(ref ast.Ref) {
	s.constants[ref] = true
}

// IsConstant reports whether ref has been registered as invariant in this
// scope or any ancestor (spec.md §4.1: "already registered in a scope's
// constants set").
func (s *Scope) IsConstant(ref ast.Ref) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.constants[ref] {
			return true
		}
	}
	return false
}

// lookupOptimized searches this scope and its ancestors for a
// previously-memoized read of ref (spec.md §3 "optimized" table; §3
// Lifecycle: "entries live as long as the defining scope chain").
func (s *Scope) lookupOptimized(ref ast.Ref) (OptimizedExpression, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if oe, ok := sc.optimized[ref]; ok {
			return oe, true
		}
	}
	return OptimizedExpression{}, false
}

func (s *Scope) recordOptimized(ref ast.Ref, oe OptimizedExpression) {
	s.optimized[ref] = oe
}

// invalidate removes ref from whichever scope in the chain currently holds
// it (spec.md §4.5: dirtying an LVal "traverse[s] up the scope chain and
// remove[s] the binding from optimized").
func (s *Scope) invalidate(ref ast.Ref) {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.optimized[ref]; ok {
			delete(sc.optimized, ref)
			return
		}
	}
}

// getStatements finalizes the scope exactly once (spec.md §3 Lifecycle):
// header declarations for whichever of memo/ref were actually used are
// prepended, sized by the final slot counts now known. Loop scopes instead
// prepend the per-iteration "branch(loopHeader, localIdx, size)" prelude.
func (s *Scope) getStatements() []ast.Stmt {
	var prelude []ast.Stmt

	for kind := CacheKind(0); kind < 2; kind++ {
		line := &s.lines[kind]
		if line.header == nil {
			continue
		}
		size := line.nextIndex
		var initExpr ast.Expr
		switch {
		case s.isInLoop:
			localIdx := s.owner.freshTemp("_i")
			loopHeader := s.loopHeaderIdent(kind)
			prelude = append(prelude, ast.Stmt{Data: &ast.SLocal{
				Kind: ast.LocalLet,
				Decls: []ast.Decl{
					{Binding: identBinding(localIdx), ValueOrNil: preIncrement(s.loopIdxIdent())},
				},
			}})
			initExpr = s.owner.branchCall(loopHeader, identExprValue(localIdx), size)
		case s.parent == nil:
			initExpr = s.owner.rootCacheCall(kind, size)
		default:
			parentHeader, parentSlot := s.parent.reserveBranchSlot(kind)
			initExpr = s.owner.branchCall(parentHeader, ast.Expr{Data: &ast.ENumber{Value: float64(parentSlot)}}, size)
		}
		prelude = append(prelude, ast.Stmt{Data: &ast.SLocal{
			Kind:  ast.LocalLet,
			Decls: []ast.Decl{{Binding: identBinding(*line.header), ValueOrNil: initExpr}},
		}})
	}

	return append(prelude, s.statements...)
}

func (s *Scope) loopHeaderIdent(kind CacheKind) ast.Expr {
	if kind == KindRef {
		return ast.Expr{Data: &ast.EIdentifier{Ref: s.loopRef}}
	}
	return ast.Expr{Data: &ast.EIdentifier{Ref: s.loopMemo}}
}

func (s *Scope) loopIdxIdent() ast.Expr {
	return ast.Expr{Data: &ast.EIdentifier{Ref: s.loopIdx}}
}

func identBinding(ref ast.Ref) ast.Binding {
	return ast.Binding{Data: &ast.BIdentifier{Ref: ref}}
}

func identExprValue(ref ast.Ref) ast.Expr {
	return ast.Expr{Data: &ast.EIdentifier{Ref: ref}}
}

func preIncrement(target ast.Expr) ast.Expr {
	return ast.Expr{Data: &ast.EUnary{Op: ast.UnOpPreInc, Value: target}}
}

// Package hierarchy implements cycle-safe BFS traversal over a
// store.Queryable's parent/child relation (spec.md §4.4), generalizing
// the teacher's graph_traversals.go BFS-under-an-edge-mask pattern
// (visited-set, queue, never tree recursion) from probability-weighted
// edges to plain IS-A edges.
package hierarchy

import "github.com/snomedql/ecl/internal/ident"

// Source is the minimal capability the traverser needs; store.Queryable
// satisfies it directly.
type Source interface {
	GetChildren(id ident.ConceptID) []ident.ConceptID
	GetParents(id ident.ConceptID) []ident.ConceptID
}

// Traverser walks one Source. It holds no state of its own: every
// method is a fresh BFS, safe to call concurrently from multiple
// goroutines against a read-only store.
type Traverser struct {
	Store Source
}

func New(s Source) *Traverser { return &Traverser{Store: s} }

func bfs(start ident.ConceptID, neighbors func(ident.ConceptID) []ident.ConceptID) []ident.ConceptID {
	visited := map[ident.ConceptID]bool{start: true}
	queue := []ident.ConceptID{start}
	var out []ident.ConceptID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range neighbors(cur) {
			if visited[n] {
				continue
			}
			visited[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// precomputed is satisfied by internal/closure.Closure: when the
// traverser's Source also exposes precomputed ancestor/descendant
// sets, Descendants/Ancestors use those O(1) lookups instead of
// running a fresh BFS, per spec.md §4.8 ("all hierarchy queries become
// O(1)").
type precomputed interface {
	Ancestors(id ident.ConceptID) []ident.ConceptID
	Descendants(id ident.ConceptID) []ident.ConceptID
}

// Descendants returns every concept reachable via GetChildren,
// excluding id itself. A node reached by multiple paths (diamond
// inheritance) appears exactly once.
func (t *Traverser) Descendants(id ident.ConceptID) []ident.ConceptID {
	if p, ok := t.Store.(precomputed); ok {
		return p.Descendants(id)
	}
	return bfs(id, t.Store.GetChildren)
}

// DescendantsOrSelf is Descendants(id) ∪ {id}.
func (t *Traverser) DescendantsOrSelf(id ident.ConceptID) []ident.ConceptID {
	return append([]ident.ConceptID{id}, t.Descendants(id)...)
}

// Ancestors returns every concept reachable via GetParents, excluding
// id itself.
func (t *Traverser) Ancestors(id ident.ConceptID) []ident.ConceptID {
	if p, ok := t.Store.(precomputed); ok {
		return p.Ancestors(id)
	}
	return bfs(id, t.Store.GetParents)
}

func (t *Traverser) AncestorsOrSelf(id ident.ConceptID) []ident.ConceptID {
	return append([]ident.ConceptID{id}, t.Ancestors(id)...)
}

// Children is the direct-children convenience wrapper.
func (t *Traverser) Children(id ident.ConceptID) []ident.ConceptID {
	return t.Store.GetChildren(id)
}

func (t *Traverser) ChildrenOrSelf(id ident.ConceptID) []ident.ConceptID {
	return append([]ident.ConceptID{id}, t.Store.GetChildren(id)...)
}

// Parents is the direct-parents convenience wrapper.
func (t *Traverser) Parents(id ident.ConceptID) []ident.ConceptID {
	return t.Store.GetParents(id)
}

func (t *Traverser) ParentsOrSelf(id ident.ConceptID) []ident.ConceptID {
	return append([]ident.ConceptID{id}, t.Store.GetParents(id)...)
}

// IsAncestor reports whether ancestor is a proper ancestor of id,
// i.e. id is a (possibly indirect) descendant of ancestor. The root
// package's Executor.IsSubsumedBy uses it for its closure test.
func (t *Traverser) IsAncestor(ancestor, id ident.ConceptID) bool {
	return NewSet(t.Ancestors(id)).Contains(ancestor)
}

// Set is a concept-ID membership set built from a traversal result,
// used by the evaluator wherever O(1) membership testing is needed
// against a just-computed ancestor/descendant list.
type Set map[ident.ConceptID]struct{}

func NewSet(ids []ident.ConceptID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Contains(id ident.ConceptID) bool {
	_, ok := s[id]
	return ok
}

// Package closure builds a one-time transitive-closure snapshot of a
// store.Queryable (spec.md §4.8): for every concept it precomputes the
// full ancestor and descendant sets, turning every hierarchy query into
// a single map lookup. It implements store.Queryable directly so it can
// be swapped in anywhere a Store is accepted, generalizing the way the
// teacher's ProbabilisticAdjacencyListGraph is itself just another
// graph.ProbabilisticGraphModel.
package closure

import (
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/store"
)

// ProgressFunc is invoked (index, total) once per concept processed
// during Build, per spec.md §4.8.
type ProgressFunc func(index, total int)

// Closure is an owned, read-only snapshot: children and parents pass
// through to the underlying store, refset members are always empty
// (spec.md §4.8: "refset members empty"), and ancestors/descendants are
// served from prebuilt sets.
type Closure struct {
	store.DefaultStore
	base        store.Queryable
	ancestors   map[ident.ConceptID][]ident.ConceptID
	descendants map[ident.ConceptID][]ident.ConceptID

	relationshipsCount int
}

// Build walks base once, computing ancestors(c) and descendants(c) for
// every concept via BFS with a visited set (terminates on cyclic data).
// progress, if non-nil, is invoked once per concept.
func Build(base store.Queryable, progress ProgressFunc) *Closure {
	concepts := base.AllConcepts()
	c := &Closure{
		base:        base,
		ancestors:   make(map[ident.ConceptID][]ident.ConceptID, len(concepts)),
		descendants: make(map[ident.ConceptID][]ident.ConceptID, len(concepts)),
	}

	for _, id := range concepts {
		c.relationshipsCount += len(base.GetParents(id))
	}

	total := len(concepts)
	for i, id := range concepts {
		c.ancestors[id] = bfs(id, base.GetParents)
		c.descendants[id] = bfs(id, base.GetChildren)
		if progress != nil {
			progress(i+1, total)
		}
	}
	return c
}

func bfs(start ident.ConceptID, next func(ident.ConceptID) []ident.ConceptID) []ident.ConceptID {
	visited := make(map[ident.ConceptID]bool)
	queue := []ident.ConceptID{start}
	visited[start] = true
	var out []ident.ConceptID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range next(cur) {
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

// RelationshipsCount is the total number of direct-parent edges across
// all concepts in the closure, per the §4.8 build contract.
func (c *Closure) RelationshipsCount() int { return c.relationshipsCount }

func (c *Closure) GetChildren(id ident.ConceptID) []ident.ConceptID { return c.base.GetChildren(id) }
func (c *Closure) GetParents(id ident.ConceptID) []ident.ConceptID  { return c.base.GetParents(id) }
func (c *Closure) HasConcept(id ident.ConceptID) bool               { return c.base.HasConcept(id) }
func (c *Closure) AllConcepts() []ident.ConceptID                   { return c.base.AllConcepts() }

// GetRefsetMembers is always empty: the closure only materializes the
// hierarchy relation (spec.md §4.8).
func (c *Closure) GetRefsetMembers(ident.ConceptID) []ident.ConceptID { return nil }

// Ancestors returns the precomputed, O(1) ancestor set for id.
func (c *Closure) Ancestors(id ident.ConceptID) []ident.ConceptID { return c.ancestors[id] }

// Descendants returns the precomputed, O(1) descendant set for id.
func (c *Closure) Descendants(id ident.ConceptID) []ident.ConceptID { return c.descendants[id] }

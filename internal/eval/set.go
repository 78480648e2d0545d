package eval

import (
	"sort"

	"github.com/snomedql/ecl/internal/ident"
)

// Set is the evaluator's concept-ID result representation: a plain Go
// map used as a hash set. Operations are pure (they return a new Set)
// the way spec.md §4.9 describes the compressed bitmap layer's
// contract, so the in-memory evaluator and the bitmap-backed path
// (internal/bitset) present the same algebra to callers.
type Set map[ident.ConceptID]struct{}

func NewSet(ids ...ident.ConceptID) Set {
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

func (s Set) Add(id ident.ConceptID) { s[id] = struct{}{} }

func (s Set) Len() int { return len(s) }

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

func (s Set) Intersect(other Set) Set {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	out := make(Set)
	for id := range small {
		if _, ok := big[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s Set) Minus(other Set) Set {
	out := make(Set)
	for id := range s {
		if _, ok := other[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the set's members as an ascending slice, the "sorted
// vector" spec.md §6 says the public boundary may request.
func (s Set) Sorted() []ident.ConceptID {
	out := make([]ident.ConceptID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

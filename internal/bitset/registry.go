// Package bitset is the compressed set layer of spec.md §4.9: a dense
// 32-bit-indexed registry over sparse 64-bit concept IDs, backed by
// github.com/RoaringBitmap/roaring/v2 for the bulk AND/OR/MINUS
// operations clinical-scale hierarchies need. It generalizes the
// teacher's value.go tagged-union style (a small, immutable, by-value
// wrapper type) onto a bitmap instead of a scalar.
package bitset

import (
	"fmt"

	"github.com/snomedql/ecl/internal/ident"
)

// Registry maps concept IDs to dense indices and back. It is immutable
// after construction; two Sets can only be combined when they share a
// Registry (spec.md §4.9 "checked; violation is a programming error").
type Registry struct {
	toIndex map[ident.ConceptID]uint32
	toID    []ident.ConceptID
}

// NewRegistry builds a Registry assigning dense indices to ids in
// order, deduplicating repeats.
func NewRegistry(ids []ident.ConceptID) *Registry {
	r := &Registry{toIndex: make(map[ident.ConceptID]uint32, len(ids))}
	for _, id := range ids {
		if _, ok := r.toIndex[id]; ok {
			continue
		}
		r.toIndex[id] = uint32(len(r.toID))
		r.toID = append(r.toID, id)
	}
	return r
}

func (r *Registry) Index(id ident.ConceptID) (uint32, bool) {
	idx, ok := r.toIndex[id]
	return idx, ok
}

func (r *Registry) ConceptID(idx uint32) (ident.ConceptID, bool) {
	if int(idx) >= len(r.toID) {
		return 0, false
	}
	return r.toID[idx], true
}

func (r *Registry) Len() int { return len(r.toID) }

// Stats is the SUPPLEMENTED registry.rs snapshot: concept count and the
// dense-index high-water mark.
type Stats struct {
	ConceptCount  int
	HighWaterMark uint32
}

func (r *Registry) Stats() Stats {
	hwm := uint32(0)
	if len(r.toID) > 0 {
		hwm = uint32(len(r.toID)) - 1
	}
	return Stats{ConceptCount: len(r.toID), HighWaterMark: hwm}
}

// RegistryMismatch is the programming-error panic value raised when two
// Sets from different Registries are combined (spec.md §7: "any
// assertion violation ... is a programming bug, not a user error, and
// may abort").
type RegistryMismatch struct {
	Operation string
}

func (e *RegistryMismatch) Error() string {
	return fmt.Sprintf("bitset: %s combined sets from distinct registries", e.Operation)
}

func (r *Registry) checkSame(other *Registry, op string) {
	if r != other {
		panic(&RegistryMismatch{Operation: op})
	}
}

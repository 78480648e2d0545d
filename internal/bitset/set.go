package bitset

import (
	"bytes"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/snomedql/ecl/internal/ident"
)

// Set is a compressed bitmap of concept IDs over one Registry. Set
// operations are pure by default, returning a new Set; InPlace variants
// mutate the receiver, per spec.md §4.9 ("pure and in-place variants").
type Set struct {
	registry *Registry
	bitmap   *roaring.Bitmap
}

// NewSet builds an empty Set bound to reg.
func NewSet(reg *Registry) *Set {
	return &Set{registry: reg, bitmap: roaring.New()}
}

// FromConceptIDs builds a Set containing every id present in reg;
// unregistered ids are silently skipped.
func FromConceptIDs(reg *Registry, ids []ident.ConceptID) *Set {
	s := NewSet(reg)
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *Set) Registry() *Registry { return s.registry }

// Add inserts id if it is present in the registry; unregistered ids are
// silently ignored (a Set can never outgrow its Registry's universe).
func (s *Set) Add(id ident.ConceptID) {
	if idx, ok := s.registry.Index(id); ok {
		s.bitmap.Add(idx)
	}
}

// Contains is constant time.
func (s *Set) Contains(id ident.ConceptID) bool {
	idx, ok := s.registry.Index(id)
	if !ok {
		return false
	}
	return s.bitmap.Contains(idx)
}

// Len is the total population of the set.
func (s *Set) Len() int { return int(s.bitmap.GetCardinality()) }

func (s *Set) Clone() *Set {
	return &Set{registry: s.registry, bitmap: s.bitmap.Clone()}
}

// ConceptIDs materializes the set's members as concept IDs.
func (s *Set) ConceptIDs() []ident.ConceptID {
	out := make([]ident.ConceptID, 0, s.Len())
	it := s.bitmap.Iterator()
	for it.HasNext() {
		idx := it.Next()
		if id, ok := s.registry.ConceptID(idx); ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *Set) Intersect(other *Set) *Set {
	s.registry.checkSame(other.registry, "Intersect")
	return &Set{registry: s.registry, bitmap: roaring.And(s.bitmap, other.bitmap)}
}

func (s *Set) Union(other *Set) *Set {
	s.registry.checkSame(other.registry, "Union")
	return &Set{registry: s.registry, bitmap: roaring.Or(s.bitmap, other.bitmap)}
}

func (s *Set) Minus(other *Set) *Set {
	s.registry.checkSame(other.registry, "Minus")
	return &Set{registry: s.registry, bitmap: roaring.AndNot(s.bitmap, other.bitmap)}
}

func (s *Set) IntersectInPlace(other *Set) {
	s.registry.checkSame(other.registry, "IntersectInPlace")
	s.bitmap.And(other.bitmap)
}

func (s *Set) UnionInPlace(other *Set) {
	s.registry.checkSame(other.registry, "UnionInPlace")
	s.bitmap.Or(other.bitmap)
}

func (s *Set) MinusInPlace(other *Set) {
	s.registry.checkSame(other.registry, "MinusInPlace")
	s.bitmap.AndNot(other.bitmap)
}

// Filter keeps only the candidates present in s, per spec.md §4.9
// "filter(candidates) keeps only those present."
func (s *Set) Filter(candidates []ident.ConceptID) []ident.ConceptID {
	out := make([]ident.ConceptID, 0, len(candidates))
	for _, id := range candidates {
		if s.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// ToBytes serializes the bitmap, not the registry: the registry is
// reconstructed separately by whatever loads the bytes back.
func (s *Set) ToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.bitmap.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromBytes deserializes a bitmap previously produced by ToBytes,
// binding it to reg.
func FromBytes(reg *Registry, data []byte) (*Set, error) {
	bm := roaring.New()
	if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &Set{registry: reg, bitmap: bm}, nil
}

package bitset

import (
	"sort"
	"testing"

	"github.com/snomedql/ecl/internal/ident"
)

func sampleRegistry() *Registry {
	return NewRegistry([]ident.ConceptID{100, 200, 300, 400, 500})
}

func TestRegistryAssignsDenseIndices(t *testing.T) {
	r := sampleRegistry()
	if r.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", r.Len())
	}
	idx, ok := r.Index(300)
	if !ok {
		t.Fatal("Index(300) should be found")
	}
	id, ok := r.ConceptID(idx)
	if !ok || id != 300 {
		t.Errorf("ConceptID(%d) = %d, want 300", idx, id)
	}
}

func TestRegistryDeduplicatesRepeats(t *testing.T) {
	r := NewRegistry([]ident.ConceptID{100, 100, 200})
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (100 repeated should not grow the registry)", r.Len())
	}
}

func TestSetAddAndContains(t *testing.T) {
	r := sampleRegistry()
	s := NewSet(r)
	s.Add(200)
	s.Add(400)
	if !s.Contains(200) || !s.Contains(400) {
		t.Error("set should contain 200 and 400 after Add")
	}
	if s.Contains(300) {
		t.Error("set should not contain 300")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSetAddIgnoresUnregisteredID(t *testing.T) {
	r := sampleRegistry()
	s := NewSet(r)
	s.Add(999999) // not in the registry's universe
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0: an unregistered id must be silently ignored", s.Len())
	}
}

func TestFromConceptIDsAndConceptIDsRoundTrip(t *testing.T) {
	r := sampleRegistry()
	s := FromConceptIDs(r, []ident.ConceptID{100, 300, 500})
	got := s.ConceptIDs()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := []ident.ConceptID{100, 300, 500}
	if len(got) != len(want) {
		t.Fatalf("ConceptIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ConceptIDs() = %v, want %v", got, want)
		}
	}
}

// TestSetOperationsAgreeWithHashSetReference checks the bitmap-backed
// Set implements the same algebra as the evaluator's plain hash-set
// (spec.md's closure differential property, restated for the bitmap
// layer: it must never disagree with the reference implementation).
func TestSetOperationsAgreeWithHashSetReference(t *testing.T) {
	r := sampleRegistry()
	a := FromConceptIDs(r, []ident.ConceptID{100, 200, 300})
	b := FromConceptIDs(r, []ident.ConceptID{200, 300, 400})

	refAnd := hashIntersect([]ident.ConceptID{100, 200, 300}, []ident.ConceptID{200, 300, 400})
	refOr := hashUnion([]ident.ConceptID{100, 200, 300}, []ident.ConceptID{200, 300, 400})
	refMinus := hashMinus([]ident.ConceptID{100, 200, 300}, []ident.ConceptID{200, 300, 400})

	if !sameMembers(a.Intersect(b).ConceptIDs(), refAnd) {
		t.Errorf("Intersect disagrees with the hash-set reference")
	}
	if !sameMembers(a.Union(b).ConceptIDs(), refOr) {
		t.Errorf("Union disagrees with the hash-set reference")
	}
	if !sameMembers(a.Minus(b).ConceptIDs(), refMinus) {
		t.Errorf("Minus disagrees with the hash-set reference")
	}
}

func hashIntersect(a, b []ident.ConceptID) []ident.ConceptID {
	set := map[ident.ConceptID]bool{}
	for _, x := range b {
		set[x] = true
	}
	var out []ident.ConceptID
	for _, x := range a {
		if set[x] {
			out = append(out, x)
		}
	}
	return out
}

func hashUnion(a, b []ident.ConceptID) []ident.ConceptID {
	set := map[ident.ConceptID]bool{}
	var out []ident.ConceptID
	for _, x := range append(append([]ident.ConceptID{}, a...), b...) {
		if !set[x] {
			set[x] = true
			out = append(out, x)
		}
	}
	return out
}

func hashMinus(a, b []ident.ConceptID) []ident.ConceptID {
	set := map[ident.ConceptID]bool{}
	for _, x := range b {
		set[x] = true
	}
	var out []ident.ConceptID
	for _, x := range a {
		if !set[x] {
			out = append(out, x)
		}
	}
	return out
}

func sameMembers(a, b []ident.ConceptID) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := append([]ident.ConceptID{}, a...), append([]ident.ConceptID{}, b...)
	sort.Slice(sa, func(i, j int) bool { return sa[i] < sa[j] })
	sort.Slice(sb, func(i, j int) bool { return sb[i] < sb[j] })
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func TestInPlaceVariantsMutateReceiver(t *testing.T) {
	r := sampleRegistry()
	a := FromConceptIDs(r, []ident.ConceptID{100, 200})
	b := FromConceptIDs(r, []ident.ConceptID{200, 300})
	a.UnionInPlace(b)
	if a.Len() != 3 {
		t.Errorf("after UnionInPlace, Len() = %d, want 3", a.Len())
	}
}

func TestCombiningDistinctRegistriesPanics(t *testing.T) {
	r1 := NewRegistry([]ident.ConceptID{1, 2})
	r2 := NewRegistry([]ident.ConceptID{1, 2})
	a := FromConceptIDs(r1, []ident.ConceptID{1})
	b := FromConceptIDs(r2, []ident.ConceptID{2})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic combining sets from distinct registries")
		}
		if _, ok := r.(*RegistryMismatch); !ok {
			t.Errorf("recovered %#v, want *RegistryMismatch", r)
		}
	}()
	a.Intersect(b)
}

func TestFilterKeepsOnlyPresentCandidates(t *testing.T) {
	r := sampleRegistry()
	s := FromConceptIDs(r, []ident.ConceptID{100, 300})
	got := s.Filter([]ident.ConceptID{100, 200, 300, 999})
	if !sameMembers(got, []ident.ConceptID{100, 300}) {
		t.Errorf("Filter() = %v, want [100 300]", got)
	}
}

func TestToBytesFromBytesRoundTrip(t *testing.T) {
	r := sampleRegistry()
	s := FromConceptIDs(r, []ident.ConceptID{100, 200, 500})
	data, err := s.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	back, err := FromBytes(r, data)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !sameMembers(back.ConceptIDs(), s.ConceptIDs()) {
		t.Errorf("round-tripped set = %v, want %v", back.ConceptIDs(), s.ConceptIDs())
	}
}

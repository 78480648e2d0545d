package memstore

import (
	"bytes"
	"testing"

	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/store"
)

func buildSampleStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.AddConcept(Concept{
		ID:        100,
		Active:    true,
		Primitive: true,
		Descriptions: []store.Description{
			{DescriptionID: 1001, Term: "Clinical finding (finding)", TypeID: store.FullySpecifiedNameTypeID, Active: true},
		},
	})
	s.AddConcept(Concept{
		ID:      200,
		Parents: []ident.ConceptID{100},
		Active:  true,
		Attributes: []store.Relationship{
			{TypeID: 10, DestinationID: 300, Group: 1},
		},
	})
	s.AddConcept(Concept{ID: 300, Parents: []ident.ConceptID{100}, Active: true})
	s.AddRefsetMember(900, 200)
	s.AddRefsetMember(900, 300)
	s.AddDescriptionLanguageRefset(1001, store.LanguageRefsetMembership{RefsetID: 999001, Acceptability: "preferred"})
	return s
}

func TestAddConceptIndexesChildrenAndInboundRelationships(t *testing.T) {
	s := buildSampleStore(t)
	if got := s.GetChildren(100); !idsEqual(got, []ident.ConceptID{200, 300}) {
		t.Errorf("GetChildren(100) = %v, want [200 300]", got)
	}
	if got := s.GetParents(200); !idsEqual(got, []ident.ConceptID{100}) {
		t.Errorf("GetParents(200) = %v, want [100]", got)
	}
	inbound := s.GetInboundRelationships(300)
	if len(inbound) != 1 || inbound[0].DestinationID != 200 || inbound[0].TypeID != 10 {
		t.Errorf("GetInboundRelationships(300) = %+v, want one relationship from 200 via type 10", inbound)
	}
}

func TestHasConceptAndAllConcepts(t *testing.T) {
	s := buildSampleStore(t)
	if !s.HasConcept(200) || s.HasConcept(999) {
		t.Error("HasConcept disagrees with what was added")
	}
	if got := s.AllConcepts(); !idsEqual(got, []ident.ConceptID{100, 200, 300}) {
		t.Errorf("AllConcepts() = %v, want [100 200 300] in sorted order", got)
	}
}

func TestGetRefsetMembers(t *testing.T) {
	s := buildSampleStore(t)
	if got := s.GetRefsetMembers(900); !idsEqual(got, []ident.ConceptID{200, 300}) {
		t.Errorf("GetRefsetMembers(900) = %v, want [200 300]", got)
	}
	if got := s.GetRefsetMembers(111); got != nil {
		t.Errorf("GetRefsetMembers(111) = %v, want nil for an unknown refset", got)
	}
}

func TestIsConceptActiveDefaultsTrueForUnknownConcept(t *testing.T) {
	s := buildSampleStore(t)
	if !s.IsConceptActive(999) {
		t.Error("IsConceptActive should default to true for an unknown concept (DefaultStore optimistic default)")
	}
	if !s.IsConceptActive(200) {
		t.Error("IsConceptActive(200) should be true")
	}
}

func TestGetSemanticTagExtractsFSNParentheses(t *testing.T) {
	s := buildSampleStore(t)
	if got := s.GetSemanticTag(100); got != "finding" {
		t.Errorf("GetSemanticTag(100) = %q, want %q", got, "finding")
	}
	if got := s.GetSemanticTag(200); got != "" {
		t.Errorf("GetSemanticTag(200) = %q, want empty string (no FSN description)", got)
	}
}

func TestGetHistoricalAssociationsByTypeFiltersByKind(t *testing.T) {
	s := New()
	s.AddConcept(Concept{ID: 100, Associations: []store.HistoricalAssociation{
		{Kind: store.SameAs, Target: 200},
		{Kind: store.ReplacedBy, Target: 300},
	}})
	got := s.GetHistoricalAssociationsByType(100, store.SameAs)
	if len(got) != 1 || got[0].Target != 200 {
		t.Errorf("GetHistoricalAssociationsByType(100, SameAs) = %+v, want one association targeting 200", got)
	}
}

func TestResolveAlternateIdentifier(t *testing.T) {
	s := buildSampleStore(t)
	id, ok := s.ResolveAlternateIdentifier("scheme", "200")
	if !ok || id != 200 {
		t.Errorf("ResolveAlternateIdentifier = (%d, %v), want (200, true)", id, ok)
	}
	if _, ok := s.ResolveAlternateIdentifier("scheme", "not-a-number"); ok {
		t.Error("ResolveAlternateIdentifier should fail on a non-decimal identifier")
	}
	if _, ok := s.ResolveAlternateIdentifier("scheme", "999"); ok {
		t.Error("ResolveAlternateIdentifier should fail for a concept not present in the store")
	}
}

func TestWriteJSONReadJSONRoundTrip(t *testing.T) {
	s := buildSampleStore(t)

	var buf bytes.Buffer
	if err := s.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if !idsEqual(got.AllConcepts(), s.AllConcepts()) {
		t.Errorf("AllConcepts() after round-trip = %v, want %v", got.AllConcepts(), s.AllConcepts())
	}
	if !idsEqual(got.GetChildren(100), s.GetChildren(100)) {
		t.Errorf("GetChildren(100) after round-trip = %v, want %v", got.GetChildren(100), s.GetChildren(100))
	}
	if !idsEqual(got.GetRefsetMembers(900), s.GetRefsetMembers(900)) {
		t.Errorf("GetRefsetMembers(900) after round-trip = %v, want %v", got.GetRefsetMembers(900), s.GetRefsetMembers(900))
	}
	if got.GetSemanticTag(100) != "finding" {
		t.Errorf("GetSemanticTag(100) after round-trip = %q, want %q", got.GetSemanticTag(100), "finding")
	}
	langs := got.GetDescriptionLanguageRefsets(1001)
	if len(langs) != 1 || langs[0].Acceptability != "preferred" {
		t.Errorf("GetDescriptionLanguageRefsets(1001) after round-trip = %+v, want one preferred membership", langs)
	}
}

func idsEqual(a, b []ident.ConceptID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

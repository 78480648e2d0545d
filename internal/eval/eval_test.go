package eval

import (
	"context"
	"sort"
	"testing"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/memstore"
	"github.com/snomedql/ecl/internal/parser"
	"github.com/snomedql/ecl/internal/store"
)

// buildSampleHierarchy builds the concrete end-to-end scenario: 100 is
// the root; 200 and 300 are its children; 400 and 500 are children of
// 200; 600 is a child of 300.
func buildSampleHierarchy(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	s.AddConcept(memstore.Concept{ID: 100, Active: true})
	s.AddConcept(memstore.Concept{ID: 200, Parents: []ident.ConceptID{100}, Active: true})
	s.AddConcept(memstore.Concept{ID: 300, Parents: []ident.ConceptID{100}, Active: true})
	s.AddConcept(memstore.Concept{ID: 400, Parents: []ident.ConceptID{200}, Active: true})
	s.AddConcept(memstore.Concept{ID: 500, Parents: []ident.ConceptID{200}, Active: true})
	s.AddConcept(memstore.Concept{ID: 600, Parents: []ident.ConceptID{300}, Active: true})
	return s
}

func execute(t *testing.T, ev *Evaluator, src string) Set {
	t.Helper()
	n, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	result, _, err := ev.Evaluate(context.Background(), n)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", src, err)
	}
	return result
}

func idSlice(s Set) []ident.ConceptID { return s.Sorted() }

func wantIDs(t *testing.T, s Set, want ...ident.ConceptID) {
	t.Helper()
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	got := idSlice(s)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExecuteSingleConcept(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, "100"), 100)
}

func TestExecuteDescendantOrSelfOf(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, "<<100"), 100, 200, 300, 400, 500, 600)
}

func TestExecuteDescendantOf(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, "<100"), 200, 300, 400, 500, 600)
}

func TestExecuteChildOf(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, "<!100"), 200, 300)
}

func TestExecuteAncestorOrSelfOf(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, ">>400"), 400, 200, 100)
}

func TestExecuteParentOf(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, ">!400"), 200)
}

func TestExecuteIntersection(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, "<100 AND <200"), 400, 500)
}

func TestExecuteMinus(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, "<100 MINUS <200"), 200, 300, 600)
}

func TestExecuteUnion(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, "400 OR 500"), 400, 500)
}

func TestExecuteIdempotent(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	a := idSlice(execute(t, ev, "<<100"))
	b := idSlice(execute(t, ev, "<<100"))
	if len(a) != len(b) {
		t.Fatalf("repeated evaluation changed result size: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("repeated evaluation is not idempotent: %v vs %v", a, b)
		}
	}
}

func TestIsSubsumedBySemantics(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	descendants := execute(t, ev, "<<100")
	if !descendants.Contains(400) {
		t.Error("400 should be subsumed by 100 (descendant-or-self)")
	}
	selfAndDescOf300 := execute(t, ev, "<<300")
	if selfAndDescOf300.Contains(400) {
		t.Error("400 should not be subsumed by 300 (not in that subtree)")
	}
}

func TestExecuteConceptNotFoundError(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	n, err := parser.Parse("999999")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, _, err := ev.Evaluate(context.Background(), n); err == nil {
		t.Fatal("expected a ConceptNotFound error for an unknown concept id")
	}
}

func TestExecuteWildcard(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	wantIDs(t, execute(t, ev, "*"), 100, 200, 300, 400, 500, 600)
}

// --- refinement / grouping / cardinality ---

const (
	typeFindingSite     ident.ConceptID = 10
	typeAssociatedMorph ident.ConceptID = 20
	typeSeverity        ident.ConceptID = 30

	valLiver   ident.ConceptID = 5001
	valSpleen  ident.ConceptID = 5002
	valNecrosis ident.ConceptID = 5003
)

func buildRefinementStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	s.AddConcept(memstore.Concept{ID: 100, Active: true})
	s.AddConcept(memstore.Concept{ID: valLiver, Active: true})
	s.AddConcept(memstore.Concept{ID: valSpleen, Active: true})
	s.AddConcept(memstore.Concept{ID: valNecrosis, Active: true})
	s.AddConcept(memstore.Concept{ID: typeFindingSite, Active: true})
	s.AddConcept(memstore.Concept{ID: typeAssociatedMorph, Active: true})
	s.AddConcept(memstore.Concept{ID: typeSeverity, Active: true})

	// 700: one finding-site group (liver + necrosis) -- satisfies a
	// grouped refinement requiring both attributes together.
	s.AddConcept(memstore.Concept{ID: 700, Active: true, Attributes: []store.Relationship{
		{TypeID: typeFindingSite, DestinationID: valLiver, Group: 1},
		{TypeID: typeAssociatedMorph, DestinationID: valNecrosis, Group: 1},
	}})
	// 800: finding-site and morphology in different groups -- does not
	// satisfy the grouped form even though both attributes are present.
	s.AddConcept(memstore.Concept{ID: 800, Active: true, Attributes: []store.Relationship{
		{TypeID: typeFindingSite, DestinationID: valLiver, Group: 1},
		{TypeID: typeAssociatedMorph, DestinationID: valNecrosis, Group: 2},
	}})
	// 900: no attributes at all -- satisfies a [0..0] cardinality
	// refinement requiring the absence of a finding-site attribute.
	s.AddConcept(memstore.Concept{ID: 900, Active: true})
	return s
}

func TestRefinementGroupRequiresSameGroupNumber(t *testing.T) {
	ev := New(buildRefinementStore(t), Config{})
	src := "700 : { 10 = 5001, 20 = 5003 }"
	got := execute(t, ev, src)
	if !got.Contains(700) {
		t.Error("700 should satisfy a grouped refinement with both attributes in group 1")
	}

	ev2 := New(buildRefinementStore(t), Config{})
	got2 := execute(t, ev2, "800 : { 10 = 5001, 20 = 5003 }")
	if got2.Contains(800) {
		t.Error("800 should not satisfy the grouped refinement: its attributes are in different groups")
	}
}

func TestRefinementCardinalityZeroZeroRequiresAbsence(t *testing.T) {
	ev := New(buildRefinementStore(t), Config{})
	got := execute(t, ev, "900 : [0..0] 10 = 5001")
	if !got.Contains(900) {
		t.Error("900 has no finding-site attribute, so [0..0] 10 = 5001 should be satisfied")
	}

	got2 := execute(t, ev, "700 : [0..0] 10 = 5001")
	if got2.Contains(700) {
		t.Error("700 has a finding-site=liver attribute, so [0..0] 10 = 5001 must exclude it")
	}
}

func TestRefinementUngroupedDoesNotRequireSameGroup(t *testing.T) {
	ev := New(buildRefinementStore(t), Config{})
	got := execute(t, ev, "800 : 10 = 5001, 20 = 5003")
	if !got.Contains(800) {
		t.Error("ungrouped constraints should each match independently, regardless of relationship group")
	}
}

// --- TopOfSet / BottomOfSet ---

func TestTopOfSetIsSubsetAndExtremal(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	in := execute(t, ev, "<<100")
	top := ev.topOfSet(in)
	for id := range top {
		if !in.Contains(id) {
			t.Fatalf("TopOfSet result %d is not a subset of the input set", id)
		}
	}
	wantIDs(t, top, 100)
}

func TestBottomOfSetIsSubsetAndExtremal(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	in := execute(t, ev, "<<100")
	bottom := ev.bottomOfSet(in)
	for id := range bottom {
		if !in.Contains(id) {
			t.Fatalf("BottomOfSet result %d is not a subset of the input set", id)
		}
	}
	wantIDs(t, bottom, 400, 500, 600)
}

// --- MemberOf ---

func TestMemberOfUnionsRefsetMembers(t *testing.T) {
	s := buildSampleHierarchy(t)
	s.AddRefsetMember(700, 100)
	s.AddRefsetMember(700, 200)
	s.AddConcept(memstore.Concept{ID: 700, Active: true})
	ev := New(s, Config{})
	wantIDs(t, execute(t, ev, "^ 700"), 100, 200)
}

func TestMemberOfSoleEmptyRefsetIsNotFound(t *testing.T) {
	s := buildSampleHierarchy(t)
	s.AddConcept(memstore.Concept{ID: 700, Active: true})
	ev := New(s, Config{})
	n, err := parser.Parse("^ 700")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, _, err := ev.Evaluate(context.Background(), n); err == nil {
		t.Fatal("a sole refset with zero members should raise RefsetNotFound")
	}
}

// --- Filters ---

func buildFilterStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	s.AddConcept(memstore.Concept{ID: 100, Active: true, Descriptions: []store.Description{
		{DescriptionID: 1, Term: "Diabetes mellitus", LanguageCode: "en", Active: true},
	}})
	s.AddConcept(memstore.Concept{ID: 200, Active: false, Descriptions: []store.Description{
		{DescriptionID: 2, Term: "Hypertension", LanguageCode: "en", Active: true},
	}})
	return s
}

func TestFilterTermContains(t *testing.T) {
	ev := New(buildFilterStore(t), Config{})
	wantIDs(t, execute(t, ev, `* {{ term = "diabetes" }}`), 100)
}

func TestFilterActive(t *testing.T) {
	ev := New(buildFilterStore(t), Config{})
	wantIDs(t, execute(t, ev, "* {{ active = false }}"), 200)
}

// --- DotNotation ---

func TestDotNotationFollowsAttribute(t *testing.T) {
	ev := New(buildRefinementStore(t), Config{})
	wantIDs(t, execute(t, ev, "700.10"), valLiver)
}

// --- Concrete top-level ---

func TestTopLevelConcreteEvaluatesToEmptySet(t *testing.T) {
	ev := New(buildSampleHierarchy(t), Config{})
	n := ast.Concrete{Value: ident.Int(42), Op: ident.OpEquals}
	got, _, err := ev.Evaluate(context.Background(), n)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("top-level Concrete should evaluate to the empty set, got %v", idSlice(got))
	}
}

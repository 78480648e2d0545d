package planner

import (
	"strings"
	"testing"

	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/parser"
)

func planFor(t *testing.T, src string) QueryPlan {
	t.Helper()
	n, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return Plan(n, DefaultStatistics())
}

func TestExplainClinicalFindingAndBodyStructureYieldsThreeSteps(t *testing.T) {
	plan := planFor(t, "<<404684003 AND <<123037004")
	if len(plan.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3, got %+v", len(plan.Steps), plan.Steps)
	}
	if plan.EstimatedTotal <= 0 {
		t.Errorf("EstimatedTotal = %d, want a positive estimate", plan.EstimatedTotal)
	}
	foundLargeTraversal := false
	for _, h := range plan.Hints {
		if strings.Contains(h, "large-traversal") {
			foundLargeTraversal = true
		}
	}
	if !foundLargeTraversal {
		t.Errorf("Hints = %v, want at least one large-traversal hint", plan.Hints)
	}
}

func TestExplainSingleConceptIsOneStep(t *testing.T) {
	plan := planFor(t, "100")
	if len(plan.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(plan.Steps))
	}
	if plan.Steps[0].Operation != "Self" {
		t.Errorf("Operation = %q, want %q", plan.Steps[0].Operation, "Self")
	}
	if plan.Steps[0].Cardinality != 1 {
		t.Errorf("Cardinality = %d, want 1", plan.Steps[0].Cardinality)
	}
}

func TestExplainWildcardHintsEveryConcept(t *testing.T) {
	plan := planFor(t, "*")
	found := false
	for _, h := range plan.Hints {
		if strings.Contains(h, "wildcard") {
			found = true
		}
	}
	if !found {
		t.Errorf("Hints = %v, want a wildcard hint", plan.Hints)
	}
}

func TestExplainRepeatedSubtreeHintsIntermediateCaching(t *testing.T) {
	plan := planFor(t, "<<100 AND <<100")
	found := false
	for _, h := range plan.Hints {
		if strings.Contains(h, "intermediate-caching") {
			found = true
		}
	}
	if !found {
		t.Errorf("Hints = %v, want an intermediate-caching hint for the repeated <<100 subtree", plan.Hints)
	}
}

func TestExplainUsesCustomStatisticsOverride(t *testing.T) {
	n, err := parser.Parse("<<999")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	stats := &Statistics{DescendantCounts: map[ident.ConceptID]int{999: 7}}
	plan := Plan(n, stats)
	if plan.Steps[0].Cardinality != 7 {
		t.Errorf("Cardinality = %d, want the overridden 7", plan.Steps[0].Cardinality)
	}
}

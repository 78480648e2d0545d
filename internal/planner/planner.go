// Package planner walks an ast.Node and produces a QueryPlan without
// evaluating anything (spec.md §4.6): a sequence of Steps, an overall
// estimated result size, an overall cost estimate, and advisory hints.
// Cardinality and cost figures are heuristic defaults; a Statistics
// value lets a caller override per-concept descendant counts with
// figures gathered from a real release.
package planner

import (
	"fmt"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/ident"
)

// Statistics supplies per-concept cardinality overrides. Plan treats a
// nil Statistics as DefaultStatistics(); a concept with no entry is
// estimated at 1000 descendants.
type Statistics struct {
	DescendantCounts map[ident.ConceptID]int
}

func DefaultStatistics() *Statistics {
	return &Statistics{
		DescendantCounts: map[ident.ConceptID]int{
			404684003: 400000, // clinical finding
			123037004: 50000,  // body structure
		},
	}
}

func (s *Statistics) descendants(id ident.ConceptID) int {
	if s != nil {
		if n, ok := s.DescendantCounts[id]; ok {
			return n
		}
	}
	return 1000
}

// Step is one node of the plan, in the same shape the teacher's
// composite_queries.go result narration uses: an operation tag, the
// pretty-printed subexpression, and estimates.
type Step struct {
	Operation   string
	Expression  string
	Cardinality int
	CostMillis  float64
}

// QueryPlan is the non-executing estimate produced by Explain.
type QueryPlan struct {
	Steps          []Step
	EstimatedTotal int
	TotalCost      float64
	Hints          []string
}

const largeTraversalThreshold = 100000

// Plan walks n and produces its QueryPlan. stats may be nil, in which
// case DefaultStatistics() heuristics apply.
func Plan(n ast.Node, stats *Statistics) QueryPlan {
	if stats == nil {
		stats = DefaultStatistics()
	}
	p := &planState{stats: stats, seen: make(map[string]int)}
	card := p.walk(n)
	p.checkRepeatedSubtrees(n)
	return QueryPlan{Steps: p.steps, EstimatedTotal: card, TotalCost: p.totalCost, Hints: p.hints}
}

type planState struct {
	stats      *Statistics
	steps      []Step
	totalCost  float64
	hints      []string
	sawWildcard bool
	seen       map[string]int
}

func (p *planState) emit(op string, n ast.Node, card int, cost float64) int {
	p.steps = append(p.steps, Step{Operation: op, Expression: ast.Print(n), Cardinality: card, CostMillis: cost})
	p.totalCost += cost
	if card > largeTraversalThreshold {
		p.hints = append(p.hints, fmt.Sprintf("large-traversal: %q estimated at %d concepts", ast.Print(n), card))
	}
	return card
}

func (p *planState) walk(n ast.Node) int {
	switch v := n.(type) {
	case ast.Nested:
		return p.walk(v.Inner)

	case ast.Any:
		p.sawWildcard = true
		p.hints = append(p.hints, "wildcard: \"*\" matches every concept in the store")
		return p.emit("Any", n, 500000, 500000*1e-3)

	case ast.ConceptReference:
		return p.emit("Self", n, 1, 1e-3)

	case ast.AlternateIdentifier:
		return p.emit("ResolveAlternateIdentifier", n, 1, 1e-3)

	case ast.ConceptSet:
		return p.emit("ConceptSet", n, len(v.IDs), float64(len(v.IDs))*1e-3)

	case ast.Hierarchy:
		return p.walkHierarchy(n, v)

	case ast.MemberOf:
		inner := p.walk(v.RefsetExpr)
		return p.emit("MemberOf", n, inner, float64(inner)*1e-2)

	case ast.Binary:
		return p.walkBinary(n, v)

	case ast.Refined:
		focus := p.walk(v.Focus)
		card := int(0.1 * float64(focus))
		return p.emit("Refined", n, card, float64(focus)*1e-2)

	case ast.DotNotation:
		source := p.walk(v.Source)
		return p.emit("Dot", n, source, float64(source)*1e-2)

	case ast.Concrete:
		return p.emit("Concrete", n, 0, 1e-3)

	case ast.Filtered:
		inner := p.walk(v.Expr)
		card := int(0.5 * float64(inner))
		return p.emit("Filtered", n, card, float64(inner)*1e-4)

	case ast.TopOfSet:
		inner := p.walk(v.Inner)
		card := int(0.1 * float64(inner))
		return p.emit("TopOfSet", n, card, float64(inner)*float64(inner)*1e-4)

	case ast.BottomOfSet:
		inner := p.walk(v.Inner)
		card := int(0.3 * float64(inner))
		return p.emit("BottomOfSet", n, card, float64(inner)*float64(inner)*1e-4)

	default:
		return p.emit("Unknown", n, 0, 0)
	}
}

func (p *planState) walkHierarchy(n ast.Node, v ast.Hierarchy) int {
	focus, isSingle := singleConcept(v.Inner)
	var card int
	var op string
	switch v.Kind {
	case ast.DescendantOf, ast.DescendantOrSelfOf:
		op = "Descendants"
		if v.Kind == ast.DescendantOrSelfOf {
			op = "DescendantsOrSelf"
		}
		if isSingle {
			card = p.stats.descendants(focus)
		} else {
			card = 1000
		}
	case ast.AncestorOf, ast.AncestorOrSelfOf:
		op = "Ancestors"
		if v.Kind == ast.AncestorOrSelfOf {
			op = "AncestorsOrSelf"
		}
		card = 15
	case ast.ChildOf, ast.ChildOrSelfOf:
		op = "Children"
		if v.Kind == ast.ChildOrSelfOf {
			op = "ChildrenOrSelf"
		}
		card = 5
	case ast.ParentOf, ast.ParentOrSelfOf:
		op = "Parents"
		if v.Kind == ast.ParentOrSelfOf {
			op = "ParentsOrSelf"
		}
		card = 2
	}
	cost := float64(card) * 1e-2
	if isSingle && (v.Kind == ast.DescendantOf || v.Kind == ast.DescendantOrSelfOf) {
		cost = float64(card) * 1e-3
	}
	return p.emit(op, n, card, cost)
}

func (p *planState) walkBinary(n ast.Node, v ast.Binary) int {
	left := p.walk(v.Left)
	right := p.walk(v.Right)
	var op string
	var card int
	var cost float64
	switch v.Kind {
	case ast.And:
		op = "Intersect"
		small := left
		if right < small {
			small = right
		}
		card = int(0.3 * float64(small))
		cost = float64(left+right) * 1e-4
		if right > 0 && left > 0 && right < left/2 {
			p.hints = append(p.hints, fmt.Sprintf("AND-reordering: right operand of %q is much smaller than the left; evaluate it first", ast.Print(n)))
		}
	case ast.Or:
		op = "Union"
		and := int(0.3 * float64(min(left, right)))
		card = left + right - and
		cost = float64(left+right) * 5e-5
	case ast.Minus:
		op = "Difference"
		card = left - int(0.1*float64(min(left, right)))
		cost = float64(left+right) * 1e-4
	}
	return p.emit(op, n, card, cost)
}

// checkRepeatedSubtrees implements the SUPPLEMENTED intermediate-caching
// hint: a pretty-printed subtree that recurs at least twice under large
// hierarchy operators is worth memoizing during evaluation.
func (p *planState) checkRepeatedSubtrees(n ast.Node) {
	counts := make(map[string]int)
	countSubtrees(n, counts)
	for expr, count := range counts {
		if count >= 2 {
			p.hints = append(p.hints, fmt.Sprintf("intermediate-caching: %q appears %d times in this expression", expr, count))
		}
	}
}

func countSubtrees(n ast.Node, counts map[string]int) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case ast.Hierarchy:
		counts[ast.Print(n)]++
		countSubtrees(v.Inner, counts)
	case ast.Binary:
		countSubtrees(v.Left, counts)
		countSubtrees(v.Right, counts)
	case ast.Nested:
		countSubtrees(v.Inner, counts)
	case ast.MemberOf:
		countSubtrees(v.RefsetExpr, counts)
	case ast.Refined:
		countSubtrees(v.Focus, counts)
	case ast.DotNotation:
		countSubtrees(v.Source, counts)
		countSubtrees(v.Attribute, counts)
	case ast.Filtered:
		countSubtrees(v.Expr, counts)
	case ast.TopOfSet:
		countSubtrees(v.Inner, counts)
	case ast.BottomOfSet:
		countSubtrees(v.Inner, counts)
	}
}

func singleConcept(n ast.Node) (ident.ConceptID, bool) {
	for {
		if nested, ok := n.(ast.Nested); ok {
			n = nested.Inner
			continue
		}
		break
	}
	if ref, ok := n.(ast.ConceptReference); ok {
		return ref.ID, true
	}
	return 0, false
}

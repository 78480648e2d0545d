package eval

import (
	"context"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/store"
)

func (e *Evaluator) evalRefined(ctx context.Context, st *ctxState, v ast.Refined) (Set, error) {
	focus, err := e.eval(ctx, st, v.Focus)
	if err != nil {
		return nil, err
	}
	needsInbound := refinementNeedsInbound(v.Refinement)
	out := NewSet()
	for c := range focus {
		outbound := e.Store.GetAttributes(c)
		var inbound []store.Relationship
		if needsInbound {
			inbound = e.Store.GetInboundRelationships(c)
		}
		st.traversed.Add(int64(len(outbound) + len(inbound)))

		ok, err := e.satisfiesRefinement(ctx, st, c, outbound, inbound, v.Refinement)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Add(c)
		}
	}
	return out, nil
}

func refinementNeedsInbound(r ast.Refinement) bool {
	for _, ac := range r.Ungrouped {
		if ac.Reverse {
			return true
		}
	}
	for _, g := range r.Groups {
		for _, ac := range g.Constraints {
			if ac.Reverse {
				return true
			}
		}
	}
	return false
}

func (e *Evaluator) satisfiesRefinement(ctx context.Context, st *ctxState, c ident.ConceptID, outbound, inbound []store.Relationship, r ast.Refinement) (bool, error) {
	for _, ac := range r.Ungrouped {
		attrs := outbound
		if ac.Reverse {
			attrs = inbound
		}
		ok, err := e.satisfiesConstraint(ctx, st, c, attrs, 0, ac)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	for _, g := range r.Groups {
		k, err := e.countSatisfiedGroups(ctx, st, c, outbound, inbound, g)
		if err != nil {
			return false, err
		}
		if g.Cardinality != nil {
			if !g.Cardinality.Matches(k) {
				return false, nil
			}
		} else if k < 1 {
			return false, nil
		}
	}
	return true, nil
}

// countSatisfiedGroups partitions c's outbound (and, for reverse
// constraints, inbound) relationships by non-zero group number and
// counts how many group numbers satisfy every constraint in g
// (spec.md §4.5 "Attribute group evaluation").
func (e *Evaluator) countSatisfiedGroups(ctx context.Context, st *ctxState, c ident.ConceptID, outbound, inbound []store.Relationship, g ast.AttributeGroup) (int, error) {
	byGroup := make(map[int][]store.Relationship)
	for _, r := range outbound {
		if r.Group != 0 {
			byGroup[r.Group] = append(byGroup[r.Group], r)
		}
	}
	inboundByGroup := make(map[int][]store.Relationship)
	for _, r := range inbound {
		if r.Group != 0 {
			inboundByGroup[r.Group] = append(inboundByGroup[r.Group], r)
		}
	}

	groups := make(map[int]bool)
	for group := range byGroup {
		groups[group] = true
	}
	for group := range inboundByGroup {
		groups[group] = true
	}

	k := 0
	for group := range groups {
		satisfied := true
		for _, ac := range g.Constraints {
			attrs := byGroup[group]
			if ac.Reverse {
				attrs = inboundByGroup[group]
			}
			ok, err := e.satisfiesConstraint(ctx, st, c, attrs, group, ac)
			if err != nil {
				return 0, err
			}
			if !ok {
				satisfied = false
				break
			}
		}
		if satisfied {
			k++
		}
	}
	return k, nil
}

// satisfiesConstraint implements "Attribute-constraint evaluation"
// (spec.md §4.5) against one concept c's relevant relationship slice
// (either the full outbound/inbound list for an ungrouped constraint,
// group == 0, or one relationship group's subset, group != 0).
func (e *Evaluator) satisfiesConstraint(ctx context.Context, st *ctxState, c ident.ConceptID, attrs []store.Relationship, group int, ac ast.AttributeConstraint) (bool, error) {
	typeSet, err := e.eval(ctx, st, ac.Type)
	if err != nil {
		return false, err
	}
	any := isAny(ac.Type)

	n := 0
	if ac.Concrete != nil {
		for _, cv := range e.Store.GetConcreteValues(c) {
			if group != 0 && cv.Group != group {
				continue
			}
			if !(any || typeSet.Contains(cv.TypeID)) {
				continue
			}
			if ident.Compare(cv.Value, ac.Concrete.Op, ac.Concrete.Value) {
				n++
			}
		}
	} else {
		v, err := e.eval(ctx, st, ac.Value)
		if err != nil {
			return false, err
		}
		for _, r := range attrs {
			if !(any || typeSet.Contains(r.TypeID)) {
				continue
			}
			if e.matchesRefinementValue(r.DestinationID, ac.Mod, v) {
				n++
			}
		}
	}

	if ac.Cardinality != nil {
		return ac.Cardinality.Matches(n), nil
	}
	return n >= 1, nil
}

func (e *Evaluator) matchesRefinementValue(destination ident.ConceptID, mod ast.RefMod, v Set) bool {
	switch mod {
	case ast.RefEq, ast.RefEqDescendantOrSelf:
		return v.Contains(destination)
	case ast.RefNotEq:
		return !v.Contains(destination)
	case ast.RefEqDescendant:
		for _, a := range e.Trav.Ancestors(destination) {
			if v.Contains(a) {
				return true
			}
		}
		return false
	case ast.RefEqAncestor:
		for _, d := range e.Trav.Descendants(destination) {
			if v.Contains(d) {
				return true
			}
		}
		return false
	case ast.RefEqAncestorOrSelf:
		if v.Contains(destination) {
			return true
		}
		for _, d := range e.Trav.Descendants(destination) {
			if v.Contains(d) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

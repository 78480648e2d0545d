package eval

import (
	"strings"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/store"
)

// applyFilter implements one EclFilter variant as a pure set->set
// function (spec.md §4.5 "Filtered{expr, filters}"), following the
// "selected precise contracts" under "Filter semantics".
func (e *Evaluator) applyFilter(s Set, f ast.Filter) Set {
	switch f.Kind {
	case ast.FilterDomain:
		if f.Inner == nil {
			return s
		}
		return e.applyFilter(s, *f.Inner)

	case ast.FilterTerm:
		return e.keepIf(s, func(id ident.ConceptID) bool {
			for _, d := range e.Store.GetDescriptions(id) {
				if matchesTerm(d.Term, f.Term, f.TermMode) {
					return true
				}
			}
			return false
		})

	case ast.FilterLanguage:
		return e.keepIf(s, func(id ident.ConceptID) bool {
			for _, d := range e.Store.GetDescriptions(id) {
				if containsFold(f.Codes, d.LanguageCode) {
					return true
				}
			}
			return false
		})

	case ast.FilterDialect, ast.FilterPreferredIn, ast.FilterAcceptableIn, ast.FilterLanguageRefset:
		wantAcceptability := f.Acceptability
		if f.Kind == ast.FilterPreferredIn {
			wantAcceptability = "preferred"
		} else if f.Kind == ast.FilterAcceptableIn {
			wantAcceptability = "acceptable"
		}
		return e.keepIf(s, func(id ident.ConceptID) bool {
			for _, d := range e.Store.GetDescriptions(id) {
				for _, m := range e.Store.GetDescriptionLanguageRefsets(d.DescriptionID) {
					if !containsID(f.IDs, m.RefsetID) {
						continue
					}
					if wantAcceptability == "" || strings.EqualFold(wantAcceptability, m.Acceptability) {
						return true
					}
				}
			}
			return false
		})

	case ast.FilterCaseSignificance:
		return e.keepIf(s, func(id ident.ConceptID) bool {
			for _, d := range e.Store.GetDescriptions(id) {
				if containsID(f.IDs, d.CaseSignificanceID) {
					return true
				}
			}
			return false
		})

	case ast.FilterDescriptionType:
		return e.keepIf(s, func(id ident.ConceptID) bool {
			for _, d := range e.Store.GetDescriptions(id) {
				if containsID(f.IDs, d.TypeID) {
					return true
				}
			}
			return false
		})

	case ast.FilterActive:
		return e.keepIf(s, func(id ident.ConceptID) bool { return e.Store.IsConceptActive(id) == f.Bool })

	case ast.FilterModule:
		return e.keepIf(s, func(id ident.ConceptID) bool { return containsID(f.IDs, e.Store.GetConceptModule(id)) })

	case ast.FilterEffectiveTime:
		return e.keepIf(s, func(id ident.ConceptID) bool {
			return ident.Compare(ident.Int(int64(e.Store.GetConceptEffectiveTime(id))), f.EffectiveOp, ident.Int(int64(f.EffectiveTime)))
		})

	case ast.FilterDefinitionStatus:
		return e.keepIf(s, func(id ident.ConceptID) bool { return e.Store.IsConceptPrimitive(id) == f.Bool })

	case ast.FilterSemanticTag:
		return e.keepIf(s, func(id ident.ConceptID) bool {
			return containsFold(f.Codes, e.Store.GetSemanticTag(id))
		})

	case ast.FilterID:
		out := NewSet()
		for id := range s {
			if containsID(f.IDs, id) {
				out.Add(id)
			}
		}
		return out

	case ast.FilterHistory:
		out := s.Clone()
		kinds := historyKinds(f.History)
		for id := range s {
			for _, kind := range kinds {
				for _, assoc := range e.Store.GetHistoricalAssociationsByType(id, kind) {
					out.Add(assoc.Target)
				}
			}
		}
		return out

	case ast.FilterMemberField:
		// The store interface (spec.md §4.3) has no per-member field
		// capability, so this filter cannot be evaluated; per the
		// "limited store yields fewer matches rather than an error"
		// principle (§7) it conservatively excludes everything rather
		// than silently passing candidates through unfiltered.
		return NewSet()

	default:
		return s
	}
}

func (e *Evaluator) keepIf(s Set, pred func(ident.ConceptID) bool) Set {
	out := NewSet()
	for id := range s {
		if pred(id) {
			out.Add(id)
		}
	}
	return out
}

func matchesTerm(term, needle string, mode ast.TermMatchMode) bool {
	t, n := strings.ToLower(term), strings.ToLower(needle)
	switch mode {
	case ast.TermStartsWith:
		return strings.HasPrefix(t, n)
	case ast.TermExact:
		return t == n
	case ast.TermRegex:
		// Documented degraded mode (spec.md §4.5/§9): no regex engine
		// is linked, so regex filters fall back to substring matching.
		return strings.Contains(t, n)
	case ast.TermWildcard:
		stripped := strings.NewReplacer("*", "", "?", "").Replace(n)
		return strings.Contains(t, stripped)
	default: // TermContains
		return strings.Contains(t, n)
	}
}

func containsFold(codes []string, v string) bool {
	for _, c := range codes {
		if strings.EqualFold(c, v) {
			return true
		}
	}
	return false
}

func containsID(ids []ident.ConceptID, v ident.ConceptID) bool {
	for _, id := range ids {
		if id == v {
			return true
		}
	}
	return false
}

func historyKinds(profile ast.HistoryProfile) []store.AssociationKind {
	switch profile {
	case ast.HistoryMin:
		return []store.AssociationKind{store.SameAs}
	case ast.HistoryMod:
		return []store.AssociationKind{store.SameAs, store.ReplacedBy, store.PossiblyEquivalentTo}
	default:
		return []store.AssociationKind{
			store.SameAs, store.ReplacedBy, store.PossiblyEquivalentTo,
			store.Alternative, store.WasA, store.MovedTo, store.MovedFrom,
		}
	}
}

package ast

import "github.com/snomedql/ecl/internal/ident"

// FilterKind tags the variant held by a Filter (spec.md §3/§4.5
// "Filters (EclFilter variants)"). A Filter is a bag of the fields its
// Kind uses; this mirrors the filter grammar more than it mirrors a
// strict sum type, which keeps seventeen near-empty wrapper structs out
// of the package.
type FilterKind int

const (
	FilterTerm FilterKind = iota
	FilterLanguage
	FilterDescriptionType
	FilterDialect
	FilterCaseSignificance
	FilterActive
	FilterModule
	FilterEffectiveTime
	FilterDefinitionStatus
	FilterSemanticTag
	FilterPreferredIn
	FilterAcceptableIn
	FilterLanguageRefset
	FilterID
	FilterHistory
	FilterMemberField
	FilterDomain
)

func (k FilterKind) String() string {
	switch k {
	case FilterTerm:
		return "term"
	case FilterLanguage:
		return "language"
	case FilterDescriptionType:
		return "descriptionType"
	case FilterDialect:
		return "dialect"
	case FilterCaseSignificance:
		return "caseSignificance"
	case FilterActive:
		return "active"
	case FilterModule:
		return "moduleId"
	case FilterEffectiveTime:
		return "effectiveTime"
	case FilterDefinitionStatus:
		return "definitionStatus"
	case FilterSemanticTag:
		return "semanticTag"
	case FilterPreferredIn:
		return "preferredIn"
	case FilterAcceptableIn:
		return "acceptableIn"
	case FilterLanguageRefset:
		return "languageRefSetId"
	case FilterID:
		return "id"
	case FilterHistory:
		return "+HISTORY"
	case FilterMemberField:
		return "M"
	case FilterDomain:
		return "domain"
	default:
		return "?"
	}
}

// TermMatchMode selects how FilterTerm compares its Term field against
// a description's text.
type TermMatchMode int

const (
	TermContains TermMatchMode = iota
	TermStartsWith
	TermExact
	TermRegex
	TermWildcard
)

// HistoryProfile selects which association kinds +HISTORY supplements
// with (spec.md §4.5 Filter semantics, "History").
type HistoryProfile int

const (
	HistoryMax HistoryProfile = iota // all association kinds (default)
	HistoryMin                       // SameAs only
	HistoryMod                       // SameAs, ReplacedBy, PossiblyEquivalentTo
)

// Filter is one post-filter clause inside a Filtered node's {{ }} block.
// Exactly the fields relevant to Kind are meaningful; the rest are zero.
type Filter struct {
	Kind FilterKind

	// FilterTerm
	TermMode TermMatchMode
	Term     string

	// FilterLanguage, FilterSemanticTag: Codes holds the listed
	// code/tag values. FilterDialect, FilterModule, FilterPreferredIn,
	// FilterAcceptableIn, FilterLanguageRefset, FilterDescriptionType,
	// FilterCaseSignificance, FilterID: IDs holds the listed concept IDs.
	Codes []string
	IDs   []ident.ConceptID

	// FilterDialect, FilterPreferredIn, FilterAcceptableIn
	Acceptability string // "preferred", "acceptable", or "" (unspecified)

	// FilterActive, FilterDefinitionStatus
	Bool bool

	// FilterEffectiveTime
	EffectiveOp   ident.ComparisonOp
	EffectiveTime int

	// FilterHistory
	History HistoryProfile

	// FilterMemberField
	FieldName  string
	FieldOp    ident.ComparisonOp
	FieldValue ident.Value

	// FilterDomain: Domain narrows which component type Inner targets;
	// Inner is the delegated filter.
	Domain string
	Inner  *Filter
}

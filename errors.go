package ecl

import (
	"github.com/snomedql/ecl/internal/eval"
	"github.com/snomedql/ecl/internal/parser"
)

// The error taxonomy of spec.md §6 is defined once, in the internal
// packages that raise it; these are type aliases so callers never need
// to import an internal package just to type-switch on an error.
type (
	ParseError       = parser.ParseError
	EmptyExpression  = parser.EmptyExpression
	Incomplete       = parser.Incomplete
	InvalidConceptID = parser.InvalidConceptID

	// Error is the Kind-tagged evaluator failure used for
	// ConceptNotFound and RefsetNotFound, distinguished by its Kind field.
	Error              = eval.Error
	ResultTooLarge     = eval.ResultTooLarge
	Timeout            = eval.Timeout
	UnsupportedFeature = eval.UnsupportedFeature
)

package eval

import (
	"fmt"
	"time"

	"github.com/snomedql/ecl/internal/ident"
)

// ResultTooLarge is the post-evaluation guard against oversized result
// sets (spec.md §6/§7), also checked early after each union step per
// the SUPPLEMENTED max_results short-circuit behavior.
type ResultTooLarge struct {
	Count int
	Limit int
}

func (e *ResultTooLarge) Error() string {
	return fmt.Sprintf("result too large: %d concepts exceeds limit %d", e.Count, e.Limit)
}

// Timeout reports that the evaluator's cooperative budget check at a
// set-algebra boundary found the configured duration exceeded.
type Timeout struct {
	Duration time.Duration
}

func (e *Timeout) Error() string { return fmt.Sprintf("query exceeded timeout of %s", e.Duration) }

// UnsupportedFeature is raised when an AST shape cannot be evaluated,
// e.g. a hierarchy operator whose inner expression does not resolve to
// a single concept reference.
type UnsupportedFeature struct {
	Description string
}

func (e *UnsupportedFeature) Error() string { return "unsupported: " + e.Description }

// Error is a generic Kind-tagged evaluator failure, mirroring the
// teacher's query.QueryError{Kind, Message} convention, used for
// conditions not covered by a dedicated type above.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("eval: %s: %s", e.Kind, e.Message) }

func conceptNotFound(id ident.ConceptID) error {
	return &Error{Kind: "ConceptNotFound", Message: fmt.Sprintf("concept %s not found", id)}
}

func refsetNotFound(id ident.ConceptID) error {
	return &Error{Kind: "RefsetNotFound", Message: fmt.Sprintf("refset %s returned no members", id)}
}

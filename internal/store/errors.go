package store

import (
	"fmt"

	"github.com/snomedql/ecl/internal/ident"
)

// Error reports a store-level failure, mirroring the teacher's
// graph.GraphError{Kind, Message} convention.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("store: %s: %s", e.Kind, e.Message) }

func ConceptNotFound(id ident.ConceptID) *Error {
	return &Error{Kind: "ConceptNotFound", Message: fmt.Sprintf("concept %s not found", id)}
}

func RefsetNotFound(id ident.ConceptID) *Error {
	return &Error{Kind: "RefsetNotFound", Message: fmt.Sprintf("refset %s not found", id)}
}

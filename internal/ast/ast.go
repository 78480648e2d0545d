// Package ast defines the abstract syntax tree produced by the ECL
// parser. Every node is an immutable value; there is no node identity
// beyond structural equality of its canonical pretty-printed form (see
// Print in print.go), which is what the result cache keys on.
package ast

import "github.com/snomedql/ecl/internal/ident"

// Node is implemented by every AST variant listed in spec.md §3.
type Node interface {
	isNode()
}

type node struct{}

func (node) isNode() {}

// Any is the universal set wildcard, "*".
type Any struct{ node }

// ConceptReference is a singleton set naming one concept, optionally
// carrying the pipe-delimited term that followed it in the source text.
type ConceptReference struct {
	node
	ID      ident.ConceptID
	Term    string
	HasTerm bool
}

// AlternateIdentifier resolves a foreign-scheme identifier to a concept
// via the store, e.g. "http://snomed.info/id|12345|".
type AlternateIdentifier struct {
	node
	Scheme     string
	Identifier string
}

// HierarchyKind enumerates the unary hierarchy operators. They all share
// one node shape because they differ only in which traverser/getter the
// evaluator dispatches to.
type HierarchyKind int

const (
	DescendantOf HierarchyKind = iota
	DescendantOrSelfOf
	AncestorOf
	AncestorOrSelfOf
	ChildOf
	ChildOrSelfOf
	ParentOf
	ParentOrSelfOf
)

func (k HierarchyKind) String() string {
	switch k {
	case DescendantOf:
		return "<"
	case DescendantOrSelfOf:
		return "<<"
	case AncestorOf:
		return ">"
	case AncestorOrSelfOf:
		return ">>"
	case ChildOf:
		return "<!"
	case ChildOrSelfOf:
		return "<<!"
	case ParentOf:
		return ">!"
	case ParentOrSelfOf:
		return ">>!"
	default:
		return "?"
	}
}

// Hierarchy wraps one subtree with a unary hierarchy operator. Per
// spec.md §4.5 the inner expression must resolve to a single concept
// reference; everything else is UnsupportedFeature at evaluation time.
type Hierarchy struct {
	node
	Kind  HierarchyKind
	Inner Node
}

// MemberOf evaluates RefsetExpr to a set of refset IDs and unions their
// members.
type MemberOf struct {
	node
	RefsetExpr Node
}

// BinaryKind enumerates set-algebra operators.
type BinaryKind int

const (
	And BinaryKind = iota
	Or
	Minus
)

func (k BinaryKind) String() string {
	switch k {
	case And:
		return "AND"
	case Or:
		return "OR"
	case Minus:
		return "MINUS"
	default:
		return "?"
	}
}

// Binary is AND / OR / MINUS over two operands.
type Binary struct {
	node
	Kind        BinaryKind
	Left, Right Node
}

// Nested is a parenthesized group; transparent to evaluation.
type Nested struct {
	node
	Inner Node
}

// RefMod is the equality modifier of an attribute's refinement operator
// (spec.md §3/§4.5): plain "=", the descendant/ancestor variants, or
// "!=". Eq and EqDescendantOrSelf evaluate identically (membership in
// the value set) and differ only in their printed form.
type RefMod int

const (
	RefEq RefMod = iota
	RefNotEq
	RefEqDescendantOrSelf
	RefEqDescendant
	RefEqAncestor
	RefEqAncestorOrSelf
)

func (m RefMod) String() string {
	switch m {
	case RefEq:
		return "="
	case RefNotEq:
		return "!="
	case RefEqDescendantOrSelf:
		return "= <<"
	case RefEqDescendant:
		return "= <"
	case RefEqAncestor:
		return "= >"
	case RefEqAncestorOrSelf:
		return "= >>"
	default:
		return "?"
	}
}

// Cardinality is an inclusive [min..max] range; Unbounded means "*".
type Cardinality struct {
	Min       int
	Max       int
	Unbounded bool
}

// Matches reports whether n relationships/groups satisfy the range.
func (c Cardinality) Matches(n int) bool {
	if n < c.Min {
		return false
	}
	return c.Unbounded || n <= c.Max
}

// AttributeConstraint is one member of a refinement's ungrouped list or
// of an AttributeGroup's constraint list.
type AttributeConstraint struct {
	Cardinality *Cardinality
	Reverse     bool
	Type        Node
	Mod         RefMod
	// Exactly one of Value or Concrete is set. Value is a general
	// expression evaluated to produce the comparison set V (spec.md
	// §4.5 step 2). Concrete is set when the attribute compares
	// against a literal numeric/string/boolean value instead.
	Value    Node
	Concrete *Concrete
}

// AttributeGroup is a cardinality-qualified, grouped set of attribute
// constraints that must all be satisfied by relationships sharing one
// non-zero relationship group number.
type AttributeGroup struct {
	Cardinality *Cardinality
	Constraints []AttributeConstraint
}

// Refinement is the ":" clause of a Refined node: an ungrouped
// attribute-constraint list plus zero or more attribute groups.
type Refinement struct {
	Ungrouped []AttributeConstraint
	Groups    []AttributeGroup
}

// Refined constrains Focus by Refinement.
type Refined struct {
	node
	Focus      Node
	Refinement Refinement
}

// DotNotation extracts attribute values: for each element of Source,
// follow outbound relationships whose type matches Attribute.
type DotNotation struct {
	node
	Source    Node
	Attribute Node
}

// Concrete is a leaf value used inside attribute refinements; as a
// top-level expression it evaluates to the empty set.
type Concrete struct {
	node
	Value ident.Value
	Op    ident.ComparisonOp
}

// Filtered applies a post-filter chain (possibly from repeated "{{ }}"
// suffixes) to Expr.
type Filtered struct {
	node
	Expr    Node
	Filters []Filter
}

// TopOfSet / BottomOfSet select the extremal elements of the evaluated
// set under the partial order restricted to that set.
type TopOfSet struct {
	node
	Inner Node
}

type BottomOfSet struct {
	node
	Inner Node
}

// ConceptSet is a literal enumeration, e.g. "(100 200 300)" used as a
// refset expression or composed via AND/OR with other terms.
type ConceptSet struct {
	node
	IDs []ident.ConceptID
}

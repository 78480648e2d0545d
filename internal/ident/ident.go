// Package ident defines the primitive identifiers and concrete-value
// types shared across the ECL engine: concept IDs and the typed value
// union used by concrete attribute values and member-field filters.
package ident

import "fmt"

// ConceptID is a SNOMED CT concept identifier. It is semantically
// opaque outside of equality and hashing.
type ConceptID uint64

func (c ConceptID) String() string {
	return fmt.Sprintf("%d", uint64(c))
}

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	IntVal ValueKind = iota
	DecimalVal
	StringVal
	BoolVal
)

func (k ValueKind) String() string {
	switch k {
	case IntVal:
		return "integer"
	case DecimalVal:
		return "decimal"
	case StringVal:
		return "string"
	case BoolVal:
		return "boolean"
	default:
		return "unknown"
	}
}

// Value is a concrete attribute value: an integer, decimal, string, or
// boolean. Only one of the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind
	I    int64
	D    float64
	S    string
	B    bool
}

func Int(i int64) Value      { return Value{Kind: IntVal, I: i} }
func Decimal(d float64) Value { return Value{Kind: DecimalVal, D: d} }
func Str(s string) Value     { return Value{Kind: StringVal, S: s} }
func Bool(b bool) Value      { return Value{Kind: BoolVal, B: b} }

// AsFloat promotes an integer or decimal value to float64. It panics if
// Kind is neither IntVal nor DecimalVal; callers must check Kind first.
func (v Value) AsFloat() float64 {
	switch v.Kind {
	case IntVal:
		return float64(v.I)
	case DecimalVal:
		return v.D
	default:
		panic(fmt.Sprintf("ident: AsFloat on non-numeric value kind %v", v.Kind))
	}
}

func (v Value) String() string {
	switch v.Kind {
	case IntVal:
		return fmt.Sprintf("%d", v.I)
	case DecimalVal:
		return fmt.Sprintf("%g", v.D)
	case StringVal:
		return fmt.Sprintf("%q", v.S)
	case BoolVal:
		return fmt.Sprintf("%t", v.B)
	default:
		return "?"
	}
}

// ComparisonOp is a numeric/string/boolean comparison operator used by
// concrete-value filters inside attribute constraints.
type ComparisonOp int

const (
	OpEquals ComparisonOp = iota
	OpNotEquals
	OpLessThan
	OpLessOrEqual
	OpGreaterThan
	OpGreaterOrEqual
)

func (o ComparisonOp) String() string {
	switch o {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	default:
		return "?"
	}
}

// Compare evaluates `v op target`. Mismatched kinds never match, except
// integer/decimal pairs which promote to float64. Ordering operators on
// BoolVal never match (booleans admit only = / !=).
func Compare(v Value, op ComparisonOp, target Value) bool {
	numeric := func(k ValueKind) bool { return k == IntVal || k == DecimalVal }

	switch {
	case numeric(v.Kind) && numeric(target.Kind):
		a, b := v.AsFloat(), target.AsFloat()
		switch op {
		case OpEquals:
			return a == b
		case OpNotEquals:
			return a != b
		case OpLessThan:
			return a < b
		case OpLessOrEqual:
			return a <= b
		case OpGreaterThan:
			return a > b
		case OpGreaterOrEqual:
			return a >= b
		}
		return false

	case v.Kind == StringVal && target.Kind == StringVal:
		a, b := v.S, target.S
		switch op {
		case OpEquals:
			return a == b
		case OpNotEquals:
			return a != b
		case OpLessThan:
			return a < b
		case OpLessOrEqual:
			return a <= b
		case OpGreaterThan:
			return a > b
		case OpGreaterOrEqual:
			return a >= b
		}
		return false

	case v.Kind == BoolVal && target.Kind == BoolVal:
		switch op {
		case OpEquals:
			return v.B == target.B
		case OpNotEquals:
			return v.B != target.B
		default:
			return false
		}

	default:
		return false
	}
}

package ident

import "testing"

func TestCompareNumericPromotion(t *testing.T) {
	if !Compare(Int(5), OpEquals, Decimal(5.0)) {
		t.Error("integer 5 should equal decimal 5.0")
	}
	if !Compare(Decimal(2.5), OpLessThan, Int(3)) {
		t.Error("decimal 2.5 should be less than integer 3")
	}
}

func TestCompareStringLexicographic(t *testing.T) {
	if !Compare(Str("apple"), OpLessThan, Str("banana")) {
		t.Error("apple should be less than banana")
	}
	if Compare(Str("apple"), OpGreaterThan, Str("banana")) {
		t.Error("apple should not be greater than banana")
	}
}

func TestCompareBooleanOnlyEquality(t *testing.T) {
	if !Compare(Bool(true), OpEquals, Bool(true)) {
		t.Error("true should equal true")
	}
	if Compare(Bool(true), OpLessThan, Bool(false)) {
		t.Error("booleans must not support ordering operators")
	}
}

func TestCompareMismatchedKindsNeverMatch(t *testing.T) {
	if Compare(Str("5"), OpEquals, Int(5)) {
		t.Error("string and integer should never match, even with equal text")
	}
	if Compare(Bool(true), OpEquals, Int(1)) {
		t.Error("boolean and integer should never match")
	}
}

func TestConceptIDString(t *testing.T) {
	if got := ConceptID(404684003).String(); got != "404684003" {
		t.Errorf("String() = %q, want %q", got, "404684003")
	}
}

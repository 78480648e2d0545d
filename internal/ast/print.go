package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders n in the canonical textual form spec.md §4.2 defines as
// the result-cache key. The output always uses single spaces between
// tokens; it does not attempt to reproduce the original source layout,
// and it does not rewrite semantically equivalent trees (e.g. AND
// commutativity) into a shared form — two different ASTs that mean the
// same thing print differently and therefore cache separately.
func Print(n Node) string {
	var b strings.Builder
	print(&b, n)
	return b.String()
}

func print(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case Any:
		b.WriteString("*")

	case ConceptReference:
		b.WriteString(v.ID.String())
		if v.HasTerm {
			b.WriteString(" |")
			b.WriteString(v.Term)
			b.WriteString("|")
		}

	case AlternateIdentifier:
		b.WriteString(v.Scheme)
		b.WriteString("|")
		b.WriteString(v.Identifier)
		b.WriteString("|")

	case Hierarchy:
		b.WriteString(v.Kind.String())
		print(b, v.Inner)

	case MemberOf:
		b.WriteString("^ ")
		print(b, v.RefsetExpr)

	case Binary:
		print(b, v.Left)
		b.WriteString(" ")
		b.WriteString(v.Kind.String())
		b.WriteString(" ")
		print(b, v.Right)

	case Nested:
		b.WriteString("(")
		print(b, v.Inner)
		b.WriteString(")")

	case Refined:
		print(b, v.Focus)
		b.WriteString(" : ")
		printRefinement(b, v.Refinement)

	case DotNotation:
		print(b, v.Source)
		b.WriteString(".")
		print(b, v.Attribute)

	case Concrete:
		b.WriteString(v.Op.String())
		b.WriteString(" #")
		b.WriteString(v.Value.String())

	case Filtered:
		print(b, v.Expr)
		for _, f := range v.Filters {
			b.WriteString(" ")
			printFilter(b, f)
		}

	case TopOfSet:
		b.WriteString("!!> ")
		print(b, v.Inner)

	case BottomOfSet:
		b.WriteString("!!< ")
		print(b, v.Inner)

	case ConceptSet:
		b.WriteString("(")
		for i, id := range v.IDs {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(id.String())
		}
		b.WriteString(")")

	default:
		b.WriteString(fmt.Sprintf("<unknown-node %T>", n))
	}
}

func printCardinality(b *strings.Builder, c *Cardinality) {
	if c == nil {
		return
	}
	b.WriteString("[")
	b.WriteString(strconv.Itoa(c.Min))
	b.WriteString("..")
	if c.Unbounded {
		b.WriteString("*")
	} else {
		b.WriteString(strconv.Itoa(c.Max))
	}
	b.WriteString("] ")
}

func printAttributeConstraint(b *strings.Builder, a AttributeConstraint) {
	printCardinality(b, a.Cardinality)
	if a.Reverse {
		b.WriteString("R ")
	}
	print(b, a.Type)
	b.WriteString(" ")
	if a.Concrete != nil {
		b.WriteString(a.Concrete.Op.String())
		b.WriteString(" #")
		b.WriteString(a.Concrete.Value.String())
		return
	}
	b.WriteString(a.Mod.String())
	b.WriteString(" ")
	print(b, a.Value)
}

func printRefinement(b *strings.Builder, r Refinement) {
	first := true
	for _, a := range r.Ungrouped {
		if !first {
			b.WriteString(", ")
		}
		first = false
		printAttributeConstraint(b, a)
	}
	for _, g := range r.Groups {
		if !first {
			b.WriteString(", ")
		}
		first = false
		printCardinality(b, g.Cardinality)
		b.WriteString("{ ")
		for i, a := range g.Constraints {
			if i > 0 {
				b.WriteString(", ")
			}
			printAttributeConstraint(b, a)
		}
		b.WriteString(" }")
	}
}

func printFilter(b *strings.Builder, f Filter) {
	b.WriteString("{{ ")
	printFilterBody(b, f)
	b.WriteString(" }}")
}

func printFilterBody(b *strings.Builder, f Filter) {
	if f.Kind == FilterDomain {
		b.WriteString(f.Domain)
		b.WriteString(".")
		if f.Inner != nil {
			printFilterBody(b, *f.Inner)
			return
		}
	}
	switch f.Kind {
	case FilterDescriptionType:
		b.WriteString("typeId")
	case FilterDialect:
		b.WriteString("dialectId")
	default:
		b.WriteString(f.Kind.String())
	}
	switch f.Kind {
	case FilterTerm:
		b.WriteString(" = ")
		b.WriteString(strconv.Quote(f.Term))
		switch f.TermMode {
		case TermStartsWith:
			b.WriteString(" (startsWith)")
		case TermExact:
			b.WriteString(" (exact)")
		case TermRegex:
			b.WriteString(" (regex)")
		case TermWildcard:
			b.WriteString(" (wildcard)")
		}
	case FilterLanguage, FilterSemanticTag:
		b.WriteString(" = ")
		b.WriteString(strings.Join(f.Codes, ", "))
	case FilterDialect, FilterModule, FilterPreferredIn, FilterAcceptableIn,
		FilterLanguageRefset, FilterDescriptionType, FilterCaseSignificance, FilterID:
		b.WriteString(" = ")
		for i, id := range f.IDs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(id.String())
		}
		if f.Acceptability != "" {
			b.WriteString(" (")
			b.WriteString(f.Acceptability)
			b.WriteString(")")
		}
	case FilterActive:
		b.WriteString(" = ")
		b.WriteString(strconv.FormatBool(f.Bool))
	case FilterDefinitionStatus:
		if f.Bool {
			b.WriteString(" = primitive")
		} else {
			b.WriteString(" = defined")
		}
	case FilterHistory:
		switch f.History {
		case HistoryMin:
			b.WriteString("-MIN")
		case HistoryMod:
			b.WriteString("-MOD")
		}
	case FilterEffectiveTime:
		b.WriteString(" ")
		b.WriteString(f.EffectiveOp.String())
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(f.EffectiveTime))
	case FilterMemberField:
		b.WriteString(" ")
		b.WriteString(f.FieldName)
		b.WriteString(" ")
		b.WriteString(f.FieldOp.String())
		b.WriteString(" ")
		b.WriteString(f.FieldValue.String())
	}
}

// Package parser turns ECL source text into an internal/ast.Node via
// hand-written recursive descent, following the precedence chain laid
// out in spec.md §9: primary -> hierarchy-prefixed -> dot-chained ->
// filter-suffixed -> colon-refined -> set-algebra. Tokenization is
// delegated to internal/lexer; this package never touches runes
// directly.
package parser

import (
	"strconv"
	"strings"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/lexer"
)

// Parse tokenizes and parses a full ECL expression. Trailing content
// after a structurally complete expression is a ParseError, not a
// silent truncation.
func Parse(src string) (ast.Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, EmptyExpression{}
	}
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, &ParseError{Position: 0, Message: err.Error(), Excerpt: excerpt(src, 0)}
	}
	p := &parser{src: src, toks: toks}
	node, err := p.parseSetAlgebra()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.EOF) {
		t := p.cur()
		return nil, &ParseError{Position: t.Pos, Message: "unexpected trailing content", Excerpt: excerpt(src, t.Pos)}
	}
	return node, nil
}

type parser struct {
	src  string
	toks []lexer.Token
	pos  int
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) at(k lexer.Kind) bool {
	return p.cur().Kind == k
}
func (p *parser) atPunct(v string) bool {
	t := p.cur()
	return t.Kind == lexer.Punct && t.Value == v
}
func (p *parser) atIdent(v string) bool {
	t := p.cur()
	return t.Kind == lexer.Ident && strings.EqualFold(t.Value, v)
}
func (p *parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}
func (p *parser) expectPunct(v string) (lexer.Token, error) {
	if !p.atPunct(v) {
		return p.errHere("expected " + strconv.Quote(v))
	}
	return p.advance(), nil
}
func (p *parser) errHere(msg string) (lexer.Token, error) {
	t := p.cur()
	if t.Kind == lexer.EOF {
		return t, Incomplete{Position: t.Pos}
	}
	return t, &ParseError{Position: t.Pos, Message: msg, Excerpt: excerpt(p.src, t.Pos)}
}

// ---- set algebra: AND / OR / MINUS / comma, left-associative ----

func (p *parser) parseSetAlgebra() (ast.Node, error) {
	left, err := p.parseRefined()
	if err != nil {
		return nil, err
	}
	for {
		var kind ast.BinaryKind
		switch {
		case p.atIdent("AND"), p.atPunct(","):
			kind = ast.And
		case p.atIdent("OR"):
			kind = ast.Or
		case p.atIdent("MINUS"):
			kind = ast.Minus
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseRefined()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Kind: kind, Left: left, Right: right}
	}
}

// ---- colon-refined ----

func (p *parser) parseRefined() (ast.Node, error) {
	focus, err := p.parseFiltered()
	if err != nil {
		return nil, err
	}
	if !p.atPunct(":") {
		return focus, nil
	}
	p.advance()
	ref, err := p.parseRefinement()
	if err != nil {
		return nil, err
	}
	return ast.Refined{Focus: focus, Refinement: ref}, nil
}

func (p *parser) parseRefinement() (ast.Refinement, error) {
	var ref ast.Refinement
	for {
		card, err := p.tryParseCardinality()
		if err != nil {
			return ref, err
		}
		if p.atPunct("{") {
			p.advance()
			var group ast.AttributeGroup
			group.Cardinality = card
			for {
				ac, err := p.parseAttributeConstraint()
				if err != nil {
					return ref, err
				}
				group.Constraints = append(group.Constraints, ac)
				if p.atPunct(",") || p.atIdent("AND") || p.atIdent("OR") {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expectPunct("}"); err != nil {
				return ref, err
			}
			ref.Groups = append(ref.Groups, group)
		} else {
			ac, err := p.parseAttributeConstraint()
			if err != nil {
				return ref, err
			}
			if card != nil {
				ac.Cardinality = card
			}
			ref.Ungrouped = append(ref.Ungrouped, ac)
		}
		if p.atPunct(",") || p.atIdent("AND") || p.atIdent("OR") {
			p.advance()
			continue
		}
		break
	}
	return ref, nil
}

func (p *parser) tryParseCardinality() (*ast.Cardinality, error) {
	if !p.atPunct("[") {
		return nil, nil
	}
	p.advance()
	minTok, err := p.expectNumber()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(".."); err != nil {
		return nil, err
	}
	c := &ast.Cardinality{Min: minTok}
	if p.atPunct("*") {
		p.advance()
		c.Unbounded = true
	} else {
		maxTok, err := p.expectNumber()
		if err != nil {
			return nil, err
		}
		c.Max = maxTok
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) expectNumber() (int, error) {
	if !p.at(lexer.Number) {
		_, err := p.errHere("expected a number")
		return 0, err
	}
	t := p.advance()
	n, err := strconv.Atoi(t.Value)
	if err != nil {
		return 0, InvalidConceptID{Text: t.Value}
	}
	return n, nil
}

func (p *parser) parseAttributeConstraint() (ast.AttributeConstraint, error) {
	var ac ast.AttributeConstraint
	card, err := p.tryParseCardinality()
	if err != nil {
		return ac, err
	}
	ac.Cardinality = card
	if p.atIdent("R") {
		p.advance()
		ac.Reverse = true
	}
	typ, err := p.parseDotted()
	if err != nil {
		return ac, err
	}
	ac.Type = typ

	opTok := p.cur()
	if opTok.Kind != lexer.Punct {
		_, err := p.errHere("expected a comparison operator")
		return ac, err
	}
	switch opTok.Value {
	case "=", "!=", "<", "<=", ">", ">=":
		p.advance()
	default:
		_, err := p.errHere("expected a comparison operator")
		return ac, err
	}

	if p.at(lexer.Concrete) || p.at(lexer.ConcreteString) {
		val, cop, err := p.parseConcreteValue()
		if err != nil {
			return ac, err
		}
		op, err := comparisonOpFor(opTok.Value)
		if err != nil {
			return ac, err
		}
		if cop != ident.OpEquals {
			op = cop
		}
		ac.Concrete = &ast.Concrete{Value: val, Op: op}
		return ac, nil
	}

	switch opTok.Value {
	case "!=":
		ac.Mod = ast.RefNotEq
	case "=":
		switch {
		case p.atPunct("<<"):
			p.advance()
			ac.Mod = ast.RefEqDescendantOrSelf
		case p.atPunct("<"):
			p.advance()
			ac.Mod = ast.RefEqDescendant
		case p.atPunct(">>"):
			p.advance()
			ac.Mod = ast.RefEqAncestorOrSelf
		case p.atPunct(">"):
			p.advance()
			ac.Mod = ast.RefEqAncestor
		default:
			ac.Mod = ast.RefEq
		}
	default:
		_, err := p.errHere("ordering operators are only valid against concrete values")
		return ac, err
	}
	val, err := p.parseDotted()
	if err != nil {
		return ac, err
	}
	ac.Value = val
	return ac, nil
}

func comparisonOpFor(tok string) (ident.ComparisonOp, error) {
	switch tok {
	case "=":
		return ident.OpEquals, nil
	case "!=":
		return ident.OpNotEquals, nil
	case "<":
		return ident.OpLessThan, nil
	case "<=":
		return ident.OpLessOrEqual, nil
	case ">":
		return ident.OpGreaterThan, nil
	case ">=":
		return ident.OpGreaterOrEqual, nil
	default:
		return 0, &ParseError{Message: "unknown comparison operator " + tok}
	}
}

func (p *parser) parseConcreteValue() (ident.Value, ident.ComparisonOp, error) {
	t := p.cur()
	if t.Kind == lexer.ConcreteString {
		p.advance()
		return ident.Str(t.Value), ident.OpEquals, nil
	}
	p.advance()
	switch strings.ToLower(t.Value) {
	case "true":
		return ident.Bool(true), ident.OpEquals, nil
	case "false":
		return ident.Bool(false), ident.OpEquals, nil
	}
	if strings.Contains(t.Value, ".") {
		f, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return ident.Value{}, 0, InvalidConceptID{Text: t.Value}
		}
		return ident.Decimal(f), ident.OpEquals, nil
	}
	n, err := strconv.ParseInt(t.Value, 10, 64)
	if err != nil {
		return ident.Value{}, 0, InvalidConceptID{Text: t.Value}
	}
	return ident.Int(n), ident.OpEquals, nil
}

// ---- filter-suffixed ----

func (p *parser) parseFiltered() (ast.Node, error) {
	expr, err := p.parseDotted()
	if err != nil {
		return nil, err
	}
	var filters []ast.Filter
	for p.atPunct("{{") {
		p.advance()
		f, err := p.parseFilterClause()
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
		if _, err := p.expectPunct("}}"); err != nil {
			return nil, err
		}
	}
	if len(filters) == 0 {
		return expr, nil
	}
	return ast.Filtered{Expr: expr, Filters: filters}, nil
}

// ---- dot-chained ----

func (p *parser) parseDotted() (ast.Node, error) {
	left, err := p.parseHierarchy()
	if err != nil {
		return nil, err
	}
	for p.atPunct(".") {
		p.advance()
		attr, err := p.parseHierarchy()
		if err != nil {
			return nil, err
		}
		left = ast.DotNotation{Source: left, Attribute: attr}
	}
	return left, nil
}

// ---- hierarchy-prefixed ----

var hierarchyOps = map[string]ast.HierarchyKind{
	"<<!": ast.ChildOrSelfOf,
	">>!": ast.ParentOrSelfOf,
	"<<":  ast.DescendantOrSelfOf,
	">>":  ast.AncestorOrSelfOf,
	"<!":  ast.ChildOf,
	">!":  ast.ParentOf,
	"<":   ast.DescendantOf,
	">":   ast.AncestorOf,
}

func (p *parser) parseHierarchy() (ast.Node, error) {
	if p.atPunct("!!>") {
		p.advance()
		inner, err := p.parseDotted()
		if err != nil {
			return nil, err
		}
		return ast.TopOfSet{Inner: inner}, nil
	}
	if p.atPunct("!!<") {
		p.advance()
		inner, err := p.parseDotted()
		if err != nil {
			return nil, err
		}
		return ast.BottomOfSet{Inner: inner}, nil
	}
	if p.atPunct("^") {
		p.advance()
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return ast.MemberOf{RefsetExpr: inner}, nil
	}
	if t := p.cur(); t.Kind == lexer.Punct {
		if kind, ok := hierarchyOps[t.Value]; ok {
			p.advance()
			inner, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return ast.Hierarchy{Kind: kind, Inner: inner}, nil
		}
	}
	return p.parsePrimary()
}

// ---- primary ----

func (p *parser) parsePrimary() (ast.Node, error) {
	t := p.cur()
	switch {
	case t.Kind == lexer.Punct && t.Value == "*":
		p.advance()
		return ast.Any{}, nil

	case t.Kind == lexer.Number:
		p.advance()
		id, err := parseConceptID(t.Value)
		if err != nil {
			return nil, err
		}
		ref := ast.ConceptReference{ID: id}
		if p.at(lexer.Term) {
			term := p.advance()
			ref.Term = term.Value
			ref.HasTerm = true
		}
		return ref, nil

	case t.Kind == lexer.Concrete, t.Kind == lexer.ConcreteString:
		val, _, err := p.parseConcreteValue()
		if err != nil {
			return nil, err
		}
		return ast.Concrete{Value: val, Op: ident.OpEquals}, nil

	case t.Kind == lexer.Ident:
		// scheme|identifier| alternate identifier: an Ident immediately
		// followed by a Term token.
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == lexer.Term {
			p.advance()
			term := p.advance()
			return ast.AlternateIdentifier{Scheme: t.Value, Identifier: term.Value}, nil
		}
		_, err := p.errHere("unexpected identifier in expression position")
		return nil, err

	case t.Kind == lexer.Punct && t.Value == "(":
		return p.parseParenthesized()

	default:
		_, err := p.errHere("expected a concept reference, wildcard, or parenthesized expression")
		return nil, err
	}
}

func (p *parser) parseParenthesized() (ast.Node, error) {
	start := p.pos
	end, ok := p.matchParen(start)
	if !ok {
		_, err := p.errHere("unbalanced parentheses")
		return nil, err
	}
	if isConceptSetBody(p.toks[start+1 : end]) {
		p.advance()
		var ids []ident.ConceptID
		for !p.atPunct(")") {
			t := p.advance()
			if t.Kind != lexer.Number {
				continue
			}
			id, err := parseConceptID(t.Value)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		p.advance()
		return ast.ConceptSet{IDs: ids}, nil
	}
	p.advance()
	inner, err := p.parseSetAlgebra()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.Nested{Inner: inner}, nil
}

// matchParen finds the index of the RParen matching the LParen at
// toks[open], accounting for nesting.
func (p *parser) matchParen(open int) (int, bool) {
	depth := 0
	for i := open; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.Kind != lexer.Punct {
			continue
		}
		switch t.Value {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func isConceptSetBody(toks []lexer.Token) bool {
	if len(toks) == 0 {
		return false
	}
	for _, t := range toks {
		if t.Kind != lexer.Number && t.Kind != lexer.Term {
			return false
		}
	}
	return true
}

func parseConceptID(text string) (ident.ConceptID, error) {
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, InvalidConceptID{Text: text}
	}
	return ident.ConceptID(n), nil
}

package parser

import (
	"strconv"
	"strings"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/lexer"
)

// parseFilterClause parses the body of one "{{ ... }}" block. Only one
// filter clause is supported per block (its own value list may still
// be comma-separated, e.g. "language = en, fr"); multiple filters are
// expressed as consecutive "{{ }}" suffixes. This is a deliberate
// simplification of the full filter grammar, recorded in DESIGN.md.
func (p *parser) parseFilterClause() (ast.Filter, error) {
	if t := p.cur(); t.Kind == lexer.Ident && p.pos+1 < len(p.toks) &&
		p.toks[p.pos+1].Kind == lexer.Punct && p.toks[p.pos+1].Value == "." &&
		!isFilterKeyword(t.Value) {
		domain := t.Value
		p.advance()
		p.advance()
		inner, err := p.parseFilterClause()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterDomain, Domain: domain, Inner: &inner}, nil
	}

	if p.atPunct("+") {
		p.advance()
		if !p.at(lexer.Ident) {
			_, err := p.errHere("expected HISTORY after '+'")
			return ast.Filter{}, err
		}
		tok := p.advance()
		parts := strings.SplitN(tok.Value, "-", 2)
		profile := ast.HistoryMax
		if len(parts) == 2 {
			switch strings.ToUpper(parts[1]) {
			case "MIN":
				profile = ast.HistoryMin
			case "MOD":
				profile = ast.HistoryMod
			}
		}
		return ast.Filter{Kind: ast.FilterHistory, History: profile}, nil
	}

	if p.atIdent("M") {
		p.advance()
		if !p.at(lexer.Ident) {
			_, err := p.errHere("expected a member field name")
			return ast.Filter{}, err
		}
		field := p.advance().Value
		opTok, err := p.expectComparator()
		if err != nil {
			return ast.Filter{}, err
		}
		val, _, err := p.parseFilterValue()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterMemberField, FieldName: field, FieldOp: opTok, FieldValue: val}, nil
	}

	if !p.at(lexer.Ident) {
		_, err := p.errHere("expected a filter keyword")
		return ast.Filter{}, err
	}
	kw := strings.ToLower(p.advance().Value)

	switch kw {
	case "term":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		if !p.at(lexer.String) {
			_, err := p.errHere("expected a quoted term")
			return ast.Filter{}, err
		}
		text := p.advance().Value
		mode := ast.TermContains
		if p.atPunct("(") {
			p.advance()
			modeIdent, err := p.expectIdent()
			if err != nil {
				return ast.Filter{}, err
			}
			switch strings.ToLower(modeIdent) {
			case "startswith":
				mode = ast.TermStartsWith
			case "exact":
				mode = ast.TermExact
			case "regex":
				mode = ast.TermRegex
			case "wildcard":
				mode = ast.TermWildcard
			}
			if _, err := p.expectPunct(")"); err != nil {
				return ast.Filter{}, err
			}
		}
		return ast.Filter{Kind: ast.FilterTerm, Term: text, TermMode: mode}, nil

	case "language":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		codes, err := p.parseCodeList()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterLanguage, Codes: codes}, nil

	case "semantictag":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		codes, err := p.parseCodeList()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterSemanticTag, Codes: codes}, nil

	case "casesignificance":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		ids, err := p.parseIDList()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterCaseSignificance, IDs: ids}, nil

	case "active":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		b, err := p.parseBoolIdent()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterActive, Bool: b}, nil

	case "definitionstatus":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		if !p.at(lexer.Ident) {
			_, err := p.errHere("expected primitive or defined")
			return ast.Filter{}, err
		}
		word := strings.ToLower(p.advance().Value)
		return ast.Filter{Kind: ast.FilterDefinitionStatus, Bool: word == "primitive"}, nil

	case "moduleid":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		ids, err := p.parseIDList()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterModule, IDs: ids}, nil

	case "effectivetime":
		opTok, err := p.expectComparator()
		if err != nil {
			return ast.Filter{}, err
		}
		if !p.at(lexer.Number) {
			_, err := p.errHere("expected an effective-time value")
			return ast.Filter{}, err
		}
		n, err := p.expectNumber()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterEffectiveTime, EffectiveOp: opTok, EffectiveTime: n}, nil

	case "preferredin", "acceptablein", "languagerefsetid", "dialectid":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		ids, err := p.parseIDList()
		if err != nil {
			return ast.Filter{}, err
		}
		f := ast.Filter{IDs: ids}
		switch kw {
		case "preferredin":
			f.Kind = ast.FilterPreferredIn
		case "acceptablein":
			f.Kind = ast.FilterAcceptableIn
		case "languagerefsetid":
			f.Kind = ast.FilterLanguageRefset
		case "dialectid":
			f.Kind = ast.FilterDialect
		}
		if p.atPunct("(") {
			p.advance()
			acc, err := p.expectIdent()
			if err != nil {
				return ast.Filter{}, err
			}
			f.Acceptability = strings.ToLower(acc)
			if _, err := p.expectPunct(")"); err != nil {
				return ast.Filter{}, err
			}
		}
		return f, nil

	case "typeid":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		ids, err := p.parseIDList()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterDescriptionType, IDs: ids}, nil

	case "id":
		if _, err := p.expectComparator(); err != nil {
			return ast.Filter{}, err
		}
		ids, err := p.parseIDList()
		if err != nil {
			return ast.Filter{}, err
		}
		return ast.Filter{Kind: ast.FilterID, IDs: ids}, nil

	default:
		_, err := p.errHere("unrecognized filter keyword " + kw)
		return ast.Filter{}, err
	}
}

func isFilterKeyword(s string) bool {
	switch strings.ToLower(s) {
	case "term", "language", "semantictag", "casesignificance", "active",
		"definitionstatus", "moduleid", "effectivetime", "preferredin",
		"acceptablein", "languagerefsetid", "dialectid", "typeid", "id", "m":
		return true
	default:
		return false
	}
}

func (p *parser) expectIdent() (string, error) {
	if !p.at(lexer.Ident) {
		_, err := p.errHere("expected an identifier")
		return "", err
	}
	return p.advance().Value, nil
}

func (p *parser) expectComparator() (ident.ComparisonOp, error) {
	t := p.cur()
	if t.Kind != lexer.Punct {
		_, err := p.errHere("expected a comparison operator")
		return 0, err
	}
	op, err := comparisonOpFor(t.Value)
	if err != nil {
		_, perr := p.errHere("expected a comparison operator")
		return 0, perr
	}
	p.advance()
	return op, nil
}

func (p *parser) parseBoolIdent() (bool, error) {
	if !p.at(lexer.Ident) {
		_, err := p.errHere("expected true or false")
		return false, err
	}
	word := strings.ToLower(p.advance().Value)
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &ParseError{Position: p.cur().Pos, Message: "expected true or false, got " + word}
	}
}

func (p *parser) parseCodeList() ([]string, error) {
	var out []string
	for {
		if p.at(lexer.Ident) {
			out = append(out, p.advance().Value)
		} else if p.at(lexer.String) {
			out = append(out, p.advance().Value)
		} else {
			_, err := p.errHere("expected a code")
			return nil, err
		}
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseIDList() ([]ident.ConceptID, error) {
	var out []ident.ConceptID
	for {
		if !p.at(lexer.Number) {
			_, err := p.errHere("expected a concept id")
			return nil, err
		}
		t := p.advance()
		id, err := parseConceptID(t.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseFilterValue() (ident.Value, ident.ComparisonOp, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.Concrete, lexer.ConcreteString:
		return p.parseConcreteValue()
	case lexer.String:
		p.advance()
		return ident.Str(t.Value), ident.OpEquals, nil
	case lexer.Number:
		p.advance()
		n, err := strconv.ParseInt(t.Value, 10, 64)
		if err != nil {
			return ident.Value{}, 0, InvalidConceptID{Text: t.Value}
		}
		return ident.Int(n), ident.OpEquals, nil
	case lexer.Ident:
		word := strings.ToLower(t.Value)
		if word == "true" || word == "false" {
			p.advance()
			return ident.Bool(word == "true"), ident.OpEquals, nil
		}
	}
	_, err := p.errHere("expected a filter value")
	return ident.Value{}, 0, err
}

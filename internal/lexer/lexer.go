// Package lexer tokenizes ECL source text. It reuses
// github.com/alecthomas/participle/v2/lexer the way the teacher's DSL
// package does (a lexer.MustSimple built from an ordered list of
// lexer.SimpleRule regexes) but only as a tokenizer: internal/parser
// hand-writes the recursive-descent grammar over the resulting token
// stream instead of a participle struct-tag grammar, since ECL's
// precedence chain (spec.md §4.1/§9) needs finer control than a
// declarative grammar comfortably expresses.
package lexer

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind identifies a token's grammatical role.
type Kind int

const (
	EOF Kind = iota
	Number        // digit sequence -> concept id
	Term          // |...| pipe-delimited text
	Concrete      // # prefixed integer/decimal
	ConcreteString
	Ident         // bare identifier (filter keyword, keyword operator)
	String        // "quoted" string
	Punct         // operators and punctuation matched verbatim below
	Whitespace
)

// Token is one lexical unit. Pos is the 0-based byte offset of the
// first rune, used verbatim in ParseError positions.
type Token struct {
	Kind  Kind
	Value string
	Pos   int
}

func (t Token) String() string {
	return fmt.Sprintf("%v(%q)@%d", t.Kind, t.Value, t.Pos)
}

// eclLexer mirrors the teacher's dslLexer construction: an ordered
// lexer.MustSimple table where earlier rules win on ties, which is how
// the operator-disambiguation rule in spec.md §4.1 ("longer operators
// must be attempted before shorter prefixes") is satisfied without any
// extra lookahead logic in the parser.
var eclLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Term", Pattern: `\|[^|]*\|`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "ConcreteString", Pattern: `#"[^"]*"`},
	{Name: "Concrete", Pattern: `#[+-]?[0-9]+(?:\.[0-9]+)?|#true|#false`},
	{Name: "CardOpen", Pattern: `\[`},
	{Name: "CardClose", Pattern: `\]`},
	{Name: "DotDot", Pattern: `\.\.`},
	{Name: "FilterOpen", Pattern: `\{\{`},
	{Name: "FilterClose", Pattern: `\}\}`},
	{Name: "ChildOrSelfOf", Pattern: `<<!`},
	{Name: "ParentOrSelfOf", Pattern: `>>!`},
	{Name: "DescendantOrSelfOf", Pattern: `<<`},
	{Name: "AncestorOrSelfOf", Pattern: `>>`},
	{Name: "ChildOf", Pattern: `<!`},
	{Name: "ParentOf", Pattern: `>!`},
	{Name: "TopOfSet", Pattern: `!!>`},
	{Name: "BottomOfSet", Pattern: `!!<`},
	{Name: "LE", Pattern: `<=`},
	{Name: "GE", Pattern: `>=`},
	{Name: "NE", Pattern: `!=`},
	{Name: "DescendantOf", Pattern: `<`},
	{Name: "AncestorOf", Pattern: `>`},
	{Name: "Eq", Pattern: `=`},
	{Name: "MemberOf", Pattern: `\^`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Comma", Pattern: `,`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Plus", Pattern: `\+`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Other", Pattern: `.`},
})

// puncts maps the participle symbol name of a matched rule to our
// coarser Kind plus, for Punct tokens, the canonical operator text
// expected by the parser (so "DescendantOrSelfOf" -> "<<").
var puncts = map[string]string{
	"CardOpen": "[", "CardClose": "]", "DotDot": "..",
	"FilterOpen": "{{", "FilterClose": "}}",
	"ChildOrSelfOf": "<<!", "ParentOrSelfOf": ">>!",
	"DescendantOrSelfOf": "<<", "AncestorOrSelfOf": ">>",
	"ChildOf": "<!", "ParentOf": ">!",
	"TopOfSet": "!!>", "BottomOfSet": "!!<",
	"LE": "<=", "GE": ">=", "NE": "!=",
	"DescendantOf": "<", "AncestorOf": ">", "Eq": "=",
	"MemberOf": "^", "Colon": ":", "Dot": ".", "Comma": ",",
	"LParen": "(", "RParen": ")", "LBrace": "{", "RBrace": "}",
	"Star": "*", "Plus": "+",
}

// Lex tokenizes the full input, stripping whitespace tokens. It never
// fails: unrecognized runes become single-rune Punct tokens so the
// parser reports malformed ECL with an accurate position instead of
// the lexer reporting an opaque scan error.
func Lex(src string) ([]Token, error) {
	def, err := eclLexer.LexString("", src)
	if err != nil {
		return nil, err
	}
	symbols := eclLexer.Symbols()
	names := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		names[tt] = name
	}

	var out []Token
	for {
		tok, err := def.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF() {
			break
		}
		name := names[tok.Type]
		pos := tok.Pos.Offset
		switch name {
		case "Whitespace":
			continue
		case "Term":
			out = append(out, Token{Kind: Term, Value: strings.TrimSpace(strings.Trim(tok.Value, "|")), Pos: pos})
		case "String":
			out = append(out, Token{Kind: String, Value: unquote(tok.Value), Pos: pos})
		case "ConcreteString":
			out = append(out, Token{Kind: ConcreteString, Value: tok.Value[2 : len(tok.Value)-1], Pos: pos})
		case "Concrete":
			out = append(out, Token{Kind: Concrete, Value: tok.Value[1:], Pos: pos})
		case "Number":
			out = append(out, Token{Kind: Number, Value: tok.Value, Pos: pos})
		case "Ident":
			out = append(out, Token{Kind: Ident, Value: tok.Value, Pos: pos})
		default:
			canon, ok := puncts[name]
			if !ok {
				canon = tok.Value
			}
			out = append(out, Token{Kind: Punct, Value: canon, Pos: pos})
		}
	}
	out = append(out, Token{Kind: EOF, Value: "", Pos: len(src)})
	return out, nil
}

func unquote(raw string) string {
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Number:
		return "Number"
	case Term:
		return "Term"
	case Concrete:
		return "Concrete"
	case ConcreteString:
		return "ConcreteString"
	case Ident:
		return "Ident"
	case String:
		return "String"
	case Punct:
		return "Punct"
	case Whitespace:
		return "Whitespace"
	default:
		return "?"
	}
}

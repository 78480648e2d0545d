package lexer

import "testing"

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func values(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Value
	}
	return out
}

func TestOperatorDisambiguationLongestPrefixFirst(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"<<!", "<<!"},
		{"<<", "<<"},
		{"<!", "<!"},
		{"<", "<"},
		{">>!", ">>!"},
		{">>", ">>"},
		{">!", ">!"},
		{">", ">"},
		{"!!>", "!!>"},
		{"!!<", "!!<"},
		{"!=", "!="},
		{"<=", "<="},
		{">=", ">="},
	}
	for _, c := range cases {
		toks, err := Lex(c.src)
		if err != nil {
			t.Fatalf("Lex(%q): %v", c.src, err)
		}
		if len(toks) == 0 || toks[0].Value != c.want {
			t.Errorf("Lex(%q) first token = %q, want %q", c.src, values(toks), c.want)
		}
	}
}

func TestLexConceptReferenceWithTerm(t *testing.T) {
	toks, err := Lex("404684003 |Clinical finding|")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if len(toks) < 2 || toks[0].Kind != Number || toks[1].Kind != Term {
		t.Fatalf("Lex() = %v, want [Number, Term, EOF]", toks)
	}
	if toks[1].Value != "Clinical finding" {
		t.Errorf("Term value = %q, want %q", toks[1].Value, "Clinical finding")
	}
}

func TestLexConcreteValues(t *testing.T) {
	toks, err := Lex(`#42 #-3.5 #true #false #"hello"`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	wantKinds := []Kind{Concrete, Concrete, Concrete, Concrete, ConcreteString, EOF}
	if len(toks) != len(wantKinds) {
		t.Fatalf("Lex() produced %d tokens, want %d: %v", len(toks), len(wantKinds), toks)
	}
	for i, k := range wantKinds {
		if toks[i].Kind != k {
			t.Errorf("token %d kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
	if toks[4].Value != "hello" {
		t.Errorf("ConcreteString value = %q, want %q (quotes stripped)", toks[4].Value, "hello")
	}
}

func TestLexPositionsAreByteOffsets(t *testing.T) {
	toks, err := Lex("100 AND 200")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if toks[0].Pos != 0 {
		t.Errorf("first token Pos = %d, want 0", toks[0].Pos)
	}
	// "100 AND 200": AND starts at byte 4.
	if toks[1].Pos != 4 {
		t.Errorf("AND token Pos = %d, want 4", toks[1].Pos)
	}
}

package lexer

import (
	"testing"

	"escargot/internal/token"
)

// collect drains l until EOF, t.Fatalf-ing on any scan error — the same
// "tokenize everything up front" shape the teacher's lexer_test.go table
// tests use before asserting on the resulting slice.
func collect(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("lex error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestNextTokenPunctuatorsAndIdentifiers(t *testing.T) {
	input := `var x = 1 + 2;`
	toks := collect(t, input)

	wantKinds := []token.Kind{
		token.KEYWORD,    // var
		token.IDENTIFIER, // x
		token.PUNCTUATOR, // =
		token.NUMERIC,    // 1
		token.PUNCTUATOR, // +
		token.NUMERIC,    // 2
		token.PUNCTUATOR, // ;
		token.EOF,
	}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(wantKinds), toks)
	}
	for i, want := range wantKinds {
		if toks[i].Kind != want {
			t.Errorf("token %d: got kind %v, want %v (value=%q)", i, toks[i].Kind, want, toks[i].Value)
		}
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	toks := collect(t, `"a\nb"`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("got kind %v, want STRING", toks[0].Kind)
	}
	if toks[0].Value != "a\nb" {
		t.Errorf("got %q, want %q", toks[0].Value, "a\nb")
	}
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"42", "42"},
		{"3.14", "3.14"},
		{"0x1F", "0x1F"},
		{".5", ".5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := collect(t, tt.input)
			if toks[0].Kind != token.NUMERIC {
				t.Fatalf("got kind %v, want NUMERIC", toks[0].Kind)
			}
			if toks[0].Value != tt.want {
				t.Errorf("got %q, want %q", toks[0].Value, tt.want)
			}
		})
	}
}

func TestAutomaticSemicolonLineTerminatorFlag(t *testing.T) {
	toks := collect(t, "a\nb")
	// toks: IDENTIFIER(a), IDENTIFIER(b), EOF
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(toks), toks)
	}
	if toks[1].HasLineTerminatorBefore != true {
		t.Errorf("expected HasLineTerminatorBefore on second identifier")
	}
}

func TestRegexLiteral(t *testing.T) {
	toks := collect(t, `/abc/g`)
	if toks[0].Kind != token.REGEX {
		t.Fatalf("got kind %v, want REGEX", toks[0].Kind)
	}
}

func TestIllegalTokenReportsError(t *testing.T) {
	l := New("#")
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected a lex error for an illegal character")
	}
}

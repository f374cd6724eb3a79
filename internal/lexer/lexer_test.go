package lexer

import (
	"testing"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenize_declarationAndCall(t *testing.T) {
	toks, err := Tokenize(`s64: add ( s64: a, s64: b ) { return a + b; }`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []token.Kind{
		token.Identifier, token.Declarator, token.Identifier, token.NewExpression,
		token.Identifier, token.Declarator, token.Identifier, token.Separator,
		token.Identifier, token.Declarator, token.Identifier, token.EndExpression,
		token.NewStatement,
		token.Keyword, token.Identifier, token.Operator, token.Identifier, token.Endline,
		token.EndStatement,
		token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestTokenize_digitLedIdentifierReclassifiedAsNumber(t *testing.T) {
	toks, err := Tokenize(`42;`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != token.Number || toks[0].Lexeme != "42" {
		t.Fatalf("expected a Number token, got %+v", toks[0])
	}
}

func TestTokenize_floatLiteral(t *testing.T) {
	toks, err := Tokenize(`1.5;`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != token.Number || toks[0].Lexeme != "1.5" {
		t.Fatalf("expected a single float Number token, got %+v", toks[0])
	}
}

func TestTokenize_reservedWordReclassifiedAsKeyword(t *testing.T) {
	toks, err := Tokenize(`while`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != token.Keyword || toks[0].Lexeme != "while" {
		t.Fatalf("expected a Keyword token, got %+v", toks[0])
	}
}

func TestTokenize_twoCharOperatorsMaximalMunch(t *testing.T) {
	toks, err := Tokenize(`a <= b && c != d`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	var ops []string
	for _, tk := range toks {
		if tk.Kind == token.Operator && len(tk.Lexeme) == 2 {
			ops = append(ops, tk.Lexeme)
		}
	}
	want := []string{"<=", "&&", "!="}
	if len(ops) != len(want) {
		t.Fatalf("expected %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ops)
		}
	}
}

func TestTokenize_commentIsDropped(t *testing.T) {
	toks, err := Tokenize(`$ this is dropped $ 1;`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(toks) != 3 || toks[0].Kind != token.Number {
		t.Fatalf("expected the comment to be dropped, got %+v", toks)
	}
}

func TestTokenize_unterminatedCommentErrors(t *testing.T) {
	if _, err := Tokenize(`$ never closed`); err == nil {
		t.Fatalf("expected an unterminated comment error")
	}
}

func TestTokenize_stringEscapes(t *testing.T) {
	toks, err := Tokenize(`"a\nb\"c"`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != token.String || toks[0].Lexeme != "a\nb\"c" {
		t.Fatalf("unexpected string token: %+v", toks[0])
	}
}

func TestTokenize_unexpectedCharacterErrors(t *testing.T) {
	if _, err := Tokenize("@"); err == nil {
		t.Fatalf("expected an unexpected character error")
	}
}

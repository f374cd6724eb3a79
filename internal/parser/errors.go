package parser

import (
	"fmt"
	"strings"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/token"
)

// ErrorKind enumerates the compile-time error taxonomy from spec.md
// §4.1.7.
type ErrorKind int

const (
	UndeclaredVariable ErrorKind = iota
	InvalidDeclaration
	InvalidEndExpression
	JunkAfterDeclaration
	ExpectedAssignment
	ExpectedConstant
	UnexpectedToken
	UnallowedFloat
)

var kindText = map[ErrorKind]string{
	UndeclaredVariable:   "undeclared_variable",
	InvalidDeclaration:   "invalid_declaration",
	InvalidEndExpression: "invalid_end_expression",
	JunkAfterDeclaration: "junk_after_declaration",
	ExpectedAssignment:   "expected_assignment",
	ExpectedConstant:     "expected_constant",
	UnexpectedToken:      "unexpected_token",
	UnallowedFloat:       "unallowed_float",
}

func (k ErrorKind) String() string { return kindText[k] }

// Error is a single compile-time diagnostic (spec.md §4.1.7). Errors
// raised by the parser carry the offending token's position and lexeme;
// errors raised by kasm.Compile leave Tok zero, so they render at "0-0"
// with an empty lexeme.
type Error struct {
	Kind  ErrorKind
	Tok   token.Token
	Msg   string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s (%q)", e.Tok.Position(), e.Msg, e.Tok.Lexeme)
}

// maxErrors bounds how many diagnostics a single parse reports, mirroring
// the teacher assembler's ErrAsm cap (see asm/parser.go's maxErrors).
const maxErrors = 10

// ErrorList aggregates up to maxErrors diagnostics from one compilation,
// the same shape as the teacher's asm.ErrAsm.
type ErrorList []Error

func (e ErrorList) Error() string {
	l := make([]string, 0, len(e))
	for _, err := range e {
		l = append(l, err.Error())
	}
	return strings.Join(l, "\n")
}

package kasm_test

import (
	"fmt"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/lexer"
	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/parser"
	"github.com/p0lyh3dron/KAPPAlib-sub000/kasm"
)

func compile(src string) (string, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return "", err
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		return "", err
	}
	return kasm.Compile(prog)
}

func ExampleCompile_arithmetic() {
	out, err := compile(`s64: f ( ) {
		return 2 + 3 * 4;
	}`)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Print(out)
	// Output:
	// f:
	//	movrn: r0 2
	//	movrn: r1 3
	//	movrn: r2 4
	//	mulrr: r1 r1 r2
	//	addrr: r0 r0 r1
	//	movrr: r0 r0
	//	leave:
	//	leave:
}

func ExampleCompile_whileLoop() {
	out, err := compile(`s64: f ( ) {
		s64: i = 0;
		while (i < 10) {
			i = i + 1;
		}
		return i;
	}`)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Print(out)
	// Output:
	// f:
	//	newsv: s64 i
	//	movrn: r0 0
	//	saver: i r0
	// S1:
	//	loadr: r0 i
	//	movrn: r1 10
	//	lesrr: r0 r0 r1
	//	cmprd: r0 0
	//	jmpeq: S2
	//	loadr: r0 i
	//	movrn: r1 1
	//	addrr: r0 r0 r1
	//	saver: i r0
	//	jmpal: S1
	// S2:
	//	loadr: r0 i
	//	movrr: r0 r0
	//	leave:
	//	leave:
}

package parser

import (
	"fmt"
	"testing"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/ast"
	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/lexer"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func Example_precedence() {
	toks, _ := lexer.Tokenize("2 + 3 * 4;")
	p := New(toks)
	e, err := p.parseExpr()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	var describe func(id ast.NodeID) string
	describe = func(id ast.NodeID) string {
		if id == ast.NoNode {
			return "_"
		}
		n := e.Tree.Node(id)
		if n.Kind == ast.LeafToken {
			return n.Token.Lexeme
		}
		return "(" + n.Op.String() + " " + describe(n.Left) + " " + describe(n.Right) + ")"
	}
	fmt.Println(describe(e.Root))
	// Output: (+ 2 (* 3 4))
}

func Example_unaryChain() {
	toks, _ := lexer.Tokenize("*p;")
	p := New(toks)
	e, err := p.parseExpr()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	n := e.Tree.Node(e.Root)
	fmt.Println(n.Op.String(), e.Tree.Node(n.Left).Token.Lexeme)
	// Output: * p
}

func TestParse_globalDecl(t *testing.T) {
	prog := mustParse(t, "s64: x = 5;")
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	vd, ok := prog.Decls[0].(ast.VarDecl)
	if !ok {
		t.Fatalf("expected VarDecl, got %T", prog.Decls[0])
	}
	if vd.Name != "x" || vd.Type.Base != "s64" || vd.Init == nil {
		t.Fatalf("unexpected decl: %+v", vd)
	}
}

func TestParse_funcDecl(t *testing.T) {
	prog := mustParse(t, `s64: add ( s64: a, s64: b ) {
		return a + b;
	}`)
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	fd, ok := prog.Decls[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected *FuncDecl, got %T", prog.Decls[0])
	}
	if fd.Name != "add" || len(fd.Params) != 2 || len(fd.Body) != 1 {
		t.Fatalf("unexpected func decl: %+v", fd)
	}
	if _, ok := fd.Body[0].(ast.ReturnStmt); !ok {
		t.Fatalf("expected ReturnStmt, got %T", fd.Body[0])
	}
}

func TestParse_typeDecl(t *testing.T) {
	prog := mustParse(t, `type: point {
		s64: x;
		s64: y;
	}`)
	td, ok := prog.Decls[0].(*ast.TypeDecl)
	if !ok {
		t.Fatalf("expected *TypeDecl, got %T", prog.Decls[0])
	}
	if td.Name != "point" || len(td.Members) != 2 {
		t.Fatalf("unexpected type decl: %+v", td)
	}
}

func TestParse_ifWhile(t *testing.T) {
	prog := mustParse(t, `s64: f ( s64: n ) {
		while (n) {
			n = n - 1;
		}
		if (n) {
			return 1;
		}
		return 0;
	}`)
	fd := prog.Decls[0].(*ast.FuncDecl)
	if len(fd.Body) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(fd.Body))
	}
	if _, ok := fd.Body[0].(ast.WhileStmt); !ok {
		t.Fatalf("expected WhileStmt, got %T", fd.Body[0])
	}
	if _, ok := fd.Body[1].(ast.IfStmt); !ok {
		t.Fatalf("expected IfStmt, got %T", fd.Body[1])
	}
}

func TestParse_callAndIndex(t *testing.T) {
	prog := mustParse(t, `s64: main ( ) {
		s64: v[4];
		v[0] = add(1, 2);
		return 0;
	}`)
	fd := prog.Decls[0].(*ast.FuncDecl)
	decl := fd.Body[0].(ast.DeclStmt).Decl
	if !decl.IsArray || decl.ArrayN != 4 {
		t.Fatalf("unexpected array decl: %+v", decl)
	}
	assign := fd.Body[1].(ast.ExprStmt).Expr
	root := assign.Tree.Node(assign.Root)
	if root.Op != ast.OpAssign {
		t.Fatalf("expected assignment root, got %v", root.Op)
	}
	lhs := assign.Tree.Node(root.Left)
	if !lhs.IsIndex {
		t.Fatalf("expected indexed lvalue")
	}
	rhs := assign.Tree.Node(root.Right)
	if !rhs.IsCall || len(rhs.Kids) != 2 {
		t.Fatalf("expected call with 2 args, got %+v", rhs)
	}
}

func TestParse_memberChain(t *testing.T) {
	prog := mustParse(t, `s64: f ( point: *p ) {
		return p.x;
	}`)
	fd := prog.Decls[0].(*ast.FuncDecl)
	ret := fd.Body[0].(ast.ReturnStmt)
	n := ret.Expr.Tree.Node(ret.Expr.Root)
	if len(n.Members) != 1 || n.Members[0] != "x" {
		t.Fatalf("unexpected member chain: %+v", n)
	}
}

func TestParse_errorRecovery(t *testing.T) {
	toks, err := lexer.Tokenize("s64: x = ;\ns64: y = 2;")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	_, perr := Parse(toks)
	if perr == nil {
		t.Fatalf("expected a parse error")
	}
}

// Package parser builds the declaration/statement/expression tree
// consumed by the assembler (kasm.Compile), following spec.md §2 step 2
// and §4.1.1.
package parser

import (
	"strconv"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/ast"
	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/token"
)

// Parser consumes a token stream and produces an *ast.Program.
type Parser struct {
	toks []token.Token
	pos  int
	tree *ast.Tree
	errs ErrorList
}

// New creates a Parser over an already-lexed token stream.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks, tree: ast.NewTree()}
}

// Parse lexes nothing itself; it consumes the token stream given to New
// and returns the parsed Program. If any compile-time errors were
// recorded (up to maxErrors), it returns them as an ErrorList.
func Parse(toks []token.Token) (*ast.Program, error) {
	p := New(toks)
	prog := p.parseProgram()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return prog, nil
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) atEOF() bool       { return p.cur().Kind == token.EOF }
func (p *Parser) abort() bool       { return len(p.errs) >= maxErrors }
func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) errorf(kind ErrorKind, msg string) {
	p.errs = append(p.errs, Error{Kind: kind, Tok: p.cur(), Msg: msg})
}

// expect consumes the current token if it has the given kind, else
// records an error and returns false without consuming.
func (p *Parser) expect(k token.Kind, msg string) (token.Token, bool) {
	if p.cur().Kind != k {
		p.errorf(UnexpectedToken, msg)
		return token.Token{}, false
	}
	return p.advance(), true
}

// syncToEndline skips tokens up to and including the next ';' (or EOF),
// used to resume parsing after a recoverable error.
func (p *Parser) syncToEndline() {
	for p.cur().Kind != token.Endline && !p.atEOF() {
		p.advance()
	}
	if p.cur().Kind == token.Endline {
		p.advance()
	}
}

// ---------------------------------------------------------------------
// Top level
// ---------------------------------------------------------------------

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.atEOF() && !p.abort() {
		d := p.parseTopDecl()
		if d != nil {
			prog.Decls = append(prog.Decls, d)
		}
	}
	return prog
}

func (p *Parser) parseTopDecl() ast.Decl {
	if p.cur().Kind == token.Keyword && p.cur().Lexeme == "type" {
		return p.parseTypeDecl()
	}

	typ, name, ok := p.parseTypedName()
	if !ok {
		p.errorf(InvalidDeclaration, "expected a type name")
		p.syncToEndline()
		return nil
	}

	switch p.cur().Kind {
	case token.NewExpression:
		return p.parseFuncDecl(typ, name)
	default:
		d := p.parseVarDeclTail(typ, name)
		if _, ok := p.expect(token.Endline, "expected ';' after declaration"); !ok {
			p.syncToEndline()
		}
		return d
	}
}

// parseTypedName consumes one `TYPE ':' '*'* IDENT` declaration head:
// a base type identifier, a declarator colon, an optional run of '*'
// pointer-depth markers, and the declared name (spec.md §6's grammar,
// e.g. `s64: *p`; see DESIGN.md for why the pointer markers sit after
// the colon rather than in front of the base type name).
func (p *Parser) parseTypedName() (ast.TypeName, string, bool) {
	base, ok := p.expect(token.Identifier, "expected a base type name")
	if !ok {
		return ast.TypeName{}, "", false
	}
	if _, ok := p.expect(token.Declarator, "expected ':' after type name"); !ok {
		return ast.TypeName{}, "", false
	}
	depth := 0
	for p.cur().Kind == token.Operator && p.cur().Lexeme == "*" {
		p.advance()
		depth++
	}
	nameTok, ok := p.expect(token.Identifier, "expected declared name")
	if !ok {
		return ast.TypeName{}, "", false
	}
	return ast.TypeName{PtrDepth: depth, Base: base.Lexeme}, nameTok.Lexeme, true
}

// looksLikeDecl reports whether the token stream starting at the
// current position matches the `IDENT ':'` shape of a declaration
// head, without consuming anything. Used to disambiguate a
// declaration from an expression statement that happens to start with
// a unary '*' (a dereferencing assignment like `*p = 5;` never has a
// declarator in this position).
func (p *Parser) looksLikeDecl() bool {
	i := p.pos
	if p.toks[i].Kind != token.Identifier {
		return false
	}
	i++
	return p.toks[i].Kind == token.Declarator
}

// parseVarDeclTail parses the remainder of a `TYPE : NAME` declaration:
// an optional array suffix and/or initializer.
func (p *Parser) parseVarDeclTail(typ ast.TypeName, name string) ast.VarDecl {
	d := ast.VarDecl{Type: typ, Name: name}
	if p.cur().Kind == token.NewIndex {
		p.advance()
		n, ok := p.expect(token.Number, "expected array length")
		if ok {
			v, err := strconv.Atoi(n.Lexeme)
			if err == nil {
				d.IsArray = true
				d.ArrayN = v
			} else {
				p.errorf(ExpectedConstant, "invalid array length")
			}
		}
		p.expect(token.EndIndex, "expected ']'")
	}
	if p.cur().Kind == token.Assignment {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			p.errorf(ExpectedConstant, err.Error())
		} else {
			d.Init = &e
		}
	}
	return d
}

func (p *Parser) parseTypeDecl() ast.Decl {
	p.advance() // 'type'
	if _, ok := p.expect(token.Declarator, "expected ':' after 'type'"); !ok {
		p.syncToEndline()
		return nil
	}
	nameTok, ok := p.expect(token.Identifier, "expected type name")
	if !ok {
		p.syncToEndline()
		return nil
	}
	if _, ok := p.expect(token.NewStatement, "expected '{'"); !ok {
		p.syncToEndline()
		return nil
	}
	td := &ast.TypeDecl{Name: nameTok.Lexeme}
	for p.cur().Kind != token.EndStatement && !p.atEOF() && !p.abort() {
		mtyp, mname, ok := p.parseTypedName()
		if !ok {
			p.syncToEndline()
			continue
		}
		md := p.parseVarDeclTail(mtyp, mname)
		if _, ok := p.expect(token.Endline, "expected ';' after member"); !ok {
			p.syncToEndline()
		}
		td.Members = append(td.Members, md)
	}
	p.expect(token.EndStatement, "expected '}'")
	return td
}

func (p *Parser) parseFuncDecl(typ ast.TypeName, name string) ast.Decl {
	p.advance() // '('
	fd := &ast.FuncDecl{Type: typ, Name: name}
	if p.cur().Kind != token.EndExpression {
		for {
			ptyp, pname, ok := p.parseTypedName()
			if !ok {
				break
			}
			fd.Params = append(fd.Params, ast.Param{Type: ptyp, Name: pname})
			if p.cur().Kind == token.Separator {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.EndExpression, "expected ')'")
	if _, ok := p.expect(token.NewStatement, "expected '{'"); !ok {
		p.syncToEndline()
		return fd
	}
	fd.Body = p.parseStmtList()
	p.expect(token.EndStatement, "expected '}'")
	return fd
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (p *Parser) parseStmtList() []ast.Stmt {
	var stmts []ast.Stmt
	for p.cur().Kind != token.EndStatement && !p.atEOF() && !p.abort() {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.cur().Kind == token.Keyword && p.cur().Lexeme == "if":
		return p.parseIf()
	case p.cur().Kind == token.Keyword && p.cur().Lexeme == "while":
		return p.parseWhile()
	case p.cur().Kind == token.Keyword && p.cur().Lexeme == "return":
		return p.parseReturn()
	case p.cur().Kind == token.NewStatement:
		p.advance()
		body := p.parseStmtList()
		p.expect(token.EndStatement, "expected '}'")
		return ast.BlockStmt{Body: body}
	case p.looksLikeDecl():
		typ, name, _ := p.parseTypedName()
		d := p.parseVarDeclTail(typ, name)
		if _, ok := p.expect(token.Endline, "expected ';' after declaration"); !ok {
			p.syncToEndline()
		}
		return ast.DeclStmt{Decl: d}
	default:
		e, err := p.parseExpr()
		if err != nil {
			p.errorf(UnexpectedToken, err.Error())
			p.syncToEndline()
			return ast.ExprStmt{}
		}
		if _, ok := p.expect(token.Endline, "expected ';' after expression"); !ok {
			p.syncToEndline()
		}
		return ast.ExprStmt{Expr: e}
	}
}

func (p *Parser) parseCondBody() (ast.Expr, []ast.Stmt) {
	p.advance() // 'if' / 'while'
	p.expect(token.NewExpression, "expected '('")
	cond, err := p.parseExpr()
	if err != nil {
		p.errorf(UnexpectedToken, err.Error())
	}
	p.expect(token.EndExpression, "expected ')'")
	var body []ast.Stmt
	if p.cur().Kind == token.NewStatement {
		p.advance()
		body = p.parseStmtList()
		p.expect(token.EndStatement, "expected '}'")
	} else {
		body = []ast.Stmt{p.parseStmt()}
	}
	return cond, body
}

func (p *Parser) parseIf() ast.Stmt {
	cond, body := p.parseCondBody()
	return ast.IfStmt{Cond: cond, Body: body}
}

func (p *Parser) parseWhile() ast.Stmt {
	cond, body := p.parseCondBody()
	return ast.WhileStmt{Cond: cond, Body: body}
}

func (p *Parser) parseReturn() ast.Stmt {
	p.advance() // 'return'
	if p.cur().Kind == token.Endline {
		p.advance()
		return ast.ReturnStmt{}
	}
	e, err := p.parseExpr()
	if err != nil {
		p.errorf(UnexpectedToken, err.Error())
		p.syncToEndline()
		return ast.ReturnStmt{}
	}
	if _, ok := p.expect(token.Endline, "expected ';' after return value"); !ok {
		p.syncToEndline()
	}
	return ast.ReturnStmt{Expr: &e}
}

// ---------------------------------------------------------------------
// Expressions (spec.md §4.1.1 precedence-climbing tree rotation)
// ---------------------------------------------------------------------

// unaryOps are the operator lexemes that, in "expect an operand"
// position, start a unary-prefixed operand instead of a binary
// operator.
var unaryOps = map[string]ast.OpType{
	"&": ast.OpRef,
	"*": ast.OpDeref,
	"-": ast.OpNeg,
	"!": ast.OpNot,
}

// binaryOps maps operator/assignment lexemes to their binary OpType.
var binaryOps = map[string]ast.OpType{
	"+": ast.OpAdd, "-": ast.OpSub, "*": ast.OpMul, "/": ast.OpDiv, "%": ast.OpMod,
	"<": ast.OpL, "<=": ast.OpLE, ">": ast.OpG, ">=": ast.OpGE, "==": ast.OpEQ, "!=": ast.OpNE,
	"&&": ast.OpAnd, "||": ast.OpOr,
	"=": ast.OpAssign, "=>": ast.OpPtrAssign,
}

func (p *Parser) isBinaryOpToken(t token.Token) bool {
	if t.Kind == token.Assignment {
		return true
	}
	if t.Kind != token.Operator {
		return false
	}
	_, ok := binaryOps[t.Lexeme]
	return ok
}

// parseExpr parses one expression starting at the current token,
// stopping at the first token that cannot extend it (';', ')', ']',
// ',', EOF, ...).
func (p *Parser) parseExpr() (ast.Expr, error) {
	tree := p.tree
	var root, current ast.NodeID = ast.NoNode, ast.NoNode
	expectOperand := true
	// spine is false while current is still the first operand (a leaf,
	// a unary chain or a parenthesized sub-expression), which is never
	// rotated into, and true once current is a binary operator built here.
	spine := false

	attach := func(n ast.NodeID) {
		if root == ast.NoNode {
			root = n
			current = n
			return
		}
		node := tree.Node(current)
		if node.Left == ast.NoNode {
			node.Left = n
		}
		if node.Right == ast.NoNode {
			node.Right = n
		}
		tree.SetParent(n, current)
	}

	for {
		t := p.cur()
		if expectOperand {
			if t.Kind == token.Operator {
				if op, ok := unaryOps[t.Lexeme]; ok {
					n, err := p.parseUnary(op)
					if err != nil {
						return ast.Expr{}, err
					}
					attach(n)
					expectOperand = false
					continue
				}
			}
			if !startsOperand(t) {
				break
			}
			n, err := p.parseOperand()
			if err != nil {
				return ast.Expr{}, err
			}
			attach(n)
			expectOperand = false
			continue
		}

		if !p.isBinaryOpToken(t) {
			break
		}
		lexeme := t.Lexeme
		if t.Kind == token.Assignment {
			lexeme = "="
		}
		op := binaryOps[lexeme]
		opTok := p.advance()
		newNode := tree.NewOperator(op, opTok)
		h := op.Precedence()

		switch {
		case spine:
			cur := current
			for tree.Node(cur).Op.Precedence() >= h && tree.Node(cur).Parent != ast.NoNode {
				cur = tree.Node(cur).Parent
			}
			if tree.Node(cur).Parent == ast.NoNode && tree.Node(cur).Op.Precedence() >= h {
				tree.Node(newNode).Left = cur
				tree.SetParent(cur, newNode)
				root = newNode
				current = newNode
			} else {
				right := tree.Node(cur).Right
				tree.Node(newNode).Left = right
				tree.SetParent(right, newNode)
				tree.Node(cur).Right = newNode
				tree.SetParent(newNode, cur)
				current = newNode
			}
		default: // first operand
			tree.Node(newNode).Left = current
			tree.SetParent(current, newNode)
			root = newNode
			current = root
		}
		spine = true
		expectOperand = true
	}

	if root == ast.NoNode {
		return ast.Expr{}, errUnexpected(t0(p))
	}
	return ast.Expr{Tree: tree, Root: root}, nil
}

func t0(p *Parser) token.Token { return p.cur() }

func errUnexpected(t token.Token) error {
	return Error{Kind: ExpectedConstant, Tok: t, Msg: "expected an expression"}
}

func startsOperand(t token.Token) bool {
	switch t.Kind {
	case token.Number, token.String, token.Identifier, token.NewExpression:
		return true
	}
	return false
}

// parseUnary consumes a unary prefix operator and recursively parses
// its operand, wrapping it in a single OperatorNode with only Left set.
func (p *Parser) parseUnary(op ast.OpType) (ast.NodeID, error) {
	opTok := p.advance()
	n := p.tree.NewOperator(op, opTok)
	t := p.cur()
	var inner ast.NodeID
	var err error
	if t.Kind == token.Operator {
		if innerOp, ok := unaryOps[t.Lexeme]; ok {
			inner, err = p.parseUnary(innerOp)
		} else {
			return ast.NoNode, errUnexpected(t)
		}
	} else if startsOperand(t) {
		inner, err = p.parseOperand()
	} else {
		return ast.NoNode, errUnexpected(t)
	}
	if err != nil {
		return ast.NoNode, err
	}
	node := p.tree.Node(n)
	node.Left = inner
	p.tree.SetParent(inner, n)
	return n, nil
}

// parseOperand parses one primary operand: a number, string,
// parenthesized sub-expression, or an identifier together with at most
// one postfix form (call, index, or a '.' member chain), per spec.md
// §4.1.2/§4.1.4.
func (p *Parser) parseOperand() (ast.NodeID, error) {
	t := p.cur()
	switch t.Kind {
	case token.Number, token.String:
		p.advance()
		return p.tree.NewLeaf(t), nil
	case token.NewExpression:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return ast.NoNode, err
		}
		if _, ok := p.expect(token.EndExpression, "expected ')'"); !ok {
			return ast.NoNode, errUnexpected(p.cur())
		}
		return e.Root, nil
	case token.Identifier:
		p.advance()
		id := p.tree.NewLeaf(t)
		switch p.cur().Kind {
		case token.NewExpression:
			p.advance()
			n := p.tree.Node(id)
			n.IsCall = true
			if p.cur().Kind != token.EndExpression {
				for {
					argExpr, err := p.parseExpr()
					if err != nil {
						return ast.NoNode, err
					}
					// Re-fetch: parsing the argument may have grown the arena.
					n = p.tree.Node(id)
					n.Kids = append(n.Kids, argExpr.Root)
					if p.cur().Kind == token.Separator {
						p.advance()
						continue
					}
					break
				}
			}
			if _, ok := p.expect(token.EndExpression, "expected ')' after call arguments"); !ok {
				return ast.NoNode, errUnexpected(p.cur())
			}
		case token.NewIndex:
			p.advance()
			idxExpr, err := p.parseExpr()
			if err != nil {
				return ast.NoNode, err
			}
			n := p.tree.Node(id)
			n.IsIndex = true
			n.Kids = []ast.NodeID{idxExpr.Root}
			if _, ok := p.expect(token.EndIndex, "expected ']'"); !ok {
				return ast.NoNode, errUnexpected(p.cur())
			}
		case token.Member:
			n := p.tree.Node(id)
			for p.cur().Kind == token.Member {
				p.advance()
				mtok, ok := p.expect(token.Identifier, "expected member name")
				if !ok {
					return ast.NoNode, errUnexpected(p.cur())
				}
				n.Members = append(n.Members, mtok.Lexeme)
			}
		}
		return id, nil
	}
	return ast.NoNode, errUnexpected(t)
}

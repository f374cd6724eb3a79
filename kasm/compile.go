package kasm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/ast"
	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/parser"
	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/token"
)

// binaryMnemonics maps a binary/comparison OpType to its KASM opcode
// mnemonic (§4.1.3). andrr/orrr/modrr/nequrr extend the table's
// explicitly listed set to cover the rest of the operator enum in §3;
// see DESIGN.md.
var binaryMnemonics = map[ast.OpType]string{
	ast.OpAdd: "addrr", ast.OpSub: "subrr", ast.OpMul: "mulrr", ast.OpDiv: "divrr", ast.OpMod: "modrr",
	ast.OpL: "lesrr", ast.OpG: "grerr", ast.OpLE: "leqrr", ast.OpGE: "geqrr", ast.OpEQ: "equrr", ast.OpNE: "nequrr",
	ast.OpAnd: "andrr", ast.OpOr: "orrr",
}

// compiler holds the mutable state threaded through one compilation
// unit: the register/label counters from spec.md §4.1 and the
// per-compilation symbol tables that replace the source's file-scope
// globals (spec.md §9, "Global state").
type compiler struct {
	out strings.Builder
	r   int // current top register; -1 means none allocated
	s   int // last synthetic label id issued; 0 means none yet

	types   map[string]*ast.TypeDecl
	funcs   map[string]*ast.FuncDecl
	globals map[string]ast.TypeName
	locals  map[string]ast.TypeName

	errs parser.ErrorList
}

// Compile lowers a parsed Program to KASM text, per spec.md §4.1.
func Compile(prog *ast.Program) (string, error) {
	c := &compiler{
		r:       -1,
		types:   map[string]*ast.TypeDecl{},
		funcs:   map[string]*ast.FuncDecl{},
		globals: map[string]ast.TypeName{},
	}
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.TypeDecl:
			c.types[d.Name] = d
		case *ast.FuncDecl:
			c.funcs[d.Name] = d
		case ast.VarDecl:
			c.globals[d.Name] = d.Type
		}
	}

	var globalDecls []ast.VarDecl
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.TypeDecl:
			c.compileType(d)
		case ast.VarDecl:
			globalDecls = append(globalDecls, d)
		}
	}
	if len(globalDecls) > 0 {
		c.emitLabel("_globals")
		c.locals = map[string]ast.TypeName{}
		for _, d := range globalDecls {
			c.compileDecl(d)
		}
		c.emit("leave:")
	}
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			c.compileFunc(fd)
		}
	}

	if len(c.errs) > 0 {
		return "", c.errs
	}
	return c.out.String(), nil
}

func (c *compiler) emit(format string, args ...interface{}) {
	c.out.WriteByte('\t')
	fmt.Fprintf(&c.out, format, args...)
	c.out.WriteByte('\n')
}

func (c *compiler) emitLabel(name string) {
	c.out.WriteString(name)
	c.out.WriteString(":\n")
}

func (c *compiler) errorf(kind parser.ErrorKind, msg string) {
	c.errs = append(c.errs, parser.Error{Kind: kind, Msg: msg})
}

func (c *compiler) nextReg() int { c.r++; return c.r }
func (c *compiler) curReg() int  { return c.r }
func (c *compiler) popReg() int  { v := c.r; c.r--; return v }

func (c *compiler) nextLabel() int { c.s++; return c.s }

// compileType emits a type's member layout as a sequence of newsv
// instructions under its own label, per spec.md §4.1.5 ("types are
// layouts only").
func (c *compiler) compileType(td *ast.TypeDecl) {
	c.emitLabel(td.Name)
	for _, m := range td.Members {
		if m.IsArray {
			c.emit("newav: %s %s %d", m.Type.String(), m.Name, m.ArrayN)
		} else {
			c.emit("newsv: %s %s", m.Type.String(), m.Name)
		}
	}
}

func (c *compiler) compileFunc(fd *ast.FuncDecl) {
	c.emitLabel(fd.Name)
	c.locals = map[string]ast.TypeName{}
	for _, p := range fd.Params {
		c.locals[p.Name] = p.Type
	}
	// Every argument is popped before any parameter local is declared:
	// newsv moves sp down over the slots the arguments occupy.
	regs := make([]int, len(fd.Params))
	for k := range fd.Params {
		regs[k] = c.nextReg()
		c.emit("poprr: r%d", regs[k])
	}
	for k, p := range fd.Params {
		c.emit("newsv: %s %s", p.Type.String(), p.Name)
		c.emit("saver: %s r%d", p.Name, regs[k])
	}
	c.r -= len(fd.Params)
	for _, st := range fd.Body {
		c.compileStmt(st)
	}
	c.emit("leave:")
}

func (c *compiler) compileDecl(d ast.VarDecl) {
	if d.IsArray {
		c.emit("newav: %s %s %d", d.Type.String(), d.Name, d.ArrayN)
	} else {
		c.emit("newsv: %s %s", d.Type.String(), d.Name)
	}
	c.locals[d.Name] = d.Type
	if d.Init != nil {
		if err := c.compileExpr(*d.Init); err != nil {
			c.errorf(parser.ExpectedConstant, err.Error())
			return
		}
		c.emit("saver: %s r%d", d.Name, c.popReg())
	}
}

func (c *compiler) compileStmt(st ast.Stmt) {
	switch st := st.(type) {
	case ast.DeclStmt:
		c.compileDecl(st.Decl)
	case ast.ExprStmt:
		start := c.r
		if err := c.compileExpr(st.Expr); err != nil {
			c.errorf(parser.UnexpectedToken, err.Error())
			return
		}
		// A bare expression statement's result is unused; drop it by
		// restoring the register counter to its pre-statement value
		// (property 1, spec.md §8).
		c.r = start
	case ast.IfStmt:
		if err := c.compileExpr(st.Cond); err != nil {
			c.errorf(parser.UnexpectedToken, err.Error())
			return
		}
		c.emit("cmprd: r%d 0", c.popReg())
		end := c.nextLabel()
		c.emit("jmpeq: S%d", end)
		for _, s := range st.Body {
			c.compileStmt(s)
		}
		c.emitLabel(fmt.Sprintf("S%d", end))
	case ast.WhileStmt:
		head := c.nextLabel()
		c.emitLabel(fmt.Sprintf("S%d", head))
		if err := c.compileExpr(st.Cond); err != nil {
			c.errorf(parser.UnexpectedToken, err.Error())
			return
		}
		c.emit("cmprd: r%d 0", c.popReg())
		exit := c.nextLabel()
		c.emit("jmpeq: S%d", exit)
		for _, s := range st.Body {
			c.compileStmt(s)
		}
		c.emit("jmpal: S%d", head)
		c.emitLabel(fmt.Sprintf("S%d", exit))
	case ast.ReturnStmt:
		if st.Expr != nil {
			if err := c.compileExpr(*st.Expr); err != nil {
				c.errorf(parser.UnexpectedToken, err.Error())
				return
			}
			c.emit("movrr: r0 r%d", c.popReg())
		}
		c.emit("leave:")
	case ast.BlockStmt:
		for _, s := range st.Body {
			c.compileStmt(s)
		}
	}
}

// compileExpr lowers one expression tree, leaving its result in the
// register returned by curReg() (spec.md §4.1.2/§4.1.3/§4.1.4).
func (c *compiler) compileExpr(e ast.Expr) error {
	return c.emitNode(e.Tree, e.Root)
}

func (c *compiler) emitNode(tree *ast.Tree, id ast.NodeID) error {
	n := tree.Node(id)
	if n.Kind == ast.LeafToken {
		return c.emitLeaf(tree, id)
	}

	switch n.Op {
	case ast.OpAssign, ast.OpPtrAssign:
		return c.emitAssign(tree, id)
	case ast.OpRef:
		leaf := tree.Node(n.Left)
		if !c.knownName(leaf.Token.Lexeme) {
			c.errorf(parser.UndeclaredVariable, "undeclared variable "+leaf.Token.Lexeme)
		}
		reg := c.nextReg()
		c.emit("refsv: r%d %s", reg, leaf.Token.Lexeme)
		return nil
	case ast.OpNeg, ast.OpNot:
		if err := c.emitNode(tree, n.Left); err != nil {
			return err
		}
		c.emit("negrr: r%d r%d", c.curReg(), c.curReg())
		return nil
	case ast.OpDeref:
		if err := c.emitNode(tree, n.Left); err != nil {
			return err
		}
		c.emit("deref: r%d r%d", c.curReg(), c.curReg())
		return nil
	default:
		return c.emitBinary(tree, id)
	}
}

func (c *compiler) emitBinary(tree *ast.Tree, id ast.NodeID) error {
	n := tree.Node(id)
	if n.Op == ast.OpMod && (c.exprIsFloat(tree, n.Left) || c.exprIsFloat(tree, n.Right)) {
		c.errorf(parser.UnallowedFloat, "modulo is not allowed on float operands")
	}
	if err := c.emitNode(tree, n.Left); err != nil {
		return err
	}
	if err := c.emitNode(tree, n.Right); err != nil {
		return err
	}
	right := c.popReg()
	left := c.curReg()
	mnem, ok := binaryMnemonics[n.Op]
	if !ok {
		return errors.Errorf("no KASM opcode for operator %s", n.Op)
	}
	c.emit("%s: r%d r%d r%d", mnem, left, left, right)
	return nil
}

// exprIsFloat does a light syntactic type check: a float literal or a
// reference to a float-typed variable taints the whole subtree,
// mirroring the promotion rule of spec.md §4.2.3.
func (c *compiler) exprIsFloat(tree *ast.Tree, id ast.NodeID) bool {
	if id == ast.NoNode {
		return false
	}
	n := tree.Node(id)
	if n.Kind == ast.LeafToken {
		if n.Token.Kind == token.Number {
			return strings.ContainsRune(n.Token.Lexeme, '.')
		}
		if t, ok := c.locals[n.Token.Lexeme]; ok {
			return t.IsFloat()
		}
		if t, ok := c.globals[n.Token.Lexeme]; ok {
			return t.IsFloat()
		}
		return false
	}
	return c.exprIsFloat(tree, n.Left) || c.exprIsFloat(tree, n.Right)
}

func (c *compiler) knownName(name string) bool {
	if _, ok := c.locals[name]; ok {
		return true
	}
	if _, ok := c.globals[name]; ok {
		return true
	}
	if _, ok := c.funcs[name]; ok {
		return true
	}
	return false
}

func (c *compiler) emitLeaf(tree *ast.Tree, id ast.NodeID) error {
	n := tree.Node(id)
	tok := n.Token

	switch tok.Kind {
	case token.Number:
		reg := c.nextReg()
		if strings.ContainsRune(tok.Lexeme, '.') {
			c.emit("movrf: r%d %s", reg, tok.Lexeme)
		} else {
			c.emit("movrn: r%d %s", reg, tok.Lexeme)
		}
		return nil
	case token.String:
		// Strings have no KASM-level representation (spec.md's VM model
		// carries no string type); a literal lowers to a null placeholder.
		reg := c.nextReg()
		c.emit("movrn: r%d 0", reg)
		return nil
	}

	// Identifier, possibly with a call/index/member postfix.
	if n.IsCall {
		return c.emitCall(tree, n, tok.Lexeme)
	}
	if !c.knownName(tok.Lexeme) {
		c.errorf(parser.UndeclaredVariable, "undeclared variable "+tok.Lexeme)
	}
	reg := c.nextReg()
	c.emit("loadr: r%d %s", reg, tok.Lexeme)

	if n.IsIndex {
		if err := c.emitNode(tree, n.Kids[0]); err != nil {
			return err
		}
		idx := c.popReg()
		base := c.curReg()
		c.emit("addrr: r%d r%d r%d", base, base, idx)
		c.emit("deref: r%d r%d", base, base)
		return nil
	}

	for _, m := range n.Members {
		c.emit("adszr: r%d r%d %s", c.curReg(), c.curReg(), m)
	}
	if len(n.Members) > 0 {
		c.emit("deref: r%d r%d", c.curReg(), c.curReg())
	}
	return nil
}

func (c *compiler) emitCall(tree *ast.Tree, n *ast.Node, name string) error {
	if _, ok := c.funcs[name]; !ok {
		c.errorf(parser.UndeclaredVariable, "call to undeclared function "+name)
	}
	for _, argID := range n.Kids {
		if err := c.emitNode(tree, argID); err != nil {
			return err
		}
		c.emit("pushr: r%d", c.popReg())
	}
	// leave copies the callee's r0 into the caller's r0, so a live r0 is
	// parked in a free register across the call and restored afterwards.
	stash := -1
	if c.r >= 0 {
		stash = c.r + 2
		c.emit("movrr: r%d r0", stash)
	}
	c.emit("callf: %s", name)
	reg := c.nextReg()
	c.emit("movrr: r%d r0", reg)
	if stash >= 0 {
		c.emit("movrr: r0 r%d", stash)
	}
	return nil
}

// emitAssign lowers the ASSIGN/PTR_ASSIGN node per spec.md §4.1.4. The
// left subtree's shape (plain identifier, index, deref chain, member
// chain) dictates which lvalue form is used; both ASSIGN and
// PTR_ASSIGN share this lowering (see DESIGN.md's ptr_assign decision
// for spec.md §9's open question).
func (c *compiler) emitAssign(tree *ast.Tree, id ast.NodeID) error {
	n := tree.Node(id)
	lhs := tree.Node(n.Left)

	if lhs.Kind == ast.LeafToken && !lhs.IsIndex && len(lhs.Members) == 0 {
		name := lhs.Token.Lexeme
		if !c.knownName(name) {
			c.errorf(parser.UndeclaredVariable, "undeclared variable "+name)
		}
		if err := c.emitNode(tree, n.Right); err != nil {
			return err
		}
		c.emit("saver: %s r%d", name, c.popReg())
		return nil
	}

	if lhs.Kind == ast.LeafToken && lhs.IsIndex {
		reg := c.nextReg()
		c.emit("loadr: r%d %s", reg, lhs.Token.Lexeme)
		if err := c.emitNode(tree, lhs.Kids[0]); err != nil {
			return err
		}
		idx := c.popReg()
		base := c.curReg()
		c.emit("addrr: r%d r%d r%d", base, base, idx)
		if err := c.emitNode(tree, n.Right); err != nil {
			return err
		}
		val := c.popReg()
		addr := c.popReg()
		c.emit("savea: r%d r%d", addr, val)
		return nil
	}

	if lhs.Kind == ast.LeafToken && len(lhs.Members) > 0 {
		reg := c.nextReg()
		c.emit("loadr: r%d %s", reg, lhs.Token.Lexeme)
		for _, m := range lhs.Members {
			c.emit("adszr: r%d r%d %s", c.curReg(), c.curReg(), m)
		}
		if err := c.emitNode(tree, n.Right); err != nil {
			return err
		}
		val := c.popReg()
		addr := c.popReg()
		c.emit("savea: r%d r%d", addr, val)
		return nil
	}

	if lhs.Kind == ast.OperatorNode && lhs.Op == ast.OpDeref {
		// Walk the deref spine `*...*v` down to its root identifier,
		// counting how many derefs beyond the outermost one apply
		// (spec.md §4.1.4).
		depth := 1
		walk := lhs
		for tree.Node(walk.Left).Kind == ast.OperatorNode && tree.Node(walk.Left).Op == ast.OpDeref {
			walk = tree.Node(walk.Left)
			depth++
		}
		baseLeaf := tree.Node(walk.Left)
		if !c.knownName(baseLeaf.Token.Lexeme) {
			c.errorf(parser.UndeclaredVariable, "undeclared variable "+baseLeaf.Token.Lexeme)
		}
		reg := c.nextReg()
		c.emit("loadr: r%d %s", reg, baseLeaf.Token.Lexeme)
		for i := 1; i < depth; i++ {
			c.emit("deref: r%d r%d", c.curReg(), c.curReg())
		}
		if err := c.emitNode(tree, n.Right); err != nil {
			return err
		}
		val := c.popReg()
		addr := c.popReg()
		c.emit("savea: r%d r%d", addr, val)
		return nil
	}

	return errors.New("unsupported lvalue form in assignment")
}

// parseIntLiteral parses a decimal integer literal. The loader does not
// call it; it reads newav's element count through classifyArg.
func parseIntLiteral(s string) (int, error) {
	return strconv.Atoi(s)
}

package ast

// TypeName is a textual type reference: zero or more leading '*'
// (pointer levels) followed by a base type id (s8, u32, f64, a user
// struct name, ...), per spec.md §3's Variable record.
type TypeName struct {
	PtrDepth int
	Base     string
}

// IsFloat reports whether the base type is one of the float scalars.
func (t TypeName) IsFloat() bool {
	return t.PtrDepth == 0 && (t.Base == "f32" || t.Base == "f64")
}

// String renders the type the way KASM text spells it, e.g. "**s64"
// (KAPPA source puts the '*' run after the declarator colon instead).
func (t TypeName) String() string {
	s := ""
	for i := 0; i < t.PtrDepth; i++ {
		s += "*"
	}
	return s + t.Base
}

// Expr wraps one expression tree built by the parser.
type Expr struct {
	Tree *Tree
	Root NodeID
}

// Param is one function parameter declaration.
type Param struct {
	Type TypeName
	Name string
}

// VarDecl is a scalar or array local/global declaration, optionally with
// an initializer, per spec.md §4.1.5.
type VarDecl struct {
	Type    TypeName
	Name    string
	IsArray bool
	ArrayN  int
	Init    *Expr // nil if not initialized
}

// TypeDecl declares a struct layout: a named sequence of member
// declarations with no executable code, per spec.md §4.1.5.
type TypeDecl struct {
	Name    string
	Members []VarDecl
}

// FuncDecl declares a function: its return type, name, ordered
// parameters and statement body.
type FuncDecl struct {
	Type   TypeName
	Name   string
	Params []Param
	Body   []Stmt
}

// Stmt is any statement-level construct.
type Stmt interface{ stmtNode() }

// ExprStmt is a bare expression evaluated for effect (e.g. an
// assignment or a call).
type ExprStmt struct{ Expr Expr }

// DeclStmt is a local variable declaration appearing inside a function
// body.
type DeclStmt struct{ Decl VarDecl }

// IfStmt is spec.md's `if (cond) body` form (no else).
type IfStmt struct {
	Cond Expr
	Body []Stmt
}

// WhileStmt is spec.md's `while (cond) body` form.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
}

// ReturnStmt optionally carries a value expression.
type ReturnStmt struct {
	Expr *Expr
}

// BlockStmt is an explicit `{ ... }` nested statement list.
type BlockStmt struct {
	Body []Stmt
}

func (ExprStmt) stmtNode()   {}
func (DeclStmt) stmtNode()   {}
func (IfStmt) stmtNode()     {}
func (WhileStmt) stmtNode()  {}
func (ReturnStmt) stmtNode() {}
func (BlockStmt) stmtNode()  {}

// Decl is any top-level declaration: a global VarDecl, a TypeDecl or a
// FuncDecl.
type Decl interface{ declNode() }

func (VarDecl) declNode()  {}
func (TypeDecl) declNode() {}
func (FuncDecl) declNode() {}

// Program is a whole parsed compilation unit: an ordered sequence of
// top-level declarations, matching spec.md §6's grammar summary.
type Program struct {
	Decls []Decl
}

// # internal/engine/ast/ast.go
package ast

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

// Node is implemented by every syntax node variant. The set is closed: only
// types in this package satisfy it.
type Node interface {
	Position() Pos
	node()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Base carries the position shared by all nodes.
type Base struct {
	Pos Pos
}

func (b Base) Position() Pos { return b.Pos }
func (Base) node()           {}

// Program is the root of a parsed source file.
type Program struct {
	Base
	Body []Stmt
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

type StringLit struct {
	Base
	Value string
}

type NumberLit struct {
	Base
	Value float64
	Raw   string
}

type BoolLit struct {
	Base
	Value bool
}

type NullLit struct{ Base }

type UndefinedLit struct{ Base }

type Ident struct {
	Base
	Name string
}

// ArrayLit elements are nil for holes.
type ArrayLit struct {
	Base
	Elements []Expr
}

type KeyKind int

const (
	KeyIdent KeyKind = iota
	KeyComplex
)

// Property is one entry of an object literal. Shorthand properties carry an
// Ident value with the same name as the key.
type Property struct {
	Pos     Pos
	Key     string
	KeyKind KeyKind
	Value   Expr
}

type ObjectLit struct {
	Base
	Props []Property
}

// MemberExpr is `obj.prop` or, when Computed, `obj[index]`.
type MemberExpr struct {
	Base
	Object   Expr
	Property string
	Computed bool
	Index    Expr
}

type BinaryExpr struct {
	Base
	Op    string
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	Base
	Op      string
	Operand Expr
}

// TemplateLit holds len(Exprs)+1 literal chunks around the substitutions.
type TemplateLit struct {
	Base
	Chunks []string
	Exprs  []Expr
}

type AwaitExpr struct {
	Base
	Arg Expr
}

type CallExpr struct {
	Base
	Callee Expr
	Args   []Expr
	Source string
}

type NewExpr struct {
	Base
	Callee Expr
	Args   []Expr
}

// FuncLit is an arrow function, function expression or object method.
// ExprBody is set instead of Body for arrows with an expression body.
type FuncLit struct {
	Base
	Name     string
	Params   []string
	Async    bool
	Arrow    bool
	Body     []Stmt
	ExprBody Expr
}

// OpaqueExpr is any expression form the lowering does not model. Children
// keep nested nodes reachable for the walker.
type OpaqueExpr struct {
	Base
	Kind     string
	Children []Node
}

func (*StringLit) expr()    {}
func (*NumberLit) expr()    {}
func (*BoolLit) expr()      {}
func (*NullLit) expr()      {}
func (*UndefinedLit) expr() {}
func (*Ident) expr()        {}
func (*ArrayLit) expr()     {}
func (*ObjectLit) expr()    {}
func (*MemberExpr) expr()   {}
func (*BinaryExpr) expr()   {}
func (*UnaryExpr) expr()    {}
func (*TemplateLit) expr()  {}
func (*AwaitExpr) expr()    {}
func (*CallExpr) expr()     {}
func (*NewExpr) expr()      {}
func (*FuncLit) expr()      {}
func (*OpaqueExpr) expr()   {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// Declarator binds Name to Init. Pattern is set for destructuring targets,
// in which case Name is empty.
type Declarator struct {
	Pos     Pos
	Name    string
	Pattern bool
	Init    Expr
}

type VarDecl struct {
	Base
	Kind  string // var, let, const
	Decls []Declarator
}

type FuncDecl struct {
	Base
	Name   string
	Params []string
	Async  bool
	Body   []Stmt
}

// ClassMember is a method (Method set, Body used) or a field (Value used).
type ClassMember struct {
	Pos    Pos
	Name   string
	Method bool
	Static bool
	Params []string
	Body   []Stmt
	Value  Expr
}

type ClassDecl struct {
	Base
	Name    string
	Members []ClassMember
}

type ExprStmt struct {
	Base
	X Expr
}

// OtherStmt is any statement form with no dedicated variant (blocks, if,
// try, loops, return, export wrappers). Children are walked in order.
type OtherStmt struct {
	Base
	Kind     string
	Children []Node
}

func (*VarDecl) stmt()   {}
func (*FuncDecl) stmt()  {}
func (*ClassDecl) stmt() {}
func (*ExprStmt) stmt()  {}
func (*OtherStmt) stmt() {}

// At returns a Base positioned at line/column.
func At(line, column int) Base {
	return Base{Pos: Pos{Line: line, Column: column}}
}

package parser

import (
	"strings"

	"inlinelog/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// StmtHandler lowers a statement node of one tree-sitter kind.
type StmtHandler func(ctx *LoweringContext, node *sitter.Node) ast.Stmt

// ExprHandler lowers an expression node of one tree-sitter kind.
type ExprHandler func(ctx *LoweringContext, node *sitter.Node) ast.Expr

// LoweringContext carries the source and helpers shared by all handlers.
type LoweringContext struct {
	Source []byte
	engine *LoweringEngine
}

// LoweringEngine dispatches tree-sitter nodes to handlers by kind. Kinds
// without a handler become ast.OtherStmt or ast.OpaqueExpr so nested nodes
// stay reachable.
type LoweringEngine struct {
	stmts map[string]StmtHandler
	exprs map[string]ExprHandler
}

func NewLoweringEngine(stmts map[string]StmtHandler, exprs map[string]ExprHandler) *LoweringEngine {
	return &LoweringEngine{stmts: stmts, exprs: exprs}
}

func (c *LoweringContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *LoweringContext) Base(node *sitter.Node) ast.Base {
	pos := node.StartPosition()
	return ast.At(int(pos.Row)+1, int(pos.Column)+1)
}

func (c *LoweringContext) Pos(node *sitter.Node) ast.Pos {
	return c.Base(node).Pos
}

// Stmt lowers node as a statement. Comments and empty statements yield nil.
func (c *LoweringContext) Stmt(node *sitter.Node) ast.Stmt {
	if node == nil || skippable(node) {
		return nil
	}
	if handler, ok := c.engine.stmts[node.Kind()]; ok {
		return handler(c, node)
	}
	return &ast.OtherStmt{Base: c.Base(node), Kind: node.Kind(), Children: c.Nodes(node)}
}

// Expr lowers node as an expression.
func (c *LoweringContext) Expr(node *sitter.Node) ast.Expr {
	if node == nil || skippable(node) {
		return nil
	}
	if handler, ok := c.engine.exprs[node.Kind()]; ok {
		if out := handler(c, node); out != nil {
			return out
		}
	}
	return &ast.OpaqueExpr{Base: c.Base(node), Kind: node.Kind(), Children: c.Nodes(node)}
}

// Node lowers a child of unknown role: statement kinds become statements,
// everything else an expression.
func (c *LoweringContext) Node(node *sitter.Node) ast.Node {
	if node == nil || skippable(node) {
		return nil
	}
	if _, ok := c.engine.stmts[node.Kind()]; ok || isStatementKind(node.Kind()) {
		if s := c.Stmt(node); s != nil {
			return s
		}
		return nil
	}
	if e := c.Expr(node); e != nil {
		return e
	}
	return nil
}

// Nodes lowers every named child of node.
func (c *LoweringContext) Nodes(node *sitter.Node) []ast.Node {
	var out []ast.Node
	for _, child := range NamedChildren(node) {
		if n := c.Node(child); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Stmts lowers the named children of a block-like node as statements.
func (c *LoweringContext) Stmts(node *sitter.Node) []ast.Stmt {
	var out []ast.Stmt
	for _, child := range NamedChildren(node) {
		if s := c.Stmt(child); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Exprs lowers the named children of an argument list.
func (c *LoweringContext) Exprs(node *sitter.Node) []ast.Expr {
	var out []ast.Expr
	for _, child := range NamedChildren(node) {
		if e := c.Expr(child); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// NamedChildren returns the named, non-comment children of node.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := node.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// FirstNamedChild returns the first named, non-comment child of node.
func FirstNamedChild(node *sitter.Node) *sitter.Node {
	children := NamedChildren(node)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// HasToken reports whether node has a direct anonymous child of kind token,
// e.g. "async" or "static".
func HasToken(node *sitter.Node, token string) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

func skippable(node *sitter.Node) bool {
	switch node.Kind() {
	case "comment", "empty_statement", "hash_bang_line":
		return true
	}
	return false
}

func isStatementKind(kind string) bool {
	switch kind {
	case "statement_block", "else_clause", "catch_clause", "finally_clause",
		"switch_body", "switch_case", "switch_default", "class_body":
		return true
	}
	return strings.HasSuffix(kind, "_statement") || strings.HasSuffix(kind, "_declaration")
}

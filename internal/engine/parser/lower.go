// # internal/engine/parser/lower.go
package parser

import (
	"inlinelog/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var defaultEngine = NewLoweringEngine(
	map[string]StmtHandler{
		"expression_statement":           lowerExpressionStatement,
		"lexical_declaration":            lowerVarDecl,
		"variable_declaration":           lowerVarDecl,
		"function_declaration":           lowerFuncDecl,
		"generator_function_declaration": lowerFuncDecl,
		"class_declaration":              lowerClassDecl,
		"abstract_class_declaration":     lowerClassDecl,
	},
	map[string]ExprHandler{
		"string":                   lowerString,
		"number":                   lowerNumber,
		"true":                     lowerBool,
		"false":                    lowerBool,
		"null":                     lowerNull,
		"undefined":                lowerUndefined,
		"identifier":               lowerIdent,
		"parenthesized_expression": lowerParenthesized,
		"array":                    lowerArray,
		"object":                   lowerObject,
		"member_expression":        lowerMember,
		"subscript_expression":     lowerSubscript,
		"binary_expression":        lowerBinary,
		"unary_expression":         lowerUnary,
		"template_string":          lowerTemplate,
		"await_expression":         lowerAwait,
		"call_expression":          lowerCall,
		"new_expression":           lowerNew,
		"arrow_function":           lowerFuncLit,
		"function_expression":      lowerFuncLit,
		"function":                 lowerFuncLit,
		"generator_function":       lowerFuncLit,
		"method_definition":        lowerFuncLit,
		"class":                    lowerClassExpr,
	},
)

func lowerProgram(root *sitter.Node, source []byte) *ast.Program {
	ctx := &LoweringContext{Source: source, engine: defaultEngine}
	return &ast.Program{Base: ctx.Base(root), Body: ctx.Stmts(root)}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func lowerExpressionStatement(ctx *LoweringContext, node *sitter.Node) ast.Stmt {
	x := ctx.Expr(FirstNamedChild(node))
	if x == nil {
		return nil
	}
	return &ast.ExprStmt{Base: ctx.Base(node), X: x}
}

func lowerVarDecl(ctx *LoweringContext, node *sitter.Node) ast.Stmt {
	decl := &ast.VarDecl{Base: ctx.Base(node), Kind: "var"}
	if node.ChildCount() > 0 {
		if first := node.Child(0); first != nil && !first.IsNamed() {
			decl.Kind = first.Kind()
		}
	}
	for _, child := range NamedChildren(node) {
		if child.Kind() != "variable_declarator" {
			continue
		}
		d := ast.Declarator{Pos: ctx.Pos(child)}
		if name := child.ChildByFieldName("name"); name != nil {
			if name.Kind() == "identifier" {
				d.Name = ctx.Text(name)
			} else {
				d.Pattern = true
			}
		}
		d.Init = ctx.Expr(child.ChildByFieldName("value"))
		decl.Decls = append(decl.Decls, d)
	}
	return decl
}

func lowerFuncDecl(ctx *LoweringContext, node *sitter.Node) ast.Stmt {
	return &ast.FuncDecl{
		Base:   ctx.Base(node),
		Name:   ctx.Text(node.ChildByFieldName("name")),
		Params: lowerParams(ctx, node),
		Async:  HasToken(node, "async"),
		Body:   ctx.Stmts(node.ChildByFieldName("body")),
	}
}

func lowerClassDecl(ctx *LoweringContext, node *sitter.Node) ast.Stmt {
	return lowerClass(ctx, node)
}

func lowerClass(ctx *LoweringContext, node *sitter.Node) *ast.ClassDecl {
	class := &ast.ClassDecl{
		Base: ctx.Base(node),
		Name: ctx.Text(node.ChildByFieldName("name")),
	}
	for _, member := range NamedChildren(node.ChildByFieldName("body")) {
		switch member.Kind() {
		case "method_definition":
			class.Members = append(class.Members, ast.ClassMember{
				Pos:    ctx.Pos(member),
				Name:   ctx.Text(member.ChildByFieldName("name")),
				Method: true,
				Static: HasToken(member, "static"),
				Params: lowerParams(ctx, member),
				Body:   ctx.Stmts(member.ChildByFieldName("body")),
			})
		case "field_definition", "public_field_definition":
			nameNode := member.ChildByFieldName("property")
			if nameNode == nil {
				nameNode = member.ChildByFieldName("name")
			}
			class.Members = append(class.Members, ast.ClassMember{
				Pos:    ctx.Pos(member),
				Name:   ctx.Text(nameNode),
				Static: HasToken(member, "static"),
				Value:  ctx.Expr(member.ChildByFieldName("value")),
			})
		case "class_static_block":
			class.Members = append(class.Members, ast.ClassMember{
				Pos:    ctx.Pos(member),
				Name:   "static",
				Method: true,
				Static: true,
				Body:   ctx.Stmts(member.ChildByFieldName("body")),
			})
		}
	}
	return class
}

func lowerParams(ctx *LoweringContext, node *sitter.Node) []string {
	if single := node.ChildByFieldName("parameter"); single != nil {
		return []string{ctx.Text(single)}
	}
	var params []string
	for _, p := range NamedChildren(node.ChildByFieldName("parameters")) {
		params = append(params, ctx.Text(p))
	}
	return params
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func lowerString(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	raw := ctx.Text(node)
	if len(raw) >= 2 {
		raw = raw[1 : len(raw)-1]
	}
	return &ast.StringLit{Base: ctx.Base(node), Value: unescapeJS(raw)}
}

func lowerNumber(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	raw := ctx.Text(node)
	value, ok := parseNumberLiteral(raw)
	if !ok {
		return nil
	}
	return &ast.NumberLit{Base: ctx.Base(node), Value: value, Raw: raw}
}

func lowerBool(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	return &ast.BoolLit{Base: ctx.Base(node), Value: node.Kind() == "true"}
}

func lowerNull(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	return &ast.NullLit{Base: ctx.Base(node)}
}

func lowerUndefined(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	return &ast.UndefinedLit{Base: ctx.Base(node)}
}

func lowerIdent(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	name := ctx.Text(node)
	if name == "undefined" {
		return &ast.UndefinedLit{Base: ctx.Base(node)}
	}
	return &ast.Ident{Base: ctx.Base(node), Name: name}
}

func lowerParenthesized(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	return ctx.Expr(FirstNamedChild(node))
}

// lowerArray keeps holes as nil elements. A comma opens a hole when it
// directly follows "[" or another comma; a trailing comma does not.
func lowerArray(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	arr := &ast.ArrayLit{Base: ctx.Base(node)}
	prev := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		kind := child.Kind()
		switch {
		case kind == "," && (prev == "[" || prev == ","):
			arr.Elements = append(arr.Elements, nil)
		case child.IsNamed():
			if e := ctx.Expr(child); e != nil {
				arr.Elements = append(arr.Elements, e)
			}
		}
		prev = kind
	}
	return arr
}

func lowerObject(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	obj := &ast.ObjectLit{Base: ctx.Base(node)}
	for _, child := range NamedChildren(node) {
		prop := ast.Property{Pos: ctx.Pos(child), KeyKind: ast.KeyComplex}
		switch child.Kind() {
		case "pair":
			key := child.ChildByFieldName("key")
			if key != nil && key.Kind() == "property_identifier" {
				prop.Key = ctx.Text(key)
				prop.KeyKind = ast.KeyIdent
			} else {
				prop.Key = ctx.Text(key)
			}
			prop.Value = ctx.Expr(child.ChildByFieldName("value"))
		case "shorthand_property_identifier":
			name := ctx.Text(child)
			prop.Key = name
			prop.KeyKind = ast.KeyIdent
			prop.Value = &ast.Ident{Base: ctx.Base(child), Name: name}
		default:
			// spread elements, methods, accessors
			prop.Key = ctx.Text(child.ChildByFieldName("name"))
			prop.Value = ctx.Expr(child)
		}
		obj.Props = append(obj.Props, prop)
	}
	return obj
}

func lowerMember(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	return &ast.MemberExpr{
		Base:     ctx.Base(node),
		Object:   ctx.Expr(node.ChildByFieldName("object")),
		Property: ctx.Text(node.ChildByFieldName("property")),
	}
}

func lowerSubscript(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	return &ast.MemberExpr{
		Base:     ctx.Base(node),
		Object:   ctx.Expr(node.ChildByFieldName("object")),
		Computed: true,
		Index:    ctx.Expr(node.ChildByFieldName("index")),
	}
}

func lowerBinary(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	op := node.ChildByFieldName("operator")
	if op == nil {
		return nil
	}
	return &ast.BinaryExpr{
		Base:  ctx.Base(node),
		Op:    op.Kind(),
		Left:  ctx.Expr(node.ChildByFieldName("left")),
		Right: ctx.Expr(node.ChildByFieldName("right")),
	}
}

func lowerUnary(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	op := node.ChildByFieldName("operator")
	if op == nil {
		return nil
	}
	return &ast.UnaryExpr{
		Base:    ctx.Base(node),
		Op:      op.Kind(),
		Operand: ctx.Expr(node.ChildByFieldName("argument")),
	}
}

// lowerTemplate splits a template string into literal chunks and
// substitutions using byte offsets, so it does not depend on whether the
// grammar emits string_fragment nodes.
func lowerTemplate(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	tpl := &ast.TemplateLit{Base: ctx.Base(node)}
	start := node.StartByte() + 1
	end := node.EndByte()
	if end > start {
		end--
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "template_substitution" {
			continue
		}
		tpl.Chunks = append(tpl.Chunks, unescapeJS(string(ctx.Source[start:child.StartByte()])))
		inner := ctx.Expr(FirstNamedChild(child))
		if inner == nil {
			inner = &ast.OpaqueExpr{Base: ctx.Base(child), Kind: child.Kind()}
		}
		tpl.Exprs = append(tpl.Exprs, inner)
		start = child.EndByte()
	}
	if start > end {
		start = end
	}
	tpl.Chunks = append(tpl.Chunks, unescapeJS(string(ctx.Source[start:end])))
	return tpl
}

func lowerAwait(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	arg := ctx.Expr(FirstNamedChild(node))
	if arg == nil {
		return nil
	}
	return &ast.AwaitExpr{Base: ctx.Base(node), Arg: arg}
}

func lowerCall(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	call := &ast.CallExpr{
		Base:   ctx.Base(node),
		Callee: ctx.Expr(node.ChildByFieldName("function")),
		Source: ctx.Text(node),
	}
	args := node.ChildByFieldName("arguments")
	if args != nil && args.Kind() == "template_string" {
		call.Args = []ast.Expr{ctx.Expr(args)}
	} else {
		call.Args = ctx.Exprs(args)
	}
	if call.Callee == nil {
		return nil
	}
	return call
}

func lowerNew(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	callee := ctx.Expr(node.ChildByFieldName("constructor"))
	if callee == nil {
		return nil
	}
	return &ast.NewExpr{
		Base:   ctx.Base(node),
		Callee: callee,
		Args:   ctx.Exprs(node.ChildByFieldName("arguments")),
	}
}

func lowerFuncLit(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	fn := &ast.FuncLit{
		Base:   ctx.Base(node),
		Name:   ctx.Text(node.ChildByFieldName("name")),
		Params: lowerParams(ctx, node),
		Async:  HasToken(node, "async"),
		Arrow:  node.Kind() == "arrow_function",
	}
	body := node.ChildByFieldName("body")
	if body != nil && body.Kind() == "statement_block" {
		fn.Body = ctx.Stmts(body)
	} else {
		fn.ExprBody = ctx.Expr(body)
	}
	return fn
}

func lowerClassExpr(ctx *LoweringContext, node *sitter.Node) ast.Expr {
	return &ast.OpaqueExpr{
		Base:     ctx.Base(node),
		Kind:     node.Kind(),
		Children: []ast.Node{lowerClass(ctx, node)},
	}
}

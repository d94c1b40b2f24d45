package ast

// Children returns the direct child nodes of n in source order. Object
// properties, declarators and class members are flattened into the nodes
// they hold.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch v := n.(type) {
	case *Program:
		for _, s := range v.Body {
			add(s)
		}
	case *ArrayLit:
		for _, e := range v.Elements {
			if e != nil {
				add(e)
			}
		}
	case *ObjectLit:
		for _, p := range v.Props {
			if p.Value != nil {
				add(p.Value)
			}
		}
	case *MemberExpr:
		add(v.Object)
		if v.Index != nil {
			add(v.Index)
		}
	case *BinaryExpr:
		add(v.Left, v.Right)
	case *UnaryExpr:
		add(v.Operand)
	case *TemplateLit:
		for _, e := range v.Exprs {
			add(e)
		}
	case *AwaitExpr:
		add(v.Arg)
	case *CallExpr:
		add(v.Callee)
		for _, a := range v.Args {
			add(a)
		}
	case *NewExpr:
		add(v.Callee)
		for _, a := range v.Args {
			add(a)
		}
	case *FuncLit:
		for _, s := range v.Body {
			add(s)
		}
		if v.ExprBody != nil {
			add(v.ExprBody)
		}
	case *OpaqueExpr:
		add(v.Children...)
	case *VarDecl:
		for _, d := range v.Decls {
			if d.Init != nil {
				add(d.Init)
			}
		}
	case *FuncDecl:
		for _, s := range v.Body {
			add(s)
		}
	case *ClassDecl:
		for _, m := range v.Members {
			for _, s := range m.Body {
				add(s)
			}
			if m.Value != nil {
				add(m.Value)
			}
		}
	case *ExprStmt:
		add(v.X)
	case *OtherStmt:
		add(v.Children...)
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first pre-order. If f
// returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil {
		return
	}
	if !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

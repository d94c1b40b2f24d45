// # internal/engine/eval/evaluator.go
package eval

import (
	"fmt"
	"strings"

	"inlinelog/internal/engine/ast"
)

// arithmeticHelpers are declared two-argument functions whose result is
// computed directly when both arguments are numbers.
var arithmeticHelpers = map[string]func(a, b float64) (float64, bool){
	"add":      func(a, b float64) (float64, bool) { return a + b, true },
	"subtract": func(a, b float64) (float64, bool) { return a - b, true },
	"multiply": func(a, b float64) (float64, bool) { return a * b, true },
	"divide": func(a, b float64) (float64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	},
}

// Evaluator partially evaluates expressions against an Environment. It has
// no failure path: anything it does not understand becomes an Opaque value.
type Evaluator struct {
	env *Environment
}

func NewEvaluator(env *Environment) *Evaluator {
	return &Evaluator{env: env}
}

func (ev *Evaluator) Eval(e ast.Expr) Value {
	switch n := e.(type) {
	case *ast.StringLit:
		return String(n.Value)
	case *ast.NumberLit:
		return Number(n.Value)
	case *ast.BoolLit:
		return Bool(n.Value)
	case *ast.NullLit:
		return Null()
	case *ast.UndefinedLit:
		return Undefined()
	case *ast.UnaryExpr:
		return ev.evalUnary(n)
	case *ast.Ident:
		if v, ok := ev.env.Lookup(n.Name); ok {
			return v
		}
		return Reference(n.Name)
	case *ast.ArrayLit:
		return ev.evalArray(n)
	case *ast.ObjectLit:
		return ev.evalObject(n)
	case *ast.MemberExpr:
		return ev.evalMember(n)
	case *ast.BinaryExpr:
		return ev.evalBinary(n)
	case *ast.TemplateLit:
		return ev.evalTemplate(n)
	case *ast.AwaitExpr:
		return ev.evalAwait(n)
	case *ast.CallExpr:
		return ev.evalCall(n)
	case *ast.NewExpr:
		return ev.evalNew(n)
	case *ast.FuncLit:
		if n.Async {
			return Composite(AsyncFunctionText)
		}
		return Opaque(OpaqueComplexExpression)
	case *ast.OpaqueExpr:
		return Opaque(OpaqueComplexExpression)
	default:
		return Opaque(OpaqueComplexExpression)
	}
}

// Record flattens the identifier-keyed properties of an object literal for
// later member-access resolution.
func (ev *Evaluator) Record(obj *ast.ObjectLit) map[string]Value {
	fields := make(map[string]Value, len(obj.Props))
	for _, p := range obj.Props {
		if p.KeyKind != ast.KeyIdent || p.Value == nil {
			continue
		}
		fields[p.Key] = ev.Eval(p.Value)
	}
	return fields
}

func (ev *Evaluator) evalUnary(n *ast.UnaryExpr) Value {
	if num, ok := n.Operand.(*ast.NumberLit); ok && n.Op == "void" && num.Value == 0 {
		return Undefined()
	}
	return Opaque(OpaqueComplexExpression)
}

func (ev *Evaluator) evalArray(n *ast.ArrayLit) Value {
	parts := make([]string, 0, len(n.Elements))
	for _, el := range n.Elements {
		if el == nil {
			parts = append(parts, "null")
			continue
		}
		parts = append(parts, ev.Eval(el).nested())
	}
	return Composite("[" + strings.Join(parts, ", ") + "]")
}

func (ev *Evaluator) evalObject(n *ast.ObjectLit) Value {
	if len(n.Props) == 0 {
		return Composite("{}")
	}
	parts := make([]string, 0, len(n.Props))
	for _, p := range n.Props {
		if p.KeyKind != ast.KeyIdent || p.Value == nil {
			parts = append(parts, OpaqueComplexProperty)
			continue
		}
		parts = append(parts, p.Key+": "+ev.Eval(p.Value).propertyText())
	}
	return Composite("{ " + strings.Join(parts, ", ") + " }")
}

func (ev *Evaluator) evalMember(n *ast.MemberExpr) Value {
	if obj, ok := n.Object.(*ast.Ident); ok && !n.Computed {
		if v, found := ev.env.Field(obj.Name, n.Property); found {
			return v
		}
	}
	return Reference(memberText(n))
}

func (ev *Evaluator) evalBinary(n *ast.BinaryExpr) Value {
	left := ev.Eval(n.Left)
	right := ev.Eval(n.Right)

	if left.IsNumber() && right.IsNumber() {
		a, b := left.Num(), right.Num()
		switch n.Op {
		case "+":
			return Number(a + b)
		case "-":
			return Number(a - b)
		case "*":
			return Number(a * b)
		case "/":
			return Number(a / b)
		}
	}
	// An unknown operand makes the whole expression unknown.
	if left.Kind == KindOpaque {
		return left
	}
	if right.Kind == KindOpaque {
		return right
	}
	if n.Op == "+" {
		return String(left.nested() + right.nested())
	}
	return Reference(fmt.Sprintf("%s %s %s", left.nested(), n.Op, right.nested()))
}

func (ev *Evaluator) evalTemplate(n *ast.TemplateLit) Value {
	var b strings.Builder
	for i, chunk := range n.Chunks {
		b.WriteString(chunk)
		if i < len(n.Exprs) {
			v := ev.Eval(n.Exprs[i])
			if v.Kind == KindOpaque {
				return v
			}
			b.WriteString(v.nested())
		}
	}
	return String(b.String())
}

func (ev *Evaluator) evalAwait(n *ast.AwaitExpr) Value {
	inner := ev.Eval(n.Arg)
	if inner.Kind == KindPendingFetch {
		return inner
	}
	if url, ok := inner.ResponseURL(); ok {
		return PendingFetch(url, FetchResponse)
	}
	return Composite(fmt.Sprintf("[awaited %s]", inner.nested()))
}

func (ev *Evaluator) evalCall(n *ast.CallExpr) Value {
	switch callee := n.Callee.(type) {
	case *ast.Ident:
		if isFetchCall(n) {
			url := ev.fetchURL(n)
			return Response(url, fmt.Sprintf("Promise<Response: %s>", url))
		}
		args := ev.evalArgs(n.Args)
		if _, declared := ev.env.Function(callee.Name); declared {
			if v, ok := applyHelper(callee.Name, args); ok {
				return v
			}
			return genericCall(callee.Name, args)
		}
		if coerce, ok := coercions[callee.Name]; ok && len(args) > 0 {
			if v, ok := coerce(args); ok {
				return v
			}
		}
		return genericCall(callee.Name, args)

	case *ast.MemberExpr:
		if !callee.Computed {
			if obj, ok := callee.Object.(*ast.Ident); ok && obj.Name == "Promise" {
				return ev.evalPromiseStatic(callee.Property, n.Args)
			}
			switch callee.Property {
			case "json", "text":
				if url, ok := ev.Eval(callee.Object).ResponseURL(); ok {
					return PendingFetch(url, FetchKind(callee.Property))
				}
			case "then", "catch", "finally":
				return Composite(PromiseUnknown)
			}
		}
		return genericCall(memberText(callee), ev.evalArgs(n.Args))
	}
	return genericCall(OpaqueComplexExpression, ev.evalArgs(n.Args))
}

func (ev *Evaluator) evalPromiseStatic(method string, args []ast.Expr) Value {
	switch method {
	case "resolve", "reject":
		arg := Undefined()
		if len(args) > 0 {
			arg = ev.Eval(args[0])
		}
		state := "resolved"
		if method == "reject" {
			state = "rejected"
		}
		return Composite(fmt.Sprintf("Promise<%s: %s>", state, arg.nested()))
	}
	return Composite(PromiseUnknown)
}

func (ev *Evaluator) evalNew(n *ast.NewExpr) Value {
	if id, ok := n.Callee.(*ast.Ident); ok && id.Name == "Promise" {
		return Composite(PromiseUnknown)
	}
	name := OpaqueComplexExpression
	switch callee := n.Callee.(type) {
	case *ast.Ident:
		name = callee.Name
	case *ast.MemberExpr:
		name = memberText(callee)
	}
	return genericCall("new "+name, ev.evalArgs(n.Args))
}

func (ev *Evaluator) evalArgs(args []ast.Expr) []Value {
	out := make([]Value, 0, len(args))
	for _, a := range args {
		out = append(out, ev.Eval(a))
	}
	return out
}

func (ev *Evaluator) fetchURL(call *ast.CallExpr) string {
	if len(call.Args) == 0 {
		return "unknown"
	}
	return ev.Eval(call.Args[0]).nested()
}

func isFetchCall(call *ast.CallExpr) bool {
	id, ok := call.Callee.(*ast.Ident)
	return ok && id.Name == "fetch"
}

func applyHelper(name string, args []Value) (Value, bool) {
	op, ok := arithmeticHelpers[name]
	if !ok || len(args) != 2 || !args[0].IsNumber() || !args[1].IsNumber() {
		return Value{}, false
	}
	result, ok := op(args[0].Num(), args[1].Num())
	if !ok {
		return Value{}, false
	}
	return Number(result), true
}

func genericCall(callee string, args []Value) Value {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.nested())
	}
	return Reference(callee + "(" + strings.Join(parts, ", ") + ")")
}

// memberText renders a member expression symbolically, without consulting
// object records.
func memberText(n *ast.MemberExpr) string {
	object := OpaqueComplexObject
	if id, ok := n.Object.(*ast.Ident); ok {
		object = id.Name
	}
	property := OpaqueComputedProperty
	if !n.Computed {
		property = n.Property
	}
	return object + "." + property
}

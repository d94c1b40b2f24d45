// # internal/engine/analysis/walker.go
package analysis

import (
	"fmt"
	"log/slog"
	"strings"

	"inlinelog/internal/engine/ast"
	"inlinelog/internal/engine/eval"
	"inlinelog/internal/shared/observability"
)

const DefaultReceiver = "console"

var DefaultMethods = []string{"log", "info", "debug", "warn", "error"}

// Walker performs the single pre-order pass that discovers logging calls and
// populates the Environment as it goes.
type Walker struct {
	receiver string
	methods  map[string]bool
}

// NewWalker returns a walker matching receiver.method calls. Empty arguments
// select the defaults.
func NewWalker(receiver string, methods []string) *Walker {
	if receiver == "" {
		receiver = DefaultReceiver
	}
	if len(methods) == 0 {
		methods = DefaultMethods
	}
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return &Walker{receiver: receiver, methods: set}
}

type walkState struct {
	w       *Walker
	env     *eval.Environment
	ev      *eval.Evaluator
	lines   []string
	ctx     []Context
	simple  bool
	seen    map[int]bool
	sites   []*LogCallSite
	current Context
}

// Walk analyses prog, the parsed form of source.
func (w *Walker) Walk(path string, source []byte, prog *ast.Program) *Result {
	env := eval.NewEnvironment()
	st := &walkState{
		w:      w,
		env:    env,
		ev:     eval.NewEvaluator(env),
		lines:  splitLines(source),
		simple: true,
		seen:   make(map[int]bool),
	}

	registerDeclarations(env, prog)
	st.visit(prog)

	return &Result{
		Path:                     path,
		Sites:                    st.sites,
		DirectExecutionCandidate: st.simple,
	}
}

// registerDeclarations makes every function and class declaration visible
// before the linear pass starts, wherever it appears.
func registerDeclarations(env *eval.Environment, prog *ast.Program) {
	ast.Inspect(prog, func(n ast.Node) bool {
		switch d := n.(type) {
		case *ast.FuncDecl:
			if d.Name != "" {
				env.DeclareFunction(d.Name, signature(d.Name, d.Params, d.Async))
			}
		case *ast.ClassDecl:
			if d.Name != "" {
				env.DeclareClass(d.Name)
			}
		}
		return true
	})
}

func signature(name string, params []string, async bool) string {
	sig := fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
	if async {
		return "async " + sig
	}
	return sig
}

func (st *walkState) enter(c Context) {
	st.ctx = append(st.ctx, st.current)
	st.current = c
}

func (st *walkState) leave() {
	n := len(st.ctx) - 1
	st.current = st.ctx[n]
	st.ctx = st.ctx[:n]
}

func (st *walkState) declaresParams(params []string) {
	if len(params) > 0 {
		st.simple = false
	}
}

func (st *walkState) visit(n ast.Node) {
	switch v := n.(type) {
	case nil:
		return

	case *ast.VarDecl:
		for _, d := range v.Decls {
			if d.Init == nil {
				continue
			}
			st.visit(d.Init)
			st.bind(d)
		}

	case *ast.FuncDecl:
		st.declaresParams(v.Params)
		st.enter(ContextFunction)
		for _, s := range v.Body {
			st.visit(s)
		}
		st.leave()

	case *ast.ClassDecl:
		for _, m := range v.Members {
			st.enter(ContextClass)
			if m.Method {
				st.declaresParams(m.Params)
				for _, s := range m.Body {
					st.visit(s)
				}
			} else {
				st.visit(m.Value)
			}
			st.leave()
		}

	case *ast.FuncLit:
		st.declaresParams(v.Params)
		st.enter(ContextCallback)
		for _, s := range v.Body {
			st.visit(s)
		}
		st.visit(v.ExprBody)
		st.leave()

	case *ast.CallExpr:
		if method, ok := st.w.logMethod(v); ok {
			st.record(v, method)
		}
		for _, c := range ast.Children(v) {
			st.visit(c)
		}

	default:
		for _, c := range ast.Children(n) {
			st.visit(c)
		}
	}
}

// bind stores a top-level declarator's value. Declarations nested inside
// functions, classes or callbacks are not tracked.
func (st *walkState) bind(d ast.Declarator) {
	if st.current != ContextGlobal || d.Pattern || d.Name == "" {
		return
	}
	st.env.SetVar(d.Name, st.ev.Eval(d.Init))
	if obj, ok := d.Init.(*ast.ObjectLit); ok {
		st.env.SetRecord(d.Name, st.ev.Record(obj))
	} else {
		st.env.ClearRecord(d.Name)
	}
}

func (st *walkState) record(call *ast.CallExpr, method string) {
	pos := call.Position()
	if st.seen[pos.Line] {
		slog.Debug("skipping additional logging call on line", "line", pos.Line, "source", call.Source)
		return
	}
	st.seen[pos.Line] = true

	resolved := make([]eval.Value, 0, len(call.Args))
	for _, a := range call.Args {
		resolved = append(resolved, st.ev.Eval(a))
	}

	st.sites = append(st.sites, &LogCallSite{
		Line:     SourceLine{Number: pos.Line, Text: lineText(st.lines, pos.Line)},
		Column:   pos.Column,
		Method:   method,
		Source:   call.Source,
		Args:     call.Args,
		Context:  st.current,
		Resolved: resolved,
	})
	observability.LogCallSitesTotal.WithLabelValues(st.current.String()).Inc()
}

// logMethod reports whether call is receiver.method(...) for a tracked
// method name.
func (w *Walker) logMethod(call *ast.CallExpr) (string, bool) {
	m, ok := call.Callee.(*ast.MemberExpr)
	if !ok || m.Computed {
		return "", false
	}
	recv, ok := m.Object.(*ast.Ident)
	if !ok || recv.Name != w.receiver || !w.methods[m.Property] {
		return "", false
	}
	return m.Property, true
}

func splitLines(source []byte) []string {
	lines := strings.Split(string(source), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func lineText(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

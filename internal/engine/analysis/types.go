// # internal/engine/analysis/types.go
package analysis

import (
	"inlinelog/internal/engine/ast"
	"inlinelog/internal/engine/eval"
)

// Context tags the kind of code region enclosing a logging call.
type Context int

const (
	ContextGlobal Context = iota
	ContextFunction
	ContextClass
	ContextCallback
)

func (c Context) String() string {
	switch c {
	case ContextGlobal:
		return "global"
	case ContextFunction:
		return "function"
	case ContextClass:
		return "class"
	case ContextCallback:
		return "callback"
	}
	return "unknown"
}

// SourceLine is a 1-based line number plus the raw text of that line.
type SourceLine struct {
	Number int
	Text   string
}

// LogCallSite is one discovered logging call. Resolved holds one value per
// argument, in argument order; it is empty for sites found by the fallback
// scan.
type LogCallSite struct {
	Line     SourceLine
	Column   int
	Method   string
	Source   string
	Args     []ast.Expr
	Context  Context
	Resolved []eval.Value
}

// PendingSlot names an argument of a site that waits on a fetch.
type PendingSlot struct {
	Arg   int
	Fetch eval.FetchRef
}

// PendingFetches lists the argument slots still holding a PendingFetch, in
// argument order.
func (s *LogCallSite) PendingFetches() []PendingSlot {
	var out []PendingSlot
	for i, v := range s.Resolved {
		if v.Kind == eval.KindPendingFetch && v.Fetch != nil {
			out = append(out, PendingSlot{Arg: i, Fetch: *v.Fetch})
		}
	}
	return out
}

// Result is the outcome of analysing one source file.
type Result struct {
	Path  string
	Sites []*LogCallSite
	// DirectExecutionCandidate is a heuristic: false once any function or
	// callback declares a parameter.
	DirectExecutionCandidate bool
	ParseFailed              bool
	ParseErr                 error
}

// Site returns the call site on line, if any.
func (r *Result) Site(line int) (*LogCallSite, bool) {
	for _, s := range r.Sites {
		if s.Line.Number == line {
			return s, true
		}
	}
	return nil, false
}

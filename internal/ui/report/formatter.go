// # internal/ui/report/formatter.go
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"inlinelog/internal/engine/analysis"
	"inlinelog/internal/engine/eval"
)

const (
	DefaultMaxDisplayLength = 60
	ellipsis                = "..."
)

type Status string

const (
	StatusResolved    Status = "resolved"
	StatusPending     Status = "pending"
	StatusFailed      Status = "failed"
	StatusNotExecuted Status = "not-executed"
)

const (
	TextExecutionFailed = "execution failed"
	TextNotExecuted     = "not executed"
)

// Annotation is the per-line output: Display is collapsed and truncated for
// inline use, Detail keeps the full text.
type Annotation struct {
	Line    int    `json:"line"`
	Display string `json:"display"`
	Detail  string `json:"detail"`
	Status  Status `json:"status"`
	Context string `json:"context"`
}

type Formatter struct {
	maxLength int
}

func NewFormatter(maxLength int) *Formatter {
	if maxLength <= 0 {
		maxLength = DefaultMaxDisplayLength
	}
	return &Formatter{maxLength: maxLength}
}

// FormatResult renders every site of res in source order.
func (f *Formatter) FormatResult(res *analysis.Result) []Annotation {
	out := make([]Annotation, 0, len(res.Sites))
	for _, site := range res.Sites {
		out = append(out, f.format(site, res.ParseFailed))
	}
	return out
}

// Format renders a single site from a successfully parsed source.
func (f *Formatter) Format(site *analysis.LogCallSite) Annotation {
	return f.format(site, false)
}

func (f *Formatter) format(site *analysis.LogCallSite, parseFailed bool) Annotation {
	a := Annotation{Line: site.Line.Number, Context: site.Context.String()}

	if parseFailed {
		a.Status = StatusFailed
		a.Display = TextExecutionFailed
		a.Detail = fmt.Sprintf("%s: %s", TextExecutionFailed, site.Source)
		return a
	}
	if text, ok := contextStatus(site.Context); ok {
		return f.notExecuted(a, text, site.Source)
	}
	for _, v := range site.Resolved {
		if v.Kind == eval.KindOpaque {
			return f.notExecuted(a, TextNotExecuted, site.Source)
		}
	}

	parts := make([]string, 0, len(site.Resolved))
	a.Status = StatusResolved
	for _, v := range site.Resolved {
		parts = append(parts, v.Render())
		switch v.Kind {
		case eval.KindPendingFetch:
			a.Status = StatusPending
		case eval.KindFetchFailed:
			if a.Status != StatusPending {
				a.Status = StatusFailed
			}
		}
	}
	a.Detail = strings.Join(parts, " ")
	a.Display = f.Truncate(a.Detail)
	return a
}

func (f *Formatter) notExecuted(a Annotation, text, source string) Annotation {
	a.Status = StatusNotExecuted
	a.Display = text
	a.Detail = fmt.Sprintf("%s: %s", text, source)
	return a
}

func contextStatus(c analysis.Context) (string, bool) {
	switch c {
	case analysis.ContextFunction:
		return "inside function", true
	case analysis.ContextClass:
		return "inside class method", true
	case analysis.ContextCallback:
		return "inside callback", true
	}
	return "", false
}

// Truncate collapses whitespace runs and cuts s to the display limit,
// counting runes.
func (f *Formatter) Truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= f.maxLength {
		return s
	}
	keep := f.maxLength - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + ellipsis
}

package analysis

import (
	"log/slog"
	"time"

	"inlinelog/internal/core/errors"
	"inlinelog/internal/engine/parser"
	"inlinelog/internal/shared/observability"
)

// Analyzer parses a source file and walks it. A source that fails to parse
// still yields a Result: every logging call found by text scan, marked
// ParseFailed.
type Analyzer struct {
	parser *parser.Parser
	walker *Walker
}

func NewAnalyzer(p *parser.Parser, w *Walker) *Analyzer {
	return &Analyzer{parser: p, walker: w}
}

// Analyze returns an error only when path has no supported grammar.
func (a *Analyzer) Analyze(path string, source []byte) (*Result, error) {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("walk").Observe(time.Since(start).Seconds())
	}()

	prog, err := a.parser.Parse(path, source)
	if err != nil {
		if !errors.IsCode(err, errors.CodeParseFailure) {
			return nil, err
		}
		slog.Warn("parse failed, falling back to text scan", "path", path, "error", err)
		res := a.walker.Scan(path, source)
		res.ParseFailed = true
		res.ParseErr = err
		return res, nil
	}
	return a.walker.Walk(path, source, prog), nil
}

// Supports reports whether path has a grammar.
func (a *Analyzer) Supports(path string) bool {
	return a.parser.Supports(path)
}

package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// fallbackPattern builds the text pattern used to locate logging calls in
// sources that did not parse.
func (w *Walker) fallbackPattern() *regexp.Regexp {
	methods := make([]string, 0, len(w.methods))
	for m := range w.methods {
		methods = append(methods, regexp.QuoteMeta(m))
	}
	sort.Strings(methods)
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(w.receiver) + `\s*\.\s*(` + strings.Join(methods, "|") + `)\s*\(`)
}

// Scan locates logging calls line by line without a syntax tree. Every site
// it returns is unresolved.
func (w *Walker) Scan(path string, source []byte) *Result {
	pattern := w.fallbackPattern()
	res := &Result{Path: path}
	for i, text := range splitLines(source) {
		loc := pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		res.Sites = append(res.Sites, &LogCallSite{
			Line:    SourceLine{Number: i + 1, Text: text},
			Column:  loc[0] + 1,
			Method:  text[loc[2]:loc[3]],
			Source:  strings.TrimSpace(text[loc[0]:]),
			Context: ContextGlobal,
		})
	}
	return res
}

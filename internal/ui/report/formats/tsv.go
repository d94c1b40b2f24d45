// # internal/ui/report/formats/tsv.go
package formats

import (
	"fmt"
	"strings"

	"inlinelog/internal/ui/report"
)

type TSVGenerator struct{}

func NewTSVGenerator() *TSVGenerator {
	return &TSVGenerator{}
}

func (t *TSVGenerator) Generate(files []FileAnnotations) (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tFile\tLine\tStatus\tContext\tDisplay\tDetail\n")
	for _, f := range files {
		for _, a := range f.Annotations {
			buf.WriteString(row("annotation", f.Path, a))
		}
	}

	return buf.String(), nil
}

func (t *TSVGenerator) Correction(path string, a report.Annotation) (string, error) {
	return row("correction", path, a), nil
}

func row(kind, path string, a report.Annotation) string {
	return fmt.Sprintf("%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
		kind,
		path,
		a.Line,
		a.Status,
		a.Context,
		escapeTSV(a.Display),
		escapeTSV(a.Detail),
	)
}

var tsvEscaper = strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r")

func escapeTSV(s string) string {
	return tsvEscaper.Replace(s)
}

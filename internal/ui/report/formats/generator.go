package formats

import (
	"fmt"

	"inlinelog/internal/ui/report"
)

// FileAnnotations groups the annotations produced for one source file.
type FileAnnotations struct {
	Path       string `json:"path"`
	ParseError string `json:"parse_error,omitempty"`
	// DirectExecution is a hint that the file could be run as-is: no
	// function or callback in it declares a parameter.
	DirectExecution bool                `json:"direct_execution_candidate"`
	Annotations     []report.Annotation `json:"annotations"`
}

// Generator renders a full report and single-line corrections.
type Generator interface {
	Generate(files []FileAnnotations) (string, error)
	Correction(path string, a report.Annotation) (string, error)
}

// New returns the generator for format: text, tsv or json.
func New(format string, color bool) (Generator, error) {
	switch format {
	case "", "text":
		return NewTextGenerator(color), nil
	case "tsv":
		return NewTSVGenerator(), nil
	case "json":
		return NewJSONGenerator(), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

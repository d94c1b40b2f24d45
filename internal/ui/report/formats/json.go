package formats

import (
	"encoding/json"

	"inlinelog/internal/ui/report"
)

type JSONGenerator struct{}

func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

func (j *JSONGenerator) Generate(files []FileAnnotations) (string, error) {
	if files == nil {
		files = []FileAnnotations{}
	}
	data, err := json.MarshalIndent(struct {
		Files []FileAnnotations `json:"files"`
	}{Files: files}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// Correction emits one JSON object per line so watch output can be streamed.
func (j *JSONGenerator) Correction(path string, a report.Annotation) (string, error) {
	data, err := json.Marshal(struct {
		Path       string            `json:"path"`
		Correction report.Annotation `json:"correction"`
	}{Path: path, Correction: a})
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

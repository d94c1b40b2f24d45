package fetch

import (
	"bytes"
	"encoding/json"

	"inlinelog/internal/engine/eval"
)

// Render turns a fetched body into the value that supersedes a pending
// placeholder. JSON bodies are pretty-printed with their key order intact
// unless raw text was asked for; any other content type is raw text.
func Render(resp Response, kind eval.FetchKind) eval.Value {
	if kind == eval.FetchText || !resp.IsJSON() {
		return eval.String(string(resp.Body))
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(resp.Body), "", "  "); err != nil {
		return eval.FetchFailed(resp.URL, "invalid JSON body")
	}
	return eval.Composite(buf.String())
}

package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "source not found")
		if err.Error() != "[NOT_FOUND] source not found" {
			t.Errorf("expected [NOT_FOUND] source not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("connection refused")
		err := Wrap(original, CodeFetchFailure, "request failed")
		expected := "[FETCH_FAILURE] request failed: connection refused"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeParseFailure, "syntax error")
		if !IsCode(err, CodeParseFailure) {
			t.Error("expected IsCode to return true for CodeParseFailure")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("CodeOf", func(t *testing.T) {
		if got := CodeOf(nil); got != "" {
			t.Errorf("expected no code for nil, got %q", got)
		}
		if got := CodeOf(errors.New("boom")); got != CodeInternal {
			t.Errorf("expected foreign errors to be internal, got %q", got)
		}
		wrapped := Wrap(New(CodeNotSupported, "unsupported language"), CodeInternal, "analyze")
		if got := CodeOf(wrapped); got != CodeInternal {
			t.Errorf("expected outermost code, got %q", got)
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeFetchFailure, "response too large"), CtxURL, "https://example.com")
		err = AddContext(err, CtxOperation, "fetch")
		expected := "[FETCH_FAILURE] response too large (operation=fetch, url=https://example.com)"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}

		foreign := AddContext(errors.New("boom"), CtxOperation, "fetch")
		if !IsCode(foreign, CodeInternal) {
			t.Error("expected foreign error to be wrapped as internal")
		}
	})

	t.Run("Message", func(t *testing.T) {
		err := AddContext(New(CodeFetchFailure, "response too large"), CtxURL, "https://example.com")
		if got := Message(err); got != "response too large" {
			t.Errorf("expected bare message, got %q", got)
		}
		if got := Message(errors.New("plain")); got != "plain" {
			t.Errorf("expected plain message, got %q", got)
		}
		if got := Message(nil); got != "" {
			t.Errorf("expected empty message for nil, got %q", got)
		}
	})

	t.Run("LogValue", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		err := AddContext(New(CodeParseFailure, "syntax error"), CtxPath, "app.js")
		logger.Warn("analysis failed", "error", err)

		out := buf.String()
		for _, want := range []string{"error.code=PARSE_FAILURE", `error.message="syntax error"`, "error.path=app.js"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
	})
}

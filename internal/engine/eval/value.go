// # internal/engine/eval/value.go
package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindLiteral Kind = iota
	KindReference
	KindComposite
	KindFunction
	KindClass
	KindPendingFetch
	KindFetchFailed
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindReference:
		return "reference"
	case KindComposite:
		return "composite"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindPendingFetch:
		return "pending-fetch"
	case KindFetchFailed:
		return "fetch-failed"
	case KindOpaque:
		return "opaque"
	}
	return "unknown"
}

// LiteralType tags the JS primitive held by a literal Value.
type LiteralType int

const (
	LitString LiteralType = iota
	LitNumber
	LitBool
	LitNull
	LitUndefined
)

// FetchKind selects how a fetched body is rendered.
type FetchKind string

const (
	FetchJSON FetchKind = "json"
	FetchText FetchKind = "text"
	// FetchResponse is an awaited response object; it renders like json.
	FetchResponse FetchKind = "response"
)

// FetchRef identifies the network request a PendingFetch waits on.
type FetchRef struct {
	URL  string
	Kind FetchKind
}

const (
	OpaqueComplexExpression = "[complex expression]"
	OpaqueComplexProperty   = "[complex property]"
	OpaqueComplexObject     = "[complex object]"
	OpaqueComputedProperty  = "[computed property]"
	PromiseUnknown          = "Promise<unknown>"
	AsyncFunctionText       = "[async function]"
	NestedPendingText       = "Promise { <pending> }"
)

// Value is the evaluator's result: a tagged union over what the engine could
// determine about an expression. Values are immutable; use the constructors.
type Value struct {
	Kind Kind
	Lit  LiteralType

	str string
	num float64
	b   bool

	// Name is the identifier for references, functions and classes.
	Name string
	// Text is the rendered form of composites, opaque values, pending
	// placeholders and fetch failures.
	Text string
	// URL marks a composite as a pending fetch response placeholder.
	URL string
	// Fetch is set for KindPendingFetch.
	Fetch *FetchRef
}

func String(s string) Value         { return Value{Kind: KindLiteral, Lit: LitString, str: s} }
func Number(n float64) Value        { return Value{Kind: KindLiteral, Lit: LitNumber, num: n} }
func Bool(b bool) Value             { return Value{Kind: KindLiteral, Lit: LitBool, b: b} }
func Null() Value                   { return Value{Kind: KindLiteral, Lit: LitNull} }
func Undefined() Value              { return Value{Kind: KindLiteral, Lit: LitUndefined} }
func Reference(name string) Value   { return Value{Kind: KindReference, Name: name} }
func Composite(text string) Value   { return Value{Kind: KindComposite, Text: text} }
func FunctionTag(name string) Value { return Value{Kind: KindFunction, Name: name} }
func ClassTag(name string) Value    { return Value{Kind: KindClass, Name: name} }
func Opaque(text string) Value      { return Value{Kind: KindOpaque, Text: text} }

// Response is the composite placeholder for the promise returned by
// fetch(url).
func Response(url, text string) Value {
	return Value{Kind: KindComposite, Text: text, URL: url}
}

// PendingFetch is a body-extraction result that the async resolver will
// supersede.
func PendingFetch(url string, kind FetchKind) Value {
	return Value{
		Kind:  KindPendingFetch,
		Text:  fmt.Sprintf("fetching %s…", url),
		Fetch: &FetchRef{URL: url, Kind: kind},
	}
}

// FetchFailed supersedes a PendingFetch whose request did not succeed.
func FetchFailed(url, message string) Value {
	return Value{Kind: KindFetchFailed, Text: fmt.Sprintf("[fetch failed: %s]", message), URL: url}
}

func (v Value) IsNumber() bool { return v.Kind == KindLiteral && v.Lit == LitNumber }
func (v Value) IsString() bool { return v.Kind == KindLiteral && v.Lit == LitString }

// ResponseURL reports the URL of a fetch response value: either the promise
// placeholder from fetch(url) or an awaited response still being fetched.
func (v Value) ResponseURL() (string, bool) {
	switch {
	case v.Kind == KindComposite && v.URL != "":
		return v.URL, true
	case v.Kind == KindPendingFetch && v.Fetch != nil && v.Fetch.Kind == FetchResponse:
		return v.Fetch.URL, true
	}
	return "", false
}

// Num returns the numeric payload of a number literal.
func (v Value) Num() float64 { return v.num }

// Str returns the payload of a string literal.
func (v Value) Str() string { return v.str }

// BoolValue returns the payload of a boolean literal.
func (v Value) BoolValue() bool { return v.b }

// Render returns the text a console would print for v at top level: strings
// unquoted, everything else in its textual form.
func (v Value) Render() string {
	switch v.Kind {
	case KindLiteral:
		switch v.Lit {
		case LitString:
			return v.str
		case LitNumber:
			return FormatNumber(v.num)
		case LitBool:
			return strconv.FormatBool(v.b)
		case LitNull:
			return "null"
		case LitUndefined:
			return "undefined"
		}
	case KindReference:
		return v.Name
	case KindFunction:
		return fmt.Sprintf("[Function: %s]", v.Name)
	case KindClass:
		return fmt.Sprintf("[class %s]", v.Name)
	case KindComposite, KindPendingFetch, KindFetchFailed, KindOpaque:
		return v.Text
	}
	return OpaqueComplexExpression
}

// nested renders v inside an aggregate or template. Live fetch placeholders
// never appear nested, so nothing nested waits on a resolution.
func (v Value) nested() string {
	if v.Kind == KindPendingFetch {
		return NestedPendingText
	}
	return v.Render()
}

// propertyText renders v as an object property value: plain strings are
// quoted, composites keep their bracketed text.
func (v Value) propertyText() string {
	if v.IsString() {
		return strconv.Quote(v.str)
	}
	return v.nested()
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.Kind, v.Render())
}

// FormatNumber renders f the way Number.prototype.toString does.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"time"

	"inlinelog/internal/core/errors"
	"inlinelog/internal/engine/ast"
	"inlinelog/internal/shared/observability"
	"inlinelog/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser turns script source into the closed ast node set. It is safe for
// concurrent use; tree-sitter parsers are pooled per language.
type Parser struct {
	loader *GrammarLoader
	pools  map[string]*ParserPool
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader: loader,
		pools:  make(map[string]*ParserPool),
	}
	for lang, grammar := range loader.languages {
		p.pools[lang] = NewParserPool(lang, grammar)
	}
	return p
}

// Parse parses source for the language selected by path's extension. A tree
// containing syntax errors is reported as a CodeParseFailure error carrying
// the first error position.
func (p *Parser) Parse(path string, source []byte) (*ast.Program, error) {
	lang := p.loader.LanguageForPath(path)
	if lang == "" {
		return nil, (&errors.DomainError{Code: errors.CodeNotSupported, Message: "unsupported language"}).
			WithContext(errors.CtxPath, path)
	}
	pool := p.pools[lang]
	if pool == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	}()

	tree := pool.Parse(source)
	if tree == nil {
		return nil, (&errors.DomainError{Code: errors.CodeParseFailure, Message: "parse failed"}).
			WithContext(errors.CtxLanguage, lang)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, errors.New(errors.CodeParseFailure, "empty syntax tree")
	}
	if root.HasError() {
		msg := "syntax error"
		if bad := firstErrorNode(root); bad != nil {
			pos := bad.StartPosition()
			msg = fmt.Sprintf("syntax error at line %d, column %d", pos.Row+1, pos.Column+1)
		}
		return nil, (&errors.DomainError{Code: errors.CodeParseFailure, Message: msg}).
			WithContext(errors.CtxLanguage, lang)
	}

	return lowerProgram(root, source), nil
}

// PoolStats reports the parser pools ordered by language.
func (p *Parser) PoolStats() []PoolStats {
	out := make([]PoolStats, 0, len(p.pools))
	for _, lang := range util.SortedStringKeys(p.pools) {
		out = append(out, p.pools[lang].Stats())
	}
	return out
}

func (p *Parser) LanguageForPath(path string) string {
	return p.loader.LanguageForPath(path)
}

// Supports reports whether path maps to a loaded grammar.
func (p *Parser) Supports(path string) bool {
	return p.LanguageForPath(path) != ""
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

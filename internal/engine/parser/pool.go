// # internal/engine/parser/pool.go
package parser

import (
	"sync"
	"sync/atomic"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parsers for one grammar. Every edit starts
// a new analysis pass, so parsers are reused rather than built per parse.
type ParserPool struct {
	name string
	lang *sitter.Language
	pool sync.Pool

	leased  atomic.Int64
	created atomic.Int64
}

// PoolStats describes one pool for health reporting.
type PoolStats struct {
	Language string
	Leased   int64
	Created  int64
}

// NewParserPool creates a pool for the named grammar. The language must stay
// valid for the lifetime of the pool.
func NewParserPool(name string, lang *sitter.Language) *ParserPool {
	p := &ParserPool{name: name, lang: lang}
	p.pool.New = func() any {
		p.created.Add(1)
		sp := sitter.NewParser()
		_ = sp.SetLanguage(lang)
		return sp
	}
	return p
}

func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	_ = sp.SetLanguage(p.lang)
	p.leased.Add(1)
	return sp
}

// Put resets sp and returns it to the pool. Put(nil) is a no-op.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.leased.Add(-1)
	p.pool.Put(sp)
}

// Parse parses source on a pooled parser. The caller owns the returned tree
// and must close it.
func (p *ParserPool) Parse(source []byte) *sitter.Tree {
	sp := p.Get()
	defer p.Put(sp)
	return sp.Parse(source, nil)
}

func (p *ParserPool) Stats() PoolStats {
	return PoolStats{Language: p.name, Leased: p.leased.Load(), Created: p.created.Load()}
}

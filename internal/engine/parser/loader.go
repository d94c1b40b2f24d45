// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

// LanguageSpec routes file extensions to a grammar.
type LanguageSpec struct {
	Name       string
	Extensions []string
}

// DefaultLanguages lists the script grammars compiled into the binary.
func DefaultLanguages() []LanguageSpec {
	return []LanguageSpec{
		{Name: LangJavaScript, Extensions: []string{".js", ".mjs", ".cjs", ".jsx"}},
		{Name: LangTypeScript, Extensions: []string{".ts", ".mts", ".cts"}},
		{Name: LangTSX, Extensions: []string{".tsx"}},
	}
}

type GrammarLoader struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

func NewGrammarLoader() (*GrammarLoader, error) {
	return NewGrammarLoaderWithLanguages(DefaultLanguages())
}

func NewGrammarLoaderWithLanguages(specs []LanguageSpec) (*GrammarLoader, error) {
	gl := &GrammarLoader{
		languages:  make(map[string]*sitter.Language),
		extensions: make(map[string]string),
	}

	for _, spec := range specs {
		switch spec.Name {
		case LangJavaScript:
			gl.languages[LangJavaScript] = sitter.NewLanguage(tree_sitter_javascript.Language())
		case LangTypeScript:
			gl.languages[LangTypeScript] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		case LangTSX:
			gl.languages[LangTSX] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		default:
			return nil, fmt.Errorf("language %q is not a supported script grammar", spec.Name)
		}
		for _, ext := range spec.Extensions {
			normalized := strings.ToLower(strings.TrimSpace(ext))
			if normalized == "" {
				continue
			}
			if owner, exists := gl.extensions[normalized]; exists && owner != spec.Name {
				return nil, fmt.Errorf("extension %q mapped to both %s and %s", normalized, owner, spec.Name)
			}
			gl.extensions[normalized] = spec.Name
		}
	}

	return gl, nil
}

// Language returns the grammar for a language id, or nil.
func (gl *GrammarLoader) Language(lang string) *sitter.Language {
	return gl.languages[lang]
}

// LanguageForPath returns the language id for path. Paths without an
// extension are treated as JavaScript; unknown extensions return "".
func (gl *GrammarLoader) LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		if gl.languages[LangJavaScript] != nil {
			return LangJavaScript
		}
		return ""
	}
	return gl.extensions[ext]
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	extensions := make([]string, 0, len(gl.extensions))
	for ext := range gl.extensions {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

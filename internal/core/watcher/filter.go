package watcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultExtensions are the script sources accepted when no list is given.
var DefaultExtensions = []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx"}

// Filter decides which directories are descended into and which files are
// analyzed. Globs match base names; extensions are case-insensitive.
type Filter struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extensions   map[string]bool
}

func NewFilter(excludeDirs, excludeFiles, extensions []string) (*Filter, error) {
	dirs, err := compileAll(excludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	files, err := compileAll(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			exts[ext] = true
		}
	}
	return &Filter{excludeDirs: dirs, excludeFiles: files, extensions: exts}, nil
}

func compileAll(patterns []string, label string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// SkipDir reports whether the directory at path is excluded.
func (f *Filter) SkipDir(path string) bool {
	return matchAny(f.excludeDirs, filepath.Base(path))
}

// Accept reports whether the file at path has a source extension and is not
// excluded.
func (f *Filter) Accept(path string) bool {
	base := filepath.Base(path)
	if !f.extensions[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	return !matchAny(f.excludeFiles, base)
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

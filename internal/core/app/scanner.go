package app

import (
	"io/fs"
	"os"
	"path/filepath"

	"inlinelog/internal/core/errors"
)

// ScanDirectories expands paths into the list of source files to analyze.
// A file named directly only needs a grammar; files found while walking a
// directory must also pass the watch filter.
func (a *App) ScanDirectories(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "scan path"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			if !a.parser.Supports(root) {
				return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported source file"), errors.CtxPath, root)
			}
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			switch {
			case err != nil:
				return err
			case d.IsDir() && path != root && a.filter.SkipDir(path):
				return filepath.SkipDir
			case !d.IsDir() && a.filter.Accept(path):
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "scan directory"), errors.CtxPath, root)
		}
	}

	return files, nil
}

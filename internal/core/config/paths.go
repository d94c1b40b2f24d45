package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// projectMarkers identify the root of a JS/TS project, nearest first.
var projectMarkers = []string{DefaultFile, "package.json", "tsconfig.json", "jsconfig.json", ".git"}

// ResolvedPaths are the configured locations made absolute.
type ResolvedPaths struct {
	ProjectRoot string
	CacheDir    string
	// CachePath is empty when the persistent fetch cache is disabled.
	CachePath  string
	WatchPaths []string
}

// ResolvePaths anchors watch paths at cwd and cache paths at the project
// root. Without an explicit project_root the root is detected from the
// watch paths.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	var out ResolvedPaths
	for _, p := range cfg.Watch.Paths {
		out.WatchPaths = append(out.WatchPaths, ResolveRelative(cwd, p))
	}

	if strings.TrimSpace(cfg.Paths.ProjectRoot) != "" {
		out.ProjectRoot = ResolveRelative(cwd, cfg.Paths.ProjectRoot)
	} else {
		root, err := DetectProjectRoot(append(append([]string(nil), out.WatchPaths...), cwd)...)
		if err != nil {
			return ResolvedPaths{}, err
		}
		out.ProjectRoot = root
	}

	out.CacheDir = ResolveRelative(out.ProjectRoot, cfg.Paths.CacheDir)
	if strings.TrimSpace(cfg.Fetch.CachePath) != "" {
		out.CachePath = ResolveRelative(out.CacheDir, cfg.Fetch.CachePath)
	}
	return out, nil
}

// ResolveRelative joins value onto base unless it is already absolute. An
// empty value resolves to base.
func ResolveRelative(base, value string) string {
	value = strings.TrimSpace(value)
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(base, value)
}

// DetectProjectRoot returns the nearest ancestor of the first candidate that
// holds a project marker. Candidates that are files start at their
// directory. Without any match it falls back to the working directory.
func DetectProjectRoot(candidates ...string) (string, error) {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		dir, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		if root, ok := findMarkedAncestor(dir); ok {
			return root, nil
		}
	}
	return os.Getwd()
}

func findMarkedAncestor(dir string) (string, bool) {
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

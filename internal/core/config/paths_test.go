package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		Watch: Watch{Paths: []string{root}},
		Fetch: Fetch{CachePath: "responses.db"},
	}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.CachePath != filepath.Join(root, ".inlinelog", "responses.db") {
		t.Fatalf("unexpected cache path: %q", got.CachePath)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(root, "custom", "responses.db")
	cfg := &Config{
		Paths: Paths{ProjectRoot: root, CacheDir: filepath.Join(root, "cache")},
		Fetch: Fetch{CachePath: cachePath},
	}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.CacheDir != filepath.Join(root, "cache") {
		t.Fatalf("unexpected cache dir: %q", got.CacheDir)
	}
	if got.CachePath != cachePath {
		t.Fatalf("unexpected cache path: %q", got.CachePath)
	}
}

func TestResolvePaths_NoCachePath(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{Paths: Paths{ProjectRoot: root}}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.CachePath != "" {
		t.Fatalf("expected no cache path, got %q", got.CachePath)
	}
	if len(got.WatchPaths) != 1 || got.WatchPaths[0] != filepath.Clean(root) {
		t.Fatalf("unexpected watch paths: %v", got.WatchPaths)
	}
}

func TestDetectProjectRoot_FallbackOrder(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectProjectRoot(sub)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(root) {
		t.Fatalf("expected %q, got %q", root, got)
	}
}

func TestDetectProjectRoot_FileCandidate(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "jsconfig.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(root, "src", "app.js")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("console.log(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectProjectRoot("", src)
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Fatalf("expected %q, got %q", root, got)
	}
}

func TestResolveRelative(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work")
	abs := filepath.Join(string(filepath.Separator), "abs", "x")
	cases := map[string]string{
		"":          base,
		"  ":        base,
		"sub/../a":  filepath.Join(base, "a"),
		abs + "/./": abs,
	}
	for in, want := range cases {
		if got := ResolveRelative(base, in); got != want {
			t.Errorf("ResolveRelative(%q) = %q, want %q", in, got, want)
		}
	}
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"inlinelog/internal/core/config"
	"inlinelog/internal/core/errors"
	"inlinelog/internal/core/ports"
	"inlinelog/internal/ui/report/formats"
)

func newTestApp(t *testing.T, cfg *config.Config, paths config.ResolvedPaths) *App {
	t.Helper()
	app, err := New(cfg, paths)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestApp_ScanDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "app.js"), "console.log(1);")
	writeFile(t, filepath.Join(tmpDir, "src", "lib.ts"), "console.log(2);")
	writeFile(t, filepath.Join(tmpDir, "node_modules", "dep", "index.js"), "console.log(3);")
	writeFile(t, filepath.Join(tmpDir, "bundle.min.js"), "console.log(4);")
	writeFile(t, filepath.Join(tmpDir, "notes.txt"), "console.log(5);")

	cfg := config.Default()
	cfg.Watch.ExcludeFiles = []string{"*.min.js"}
	app := newTestApp(t, cfg, config.ResolvedPaths{ProjectRoot: tmpDir})

	files, err := app.ScanDirectories([]string{tmpDir})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(tmpDir, "app.js"), filepath.Join(tmpDir, "src", "lib.ts")}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, files)
		}
	}
}

func TestNew_RejectsInvalidExcludePattern(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.ExcludeDirs = []string{"[unterminated"}
	if _, err := New(cfg, config.ResolvedPaths{ProjectRoot: t.TempDir()}); !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApp_ScanDirectories_ExplicitFiles(t *testing.T) {
	tmpDir := t.TempDir()
	js := filepath.Join(tmpDir, "app.js")
	md := filepath.Join(tmpDir, "README.md")
	writeFile(t, js, "console.log(1);")
	writeFile(t, md, "# readme")

	app := newTestApp(t, config.Default(), config.ResolvedPaths{ProjectRoot: tmpDir})

	files, err := app.ScanDirectories([]string{js, js})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != js {
		t.Fatalf("expected single %s, got %v", js, files)
	}

	if _, err := app.ScanDirectories([]string{md}); !errors.IsCode(err, errors.CodeNotSupported) {
		t.Fatalf("expected NOT_SUPPORTED, got %v", err)
	}
	if _, err := app.ScanDirectories([]string{filepath.Join(tmpDir, "missing.js")}); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestApp_PersistentCacheSurvivesRestart(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("cached body"))
	}))
	defer srv.Close()

	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "app.js")
	writeFile(t, src, fmt.Sprintf("console.log(await fetch(%q));\n", srv.URL))
	paths := config.ResolvedPaths{ProjectRoot: tmpDir, CachePath: filepath.Join(tmpDir, ".inlinelog", "responses.db")}

	run := func() string {
		app, err := New(config.Default(), paths)
		if err != nil {
			t.Fatal(err)
		}
		defer app.Close(context.Background())

		res, err := app.AnalysisService().Analyze(context.Background(), ports.AnalyzeRequest{Paths: []string{src}})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Files) != 1 || len(res.Files[0].Annotations) != 1 {
			t.Fatalf("unexpected result: %+v", res)
		}
		return res.Files[0].Annotations[0].Display
	}

	if got := run(); got != "cached body" {
		t.Fatalf("first run: expected cached body, got %q", got)
	}
	if got := run(); got != "cached body" {
		t.Fatalf("second run: expected cached body, got %q", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one network call across restarts, got %d", calls.Load())
	}
}

func TestApp_HandleChangesAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "app.js")
	writeFile(t, src, `console.log("a fairly long message for truncation");`)

	app := newTestApp(t, config.Default(), config.ResolvedPaths{ProjectRoot: tmpDir})
	events := make(chan formats.FileAnnotations, 4)
	app.SetWatchHandler(ports.WatchHandler{OnAnalysis: func(f formats.FileAnnotations) { events <- f }})

	next := func() formats.FileAnnotations {
		select {
		case ev := <-events:
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for analysis")
		}
		return formats.FileAnnotations{}
	}

	app.HandleChanges([]string{src, filepath.Join(tmpDir, "notes.txt")})
	ev := next()
	if ev.Path != src || ev.Annotations[0].Display != "a fairly long message for truncation" {
		t.Fatalf("unexpected analysis event: %+v", ev)
	}

	cfg := config.Default()
	cfg.Analysis.MaxDisplayLength = 10
	if err := app.Reload(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	ev = next()
	if ev.Annotations[0].Display != "a fairl..." {
		t.Fatalf("expected truncated display after reload, got %q", ev.Annotations[0].Display)
	}
	if app.Config().Analysis.MaxDisplayLength != 10 {
		t.Fatalf("expected reloaded config to be active")
	}

	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}
	app.HandleChanges([]string{src})
	if app.SessionCount() != 0 {
		t.Fatalf("expected session of removed file to be closed, got %d", app.SessionCount())
	}
}

func TestHealthService(t *testing.T) {
	tmpDir := t.TempDir()
	paths := config.ResolvedPaths{ProjectRoot: tmpDir, CachePath: filepath.Join(tmpDir, "responses.db")}
	app := newTestApp(t, config.Default(), paths)

	status := NewHealthService(app).Check(context.Background())
	if status.Status != "up" {
		t.Fatalf("expected up, got %+v", status)
	}
	for _, key := range []string{"parser", "fetch", "cache_store", "sessions", "runtime"} {
		if _, ok := status.Checks[key]; !ok {
			t.Errorf("missing health check %q in %v", key, status.Checks)
		}
	}

	cfg := config.Default()
	disabled := false
	cfg.Fetch.Enabled = &disabled
	noFetch := newTestApp(t, cfg, config.ResolvedPaths{ProjectRoot: tmpDir})
	if got := NewHealthService(noFetch).Check(context.Background()).Checks["fetch"]; got != "disabled" {
		t.Fatalf("expected fetch disabled, got %q", got)
	}
}

func TestApp_FetchDisabledFailsPlaceholders(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "app.js")
	writeFile(t, src, `console.log(await fetch("https://example.com"));`)

	cfg := config.Default()
	disabled := false
	cfg.Fetch.Enabled = &disabled
	app := newTestApp(t, cfg, config.ResolvedPaths{ProjectRoot: tmpDir})

	got, err := app.ProcessFile(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != "failed" {
		t.Fatalf("expected one failed annotation, got %+v", got)
	}
}

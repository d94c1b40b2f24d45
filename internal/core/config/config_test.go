package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[analysis]
timeout = "5s"
max_display_length = 80
debounce = "1s"
enable_on_startup = false
methods = ["log", "trace"]

[fetch]
enabled = false
cache_capacity = 20
cache_ttl = "1m"
user_agent = "custom/2.0"
cache_path = "responses.db"

[watch]
paths = ["`+filepath.ToSlash(dir)+`"]
exclude_dirs = ["vendor"]
exclude_files = ["*.min.js"]

[observability]
metrics_address = "127.0.0.1:9464"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analysis.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Analysis.Timeout)
	}
	if cfg.Analysis.MaxDisplayLength != 80 {
		t.Errorf("expected max_display_length 80, got %d", cfg.Analysis.MaxDisplayLength)
	}
	if cfg.Analysis.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Analysis.Debounce)
	}
	if cfg.Analysis.StartupEnabled() {
		t.Error("expected enable_on_startup false")
	}
	if strings.Join(cfg.Analysis.Methods, ",") != "log,trace" {
		t.Errorf("unexpected methods: %v", cfg.Analysis.Methods)
	}
	if cfg.Fetch.IsEnabled() {
		t.Error("expected fetch disabled")
	}
	if cfg.Fetch.CacheCapacity != 20 || cfg.Fetch.CacheTTL != time.Minute {
		t.Errorf("unexpected cache settings: %d %v", cfg.Fetch.CacheCapacity, cfg.Fetch.CacheTTL)
	}
	if cfg.Fetch.UserAgent != "custom/2.0" {
		t.Errorf("unexpected user agent %q", cfg.Fetch.UserAgent)
	}
	if cfg.Fetch.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("expected default max_body_bytes, got %d", cfg.Fetch.MaxBodyBytes)
	}
	if len(cfg.Watch.ExcludeDirs) != 1 || cfg.Watch.ExcludeDirs[0] != "vendor" {
		t.Errorf("unexpected exclude_dirs: %v", cfg.Watch.ExcludeDirs)
	}
	if cfg.Observability.ServiceName != DefaultServiceName {
		t.Errorf("expected default service name, got %q", cfg.Observability.ServiceName)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.Timeout != 3*time.Second {
		t.Errorf("expected default timeout 3s, got %v", cfg.Analysis.Timeout)
	}
	if cfg.Analysis.MaxDisplayLength != 60 {
		t.Errorf("expected default max_display_length 60, got %d", cfg.Analysis.MaxDisplayLength)
	}
	if cfg.Analysis.Debounce != 500*time.Millisecond {
		t.Errorf("expected default debounce 500ms, got %v", cfg.Analysis.Debounce)
	}
	if !cfg.Analysis.StartupEnabled() || !cfg.Fetch.IsEnabled() {
		t.Error("expected analysis and fetch enabled by default")
	}
	if cfg.Analysis.Receiver != "console" || len(cfg.Analysis.Methods) != 5 {
		t.Errorf("unexpected default call shape: %s %v", cfg.Analysis.Receiver, cfg.Analysis.Methods)
	}
	if cfg.Fetch.CachePath != "" {
		t.Errorf("expected persistent cache off by default, got %q", cfg.Fetch.CachePath)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Analysis.MaxDisplayLength != DefaultMaxDisplayLength {
		t.Errorf("expected defaults, got %+v", cfg.Analysis)
	}
}

func TestLoadError(t *testing.T) {
	if _, err := Load("nonexistent.toml"); err == nil {
		t.Error("expected error for nonexistent file")
	}

	if _, err := Load(writeConfig(t, "bad = toml = format")); err == nil {
		t.Error("expected error for malformed TOML")
	}

	_, err := Load(writeConfig(t, "[analysis]\nmethods = [\"log\", \"not valid\"]\n"))
	if err == nil || !strings.Contains(err.Error(), `analysis.methods[1] "not valid" is not an identifier`) {
		t.Errorf("expected method validation error, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("INLINELOG_ANALYSIS_MAX_DISPLAY_LENGTH", "40")
	t.Setenv("INLINELOG_FETCH_CACHE_TTL", "30s")
	t.Setenv("INLINELOG_FETCH_ENABLED", "false")
	t.Setenv("INLINELOG_ANALYSIS_METHODS", "log, warn")
	t.Setenv("INLINELOG_FETCH_BURST", "not-a-number")

	cfg, err := Load(writeConfig(t, "[analysis]\nmax_display_length = 80\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.MaxDisplayLength != 40 {
		t.Errorf("expected env override 40, got %d", cfg.Analysis.MaxDisplayLength)
	}
	if cfg.Fetch.CacheTTL != 30*time.Second {
		t.Errorf("expected env override 30s, got %v", cfg.Fetch.CacheTTL)
	}
	if cfg.Fetch.IsEnabled() {
		t.Error("expected fetch disabled by env")
	}
	if strings.Join(cfg.Analysis.Methods, ",") != "log,warn" {
		t.Errorf("unexpected methods %v", cfg.Analysis.Methods)
	}
	if cfg.Fetch.Burst != DefaultBurst {
		t.Errorf("invalid env value must be ignored, got burst %d", cfg.Fetch.Burst)
	}
}

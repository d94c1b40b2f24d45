package config

import (
	"strings"
	"time"
)

const (
	DefaultFile             = "inlinelog.toml"
	DefaultTimeout          = 3 * time.Second
	DefaultMaxDisplayLength = 60
	DefaultDebounce         = 500 * time.Millisecond
	DefaultMaxBodyBytes     = 1 << 20
	DefaultCacheCapacity    = 100
	DefaultCacheTTL         = 5 * time.Minute
	DefaultUserAgent        = "inlinelog-resolver/1.0"
	DefaultRatePerSecond    = 10
	DefaultBurst            = 5
	DefaultServiceName      = "inlinelog"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Analysis      Analysis      `toml:"analysis"`
	Fetch         Fetch         `toml:"fetch"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	CacheDir    string `toml:"cache_dir"`
}

type Analysis struct {
	Timeout          time.Duration `toml:"timeout"`
	MaxDisplayLength int           `toml:"max_display_length"`
	Debounce         time.Duration `toml:"debounce"`
	EnableOnStartup  *bool         `toml:"enable_on_startup"`
	Receiver         string        `toml:"receiver"`
	Methods          []string      `toml:"methods"`
}

type Fetch struct {
	Enabled       *bool         `toml:"enabled"`
	MaxBodyBytes  int64         `toml:"max_body_bytes"`
	CacheCapacity int           `toml:"cache_capacity"`
	CacheTTL      time.Duration `toml:"cache_ttl"`
	UserAgent     string        `toml:"user_agent"`
	RatePerSecond float64       `toml:"rate_per_second"`
	Burst         int           `toml:"burst"`
	// CachePath enables the sqlite-backed cache store when set.
	CachePath string `toml:"cache_path"`
}

type Watch struct {
	Paths        []string `toml:"paths"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	ServiceName    string `toml:"service_name"`
}

// Default returns a configuration with every setting at its default.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func (a Analysis) StartupEnabled() bool {
	return a.EnableOnStartup == nil || *a.EnableOnStartup
}

func (f Fetch) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		cfg.Paths.CacheDir = ".inlinelog"
	}

	if cfg.Analysis.Timeout <= 0 {
		cfg.Analysis.Timeout = DefaultTimeout
	}
	if cfg.Analysis.MaxDisplayLength <= 0 {
		cfg.Analysis.MaxDisplayLength = DefaultMaxDisplayLength
	}
	if cfg.Analysis.Debounce <= 0 {
		cfg.Analysis.Debounce = DefaultDebounce
	}
	if cfg.Analysis.EnableOnStartup == nil {
		enabled := true
		cfg.Analysis.EnableOnStartup = &enabled
	}
	if strings.TrimSpace(cfg.Analysis.Receiver) == "" {
		cfg.Analysis.Receiver = "console"
	}
	if len(cfg.Analysis.Methods) == 0 {
		cfg.Analysis.Methods = []string{"log", "info", "debug", "warn", "error"}
	}

	if cfg.Fetch.Enabled == nil {
		enabled := true
		cfg.Fetch.Enabled = &enabled
	}
	if cfg.Fetch.MaxBodyBytes <= 0 {
		cfg.Fetch.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Fetch.CacheCapacity <= 0 {
		cfg.Fetch.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.Fetch.CacheTTL <= 0 {
		cfg.Fetch.CacheTTL = DefaultCacheTTL
	}
	if strings.TrimSpace(cfg.Fetch.UserAgent) == "" {
		cfg.Fetch.UserAgent = DefaultUserAgent
	}
	if cfg.Fetch.RatePerSecond <= 0 {
		cfg.Fetch.RatePerSecond = DefaultRatePerSecond
	}
	if cfg.Fetch.Burst <= 0 {
		cfg.Fetch.Burst = DefaultBurst
	}

	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{"."}
	}
	if len(cfg.Watch.ExcludeDirs) == 0 {
		cfg.Watch.ExcludeDirs = []string{".git", "node_modules", "dist", "build"}
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = DefaultServiceName
	}
}

func normalize(cfg *Config) {
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	cfg.Paths.CacheDir = strings.TrimSpace(cfg.Paths.CacheDir)
	cfg.Analysis.Receiver = strings.TrimSpace(cfg.Analysis.Receiver)
	cfg.Analysis.Methods = trimAll(cfg.Analysis.Methods)
	cfg.Fetch.CachePath = strings.TrimSpace(cfg.Fetch.CachePath)
	cfg.Watch.Paths = trimAll(cfg.Watch.Paths)
	cfg.Observability.MetricsAddress = strings.TrimSpace(cfg.Observability.MetricsAddress)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: INLINELOG_[SECTION]_[KEY] (e.g., INLINELOG_FETCH_CACHE_TTL).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "INLINELOG_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.CacheDir, "INLINELOG_PATHS_CACHE_DIR")

	// Analysis
	setEnvDuration(&cfg.Analysis.Timeout, "INLINELOG_ANALYSIS_TIMEOUT")
	setEnvInt(&cfg.Analysis.MaxDisplayLength, "INLINELOG_ANALYSIS_MAX_DISPLAY_LENGTH")
	setEnvDuration(&cfg.Analysis.Debounce, "INLINELOG_ANALYSIS_DEBOUNCE")
	setEnvBoolPtr(&cfg.Analysis.EnableOnStartup, "INLINELOG_ANALYSIS_ENABLE_ON_STARTUP")
	setEnvString(&cfg.Analysis.Receiver, "INLINELOG_ANALYSIS_RECEIVER")
	setEnvList(&cfg.Analysis.Methods, "INLINELOG_ANALYSIS_METHODS")

	// Fetch
	setEnvBoolPtr(&cfg.Fetch.Enabled, "INLINELOG_FETCH_ENABLED")
	setEnvInt64(&cfg.Fetch.MaxBodyBytes, "INLINELOG_FETCH_MAX_BODY_BYTES")
	setEnvInt(&cfg.Fetch.CacheCapacity, "INLINELOG_FETCH_CACHE_CAPACITY")
	setEnvDuration(&cfg.Fetch.CacheTTL, "INLINELOG_FETCH_CACHE_TTL")
	setEnvString(&cfg.Fetch.UserAgent, "INLINELOG_FETCH_USER_AGENT")
	setEnvFloat64(&cfg.Fetch.RatePerSecond, "INLINELOG_FETCH_RATE_PER_SECOND")
	setEnvInt(&cfg.Fetch.Burst, "INLINELOG_FETCH_BURST")
	setEnvString(&cfg.Fetch.CachePath, "INLINELOG_FETCH_CACHE_PATH")

	// Watch
	setEnvList(&cfg.Watch.Paths, "INLINELOG_WATCH_PATHS")
	setEnvList(&cfg.Watch.ExcludeDirs, "INLINELOG_WATCH_EXCLUDE_DIRS")
	setEnvList(&cfg.Watch.ExcludeFiles, "INLINELOG_WATCH_EXCLUDE_FILES")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "INLINELOG_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "INLINELOG_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "INLINELOG_OBSERVABILITY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvInt64(target *int64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}

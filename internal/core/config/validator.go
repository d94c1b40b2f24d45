package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) []error {
	var errs []error
	if !identifierPattern.MatchString(cfg.Analysis.Receiver) {
		errs = append(errs, fmt.Errorf("analysis.receiver %q is not an identifier", cfg.Analysis.Receiver))
	}
	seen := make(map[string]bool, len(cfg.Analysis.Methods))
	for i, m := range cfg.Analysis.Methods {
		if !identifierPattern.MatchString(m) {
			errs = append(errs, fmt.Errorf("analysis.methods[%d] %q is not an identifier", i, m))
			continue
		}
		if seen[m] {
			errs = append(errs, fmt.Errorf("analysis.methods[%d] %q is duplicated", i, m))
		}
		seen[m] = true
	}
	if cfg.Analysis.MaxDisplayLength < 4 {
		errs = append(errs, fmt.Errorf("analysis.max_display_length must be >= 4, got %d", cfg.Analysis.MaxDisplayLength))
	}
	return errs
}

func validateFetch(cfg *Config) []error {
	var errs []error
	if cfg.Fetch.Burst < 1 {
		errs = append(errs, fmt.Errorf("fetch.burst must be >= 1, got %d", cfg.Fetch.Burst))
	}
	if strings.ContainsAny(cfg.Fetch.UserAgent, "\r\n") {
		errs = append(errs, fmt.Errorf("fetch.user_agent must be a single line"))
	}
	return errs
}

func validateWatch(cfg *Config) []error {
	var errs []error
	for i, pattern := range cfg.Watch.ExcludeFiles {
		if _, err := glob.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("watch.exclude_files[%d] %q is not a valid glob: %w", i, pattern, err))
		}
	}
	return errs
}

func validateObservability(cfg *Config) []error {
	var errs []error
	if addr := cfg.Observability.MetricsAddress; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("observability.metrics_address %q: %w", addr, err))
		}
	}
	if ep := cfg.Observability.OTLPEndpoint; ep != "" {
		if _, _, err := net.SplitHostPort(ep); err != nil {
			errs = append(errs, fmt.Errorf("observability.otlp_endpoint %q must be host:port: %w", ep, err))
		}
	}
	return errs
}

// Validate returns every problem found in cfg; an empty slice means the
// configuration is usable.
func Validate(cfg *Config) []error {
	var errs []error

	if err := validateVersion(cfg); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateAnalysis(cfg)...)
	errs = append(errs, validateFetch(cfg)...)
	errs = append(errs, validateWatch(cfg)...)
	errs = append(errs, validateObservability(cfg)...)

	// Path verification
	errs = append(errs, validatePaths(cfg)...)

	return errs
}

func validatePaths(cfg *Config) []error {
	var errs []error

	if root := cfg.Paths.ProjectRoot; root != "" {
		stat, err := os.Stat(root)
		if os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("paths.project_root %q does not exist", root))
		} else if err == nil && !stat.IsDir() {
			errs = append(errs, fmt.Errorf("paths.project_root %q is not a directory", root))
		}
	}

	for i, path := range cfg.Watch.Paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("watch.paths[%d] %q does not exist", i, path))
		}
	}

	return errs
}

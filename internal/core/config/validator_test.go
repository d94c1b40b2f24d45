package config

import (
	"fmt"
	"os"
	"testing"
)

func hasError(errs []error, want string) bool {
	for _, err := range errs {
		if err.Error() == want {
			return true
		}
	}
	return false
}

func TestValidateWatchPaths(t *testing.T) {
	cfg := Default()
	cfg.Watch.Paths = []string{"/non/existent/path"}
	errs := Validate(cfg)
	target := `watch.paths[0] "/non/existent/path" does not exist`
	if !hasError(errs, target) {
		t.Errorf("expected watch path error %q, got %v", target, errs)
	}
}

func TestValidateProjectRoot(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "inlinelog-test")
	if err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	cfg := Default()
	cfg.Paths.ProjectRoot = tmpFile.Name()
	target := fmt.Sprintf("paths.project_root %q is not a directory", tmpFile.Name())
	if errs := Validate(cfg); !hasError(errs, target) {
		t.Errorf("expected project root error, got %v", errs)
	}
}

func TestValidateAnalysis(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Methods = []string{"log", "log"}
	cfg.Analysis.MaxDisplayLength = 2
	errs := Validate(cfg)
	if !hasError(errs, `analysis.methods[1] "log" is duplicated`) {
		t.Errorf("expected duplicate method error, got %v", errs)
	}
	if !hasError(errs, "analysis.max_display_length must be >= 4, got 2") {
		t.Errorf("expected display length error, got %v", errs)
	}
}

func TestValidateGlobsAndAddresses(t *testing.T) {
	cfg := Default()
	cfg.Watch.ExcludeFiles = []string{"[unclosed"}
	cfg.Observability.MetricsAddress = "no-port"
	errs := Validate(cfg)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
}

func TestValidateDefaults(t *testing.T) {
	if errs := Validate(Default()); len(errs) != 0 {
		t.Errorf("defaults must validate, got %v", errs)
	}
}

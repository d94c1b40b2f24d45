package ports

import (
	"context"

	"inlinelog/internal/core/config"
	"inlinelog/internal/core/session"
	"inlinelog/internal/shared/observability"
	"inlinelog/internal/ui/report/formats"
)

// AnalyzeRequest names the files or directories to analyze once.
type AnalyzeRequest struct {
	Paths []string
}

// AnalyzeResult holds the settled annotations of every analyzed file.
type AnalyzeResult struct {
	Files    []formats.FileAnnotations
	Warnings []string
}

// WatchHandler receives the output of watch mode. Analyses carry the
// initial annotations of a pass; corrections update single lines later.
type WatchHandler struct {
	OnAnalysis   func(formats.FileAnnotations)
	OnCorrection func(session.Correction)
}

// AnalysisService is the driving port used by the CLI.
type AnalysisService interface {
	// Analyze runs one pass per file and waits, bounded by the analysis
	// timeout, for pending fetches to settle.
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
	// Watch analyzes paths, then re-analyzes changed files until ctx is done.
	Watch(ctx context.Context, paths []string, handler WatchHandler) error
	// Reload applies changed analysis settings and re-analyzes open files.
	Reload(ctx context.Context, cfg *config.Config) error
	Health(ctx context.Context) observability.HealthStatus
	Close(ctx context.Context) error
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inlinelog/internal/core/config"
	"inlinelog/internal/core/errors"
	"inlinelog/internal/core/ports"
	"inlinelog/internal/shared/observability"
	"inlinelog/internal/ui/report/formats"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

func (s *analysisService) Unwrap() *App {
	return s.app
}

func (s *analysisService) Analyze(ctx context.Context, req ports.AnalyzeRequest) (ports.AnalyzeResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Analyze",
		trace.WithAttributes(attribute.StringSlice("paths", req.Paths)))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.AnalyzeResult{}, err
	}

	start := time.Now()
	files, err := s.app.ScanDirectories(req.Paths)
	if err != nil {
		return ports.AnalyzeResult{}, errors.AddContext(err, errors.CtxOperation, "scan_directories")
	}
	span.SetAttributes(attribute.Int("files", len(files)))

	var warnings []string
	analyzed := make([]string, 0, len(files))
	for _, path := range files {
		if _, err := s.app.ProcessFile(ctx, path); err != nil {
			warnings = append(warnings, fmt.Sprintf("process file %s: %v", path, err))
			continue
		}
		analyzed = append(analyzed, path)
	}

	if err := s.app.settle(ctx, analyzed); err != nil {
		if ctx.Err() != nil {
			return ports.AnalyzeResult{}, ctx.Err()
		}
		warnings = append(warnings, "some fetches did not settle before the timeout")
	}

	result := ports.AnalyzeResult{
		Files:    make([]formats.FileAnnotations, 0, len(analyzed)),
		Warnings: warnings,
	}
	for _, path := range analyzed {
		result.Files = append(result.Files, s.app.FileAnnotations(path))
	}

	observability.AnalysisDuration.WithLabelValues("run").Observe(time.Since(start).Seconds())
	slog.Debug("analysis complete", "files", len(analyzed), "warnings", len(warnings), "duration", time.Since(start))
	return result, nil
}

func (s *analysisService) Watch(ctx context.Context, paths []string, handler ports.WatchHandler) error {
	s.app.SetWatchHandler(handler)

	if s.app.Config().Analysis.StartupEnabled() {
		files, err := s.app.ScanDirectories(paths)
		if err != nil {
			return errors.AddContext(err, errors.CtxOperation, "scan_directories")
		}
		for _, path := range files {
			if _, err := s.app.ProcessFile(ctx, path); err != nil {
				slog.Warn("failed to process file", "path", path, "error", err)
				continue
			}
			if handler.OnAnalysis != nil {
				handler.OnAnalysis(s.app.FileAnnotations(path))
			}
		}
	}

	if err := s.app.StartWatcher(ctx, paths); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "start watcher"), errors.CtxOperation, "watch")
	}
	slog.Info("watching for changes", "paths", paths)

	<-ctx.Done()
	return nil
}

func (s *analysisService) Reload(ctx context.Context, cfg *config.Config) error {
	return s.app.Reload(ctx, cfg)
}

func (s *analysisService) Health(ctx context.Context) observability.HealthStatus {
	return NewHealthService(s.app).Check(ctx)
}

func (s *analysisService) Close(ctx context.Context) error {
	if s == nil || s.app == nil {
		return nil
	}
	return s.app.Close(ctx)
}

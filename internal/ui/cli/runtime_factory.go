package cli

import (
	"fmt"

	coreapp "inlinelog/internal/core/app"
	"inlinelog/internal/core/config"
	"inlinelog/internal/core/ports"
)

type analysisFactory interface {
	New(cfg *config.Config, paths config.ResolvedPaths) (ports.AnalysisService, error)
}

type coreAnalysisFactory struct{}

func (coreAnalysisFactory) New(cfg *config.Config, paths config.ResolvedPaths) (ports.AnalysisService, error) {
	app, err := coreapp.New(cfg, paths)
	if err != nil {
		return nil, err
	}
	return app.AnalysisService(), nil
}

func initializeAnalysis(cfg *config.Config, paths config.ResolvedPaths, factory analysisFactory) (ports.AnalysisService, error) {
	if factory == nil {
		return nil, fmt.Errorf("analysis factory is required")
	}
	return factory.New(cfg, paths)
}

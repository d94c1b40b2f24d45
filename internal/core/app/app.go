package app

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"inlinelog/internal/core/config"
	"inlinelog/internal/core/errors"
	"inlinelog/internal/core/ports"
	"inlinelog/internal/core/session"
	"inlinelog/internal/core/watcher"
	"inlinelog/internal/engine/analysis"
	"inlinelog/internal/engine/fetch"
	"inlinelog/internal/engine/parser"
	"inlinelog/internal/shared/util"
	"inlinelog/internal/ui/report"
	"inlinelog/internal/ui/report/formats"
)

// App wires the parser, analyzer, fetch resolver and formatter together and
// keeps one analysis session per source file.
type App struct {
	Paths config.ResolvedPaths

	loader   *parser.GrammarLoader
	parser   *parser.Parser
	resolver *fetch.Resolver
	cache    *fetch.Cache
	store    *fetch.Store

	filter *watcher.Filter

	mu        sync.Mutex
	config    *config.Config
	analyzer  *analysis.Analyzer
	formatter *report.Formatter
	sessions  map[string]*session.Session
	watchCtx  context.Context

	handlerMu sync.RWMutex
	handler   ports.WatchHandler

	activeWatcher *watcher.Watcher
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	loader, err := parser.NewGrammarLoader()
	if err != nil {
		return nil, err
	}

	filter, err := watcher.NewFilter(cfg.Watch.ExcludeDirs, cfg.Watch.ExcludeFiles, loader.SupportedExtensions())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "watch filter")
	}

	a := &App{
		Paths:    paths,
		loader:   loader,
		parser:   parser.NewParser(loader),
		filter:   filter,
		config:   cfg,
		sessions: make(map[string]*session.Session),
		watchCtx: context.Background(),
	}
	a.analyzer, a.formatter = a.buildAnalysis(cfg)

	if cfg.Fetch.IsEnabled() {
		a.cache = fetch.NewCache(cfg.Fetch.CacheCapacity, cfg.Fetch.CacheTTL)
		if paths.CachePath != "" {
			store, err := fetch.OpenStore(paths.CachePath)
			if err != nil {
				return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open fetch cache store"), errors.CtxPath, paths.CachePath)
			}
			if err := a.cache.AttachStore(store); err != nil {
				slog.Warn("failed to warm fetch cache from store", "path", paths.CachePath, "error", err)
			}
			a.store = store
		}
		client := fetch.NewClient(fetch.ClientConfig{
			Timeout:      cfg.Analysis.Timeout,
			MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
			UserAgent:    cfg.Fetch.UserAgent,
		})
		a.resolver = fetch.NewResolver(client, a.cache, fetch.ResolverConfig{
			RatePerSecond: cfg.Fetch.RatePerSecond,
			Burst:         cfg.Fetch.Burst,
		})
	}

	return a, nil
}

func (a *App) buildAnalysis(cfg *config.Config) (*analysis.Analyzer, *report.Formatter) {
	walker := analysis.NewWalker(cfg.Analysis.Receiver, cfg.Analysis.Methods)
	return analysis.NewAnalyzer(a.parser, walker), report.NewFormatter(cfg.Analysis.MaxDisplayLength)
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}

func (a *App) SetWatchHandler(handler ports.WatchHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.handler = handler
}

func (a *App) currentHandler() ports.WatchHandler {
	a.handlerMu.RLock()
	defer a.handlerMu.RUnlock()
	return a.handler
}

// session returns the session for path, creating it on first use.
func (a *App) session(path string) *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.sessions[path]; ok {
		return s
	}
	s := session.New(path, session.Options{
		Analyzer:     a.analyzer,
		Formatter:    a.formatter,
		Resolver:     a.resolver,
		OnCorrection: a.emitCorrection,
		OnAnalysis:   a.emitAnalysis,
	})
	a.sessions[path] = s
	return s
}

func (a *App) closeSession(path string) {
	a.mu.Lock()
	s, ok := a.sessions[path]
	delete(a.sessions, path)
	a.mu.Unlock()
	if ok {
		s.Close()
	}
}

// SessionCount returns the number of files with an open session.
func (a *App) SessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

// ProcessFile reads path and runs a new analysis pass over it.
func (a *App) ProcessFile(ctx context.Context, path string) ([]report.Annotation, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source"), errors.CtxPath, path)
	}
	return a.session(path).Analyze(ctx, content)
}

// FileAnnotations returns the current annotations of an analyzed file.
func (a *App) FileAnnotations(path string) formats.FileAnnotations {
	s := a.session(path)
	return fileRecord(path, s.Annotations(), s.Result())
}

func fileRecord(path string, annotations []report.Annotation, res *analysis.Result) formats.FileAnnotations {
	out := formats.FileAnnotations{Path: path, Annotations: annotations}
	if res == nil {
		return out
	}
	out.DirectExecution = res.DirectExecutionCandidate
	if res.ParseErr != nil {
		out.ParseError = errors.Message(res.ParseErr)
	}
	return out
}

// settle waits for pending fetches of the given files. The wait is bounded
// by twice the fetch timeout so rate limiting cannot stall a one-shot run.
func (a *App) settle(ctx context.Context, paths []string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*a.Config().Analysis.Timeout)
	defer cancel()

	for _, path := range paths {
		if err := a.session(path).Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// HandleChanges schedules a new pass for each changed file. Removed files
// drop their session.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))

	a.mu.Lock()
	ctx := a.watchCtx
	a.mu.Unlock()

	for _, path := range paths {
		if !a.parser.Supports(path) {
			continue
		}
		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			a.closeSession(path)
			continue
		}
		if err != nil {
			slog.Warn("failed to read changed file", "path", path, "error", err)
			continue
		}
		a.session(path).Schedule(ctx, content)
	}
}

func (a *App) emitAnalysis(path string, annotations []report.Annotation, err error) {
	if err != nil {
		slog.Warn("analysis failed", "path", path, "error", err)
		return
	}
	h := a.currentHandler()
	if h.OnAnalysis == nil {
		return
	}
	var res *analysis.Result
	a.mu.Lock()
	s, ok := a.sessions[path]
	a.mu.Unlock()
	if ok {
		res = s.Result()
	}
	h.OnAnalysis(fileRecord(path, annotations, res))
}

func (a *App) emitCorrection(c session.Correction) {
	if h := a.currentHandler(); h.OnCorrection != nil {
		h.OnCorrection(c)
	}
}

// Reload swaps in new analysis settings and re-analyzes every open file.
// Fetch settings only take effect on restart.
func (a *App) Reload(ctx context.Context, cfg *config.Config) error {
	analyzer, formatter := a.buildAnalysis(cfg)

	a.mu.Lock()
	next := *a.config
	next.Analysis = cfg.Analysis
	a.config = &next
	a.analyzer = analyzer
	a.formatter = formatter
	paths := util.SortedStringKeys(a.sessions)
	for _, s := range a.sessions {
		s.Close()
	}
	a.sessions = make(map[string]*session.Session)
	a.mu.Unlock()

	if a.activeWatcher != nil {
		a.activeWatcher.SetDebounce(cfg.Analysis.Debounce)
	}
	slog.Info("configuration reloaded", "files", len(paths))
	a.HandleChanges(paths)
	return ctx.Err()
}

// Close stops the watcher, cancels in-flight fetches and closes the cache
// store.
func (a *App) Close(ctx context.Context) error {
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
		a.activeWatcher = nil
	}

	a.mu.Lock()
	for path, s := range a.sessions {
		s.Close()
		delete(a.sessions, path)
	}
	a.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- a.store.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

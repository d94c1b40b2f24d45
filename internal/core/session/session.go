// # internal/core/session/session.go
package session

import (
	"context"
	"log/slog"
	"sync"

	"inlinelog/internal/engine/analysis"
	"inlinelog/internal/engine/eval"
	"inlinelog/internal/engine/fetch"
	"inlinelog/internal/shared/observability"
	"inlinelog/internal/ui/report"

	"github.com/google/uuid"
)

// Correction is a standalone update of one line after an async resolution.
type Correction struct {
	PassID     uuid.UUID
	Path       string
	Line       int
	Annotation report.Annotation
}

type Options struct {
	Analyzer  *analysis.Analyzer
	Formatter *report.Formatter
	// Resolver is optional; without it every fetch fails at once with
	// "fetch disabled".
	Resolver *fetch.Resolver
	// OnCorrection is called with the session lock held and must not call
	// back into the Session.
	OnCorrection func(Correction)
	// OnAnalysis is called after each scheduled pass with its annotations.
	OnAnalysis func(path string, annotations []report.Annotation, err error)
}

// Session owns the analysis state of one source file: the current pass, its
// call sites and their annotations. Each pass replaces the previous one; late
// completions from a superseded pass are dropped.
type Session struct {
	path string
	opts Options

	mu          sync.Mutex
	passID      uuid.UUID
	result      *analysis.Result
	annotations []report.Annotation
	cancel      context.CancelFunc
	done        chan struct{}
	next        *scheduledPass
	closed      bool

	// runMu serializes scheduled passes.
	runMu sync.Mutex
}

type scheduledPass struct {
	ctx    context.Context
	source []byte
}

func New(path string, opts Options) *Session {
	if opts.Formatter == nil {
		opts.Formatter = report.NewFormatter(0)
	}
	done := make(chan struct{})
	close(done)
	return &Session{path: path, opts: opts, done: done}
}

func (s *Session) Path() string { return s.path }

// Analyze runs a new pass over source and returns its initial annotations.
// Any fetches still running for the previous pass are cancelled.
func (s *Session) Analyze(ctx context.Context, source []byte) ([]report.Annotation, error) {
	res, err := s.opts.Analyzer.Analyze(s.path, source)
	if err != nil {
		return nil, err
	}
	observability.AnalysisPassesTotal.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.passID = uuid.New()
	s.result = res

	reqs := s.prepareLocked()
	s.annotations = s.opts.Formatter.FormatResult(res)

	slog.Debug("analysis pass",
		"path", s.path,
		"pass", s.passID,
		"sites", len(res.Sites),
		"pending", len(reqs),
		"parse_failed", res.ParseFailed,
	)

	done := make(chan struct{})
	s.done = done
	if len(reqs) == 0 {
		s.cancel = nil
		close(done)
		return s.snapshotLocked(), nil
	}

	passCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.consume(s.passID, s.opts.Resolver.Resolve(passCtx, reqs), done)

	return s.snapshotLocked(), nil
}

// prepareLocked substitutes fresh cache hits directly and returns the
// requests left for the resolver. Without a resolver no placeholder may
// stay pending, so each one fails immediately.
func (s *Session) prepareLocked() []fetch.Request {
	var reqs []fetch.Request
	for i, site := range s.result.Sites {
		for _, p := range site.PendingFetches() {
			if s.opts.Resolver == nil {
				site.Resolved = replaceArg(site.Resolved, p.Arg, eval.FetchFailed(p.Fetch.URL, "fetch disabled"))
				continue
			}
			if v, ok := s.opts.Resolver.Cached(p.Fetch); ok {
				site.Resolved = replaceArg(site.Resolved, p.Arg, v)
				continue
			}
			reqs = append(reqs, fetch.Request{Slot: fetch.Slot{Site: i, Arg: p.Arg}, Fetch: p.Fetch})
		}
	}
	return reqs
}

func (s *Session) consume(pass uuid.UUID, ch <-chan fetch.Completion, done chan struct{}) {
	defer close(done)
	for c := range ch {
		s.apply(pass, c)
	}
}

func (s *Session) apply(pass uuid.UUID, c fetch.Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pass != s.passID {
		observability.StaleCompletionsTotal.Inc()
		slog.Debug("dropping stale completion", "path", s.path, "pass", pass, "url", c.Task.URL)
		return
	}
	if c.Slot.Site < 0 || c.Slot.Site >= len(s.result.Sites) {
		return
	}
	site := s.result.Sites[c.Slot.Site]
	if c.Slot.Arg < 0 || c.Slot.Arg >= len(site.Resolved) {
		return
	}
	site.Resolved = replaceArg(site.Resolved, c.Slot.Arg, c.Value)

	ann := s.opts.Formatter.Format(site)
	if ann == s.annotations[c.Slot.Site] {
		return
	}
	s.annotations[c.Slot.Site] = ann
	if s.opts.OnCorrection != nil {
		s.opts.OnCorrection(Correction{PassID: pass, Path: s.path, Line: ann.Line, Annotation: ann})
	}
}

// replaceArg returns a copy of values with index i replaced; earlier slices
// handed out to callers stay unchanged.
func replaceArg(values []eval.Value, i int, v eval.Value) []eval.Value {
	out := append([]eval.Value(nil), values...)
	out[i] = v
	return out
}

// Annotations returns the current annotations of the latest pass.
func (s *Session) Annotations() []report.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() []report.Annotation {
	return append([]report.Annotation(nil), s.annotations...)
}

// Result returns the analysis result of the latest pass.
func (s *Session) Result() *analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) PassID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passID
}

// Wait blocks until every fetch of the current pass has completed or ctx is
// done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule runs Analyze in the background. Passes run one at a time; a call
// arriving while an earlier one is still queued replaces its source.
// Debouncing is left to the caller.
func (s *Session) Schedule(ctx context.Context, source []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	queued := s.next != nil
	s.next = &scheduledPass{ctx: ctx, source: source}
	if !queued {
		go s.runScheduled()
	}
}

func (s *Session) runScheduled() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	next := s.next
	s.next = nil
	closed := s.closed
	s.mu.Unlock()
	if next == nil || closed {
		return
	}

	annotations, err := s.Analyze(next.ctx, next.source)
	if err != nil {
		slog.Warn("analysis failed", "path", s.path, "error", err)
	}
	if s.opts.OnAnalysis != nil {
		s.opts.OnAnalysis(s.path, annotations, err)
	}
}

// Close drops any queued pass and cancels in-flight fetches.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.next = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

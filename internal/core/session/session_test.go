package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"inlinelog/internal/engine/analysis"
	"inlinelog/internal/engine/fetch"
	"inlinelog/internal/engine/parser"
	"inlinelog/internal/ui/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu          sync.Mutex
	corrections []Correction
}

func (r *recorder) record(c Correction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.corrections = append(r.corrections, c)
}

func (r *recorder) all() []Correction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Correction(nil), r.corrections...)
}

func newTestSession(t *testing.T, cache *fetch.Cache, rec *recorder) *Session {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	resolver := fetch.NewResolver(
		fetch.NewClient(fetch.ClientConfig{Timeout: 2 * time.Second, MaxBodyBytes: 1024}),
		cache,
		fetch.ResolverConfig{RatePerSecond: 1000, Burst: 100},
	)
	return New("app.js", Options{
		Analyzer:     analysis.NewAnalyzer(parser.NewParser(loader), analysis.NewWalker("", nil)),
		Formatter:    report.NewFormatter(60),
		Resolver:     resolver,
		OnCorrection: rec.record,
	})
}

func waitSettled(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestSession_PendingThenCorrection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello from server"))
	}))
	defer srv.Close()

	rec := &recorder{}
	s := newTestSession(t, fetch.NewCache(10, 0), rec)
	src := fmt.Sprintf("console.log(await fetch(%q));\nconsole.log(\"other\");\n", srv.URL)

	initial, err := s.Analyze(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, initial, 2)
	assert.Equal(t, report.StatusPending, initial[0].Status)
	assert.Equal(t, "fetching "+srv.URL+"…", initial[0].Display)
	assert.Equal(t, "other", initial[1].Display)

	waitSettled(t, s)

	corrections := rec.all()
	require.Len(t, corrections, 1)
	assert.Equal(t, 1, corrections[0].Line)
	assert.Equal(t, s.PassID(), corrections[0].PassID)
	assert.Equal(t, "hello from server", corrections[0].Annotation.Display)
	assert.Equal(t, report.StatusResolved, corrections[0].Annotation.Status)

	final := s.Annotations()
	assert.Equal(t, corrections[0].Annotation, final[0])
	assert.Equal(t, initial[1], final[1], "other lines are untouched")
}

func TestSession_SameURLFetchedOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	s := newTestSession(t, fetch.NewCache(10, 0), rec)
	src := fmt.Sprintf(`const res = await fetch(%q);
const data = await res.json();
console.log("a", data);
console.log("b", await res.text());
`, srv.URL)

	_, err := s.Analyze(context.Background(), []byte(src))
	require.NoError(t, err)
	waitSettled(t, s)

	assert.Equal(t, int32(1), calls.Load())
	final := s.Annotations()
	require.Len(t, final, 2)
	assert.Equal(t, `a { "id": 1 }`, final[0].Display)
	assert.Equal(t, `b {"id":1}`, final[1].Display)
	assert.Len(t, rec.all(), 2)
}

func TestSession_StaleCompletionsDropped(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()
	defer close(release)

	rec := &recorder{}
	s := newTestSession(t, fetch.NewCache(10, 0), rec)

	_, err := s.Analyze(context.Background(), []byte(fmt.Sprintf("console.log(await fetch(%q));\n", srv.URL)))
	require.NoError(t, err)
	s.mu.Lock()
	firstDone := s.done
	s.mu.Unlock()

	second, err := s.Analyze(context.Background(), []byte("console.log(\"fresh\");\n"))
	require.NoError(t, err)

	select {
	case <-firstDone:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded pass did not finish")
	}

	assert.Empty(t, rec.all())
	assert.Equal(t, second, s.Annotations())
	assert.Equal(t, "fresh", s.Annotations()[0].Display)
}

func TestSession_IdempotentWithWarmCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("stable"))
	}))
	defer srv.Close()

	cache := fetch.NewCache(10, 0)
	rec := &recorder{}
	s := newTestSession(t, cache, rec)
	src := []byte(fmt.Sprintf("const x = 2;\nconsole.log(x * 21);\nconsole.log(await fetch(%q));\n", srv.URL))

	_, err := s.Analyze(context.Background(), src)
	require.NoError(t, err)
	waitSettled(t, s)
	first := s.Annotations()

	again, err := s.Analyze(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, first, again, "warm cache resolves synchronously")
	waitSettled(t, s)
	assert.Equal(t, first, s.Annotations())
	assert.Equal(t, int32(1), calls.Load())
}

func TestSession_ParseFailure(t *testing.T) {
	s := newTestSession(t, fetch.NewCache(10, 0), &recorder{})
	got, err := s.Analyze(context.Background(), []byte("const = ;\nconsole.log(1);\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, report.TextExecutionFailed, got[0].Display)
	assert.Equal(t, report.StatusFailed, got[0].Status)
	assert.True(t, s.Result().ParseFailed)
}

func TestSession_Schedule(t *testing.T) {
	type analysisEvent struct {
		annotations []report.Annotation
		err         error
	}
	events := make(chan analysisEvent, 4)

	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	s := New("app.js", Options{
		Analyzer: analysis.NewAnalyzer(parser.NewParser(loader), analysis.NewWalker("", nil)),
		OnAnalysis: func(path string, annotations []report.Annotation, err error) {
			events <- analysisEvent{annotations: annotations, err: err}
		},
	})
	defer s.Close()

	s.Schedule(context.Background(), []byte(`console.log("first");`))
	s.Schedule(context.Background(), []byte(`console.log("second");`))

	// The first pass may already have started; either way the latest source
	// is analyzed last.
	for {
		select {
		case ev := <-events:
			require.NoError(t, ev.err)
			require.Len(t, ev.annotations, 1)
			if ev.annotations[0].Display != "second" {
				assert.Equal(t, "first", ev.annotations[0].Display)
				continue
			}
			assert.Equal(t, "second", s.Annotations()[0].Display)
		case <-time.After(5 * time.Second):
			t.Fatal("scheduled analysis did not run")
		}
		break
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected pass after the latest source: %v", ev.annotations)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSession_ScheduleAfterCloseIsIgnored(t *testing.T) {
	called := make(chan struct{}, 1)
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	s := New("app.js", Options{
		Analyzer:   analysis.NewAnalyzer(parser.NewParser(loader), analysis.NewWalker("", nil)),
		OnAnalysis: func(string, []report.Annotation, error) { called <- struct{}{} },
	})
	s.Close()
	s.Schedule(context.Background(), []byte(`console.log(1);`))

	select {
	case <-called:
		t.Fatal("closed session must not analyze")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSession_NoResolverFailsFetches(t *testing.T) {
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	var corrections []Correction
	s := New("app.js", Options{
		Analyzer:     analysis.NewAnalyzer(parser.NewParser(loader), analysis.NewWalker("", nil)),
		OnCorrection: func(c Correction) { corrections = append(corrections, c) },
	})
	got, err := s.Analyze(context.Background(), []byte(`console.log(await fetch("https://example.com"));`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, report.StatusFailed, got[0].Status)
	assert.Equal(t, "[fetch failed: fetch disabled]", got[0].Detail)
	require.NoError(t, s.Wait(context.Background()))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, got, s.Annotations())
	assert.Empty(t, corrections)
}

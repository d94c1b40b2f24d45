// # internal/engine/fetch/resolver.go
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"inlinelog/internal/core/errors"
	"inlinelog/internal/engine/eval"
	"inlinelog/internal/shared/observability"
	"inlinelog/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Slot addresses one argument of one logging call site within a pass.
type Slot struct {
	Site int
	Arg  int
}

// Request asks for the value of a pending fetch argument.
type Request struct {
	Slot  Slot
	Fetch eval.FetchRef
}

// Completion delivers the superseding value for one slot.
type Completion struct {
	Slot  Slot
	Value eval.Value
	Task  Task
}

type ResolverConfig struct {
	RatePerSecond float64
	Burst         int
}

// Resolver runs one batch of fetches per call to Resolve. Requests for the
// same URL within a batch share a single network call.
type Resolver struct {
	client   *Client
	cache    *Cache
	limiters *util.LimiterRegistry
}

func NewResolver(client *Client, cache *Cache, cfg ResolverConfig) *Resolver {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Resolver{
		client:   client,
		cache:    cache,
		limiters: util.NewLimiterRegistry(cfg.RatePerSecond, cfg.Burst, 5*time.Minute),
	}
}

// Resolve starts the batch and returns a channel that receives exactly one
// Completion per request and is closed when the batch is done. Cancelling
// ctx turns outstanding requests into failures.
func (r *Resolver) Resolve(ctx context.Context, reqs []Request) <-chan Completion {
	out := make(chan Completion, len(reqs))

	groups := make(map[string][]Request)
	var urls []string
	for _, req := range reqs {
		if _, ok := groups[req.Fetch.URL]; !ok {
			urls = append(urls, req.Fetch.URL)
		}
		groups[req.Fetch.URL] = append(groups[req.Fetch.URL], req)
	}

	var wg sync.WaitGroup
	for _, u := range urls {
		wg.Add(1)
		go func(u string, group []Request) {
			defer wg.Done()
			task := newTask(u)
			resp, cached, err := r.fetch(ctx, u)
			task.complete(err, cached)

			for _, req := range group {
				var value eval.Value
				if err != nil {
					value = eval.FetchFailed(u, errors.Message(err))
				} else {
					value = Render(resp, req.Fetch.Kind)
				}
				out <- Completion{Slot: req.Slot, Value: value, Task: *task}
			}
		}(u, groups[u])
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Cached returns the rendered value for ref when a fresh cache entry exists,
// without touching the network.
func (r *Resolver) Cached(ref eval.FetchRef) (eval.Value, bool) {
	resp, ok := r.cache.Get(ref.URL)
	if !ok {
		return eval.Value{}, false
	}
	observability.FetchRequestsTotal.WithLabelValues("cache_hit").Inc()
	return Render(resp, ref.Kind), true
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) (Response, bool, error) {
	if resp, ok := r.cache.Get(rawURL); ok {
		observability.FetchRequestsTotal.WithLabelValues("cache_hit").Inc()
		return resp, true, nil
	}

	spanCtx, span := observability.Tracer.Start(ctx, "fetch.Get",
		trace.WithAttributes(attribute.String("url.full", rawURL)))
	defer span.End()

	// Throttling counts against the fetch timeout.
	timeout := r.client.Timeout()
	fetchCtx, cancel := context.WithTimeout(spanCtx, timeout)
	defer cancel()

	waited, err := r.limiterFor(rawURL).Wait(fetchCtx)
	if err != nil {
		if ctx.Err() != nil {
			observability.FetchRequestsTotal.WithLabelValues("cancelled").Inc()
			span.SetStatus(codes.Error, "rate limit wait cancelled")
			return Response{}, false, fetchError(rawURL, "cancelled", err)
		}
		observability.FetchRequestsTotal.WithLabelValues("failure").Inc()
		span.SetStatus(codes.Error, "throttled past timeout")
		return Response{}, false, fetchError(rawURL, fmt.Sprintf("timeout after %s", timeout), nil)
	}
	if waited > time.Millisecond {
		span.SetAttributes(attribute.Int64("inlinelog.throttled_ms", waited.Milliseconds()))
		slog.Debug("fetch throttled", "url", rawURL, "waited", waited)
	}

	start := time.Now()
	resp, err := r.client.Get(fetchCtx, rawURL)
	observability.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.FetchRequestsTotal.WithLabelValues("failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.Message(err))
		slog.Debug("fetch failed", "url", rawURL, "error", err)
		return Response{}, false, err
	}

	observability.FetchRequestsTotal.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	r.cache.Put(resp)
	return resp, false, nil
}

// limiterFor returns the per-host limiter for rawURL.
func (r *Resolver) limiterFor(rawURL string) *util.Limiter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return r.limiters.Get(host)
}

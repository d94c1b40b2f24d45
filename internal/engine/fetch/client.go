// # internal/engine/fetch/client.go
package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inlinelog/internal/core/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	DefaultUserAgent    = "inlinelog-resolver/1.0"
	DefaultTimeout      = 3 * time.Second
	DefaultMaxBodyBytes = 1 << 20
)

// Response is a successfully fetched body.
type Response struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// IsJSON reports whether the declared content type is JSON.
func (r Response) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(r.ContentType, ";", 2)[0]))
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

type ClientConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// Client performs bounded GET requests. It never attaches cookies or
// credentials and refuses anything but http and https, redirects included.
type Client struct {
	http *http.Client
	cfg  ClientConfig
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			// Trace context is never injected into requests to third-party URLs.
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(otel.GetTracerProvider()),
				otelhttp.WithPropagators(propagation.NewCompositeTextMapPropagator()),
			),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after %d redirects", len(via))
				}
				return checkScheme(req.URL)
			},
		},
	}
}

// Timeout is the budget of one fetch, rate-limit wait included.
func (c *Client) Timeout() time.Duration { return c.cfg.Timeout }

// Get fetches rawURL within the configured timeout. Every failure is a
// FETCH_FAILURE DomainError carrying the url.
func (c *Client) Get(ctx context.Context, rawURL string) (Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Response{}, fetchError(rawURL, "invalid URL", err)
	}
	if err := checkScheme(u); err != nil {
		return Response{}, fetchError(rawURL, err.Error(), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Response{}, fetchError(rawURL, "build request", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, fetchError(rawURL, fmt.Sprintf("timeout after %s", c.cfg.Timeout), nil)
		}
		return Response{}, fetchError(rawURL, "request failed", unwrapURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Response{}, fetchError(rawURL, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}
	if resp.ContentLength > c.cfg.MaxBodyBytes {
		return Response{}, fetchError(rawURL, "response too large", nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, fetchError(rawURL, fmt.Sprintf("timeout after %s", c.cfg.Timeout), nil)
		}
		return Response{}, fetchError(rawURL, "read body", err)
	}
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		return Response{}, fetchError(rawURL, "response too large", nil)
	}

	return Response{
		URL:         rawURL,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now(),
	}, nil
}

func checkScheme(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	}
	return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if stderrors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func fetchError(rawURL, msg string, err error) error {
	return (&errors.DomainError{
		Code:    errors.CodeFetchFailure,
		Message: msg,
		Err:     err,
	}).WithContext(errors.CtxURL, rawURL).WithContext(errors.CtxOperation, "fetch")
}

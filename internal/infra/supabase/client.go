// Package supabase implements port.DocumentStore on Supabase (PostgREST).
// Documents live in one jsonb table keyed by (collection, id); merges and
// batches run inside Postgres functions so they are atomic.
package supabase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

var tracer = otel.Tracer("supabase")

const table = "documents"

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	bulkhead       *resilience.Bulkhead
	pollInterval   time.Duration
	logger         *zap.Logger
}

var _ port.DocumentStore = (*Client)(nil)

// NewClient creates a Supabase client. pollInterval drives Watch.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, pollInterval time.Duration, logger *zap.Logger) *Client {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		bulkhead:       resilience.NewBulkhead(cfg.MaxConcurrency),
		pollInterval:   pollInterval,
		logger:         logger,
	}
}

// read runs an idempotent request through the bulkhead, the breaker and
// the retry loop.
func (c *Client) read(ctx context.Context, fn func() error) error {
	return c.mapError(c.bulkhead.Do(ctx, func() error {
		_, err := c.cb.Execute(func() (any, error) {
			return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
		})
		return err
	}))
}

// write runs a request once: writes are not idempotent.
func (c *Client) write(ctx context.Context, fn func() error) error {
	return c.mapError(c.bulkhead.Do(ctx, func() error {
		_, err := c.cb.Execute(func() (any, error) {
			return nil, fn()
		})
		return err
	}))
}

func (c *Client) mapError(err error) error {
	if err == nil {
		return nil
	}
	err = resilience.Unwrap(err)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: "supabase"}
	case errors.Is(err, port.ErrNotFound), errors.Is(err, port.ErrDuplicate), errors.Is(err, port.ErrConflict):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: "supabase"}
	case errors.Is(err, context.Canceled):
		return err
	}
	return &domain.ErrExternalService{Service: "supabase", Err: err}
}

// Ping issues a cheap read against the documents table.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, _, err := c.doRequest(ctx, http.MethodGet, table+"?select=id&limit=1", nil, "")
	return c.mapError(err)
}

// Close releases idle connections.
func (c *Client) Close(context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

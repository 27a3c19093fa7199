// Package datastore is the collection-agnostic data access layer: typed
// CRUD, filtered listing, pagination, live subscriptions and atomic batch
// writes over a port.DocumentStore.
//
// Operations never retry. Failures are logged, counted and returned wrapped
// so callers can still match the storage sentinels with errors.Is.
package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

var tracer = otel.Tracer("datastore")

// Service runs typed operations against a document store.
type Service struct {
	store   port.DocumentStore
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used to stamp timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides document id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// New creates a data service over store.
func New(store port.DocumentStore, metrics *observability.Metrics, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the backend.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// NewID returns a fresh document id.
func (s *Service) NewID() string { return s.newID() }

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) timestamp() string {
	return domain.FormatTime(s.now())
}

// observe opens a span for op and returns the function that closes it,
// records metrics and logs the failure, if any.
func (s *Service) observe(ctx context.Context, op, collection, id string) (context.Context, func(error) error) {
	ctx, span := tracer.Start(ctx, "datastore."+op)
	span.SetAttributes(attribute.String("db.collection", collection))
	if id != "" {
		span.SetAttributes(attribute.String("db.document_id", id))
	}
	start := time.Now()

	return ctx, func(err error) error {
		defer span.End()
		s.metrics.ObserveStoreOp(collection, op, time.Since(start), err)
		if err == nil {
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("datastore operation failed",
			zap.String("op", op),
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err),
		)
		if id != "" {
			return fmt.Errorf("%s %s/%s: %w", op, collection, id, err)
		}
		return fmt.Errorf("%s %s: %w", op, collection, err)
	}
}

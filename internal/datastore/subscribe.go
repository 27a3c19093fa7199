package datastore

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// Unsubscribe stops a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Subscribe calls fn with the full result set right away and after every
// change to the collection. Deliveries are not ordered relative to writes
// made through the other operations.
func Subscribe[T any](ctx context.Context, s *Service, col Collection[T], opts ListOptions, fn func([]T)) (Unsubscribe, error) {
	q, err := opts.query()
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("collection", col.name))
	ctx, done := s.observe(ctx, "subscribe", col.name, "")
	stop, err := s.store.Watch(ctx, col.name, q, func(snaps []port.Snapshot) {
		items, err := decodeAll[T](snaps)
		if err != nil {
			logger.Warn("subscription delivery dropped", zap.Error(err))
			return
		}
		fn(items)
	})
	if err := done(err); err != nil {
		return nil, err
	}

	s.metrics.SubscriptionOpened()
	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			s.metrics.SubscriptionClosed()
		})
	}, nil
}

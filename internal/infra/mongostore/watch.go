package mongostore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// Watch re-runs q on every change event of the collection's change stream.
func (s *Store) Watch(ctx context.Context, collection string, q port.Query, fn func([]port.Snapshot)) (func(), error) {
	stream, err := s.col(collection).Watch(ctx, mongo.Pipeline{}, options.ChangeStream())
	if err != nil {
		return nil, wrapError(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	logger := s.logger.With(zap.String("collection", collection))

	deliver := func() {
		snaps, err := s.Query(ctx, collection, q)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("mongostore: watch query failed", zap.Error(err))
			}
			return
		}
		fn(snaps)
	}

	go func() {
		defer close(done)
		defer stream.Close(context.Background())

		deliver()
		for stream.Next(ctx) {
			// Drain events already buffered so a burst yields one delivery.
			for stream.RemainingBatchLength() > 0 && stream.Next(ctx) {
			}
			deliver()
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logger.Error("mongostore: change stream closed", zap.Error(err))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}, nil
}

package supabase

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// Watch polls q every pollInterval and calls fn when the result set changed.
// The first result is always delivered. Poll failures are logged and the
// previous result is kept.
func (c *Client) Watch(ctx context.Context, collection string, q port.Query, fn func([]port.Snapshot)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	logger := c.logger.With(zap.String("collection", collection))

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		var last [sha256.Size]byte
		first := true
		for {
			snaps, err := c.Query(ctx, collection, q)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				logger.Warn("supabase: watch poll failed", zap.Error(err))
			default:
				sum := fingerprint(snaps)
				if first || sum != last {
					first = false
					last = sum
					fn(snaps)
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}, nil
}

func fingerprint(snaps []port.Snapshot) [sha256.Size]byte {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, s := range snaps {
		_ = enc.Encode(s.ID)
		_ = enc.Encode(s.Data)
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

package memstore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

type watcher struct {
	changed    chan struct{}
	quit       chan struct{}
	done       chan struct{}
	once       sync.Once
	delivering atomic.Bool
}

// stop waits for the watcher goroutine to exit. While a delivery is running
// it returns at once, so a callback may stop its own watch.
func (w *watcher) stop() {
	w.once.Do(func() { close(w.quit) })
	if w.delivering.Load() {
		return
	}
	<-w.done
}

// Watch delivers the result set of q on its own goroutine. Bursts of
// changes are coalesced into one delivery. No delivery starts after the
// returned stop func returns.
func (s *Store) Watch(ctx context.Context, collection string, q port.Query, fn func([]port.Snapshot)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &watcher{
		changed: make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	w.changed <- struct{}{}

	s.mu.Lock()
	s.nextID++
	key := s.nextID
	if s.watchers[collection] == nil {
		s.watchers[collection] = make(map[int]*watcher)
	}
	s.watchers[collection][key] = w
	s.mu.Unlock()

	go func() {
		defer close(w.done)
		defer func() {
			s.mu.Lock()
			delete(s.watchers[collection], key)
			s.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.quit:
				return
			case <-w.changed:
				w.delivering.Store(true)
				select {
				case <-w.quit:
					w.delivering.Store(false)
					return
				default:
				}
				s.mu.RLock()
				snaps := run(s.cols[collection], q)
				s.mu.RUnlock()
				fn(snaps)
				w.delivering.Store(false)
			}
		}
	}()

	return w.stop, nil
}

func (s *Store) notify(collection string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.watchers[collection] {
		select {
		case w.changed <- struct{}{}:
		default:
		}
	}
}

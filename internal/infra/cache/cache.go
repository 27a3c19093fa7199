// Package cache holds the process-local product listing cache used when no
// Redis is configured. It satisfies port.Cache.
package cache

import (
	"context"
	"sync"
	"time"
)

type item[T any] struct {
	value   T
	expires time.Time
}

// InMemory is a mutex-guarded TTL map. Expired entries are invisible to Get
// and are swept once per TTL.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// Option tunes an InMemory cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New starts a cache whose entries live for ttl. Call Close to stop the sweeper.
// A non-positive ttl keeps nothing and starts no sweeper.
func New[T any](ttl time.Duration, opts ...Option) *InMemory[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	c := &InMemory[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
		now:   o.now,
		stop:  make(chan struct{}),
	}
	if ttl > 0 {
		go c.sweepLoop()
	}
	return c
}

func (c *InMemory[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(it.expires) {
		var zero T
		return zero, false
	}
	return it.value, true
}

func (c *InMemory[T]) Set(_ context.Context, key string, value T) {
	c.mu.Lock()
	c.items[key] = item[T]{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *InMemory[T]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len counts stored entries, expired ones included until the next sweep.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper. Safe to call more than once.
func (c *InMemory[T]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Sweep drops every expired entry and reports how many went.
func (c *InMemory[T]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, it := range c.items {
		if !now.Before(it.expires) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *InMemory[T]) sweepLoop() {
	t := time.NewTicker(c.ttl)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.Sweep()
		}
	}
}

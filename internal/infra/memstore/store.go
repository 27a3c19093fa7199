// Package memstore is an in-process port.DocumentStore. It is the test
// double for the data layer and the default backend for local runs.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// Store keeps every collection in memory behind one RWMutex.
type Store struct {
	mu       sync.RWMutex
	cols     map[string]map[string]port.Document
	watchers map[string]map[int]*watcher
	nextID   int
}

var _ port.DocumentStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		cols:     make(map[string]map[string]port.Document),
		watchers: make(map[string]map[int]*watcher),
	}
}

func (s *Store) collection(name string) map[string]port.Document {
	c, ok := s.cols[name]
	if !ok {
		c = make(map[string]port.Document)
		s.cols[name] = c
	}
	return c
}

func (s *Store) Insert(ctx context.Context, collection, id string, doc port.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	c := s.collection(collection)
	if _, exists := c[id]; exists {
		s.mu.Unlock()
		return port.ErrDuplicate
	}
	stored := clone(doc)
	stored[domain.FieldID] = id
	c[id] = stored
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (port.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.cols[collection][id]
	if !ok {
		return nil, nil
	}
	return clone(doc), nil
}

func (s *Store) Merge(ctx context.Context, collection, id string, fields port.Document, expectVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	merged, err := merge(s.cols[collection][id], fields, expectVersion)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.collection(collection)[id] = merged
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

// merge returns a new document with fields applied and the version bumped.
func merge(current, fields port.Document, expectVersion int) (port.Document, error) {
	if current == nil {
		return nil, port.ErrNotFound
	}
	version := toInt(current[domain.FieldVersion])
	if expectVersion > 0 && version != expectVersion {
		return nil, port.ErrConflict
	}
	next := clone(current)
	for k, v := range fields {
		next[k] = cloneValue(v)
	}
	next[domain.FieldVersion] = version + 1
	return next, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_, existed := s.cols[collection][id]
	delete(s.cols[collection], id)
	s.mu.Unlock()

	if existed {
		s.notify(collection)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q port.Query) ([]port.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return run(s.cols[collection], q), nil
}

func (s *Store) Count(ctx context.Context, collection string, where *port.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, doc := range s.cols[collection] {
		if matches(doc, where) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close stops every live watcher.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	var all []*watcher
	for _, ws := range s.watchers {
		for _, w := range ws {
			all = append(all, w)
		}
	}
	s.mu.Unlock()

	for _, w := range all {
		w.stop()
	}
	return nil
}

func matches(doc port.Document, where *port.Filter) bool {
	if where == nil {
		return true
	}
	v, ok := lookup(doc, where.Field)
	if !ok {
		return where.Value == nil
	}
	return equal(v, where.Value)
}

// run evaluates q over a collection. Caller holds the lock.
func run(docs map[string]port.Document, q port.Query) []port.Snapshot {
	snaps := make([]port.Snapshot, 0, len(docs))
	for id, doc := range docs {
		if matches(doc, q.Where) {
			snaps = append(snaps, port.Snapshot{ID: id, Data: doc})
		}
	}

	less := func(a, b port.Snapshot) int {
		if q.OrderBy != nil {
			va, _ := lookup(a.Data, q.OrderBy.Field)
			vb, _ := lookup(b.Data, q.OrderBy.Field)
			c := compare(va, vb)
			if q.OrderBy.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return compare(a.ID, b.ID)
	}
	sort.Slice(snaps, func(i, j int) bool { return less(snaps[i], snaps[j]) < 0 })

	if q.StartAfter != nil {
		cursor := *q.StartAfter
		idx := sort.Search(len(snaps), func(i int) bool { return less(snaps[i], cursor) > 0 })
		snaps = snaps[idx:]
	}
	if q.Limit > 0 && len(snaps) > q.Limit {
		snaps = snaps[:q.Limit]
	}

	out := make([]port.Snapshot, len(snaps))
	for i, snap := range snaps {
		out[i] = port.Snapshot{ID: snap.ID, Data: clone(snap.Data)}
	}
	return out
}

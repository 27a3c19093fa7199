package memstore

import (
	"context"
	"fmt"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// Commit validates and applies every mutation on a staged copy of the
// touched collections, then swaps them in under the write lock. A failing
// mutation leaves the store untouched.
func (s *Store) Commit(ctx context.Context, muts []port.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	staged := make(map[string]map[string]port.Document)
	stage := func(name string) map[string]port.Document {
		if c, ok := staged[name]; ok {
			return c
		}
		c := make(map[string]port.Document, len(s.cols[name]))
		for id, doc := range s.cols[name] {
			c[id] = doc
		}
		staged[name] = c
		return c
	}

	for i, m := range muts {
		c := stage(m.Collection)
		switch m.Kind {
		case port.MutationCreate:
			if _, exists := c[m.ID]; exists {
				s.mu.Unlock()
				return fmt.Errorf("mutation %d (%s %s/%s): %w", i, m.Kind, m.Collection, m.ID, port.ErrDuplicate)
			}
			doc := clone(m.Data)
			doc[domain.FieldID] = m.ID
			c[m.ID] = doc
		case port.MutationUpdate:
			merged, err := merge(c[m.ID], m.Data, m.ExpectVersion)
			if err != nil {
				s.mu.Unlock()
				return fmt.Errorf("mutation %d (%s %s/%s): %w", i, m.Kind, m.Collection, m.ID, err)
			}
			c[m.ID] = merged
		case port.MutationDelete:
			delete(c, m.ID)
		default:
			s.mu.Unlock()
			return fmt.Errorf("mutation %d: unknown kind %d", i, m.Kind)
		}
	}

	for name, c := range staged {
		s.cols[name] = c
	}
	s.mu.Unlock()

	for name := range staged {
		s.notify(name)
	}
	return nil
}

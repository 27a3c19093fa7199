package datastore

import (
	"context"
	"fmt"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// ListOptions is the query shape accepted by List, ListPaginated and
// Subscribe.
type ListOptions struct {
	Where   *port.Filter
	OrderBy *port.Order
	Limit   int
}

// Eq builds an equality clause.
func Eq(field string, value any) *port.Filter {
	return &port.Filter{Field: field, Value: value}
}

// Asc and Desc build an ordering.
func Asc(field string) *port.Order  { return &port.Order{Field: field} }
func Desc(field string) *port.Order { return &port.Order{Field: field, Desc: true} }

// Create stores rec and returns its id. A missing id is generated; the
// timestamps and version are stamped and written back into rec.
func Create[T any](ctx context.Context, s *Service, col Collection[T], rec *T) (string, error) {
	doc, err := encode(rec)
	if err != nil {
		return "", err
	}
	id, _ := doc[domain.FieldID].(string)
	if id == "" {
		id = s.newID()
	}
	stampCreate(doc, id, s.timestamp())

	ctx, done := s.observe(ctx, "create", col.name, id)
	if err := done(s.store.Insert(ctx, col.name, id, doc)); err != nil {
		return "", err
	}

	stored, err := decode[T](doc)
	if err != nil {
		return "", err
	}
	*rec = *stored
	return id, nil
}

// Read returns the record, or (nil, nil) when it does not exist.
func Read[T any](ctx context.Context, s *Service, col Collection[T], id string) (*T, error) {
	ctx, done := s.observe(ctx, "read", col.name, id)
	doc, err := s.store.Get(ctx, col.name, id)
	if err := done(err); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return decode[T](doc)
}

// Update merges the top-level fields into the stored record, refreshes
// updatedAt and bumps the version. Concurrent updates resolve last write wins.
func Update[T any](ctx context.Context, s *Service, col Collection[T], id string, fields map[string]any) error {
	return update(ctx, s, col, id, 0, fields)
}

// UpdateVersioned is Update conditioned on the stored version.
// It fails with port.ErrConflict when the record changed since it was read.
func UpdateVersioned[T any](ctx context.Context, s *Service, col Collection[T], id string, version int, fields map[string]any) error {
	if version < 1 {
		return &domain.ErrValidation{Field: "version", Message: "version must be positive"}
	}
	return update(ctx, s, col, id, version, fields)
}

func update[T any](ctx context.Context, s *Service, col Collection[T], id string, version int, fields map[string]any) error {
	doc, err := updateDocument(fields, s.timestamp())
	if err != nil {
		return err
	}
	ctx, done := s.observe(ctx, "update", col.name, id)
	return done(s.store.Merge(ctx, col.name, id, doc, version))
}

// Delete removes the record. Deleting an absent id succeeds.
func Delete[T any](ctx context.Context, s *Service, col Collection[T], id string) error {
	ctx, done := s.observe(ctx, "delete", col.name, id)
	return done(s.store.Delete(ctx, col.name, id))
}

// List materializes every record matching opts.
func List[T any](ctx context.Context, s *Service, col Collection[T], opts ListOptions) ([]T, error) {
	q, err := opts.query()
	if err != nil {
		return nil, err
	}
	ctx, done := s.observe(ctx, "list", col.name, "")
	snaps, err := s.store.Query(ctx, col.name, q)
	if err := done(err); err != nil {
		return nil, err
	}
	return decodeAll[T](snaps)
}

// Count returns the number of records matching where.
func Count[T any](ctx context.Context, s *Service, col Collection[T], where *port.Filter) (int, error) {
	w, err := normalizeFilter(where)
	if err != nil {
		return 0, err
	}
	ctx, done := s.observe(ctx, "count", col.name, "")
	n, err := s.store.Count(ctx, col.name, w)
	return n, done(err)
}

func (o ListOptions) query() (port.Query, error) {
	w, err := normalizeFilter(o.Where)
	if err != nil {
		return port.Query{}, err
	}
	return port.Query{Where: w, OrderBy: o.OrderBy, Limit: o.Limit}, nil
}

func normalizeFilter(f *port.Filter) (*port.Filter, error) {
	if f == nil {
		return nil, nil
	}
	v, err := normalizeValue(f.Value)
	if err != nil {
		return nil, err
	}
	return &port.Filter{Field: f.Field, Value: v}, nil
}

func decodeAll[T any](snaps []port.Snapshot) ([]T, error) {
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		rec, err := decode[T](snap.Data)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", snap.ID, err)
		}
		out = append(out, *rec)
	}
	return out, nil
}

func stampCreate(doc port.Document, id, now string) {
	doc[domain.FieldID] = id
	doc[domain.FieldCreatedAt] = now
	doc[domain.FieldUpdatedAt] = now
	doc[domain.FieldVersion] = 1
}

// updateDocument strips the fields owned by the data layer and stamps updatedAt.
func updateDocument(fields map[string]any, now string) (port.Document, error) {
	doc, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = port.Document{}
	}
	delete(doc, domain.FieldID)
	delete(doc, domain.FieldCreatedAt)
	delete(doc, domain.FieldVersion)
	doc[domain.FieldUpdatedAt] = now
	return doc, nil
}

package datastore

import (
	"context"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// Operation is one write of a batch, built with CreateOp, UpdateOp,
// UpdateVersionedOp or DeleteOp.
type Operation interface {
	mutation(s *Service, now string) (port.Mutation, error)
	committed() error
}

type createOp[T any] struct {
	col Collection[T]
	rec *T
	doc port.Document
}

// CreateOp stores rec. After a successful commit rec holds the stamped record.
func CreateOp[T any](col Collection[T], rec *T) Operation {
	return &createOp[T]{col: col, rec: rec}
}

func (o *createOp[T]) mutation(s *Service, now string) (port.Mutation, error) {
	doc, err := encode(o.rec)
	if err != nil {
		return port.Mutation{}, err
	}
	id, _ := doc[domain.FieldID].(string)
	if id == "" {
		id = s.newID()
	}
	stampCreate(doc, id, now)
	o.doc = doc
	return port.Mutation{Kind: port.MutationCreate, Collection: o.col.name, ID: id, Data: doc}, nil
}

func (o *createOp[T]) committed() error {
	stored, err := decode[T](o.doc)
	if err != nil {
		return err
	}
	*o.rec = *stored
	return nil
}

type updateOp[T any] struct {
	col     Collection[T]
	id      string
	version int
	fields  map[string]any
}

// UpdateOp merges fields into the record id.
func UpdateOp[T any](col Collection[T], id string, fields map[string]any) Operation {
	return &updateOp[T]{col: col, id: id, fields: fields}
}

// UpdateVersionedOp merges fields only if the stored version still matches.
func UpdateVersionedOp[T any](col Collection[T], id string, version int, fields map[string]any) Operation {
	return &updateOp[T]{col: col, id: id, version: version, fields: fields}
}

func (o *updateOp[T]) mutation(_ *Service, now string) (port.Mutation, error) {
	doc, err := updateDocument(o.fields, now)
	if err != nil {
		return port.Mutation{}, err
	}
	return port.Mutation{
		Kind:          port.MutationUpdate,
		Collection:    o.col.name,
		ID:            o.id,
		Data:          doc,
		ExpectVersion: o.version,
	}, nil
}

func (o *updateOp[T]) committed() error { return nil }

type deleteOp[T any] struct {
	col Collection[T]
	id  string
}

// DeleteOp removes the record id.
func DeleteOp[T any](col Collection[T], id string) Operation {
	return &deleteOp[T]{col: col, id: id}
}

func (o *deleteOp[T]) mutation(_ *Service, _ string) (port.Mutation, error) {
	return port.Mutation{Kind: port.MutationDelete, Collection: o.col.name, ID: o.id}, nil
}

func (o *deleteOp[T]) committed() error { return nil }

// BatchWrite applies ops atomically and returns the id each op touched.
// If any op fails nothing is written.
func (s *Service) BatchWrite(ctx context.Context, ops ...Operation) ([]string, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	now := s.timestamp()
	muts := make([]port.Mutation, 0, len(ops))
	ids := make([]string, 0, len(ops))
	for _, op := range ops {
		m, err := op.mutation(s, now)
		if err != nil {
			return nil, err
		}
		muts = append(muts, m)
		ids = append(ids, m.ID)
	}

	ctx, done := s.observe(ctx, "batch", "batch", "")
	if err := done(s.store.Commit(ctx, muts)); err != nil {
		return nil, err
	}

	for _, op := range ops {
		if err := op.committed(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

package datastore

import (
	"context"
	"math"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
)

// ListPaginated returns one page of records. The total comes from a count
// query. Page n > 1 re-reads the first (n-1)*pageSize records and uses the
// last one as the cursor, so the cost grows with the page number.
// opts.Limit is ignored.
func ListPaginated[T any](ctx context.Context, s *Service, col Collection[T], page, pageSize int, opts ListOptions) (*domain.Page[T], error) {
	if pageSize < 1 {
		return nil, &domain.ErrValidation{Field: "pageSize", Message: "pageSize must be at least 1"}
	}
	if page < 1 {
		page = 1
	}

	result := &domain.Page[T]{Data: []T{}, Page: page, PageSize: pageSize}

	q, err := opts.query()
	if err != nil {
		return nil, err
	}

	ctx, done := s.observe(ctx, "list_paginated", col.name, "")
	total, err := s.store.Count(ctx, col.name, q.Where)
	if err := done(err); err != nil {
		return nil, err
	}
	result.Total = total
	if total == 0 {
		return result, nil
	}
	result.TotalPages = (total + pageSize - 1) / pageSize
	result.HasMore = page < result.TotalPages

	if page-1 > (math.MaxInt-1)/pageSize {
		return result, nil
	}
	skip := (page - 1) * pageSize
	if skip >= total {
		return result, nil
	}

	ctx, done = s.observe(ctx, "list_paginated", col.name, "")
	if skip > 0 {
		prefix := q
		prefix.Limit = skip
		snaps, err := s.store.Query(ctx, col.name, prefix)
		if err != nil {
			return nil, done(err)
		}
		if len(snaps) < skip {
			return result, done(nil)
		}
		q.StartAfter = &snaps[len(snaps)-1]
	}
	q.Limit = pageSize
	snaps, err := s.store.Query(ctx, col.name, q)
	if err := done(err); err != nil {
		return nil, err
	}

	data, err := decodeAll[T](snaps)
	if err != nil {
		return nil, err
	}
	result.Data = data
	return result, nil
}

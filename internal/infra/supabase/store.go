package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// ============================================================
// Documents: CRUD via PostgREST
// ============================================================

// row maps the documents table.
type row struct {
	Collection string        `json:"collection,omitempty"`
	ID         string        `json:"id"`
	Data       port.Document `json:"data"`
}

func (c *Client) start(ctx context.Context, op, collection string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "Supabase."+op)
	span.SetAttributes(attribute.String("db.collection", collection))
	return ctx, span
}

func (c *Client) Insert(ctx context.Context, collection, id string, doc port.Document) error {
	ctx, span := c.start(ctx, "Insert", collection)
	defer span.End()

	data := withID(doc, id)
	return c.write(ctx, func() error {
		_, _, err := c.doRequest(ctx, http.MethodPost, table,
			row{Collection: collection, ID: id, Data: data}, "return=minimal")
		return err
	})
}

func (c *Client) Get(ctx context.Context, collection, id string) (port.Document, error) {
	ctx, span := c.start(ctx, "Get", collection)
	defer span.End()

	path := fmt.Sprintf("%s?select=id,data&collection=eq.%s&id=eq.%s&limit=1",
		table, quoteParam(collection), quoteParam(id))

	var rows []row
	err := c.read(ctx, func() error {
		body, _, err := c.doRequest(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}
		rows = nil
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("decode document: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return withID(rows[0].Data, rows[0].ID), nil
}

// Merge calls doc_merge, which locks the row, checks the version and
// applies data || fields in one statement.
func (c *Client) Merge(ctx context.Context, collection, id string, fields port.Document, expectVersion int) error {
	ctx, span := c.start(ctx, "Merge", collection)
	defer span.End()

	payload := map[string]any{
		"p_collection":     collection,
		"p_id":             id,
		"p_fields":         fields,
		"p_expect_version": expectVersion,
	}
	return c.write(ctx, func() error {
		_, _, err := c.doRequest(ctx, http.MethodPost, "rpc/doc_merge", payload, "")
		return err
	})
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	ctx, span := c.start(ctx, "Delete", collection)
	defer span.End()

	path := fmt.Sprintf("%s?collection=eq.%s&id=eq.%s", table, quoteParam(collection), quoteParam(id))
	return c.write(ctx, func() error {
		_, _, err := c.doRequest(ctx, http.MethodDelete, path, nil, "return=minimal")
		return err
	})
}

func (c *Client) Query(ctx context.Context, collection string, q port.Query) ([]port.Snapshot, error) {
	ctx, span := c.start(ctx, "Query", collection)
	defer span.End()

	path := table + "?" + buildQuery(collection, q, "id,data")

	var rows []row
	err := c.read(ctx, func() error {
		body, _, err := c.doRequest(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}
		rows = nil
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("decode documents: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snaps := make([]port.Snapshot, 0, len(rows))
	for _, r := range rows {
		snaps = append(snaps, port.Snapshot{ID: r.ID, Data: withID(r.Data, r.ID)})
	}
	return snaps, nil
}

// Count reads the total from the Content-Range header of an exact count.
func (c *Client) Count(ctx context.Context, collection string, where *port.Filter) (int, error) {
	ctx, span := c.start(ctx, "Count", collection)
	defer span.End()

	path := table + "?" + buildQuery(collection, port.Query{Where: where, Limit: 1}, "id")

	var total int
	err := c.read(ctx, func() error {
		_, header, err := c.doRequest(ctx, http.MethodGet, path, nil, "count=exact")
		if err != nil {
			return err
		}
		n, err := parseContentRange(header.Get("Content-Range"))
		if err != nil {
			return resilience.Permanent(err)
		}
		total = n
		return nil
	})
	return total, err
}

// Commit calls doc_commit, which applies every mutation in one transaction.
func (c *Client) Commit(ctx context.Context, muts []port.Mutation) error {
	ctx, span := tracer.Start(ctx, "Supabase.Commit")
	defer span.End()
	span.SetAttributes(attribute.Int("db.mutations", len(muts)))

	type mutation struct {
		Kind          string        `json:"kind"`
		Collection    string        `json:"collection"`
		ID            string        `json:"id"`
		Data          port.Document `json:"data,omitempty"`
		ExpectVersion int           `json:"expect_version"`
	}
	payload := make([]mutation, 0, len(muts))
	for _, m := range muts {
		data := m.Data
		if m.Kind == port.MutationCreate {
			data = withID(m.Data, m.ID)
		}
		payload = append(payload, mutation{
			Kind:          m.Kind.String(),
			Collection:    m.Collection,
			ID:            m.ID,
			Data:          data,
			ExpectVersion: m.ExpectVersion,
		})
	}

	return c.write(ctx, func() error {
		_, _, err := c.doRequest(ctx, http.MethodPost, "rpc/doc_commit",
			map[string]any{"p_mutations": payload}, "")
		return err
	})
}

func withID(doc port.Document, id string) port.Document {
	out := make(port.Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[domain.FieldID] = id
	return out
}

// parseContentRange reads "0-9/42" or "*/0".
func parseContentRange(v string) (int, error) {
	i := strings.LastIndex(v, "/")
	if i < 0 || i == len(v)-1 {
		return 0, fmt.Errorf("missing count in content-range %q", v)
	}
	n, err := strconv.Atoi(v[i+1:])
	if err != nil {
		return 0, fmt.Errorf("parse content-range %q: %w", v, err)
	}
	return n, nil
}

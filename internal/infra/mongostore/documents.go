package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// ============================================================
// Documents
// ============================================================

func (s *Store) Insert(ctx context.Context, collection, id string, doc port.Document) error {
	ctx, span := tracer.Start(ctx, "Mongo.Insert")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", collection))

	_, err := s.col(collection).InsertOne(ctx, toBSON(id, doc))
	return wrapError(err)
}

func (s *Store) Get(ctx context.Context, collection, id string) (port.Document, error) {
	ctx, span := tracer.Start(ctx, "Mongo.Get")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", collection))

	raw, err := s.col(collection).FindOne(ctx, bson.D{{Key: keyField, Value: id}}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapError(err)
	}
	snap, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}
	return snap.Data, nil
}

func (s *Store) Merge(ctx context.Context, collection, id string, fields port.Document, expectVersion int) error {
	ctx, span := tracer.Start(ctx, "Mongo.Merge")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", collection))

	return s.merge(ctx, s.col(collection), id, fields, expectVersion)
}

func (s *Store) merge(ctx context.Context, col *mongo.Collection, id string, fields port.Document, expectVersion int) error {
	filter := bson.D{{Key: keyField, Value: id}}
	if expectVersion > 0 {
		filter = append(filter, bson.E{Key: domain.FieldVersion, Value: expectVersion})
	}

	res, err := col.UpdateOne(ctx, filter, updateDoc(fields))
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if expectVersion == 0 {
		return port.ErrNotFound
	}

	// Tell a missing document apart from a stale version.
	n, err := col.CountDocuments(ctx, bson.D{{Key: keyField, Value: id}})
	if err != nil {
		return wrapError(err)
	}
	if n == 0 {
		return port.ErrNotFound
	}
	return port.ErrConflict
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	ctx, span := tracer.Start(ctx, "Mongo.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", collection))

	_, err := s.col(collection).DeleteOne(ctx, bson.D{{Key: keyField, Value: id}})
	return wrapError(err)
}

func (s *Store) Query(ctx context.Context, collection string, q port.Query) ([]port.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Mongo.Query")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", collection))

	filter := filterDoc(q.Where)
	if q.StartAfter != nil {
		filter = append(filter, bson.E{Key: "$or", Value: cursorFilter(q)})
	}

	opts := options.Find().SetSort(sortDoc(q.OrderBy))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.col(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	snaps := []port.Snapshot{}
	for cursor.Next(ctx) {
		snap, err := fromRaw(cursor.Current)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapError(err)
	}
	return snaps, nil
}

func (s *Store) Count(ctx context.Context, collection string, where *port.Filter) (int, error) {
	ctx, span := tracer.Start(ctx, "Mongo.Count")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", collection))

	n, err := s.col(collection).CountDocuments(ctx, filterDoc(where))
	if err != nil {
		return 0, wrapError(err)
	}
	return int(n), nil
}

// Commit applies all mutations inside one transaction.
func (s *Store) Commit(ctx context.Context, muts []port.Mutation) error {
	ctx, span := tracer.Start(ctx, "Mongo.Commit")
	defer span.End()
	span.SetAttributes(attribute.Int("db.mutations", len(muts)))

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongostore: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		for i, m := range muts {
			col := s.col(m.Collection)
			var err error
			switch m.Kind {
			case port.MutationCreate:
				_, err = col.InsertOne(ctx, toBSON(m.ID, m.Data))
				err = wrapError(err)
			case port.MutationUpdate:
				err = s.merge(ctx, col, m.ID, m.Data, m.ExpectVersion)
			case port.MutationDelete:
				_, err = col.DeleteOne(ctx, bson.D{{Key: keyField, Value: m.ID}})
				err = wrapError(err)
			default:
				err = fmt.Errorf("unknown kind %d", m.Kind)
			}
			if err != nil {
				return nil, fmt.Errorf("mutation %d (%s %s/%s): %w", i, m.Kind, m.Collection, m.ID, err)
			}
		}
		return nil, nil
	})
	return err
}

func sortDoc(order *port.Order) bson.D {
	if order == nil {
		return bson.D{{Key: keyField, Value: 1}}
	}
	dir := 1
	if order.Desc {
		dir = -1
	}
	return bson.D{{Key: field(order.Field), Value: dir}, {Key: keyField, Value: 1}}
}

// cursorFilter selects documents strictly after the cursor in (field, _id) order.
func cursorFilter(q port.Query) bson.A {
	cur := q.StartAfter
	afterID := bson.D{{Key: keyField, Value: bson.D{{Key: "$gt", Value: cur.ID}}}}
	if q.OrderBy == nil {
		return bson.A{afterID}
	}

	f := field(q.OrderBy.Field)
	value := cur.Data[q.OrderBy.Field]
	if q.OrderBy.Field == domain.FieldID {
		value = cur.ID
	}
	cmp := "$gt"
	if q.OrderBy.Desc {
		cmp = "$lt"
	}
	return bson.A{
		bson.D{{Key: f, Value: bson.D{{Key: cmp, Value: value}}}},
		bson.D{{Key: f, Value: value}, {Key: keyField, Value: bson.D{{Key: "$gt", Value: cur.ID}}}},
	}
}

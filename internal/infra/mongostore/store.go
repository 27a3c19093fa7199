// Package mongostore implements port.DocumentStore on MongoDB.
//
// The document key is stored as _id; every other field is stored as-is.
// Batches run in a multi-document transaction (replica set required) and
// Watch is backed by change streams.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

var tracer = otel.Tracer("mongostore")

// Store implements port.DocumentStore on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

var _ port.DocumentStore = (*Store)(nil)

// NewStore connects to uri and prepares dbName.
func NewStore(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName), logger: logger}

	if err := s.ensureIndexes(ctx); err != nil {
		logger.Warn("mongostore: ensure indexes failed", zap.Error(err))
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users
		{"users", bson.D{{Key: "email", Value: 1}}, true},
		{"users", bson.D{{Key: "status", Value: 1}}, false},

		// admins
		{"admins", bson.D{{Key: "email", Value: 1}}, true},

		// orders
		{"orders", bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}, false},
		{"orders", bson.D{{Key: "customerId", Value: 1}}, false},

		// inventory
		{"inventory", bson.D{{Key: "productId", Value: 1}}, false},
		{"inventory", bson.D{{Key: "status", Value: 1}}, false},

		// stock
		{"stockAlerts", bson.D{{Key: "read", Value: 1}, {Key: "createdAt", Value: -1}}, false},
		{"stockMovements", bson.D{{Key: "inventoryId", Value: 1}, {Key: "createdAt", Value: -1}}, false},
		{"stockMovements", bson.D{{Key: "productId", Value: 1}}, false},

		// reviews
		{"reviews", bson.D{{Key: "productId", Value: 1}}, false},
		{"comments", bson.D{{Key: "productId", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

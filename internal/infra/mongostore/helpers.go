package mongostore

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

const keyField = "_id"

// wrapError converts MongoDB errors into storage sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return port.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", port.ErrDuplicate, err)
	}
	return err
}

// field maps a document path to its stored name.
func field(path string) string {
	if path == domain.FieldID {
		return keyField
	}
	return path
}

// toBSON converts a document for storage, moving "id" to _id.
func toBSON(id string, doc port.Document) bson.M {
	out := bson.M{}
	for k, v := range doc {
		if k == domain.FieldID {
			continue
		}
		out[k] = v
	}
	out[keyField] = id
	return out
}

// fromRaw converts a stored document back into the JSON data model via
// relaxed extended JSON. Legacy BSON dates come back as {"$date": ...},
// which the timestamp decoder understands.
func fromRaw(raw bson.Raw) (port.Snapshot, error) {
	b, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return port.Snapshot{}, fmt.Errorf("mongostore: convert document: %w", err)
	}
	var doc port.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return port.Snapshot{}, fmt.Errorf("mongostore: convert document: %w", err)
	}
	id := fmt.Sprint(doc[keyField])
	delete(doc, keyField)
	doc[domain.FieldID] = id
	return port.Snapshot{ID: id, Data: doc}, nil
}

func filterDoc(where *port.Filter) bson.D {
	if where == nil {
		return bson.D{}
	}
	return bson.D{{Key: field(where.Field), Value: where.Value}}
}

// updateDoc builds $set of the fields plus the version increment.
func updateDoc(fields port.Document) bson.D {
	set := bson.D{}
	for k, v := range fields {
		if k == domain.FieldID || k == domain.FieldVersion {
			continue
		}
		set = append(set, bson.E{Key: k, Value: v})
	}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: domain.FieldVersion, Value: 1}}}}
	if len(set) > 0 {
		update = append(bson.D{{Key: "$set", Value: set}}, update...)
	}
	return update
}

package datastore

import (
	"encoding/json"
	"fmt"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// encode converts a record into its stored document form.
func encode[T any](rec *T) (port.Document, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc port.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return doc, nil
}

// decode converts a stored document into a record.
func decode[T any](doc port.Document) (*T, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	var rec T
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &rec, nil
}

// normalizeFields turns update fields holding domain values (enums, slices
// of structs, timestamps) into the plain JSON data model.
func normalizeFields(fields map[string]any) (port.Document, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var doc port.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return doc, nil
}

func normalizeValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return out, nil
}

// Package docstore is the boundary to the document database holding products,
// sales and hire-purchase agreements. Documents are JSON objects grouped into
// named collections and addressed by string id.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Fields is the decoded JSON body of a document
type Fields map[string]any

// Document is a stored document with its metadata
type Document struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode unmarshals the document fields into v
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// Encode converts a JSON-tagged struct into Fields
func Encode(v any) (Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("fields must encode to a JSON object: %w", err)
	}
	return f, nil
}

// Snapshot is the result of a query at a point in time
type Snapshot struct {
	Collection string
	Documents  []Document
	ReadAt     time.Time
}

// Len returns the number of documents in the snapshot
func (s Snapshot) Len() int {
	return len(s.Documents)
}

// Subscription is a live query registration
type Subscription interface {
	// Close stops delivery. It must not be called from inside the callback.
	Close()
}

// Store is the document database boundary
type Store interface {
	// Create stores a new document. If fields carries a non-empty "id" string it is used,
	// otherwise an id is generated. Returns the document id.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// Update merges partial into the top-level fields of an existing document.
	// A nested object replaces the stored value whole and a nil value is stored as null.
	Update(ctx context.Context, collection, id string, partial Fields) error
	Delete(ctx context.Context, collection, id string) error
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, collection string, q Query) (Snapshot, error)
	Count(ctx context.Context, collection string, filters ...Filter) (int64, error)
	// Subscribe delivers the query result now and again after every change to the collection
	Subscribe(ctx context.Context, collection string, q Query, fn func(Snapshot)) (Subscription, error)
}

// IDField is the field that mirrors the document id inside its body
const IDField = "id"

func documentID(fields Fields) string {
	if id, ok := fields[IDField].(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

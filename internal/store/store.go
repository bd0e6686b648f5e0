package store

import (
	"context"
	"time"
)

// StoredRecord is a KIF record as persisted: the decoded text plus a few
// header fields for listings. The parsed tree is always rebuilt from Text.
type StoredRecord struct {
	ID        string            `json:"id" bson:"_id"`
	Name      string            `json:"name" bson:"name"`
	Text      string            `json:"text" bson:"text"`
	Header    map[string]string `json:"header" bson:"header"`
	Moves     int               `json:"moves" bson:"moves"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
}

// Store persists records. Get returns errors.ErrRecordNotFound for unknown IDs.
type Store interface {
	Put(ctx context.Context, rec StoredRecord) error
	Get(ctx context.Context, id string) (StoredRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]StoredRecord, error)
	Close(ctx context.Context) error
}

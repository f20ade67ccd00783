// Package storage persists the dashboard collections as JSON documents in a
// key-value store.
package storage

import "context"

// KeyValueStore is the persistence port: string keys holding JSON documents.
type KeyValueStore interface {
	// Load returns the stored value and whether the key exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}

// Package kv defines a small key-value storage abstraction used to persist
// session state. Writes and deletes are applied to all of their keys at once
// so that readers never observe a partial update.
package kv

import "context"

// Store is a persistent string-to-string mapping.
type Store interface {
	// Get returns the values of those of the specified keys that are present.
	// Absent keys are omitted from the result; absence is not an error.
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	// PutAll atomically writes every key-value pair in values.
	PutAll(ctx context.Context, values map[string]string) error
	// DeleteAll atomically removes every specified key. Removing an absent key
	// is not an error.
	DeleteAll(ctx context.Context, keys ...string) error
}

// Package kv defines the external key-value collaborator used for durable
// state. The journal persists under exactly one key; the display theme
// preference uses a second one.
package kv

import "context"

// Store is a string-keyed blob store with synchronous get/set semantics.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent; err reports transport failures only.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

package ports

import "context"

// Port: key-value byte storage that survives restarts.
// Values are opaque strings; callers own the serialization.
type KVStore interface {
	// Return the value stored under key; ok is false when the key is absent.
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	// Store value under key, replacing any previous value.
	Save(ctx context.Context, key string, value string) error
	// Delete key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

package storage

import "context"

// Store is the narrow key-value surface the draft and queue services
// persist through. Implementations must treat a missing key as absence, not
// an error, so callers can degrade to empty semantics.
type Store interface {
	// Get returns the value for key and whether it existed.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every key carrying the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Exists reports whether key is present without reading its value.
	Exists(ctx context.Context, key string) (bool, error)
}

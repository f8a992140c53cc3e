package cache

import (
	"context"
	"time"
)

// Entry is a single cached value together with its write-time metadata.
// StoredAt is set on every write: the janitor ranks entries by it, so an
// entry without a timestamp would sort indeterminately.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	StoredAt  time.Time `json:"storedAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"` // zero means no expiry
}

// Store is the key-value collaborator shared by the proxies, the token
// manager and the admin document store. Writing an existing key overwrites
// the prior value and resets StoredAt.
type Store interface {
	// Get retrieves an entry. Returns the entry, whether it was found, and
	// any error. An expired entry is reported as not found.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires on
	// its own (bounding the namespace is then the janitor's job).
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes an entry. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all live entries whose key starts with prefix, in no
	// particular order.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// Close releases any resources held by the store.
	Close() error
}

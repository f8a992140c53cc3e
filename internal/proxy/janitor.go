package proxy

import (
	"context"
	"sort"

	"github.com/discolens/discolens-bridge/internal/cache"
	"github.com/rs/zerolog/log"
)

// Janitor bounds the number of entries in a key namespace by deleting the
// oldest entries when the bound is reached. It is a synchronous pre-write
// check, not a background sweep: the proxy runs it immediately before
// inserting a new entry so that at most MaxEntries-1 remain, making room
// for exactly one.
//
// Listing and sorting the whole namespace is acceptable only because
// observed bounds are small (around 10-12 entries). Larger namespaces
// would need a separate sorted index.
type Janitor struct {
	Store      cache.Store
	Prefix     string
	MaxEntries int
}

// MakeRoom deletes the oldest entries (ranked by StoredAt) until the
// namespace holds fewer than MaxEntries entries.
func (j Janitor) MakeRoom(ctx context.Context) error {
	entries, err := j.Store.List(ctx, j.Prefix)
	if err != nil {
		return &StoreError{Op: "list", Err: err}
	}

	if len(entries) < j.MaxEntries {
		return nil
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].StoredAt.Before(entries[b].StoredAt)
	})

	excess := len(entries) - j.MaxEntries + 1
	for _, entry := range entries[:excess] {
		if err := j.Store.Delete(ctx, entry.Key); err != nil {
			return &StoreError{Op: "delete", Err: err}
		}
		log.Ctx(ctx).Debug().
			Str("key", entry.Key).
			Time("storedAt", entry.StoredAt).
			Msg("evicted oldest entry from bounded namespace")
	}

	return nil
}

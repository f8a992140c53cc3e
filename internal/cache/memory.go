package cache

import (
	"context"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// Memory is an in-memory store implementation using otter. It is intended
// for development and tests; entries do not survive a restart.
//
// Expiry is checked lazily on read rather than delegated to otter, because
// each entry carries its own TTL (or none at all).
type Memory struct {
	cache   *otter.Cache[string, Entry]
	counter *stats.Counter
	now     func() time.Time
}

// NewMemory creates a new in-memory store holding at most maxSize entries.
func NewMemory(maxSize int) (*Memory, error) {
	counter := stats.NewCounter()
	cache := otter.Must(&otter.Options[string, Entry]{
		MaximumSize:   maxSize,
		StatsRecorder: counter,
	})

	return &Memory{
		cache:   cache,
		counter: counter,
		now:     time.Now,
	}, nil
}

// Get retrieves an entry, treating an expired entry as absent.
func (m *Memory) Get(ctx context.Context, key string) (Entry, bool, error) {
	entry, ok := m.cache.GetIfPresent(key)
	if !ok {
		return Entry{}, false, nil
	}

	if m.expired(entry) {
		m.cache.Invalidate(key)
		return Entry{}, false, nil
	}

	return entry, true, nil
}

// Set stores a value, stamping StoredAt with the current time.
func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := m.now()

	entry := Entry{
		Key:      key,
		Value:    value,
		StoredAt: now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	m.cache.Set(key, entry)
	return nil
}

// Delete removes an entry.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.cache.Invalidate(key)
	return nil
}

// List returns all live entries under the given key prefix.
func (m *Memory) List(ctx context.Context, prefix string) ([]Entry, error) {
	entries := []Entry{}
	for key, entry := range m.cache.All() {
		if !strings.HasPrefix(key, prefix) || m.expired(entry) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close releases resources. The otter cache needs no explicit teardown.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) expired(entry Entry) bool {
	return !entry.ExpiresAt.IsZero() && !m.now().Before(entry.ExpiresAt)
}

package proxy

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/discolens/discolens-bridge/internal/cache"
)

// fakeStore is an in-memory cache.Store with controllable time and
// injectable failures, small enough to assert exact interaction counts.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
	now     time.Time

	getErr    error
	setErr    error
	deleteErr error
	listErr   error

	setCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: map[string]cache.Entry{},
		now:     time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return cache.Entry{}, false, s.getErr
	}

	entry, ok := s.entries[key]
	return entry, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setErr != nil {
		return s.setErr
	}

	s.setCalls++
	entry := cache.Entry{
		Key:      key,
		Value:    value,
		StoredAt: s.now,
	}
	if ttl > 0 {
		entry.ExpiresAt = s.now.Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}

	delete(s.entries, key)
	return nil
}

func (s *fakeStore) List(ctx context.Context, prefix string) ([]cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}

	entries := []cache.Entry{}
	for key, entry := range s.entries {
		if strings.HasPrefix(key, prefix) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *fakeStore) Close() error {
	return nil
}

// seed writes an entry directly, bypassing Set bookkeeping.
func (s *fakeStore) seed(key, value string, storedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = cache.Entry{
		Key:      key,
		Value:    value,
		StoredAt: storedAt,
	}
}

func (s *fakeStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := []string{}
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

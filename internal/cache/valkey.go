package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// scanPageSize is the COUNT hint used when listing a namespace. Bounded
// namespaces in this system hold tens of entries at most, so a single page
// is the common case.
const scanPageSize = 100

// envelope is the stored representation of an entry. The value is wrapped
// so that StoredAt survives the round-trip: Valkey itself keeps no
// queryable write timestamp, and the janitor needs one.
type envelope struct {
	Value    string    `json:"value"`
	StoredAt time.Time `json:"storedAt"`
}

// Valkey is the durable store implementation. Per-entry TTLs are delegated
// to the server (SET ... EX); entries written without a TTL live until the
// janitor or an overwrite removes them.
type Valkey struct {
	client valkey.Client
	now    func() time.Time
}

// NewValkey creates a Valkey-backed store using the supplied client.
func NewValkey(client valkey.Client) (*Valkey, error) {
	return &Valkey{
		client: client,
		now:    time.Now,
	}, nil
}

// Get retrieves an entry. A missing key is not an error.
func (v *Valkey) Get(ctx context.Context, key string) (Entry, bool, error) {
	resp := v.client.Do(ctx, v.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to get cached value: %w", err)
	}

	val, err := resp.ToString()
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to convert cached value to string: %w", err)
	}

	return v.decode(key, val)
}

// Set stores a value, stamping StoredAt with the current time. The TTL is
// applied server-side so expiry needs no cooperation from readers.
func (v *Valkey) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	data, err := json.Marshal(envelope{
		Value:    value,
		StoredAt: v.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	var cmd valkey.Completed
	if ttl > 0 {
		cmd = v.client.B().Set().Key(key).Value(string(data)).ExSeconds(int64(ttl.Seconds())).Build()
	} else {
		cmd = v.client.B().Set().Key(key).Value(string(data)).Build()
	}

	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set cached value: %w", err)
	}
	return nil
}

// Delete removes an entry. Deleting an absent key succeeds.
func (v *Valkey) Delete(ctx context.Context, key string) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete cached value: %w", err)
	}
	return nil
}

// List scans the namespace for keys under prefix and fetches each entry.
// Keys deleted between the scan and the fetch are skipped.
func (v *Valkey) List(ctx context.Context, prefix string) ([]Entry, error) {
	entries := []Entry{}

	var cursor uint64
	for {
		resp := v.client.Do(ctx, v.client.B().Scan().Cursor(cursor).Match(prefix+"*").Count(scanPageSize).Build())
		scan, err := resp.AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to scan namespace %q: %w", prefix, err)
		}

		for _, key := range scan.Elements {
			entry, found, err := v.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				entries = append(entries, entry)
			}
		}

		cursor = scan.Cursor
		if cursor == 0 {
			break
		}
	}

	return entries, nil
}

// Close releases the underlying client connection.
func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}

func (v *Valkey) decode(key, val string) (Entry, bool, error) {
	var env envelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return Entry{}, false, fmt.Errorf("failed to unmarshal cache entry for key %q: %w", key, err)
	}

	return Entry{
		Key:      key,
		Value:    env.Value,
		StoredAt: env.StoredAt,
	}, true, nil
}

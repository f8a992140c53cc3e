package proxy

import (
	"context"
	"time"

	"github.com/discolens/discolens-bridge/internal/cache"
	"github.com/rs/zerolog/log"
)

// KeyFunc derives the cache key (without namespace prefix) for a set of
// validated parameters.
type KeyFunc func(Params) string

// Fetch retrieves and transforms the upstream value on a cache miss. It
// returns the storable value, or an *UpstreamError / *TokenRefreshError on
// failure.
type Fetch func(ctx context.Context, params Params) (string, error)

// Proxy resolves a request to a cached or freshly-fetched value. The cache
// is consulted first; a hit short-circuits every upstream interaction,
// including token refresh. The cache is non-locking: two concurrent misses
// for the same key will both call the upstream and both write, with the
// last writer winning. Given the traffic shape, the duplicate upstream
// calls are worth the gains made skipping locking.
type Proxy struct {
	store      cache.Store
	prefix     string
	key        KeyFunc
	fetch      Fetch
	ttl        time.Duration
	maxEntries int
}

// Option configures optional proxy behaviour.
type Option func(*Proxy)

// WithTTL sets the expiry applied to entries written by this proxy. The
// zero default means entries never expire on their own.
func WithTTL(ttl time.Duration) Option {
	return func(p *Proxy) {
		p.ttl = ttl
	}
}

// WithMaxEntries bounds the proxy's namespace to n entries, evicting the
// oldest before each write once the bound is reached. Used for namespaces
// without a TTL that must not grow without limit.
func WithMaxEntries(n int) Option {
	return func(p *Proxy) {
		p.maxEntries = n
	}
}

// New creates a cache-aside proxy writing keys under the given namespace
// prefix.
func New(store cache.Store, prefix string, key KeyFunc, fetch Fetch, opts ...Option) *Proxy {
	p := &Proxy{
		store:  store,
		prefix: prefix,
		key:    key,
		fetch:  fetch,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Resolve returns the cached value for the derived key, or fetches,
// stores and returns a fresh one. Exactly one upstream call and one store
// write occur per miss; none occur on a hit. The write is awaited before
// returning, so a sequential follow-up request never sees a phantom miss.
func (p *Proxy) Resolve(ctx context.Context, params Params) (string, error) {
	key := p.prefix + p.key(params)

	entry, found, err := p.store.Get(ctx, key)
	if err != nil {
		return "", &StoreError{Op: "get", Err: err}
	}

	if found {
		log.Ctx(ctx).Debug().Str("key", key).Msg("cache hit")
		return entry.Value, nil
	}

	value, err := p.fetch(ctx, params)
	if err != nil {
		return "", err
	}

	if p.maxEntries > 0 {
		janitor := Janitor{Store: p.store, Prefix: p.prefix, MaxEntries: p.maxEntries}
		if err := janitor.MakeRoom(ctx); err != nil {
			return "", err
		}
	}

	if err := p.store.Set(ctx, key, value, p.ttl); err != nil {
		return "", &StoreError{Op: "set", Err: err}
	}

	log.Ctx(ctx).Debug().Str("key", key).Msg("cache miss populated")
	return value, nil
}

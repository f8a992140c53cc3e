package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/discolens/discolens-bridge/internal/cache"
	"github.com/discolens/discolens-bridge/internal/config"
	"github.com/discolens/discolens-bridge/internal/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, accountsURL string) (*Manager, cache.Store) {
	t.Helper()

	store, err := cache.NewMemory(100)
	require.NoError(t, err)

	cfg := config.SpotifyConfig{
		AccountsURL:  accountsURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-credential",
	}

	return NewManager(store, cfg, nil), store
}

func grantServer(t *testing.T, calls *int, accessToken string, expiresIn int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-credential", r.PostForm.Get("refresh_token"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"expires_in":%d}`, accessToken, expiresIn)
	}))
}

func seedToken(t *testing.T, store cache.Store, tok Token) {
	t.Helper()

	data, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), storeKey, string(data), 0))
}

func TestToken_ValidCachedTokenSkipsRefresh(t *testing.T) {
	calls := 0
	provider := grantServer(t, &calls, "fresh-token", 3600)
	defer provider.Close()

	m, store := newTestManager(t, provider.URL)
	seedToken(t, store, Token{
		AccessToken: "cached-token",
		ExpiresAt:   time.Now().UnixMilli() + 1_000_000,
	})

	// two sequential uses of the manager: neither refreshes
	for range 2 {
		bearer, err := m.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cached-token", bearer)
	}

	assert.Equal(t, 0, calls)
}

func TestToken_ExpiredTokenRefreshes(t *testing.T) {
	calls := 0
	provider := grantServer(t, &calls, "fresh-token", 3600)
	defer provider.Close()

	m, store := newTestManager(t, provider.URL)
	seedToken(t, store, Token{
		AccessToken: "stale-token",
		ExpiresAt:   time.Now().UnixMilli() - 1,
	})

	before := time.Now().UnixMilli()

	bearer, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", bearer)
	assert.Equal(t, 1, calls)

	// the refreshed token is persisted with a future expiry
	entry, found, err := store.Get(context.Background(), storeKey)
	require.NoError(t, err)
	require.True(t, found)

	var persisted Token
	require.NoError(t, json.Unmarshal([]byte(entry.Value), &persisted))
	assert.Equal(t, "fresh-token", persisted.AccessToken)
	assert.GreaterOrEqual(t, persisted.ExpiresAt, before+3600*1000)
}

func TestToken_AbsentTokenRefreshes(t *testing.T) {
	calls := 0
	provider := grantServer(t, &calls, "fresh-token", 3600)
	defer provider.Close()

	m, _ := newTestManager(t, provider.URL)

	bearer, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", bearer)
	assert.Equal(t, 1, calls)
}

func TestToken_RefreshFailureIsNotCached(t *testing.T) {
	calls := 0
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad refresh token", http.StatusUnauthorized)
	}))
	defer provider.Close()

	m, _ := newTestManager(t, provider.URL)

	_, err := m.Token(context.Background())
	var refreshErr *proxy.TokenRefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.ErrorContains(t, err, "401")

	// the failure is not cached: the next request retries from scratch
	_, err = m.Token(context.Background())
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, 2, calls)
}

func TestToken_GrantWithoutAccessTokenFails(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"expires_in":3600}`)
	}))
	defer provider.Close()

	m, _ := newTestManager(t, provider.URL)

	_, err := m.Token(context.Background())
	var refreshErr *proxy.TokenRefreshError
	require.ErrorAs(t, err, &refreshErr)
}

func TestTokenValid(t *testing.T) {
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, Token{AccessToken: "t", ExpiresAt: now.UnixMilli() + 1}.Valid(now))
	assert.False(t, Token{AccessToken: "t", ExpiresAt: now.UnixMilli()}.Valid(now))
	assert.False(t, Token{AccessToken: "t", ExpiresAt: now.UnixMilli() - 1}.Valid(now))
	assert.False(t, Token{ExpiresAt: now.UnixMilli() + 1}.Valid(now))
}

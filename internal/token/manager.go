// Package token manages the Spotify bearer credential used by upstream
// calls that require OAuth. A single token is held per service; refresh
// overwrites the previous value.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/discolens/discolens-bridge/internal/cache"
	"github.com/discolens/discolens-bridge/internal/config"
	"github.com/discolens/discolens-bridge/internal/proxy"
	"github.com/rs/zerolog/log"
)

// storeKey is the single store location for the Spotify token.
const storeKey = "spotify:token"

// defaultAccountsURL is the OAuth provider's token endpoint.
const defaultAccountsURL = "https://accounts.spotify.com/api/token"

// Token is a cached OAuth bearer token with an absolute expiry instant.
type Token struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"` // epoch millis
}

// Valid reports whether the token can still be presented upstream. A token
// with ExpiresAt at or before now is invalid and must be refreshed.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && t.ExpiresAt > now.UnixMilli()
}

// Manager obtains and caches the bearer token, refreshing synchronously
// when it is expired or absent. Two concurrent callers may both decide a
// refresh is needed and both call the provider; the last write wins. This
// is tolerated rather than serialized.
type Manager struct {
	store  cache.Store
	cfg    config.SpotifyConfig
	client *http.Client
	now    func() time.Time
}

// NewManager creates a token manager persisting through the given store.
// A nil httpClient defaults to http.DefaultClient.
func NewManager(store cache.Store, cfg config.SpotifyConfig, httpClient *http.Client) *Manager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Manager{
		store:  store,
		cfg:    cfg,
		client: httpClient,
		now:    time.Now,
	}
}

// Token returns a valid bearer token, refreshing it first if required.
// A cached valid token is returned without any network call.
func (m *Manager) Token(ctx context.Context) (string, error) {
	entry, found, err := m.store.Get(ctx, storeKey)
	if err != nil {
		return "", &proxy.StoreError{Op: "get", Err: err}
	}

	if found {
		var cached Token
		if err := json.Unmarshal([]byte(entry.Value), &cached); err == nil && cached.Valid(m.now()) {
			return cached.AccessToken, nil
		}
		// expired or unreadable: fall through to refresh
	}

	return m.refresh(ctx)
}

// refresh performs the refresh-token grant against the OAuth provider and
// persists the new token. Refresh failures are not cached: the next
// request retries from scratch.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", m.cfg.RefreshToken)

	endpoint := m.cfg.AccountsURL
	if endpoint == "" {
		endpoint = defaultAccountsURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &proxy.TokenRefreshError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.cfg.ClientID, m.cfg.ClientSecret)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", &proxy.TokenRefreshError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &proxy.TokenRefreshError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &proxy.TokenRefreshError{
			Err: fmt.Errorf("provider responded %d: %s", resp.StatusCode, string(body)),
		}
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", &proxy.TokenRefreshError{Err: fmt.Errorf("unreadable grant response: %w", err)}
	}
	if grant.AccessToken == "" {
		return "", &proxy.TokenRefreshError{Err: fmt.Errorf("grant response contained no access token")}
	}

	fresh := Token{
		AccessToken: grant.AccessToken,
		ExpiresAt:   m.now().UnixMilli() + grant.ExpiresIn*1000,
	}

	data, err := json.Marshal(fresh)
	if err != nil {
		return "", &proxy.TokenRefreshError{Err: err}
	}

	if err := m.store.Set(ctx, storeKey, string(data), 0); err != nil {
		return "", &proxy.StoreError{Op: "set", Err: err}
	}

	log.Ctx(ctx).Info().
		Int64("expiresAt", fresh.ExpiresAt).
		Msg("access token refreshed")

	return fresh.AccessToken, nil
}

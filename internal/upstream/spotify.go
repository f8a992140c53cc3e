package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/discolens/discolens-bridge/internal/config"
)

const defaultSpotifyURL = "https://api.spotify.com"

// entityKinds are the Spotify entity types the detail route understands.
var entityKinds = []string{"track", "album", "artist"}

// Spotify proxies entity detail lookups. Calls require a managed bearer
// token, supplied per call by the token manager.
type Spotify struct {
	apiURL string
	client *http.Client
}

// NewSpotify creates a Spotify Web API adapter. A nil httpClient defaults
// to http.DefaultClient.
func NewSpotify(cfg config.SpotifyConfig, httpClient *http.Client) *Spotify {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultSpotifyURL
	}

	return &Spotify{
		apiURL: apiURL,
		client: orDefault(httpClient),
	}
}

// ValidEntityKind reports whether kind names a supported entity type.
func ValidEntityKind(kind string) bool {
	return slices.Contains(entityKinds, kind)
}

// Entity returns the raw detail response for one entity. The kind must be
// one of "track", "album" or "artist".
func (s *Spotify) Entity(ctx context.Context, bearer, kind, id string) (string, error) {
	if !ValidEntityKind(kind) {
		return "", fmt.Errorf("unsupported entity kind: %s", kind)
	}

	endpoint := fmt.Sprintf("%s/v1/%ss/%s", s.apiURL, kind, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	return do(s.client, req)
}

package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/discolens/discolens-bridge/internal/config"
)

const defaultLastfmURL = "https://ws.audioscrobbler.com/2.0/"

// Lastfm proxies artist and album metadata lookups. Responses are passed
// through verbatim: the frontend consumes Last.fm's JSON shape directly.
type Lastfm struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewLastfm creates a Last.fm adapter. A nil httpClient defaults to
// http.DefaultClient.
func NewLastfm(cfg config.LastfmConfig, httpClient *http.Client) *Lastfm {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultLastfmURL
	}

	return &Lastfm{
		apiURL: apiURL,
		apiKey: cfg.APIKey,
		client: orDefault(httpClient),
	}
}

// ArtistInfo returns the raw artist.getinfo response body.
func (l *Lastfm) ArtistInfo(ctx context.Context, artist string) (string, error) {
	return l.call(ctx, url.Values{
		"method": {"artist.getinfo"},
		"artist": {artist},
	})
}

// AlbumInfo returns the raw album.getinfo response body.
func (l *Lastfm) AlbumInfo(ctx context.Context, artist, album string) (string, error) {
	return l.call(ctx, url.Values{
		"method": {"album.getinfo"},
		"artist": {artist},
		"album":  {album},
	})
}

func (l *Lastfm) call(ctx context.Context, params url.Values) (string, error) {
	params.Set("api_key", l.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	return do(l.client, req)
}

package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/discolens/discolens-bridge/internal/config"
)

const defaultDiscogsURL = "https://api.discogs.com"

// Discogs proxies release searches, passing the result JSON through
// verbatim.
type Discogs struct {
	apiURL string
	token  string
	client *http.Client
}

// NewDiscogs creates a Discogs adapter. A nil httpClient defaults to
// http.DefaultClient.
func NewDiscogs(cfg config.DiscogsConfig, httpClient *http.Client) *Discogs {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultDiscogsURL
	}

	return &Discogs{
		apiURL: apiURL,
		token:  cfg.Token,
		client: orDefault(httpClient),
	}
}

// SearchRelease returns the raw database search response for an
// artist/album pair.
func (d *Discogs) SearchRelease(ctx context.Context, artist, album string) (string, error) {
	params := url.Values{
		"artist":        {artist},
		"release_title": {album},
		"type":          {"release"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiURL+"/database/search?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Discogs token="+d.token)

	return do(d.client, req)
}

package upstream

import (
	"context"
	"net/http"
	"net/url"
)

const defaultSongLinkURL = "https://api.song.link"

// SongLink resolves a Spotify track or album URL to its cross-platform
// equivalents. The response JSON is passed through verbatim.
type SongLink struct {
	apiURL string
	client *http.Client
}

// NewSongLink creates a SongLink adapter. An empty apiURL selects the
// public endpoint; a nil httpClient defaults to http.DefaultClient.
func NewSongLink(apiURL string, httpClient *http.Client) *SongLink {
	if apiURL == "" {
		apiURL = defaultSongLinkURL
	}

	return &SongLink{
		apiURL: apiURL,
		client: orDefault(httpClient),
	}
}

// Resolve returns the raw link-resolution response for the given URL.
func (s *SongLink) Resolve(ctx context.Context, trackURL string) (string, error) {
	params := url.Values{"url": {trackURL}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/v1-alpha.1/links?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	return do(s.client, req)
}

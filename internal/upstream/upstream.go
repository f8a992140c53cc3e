// Package upstream holds one narrow adapter per third-party API. Each
// adapter owns its request shape and response parsing, isolating upstream
// schema drift to a single file per integration.
package upstream

import (
	"io"
	"net/http"

	"github.com/discolens/discolens-bridge/internal/proxy"
)

// do executes the request and returns the response body. Any non-2xx
// status becomes an *proxy.UpstreamError carrying the upstream's status
// and body. No retries are performed anywhere in this package.
func do(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", &proxy.UpstreamError{
			StatusCode: http.StatusBadGateway,
			Body:       err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &proxy.UpstreamError{
			StatusCode: http.StatusBadGateway,
			Body:       err.Error(),
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &proxy.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return string(body), nil
}

func orDefault(client *http.Client) *http.Client {
	if client == nil {
		return http.DefaultClient
	}
	return client
}

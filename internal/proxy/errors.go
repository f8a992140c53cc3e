package proxy

import (
	"fmt"
	"net/http"
	"strings"
)

// The error types below implement Status() (int, string) so the edge
// handlers can map a failure to an HTTP response without inspecting
// concrete types beyond errors.As.

// ValidationError reports required request parameters that were missing or
// empty after trimming. It is never retried.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s required", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Status() (int, string) {
	return http.StatusBadRequest, e.Error()
}

// UpstreamError reports a non-2xx response from a third-party API. The
// upstream's status code is surfaced to the client where available.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Status() (int, string) {
	if e.StatusCode >= http.StatusBadRequest {
		return e.StatusCode, e.Body
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// TokenRefreshError reports a failed OAuth refresh. It is fatal for the
// current request; the next request retries the refresh from scratch.
type TokenRefreshError struct {
	Err error
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *TokenRefreshError) Unwrap() error {
	return e.Err
}

func (e *TokenRefreshError) Status() (int, string) {
	return http.StatusBadGateway, "token refresh failed"
}

// StoreError reports a key-value store failure. There is no compensating
// action: an entry that fails to write is simply not cached.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Status() (int, string) {
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/discolens/discolens-bridge/internal/proxy"
	"github.com/discolens/discolens-bridge/internal/upstream"
	"github.com/rs/zerolog/log"
)

// HTTPStatuser provides HTTP status information for errors
type HTTPStatuser interface {
	Status() (int, string)
}

// handleTextProxy serves routes whose cached value is plain text (the AI
// summaries). The value is wrapped in the {"data": ...} envelope.
func handleTextProxy(p *proxy.Proxy, required ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		params, err := proxy.Validate(r.URL.Query(), required...)
		if err != nil {
			log.Info().Msgf("invalid request parameters: %v", err)
			writeFailure(w, err)
			return
		}

		value, err := p.Resolve(r.Context(), params)
		if err != nil {
			log.Info().Msgf("proxy resolution failed: %v", err)
			writeFailure(w, err)
			return
		}

		writeData(w, value)
	})
}

// handleRawProxy serves routes whose cached value is already a JSON
// document from the upstream; it is returned verbatim, unwrapped.
func handleRawProxy(p *proxy.Proxy, required ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		params, err := proxy.Validate(r.URL.Query(), required...)
		if err != nil {
			log.Info().Msgf("invalid request parameters: %v", err)
			writeFailure(w, err)
			return
		}

		value, err := p.Resolve(r.Context(), params)
		if err != nil {
			log.Info().Msgf("proxy resolution failed: %v", err)
			writeFailure(w, err)
			return
		}

		writeRaw(w, value)
	})
}

// handleSpotifyDetail validates the id parameter and the optional entity
// type before delegating to the token-managed proxy.
func handleSpotifyDetail(p *proxy.Proxy) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		params, err := proxy.Validate(r.URL.Query(), "id")
		if err != nil {
			log.Info().Msgf("invalid request parameters: %v", err)
			writeFailure(w, err)
			return
		}
		params.Optional(r.URL.Query(), "type", "track")

		if !upstream.ValidEntityKind(params["type"]) {
			writeJSONError(w, http.StatusBadRequest, "type must be one of track, album, artist")
			return
		}

		value, err := p.Resolve(r.Context(), params)
		if err != nil {
			log.Info().Msgf("proxy resolution failed: %v", err)
			writeFailure(w, err)
			return
		}

		writeRaw(w, value)
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// originAllowList restricts browser access to a configured set of
// origins. Requests without an Origin header (curl, server-to-server)
// pass through; disallowed origins are refused with 403. This route-level
// tightening is deliberate: every other route answers with a wildcard.
func originAllowList(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !slices.Contains(allowed, origin) {
				log.Info().Str("origin", origin).Msg("origin not in allow-list")
				writeJSONError(w, http.StatusForbidden, "origin not allowed")
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

// DataResponse wraps plain-text payloads in the success envelope.
type DataResponse struct {
	Data string `json:"data"`
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeData(w http.ResponseWriter, value string) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(DataResponse{Data: value}); err != nil {
		log.Info().Msgf("failed to write response: %v", err)
	}
}

func writeRaw(w http.ResponseWriter, value string) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write([]byte(value)); err != nil {
		log.Info().Msgf("failed to write response: %v", err)
	}
}

// writeFailure converts any error into the JSON error envelope. Failures
// never escape as raw exceptions or non-JSON bodies.
func writeFailure(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	writeJSONError(w, status, message)
}

// writeJSONError writes a JSON error response with the given status code
// and message.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// At this point the status code has been written, so we can only log
		log.Info().Msgf("failed to write JSON error response: %v", err)
	}
}

// errorStatus extracts HTTP status code and message from an error.
// Returns (StatusInternalServerError, StatusText) for errors that don't
// implement HTTPStatuser.
func errorStatus(err error) (int, string) {
	var statuser HTTPStatuser
	if errors.As(err, &statuser) {
		return statuser.Status()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// drainRequestBody drains the request body by reading and discarding the
// contents. This ensures the request body is fully consumed, which is
// important for connection reuse in HTTP/1 clients.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// 5kb max: after this we'll assume the client is broken or malicious
		// and close the connection
		io.CopyN(io.Discard, r.Body, 5*1024*1024)
	}
}

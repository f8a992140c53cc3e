package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/discolens/discolens-bridge/internal/admin"
	"github.com/rs/zerolog/log"
)

// The admin surface is plain CRUD over small JSON documents: no caching,
// no upstreams. All responses remain JSON, including failures.

func handleListPersonalities(store *admin.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		list, err := store.Personalities(r.Context())
		if err != nil {
			writeAdminFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, list)
	})
}

func handleSavePersonality(store *admin.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		var p admin.Personality
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid personality document")
			return
		}
		if p.ID == "" || p.Name == "" {
			writeJSONError(w, http.StatusBadRequest, "id, name required")
			return
		}

		if err := store.SavePersonality(r.Context(), p); err != nil {
			writeAdminFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	})
}

func handleDeletePersonality(store *admin.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		id := r.PathValue("id")
		if id == "" {
			writeJSONError(w, http.StatusBadRequest, "id required")
			return
		}

		if err := store.DeletePersonality(r.Context(), id); err != nil {
			writeAdminFailure(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func handleGetActivePersonality(store *admin.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		active, err := store.ActivePersonality(r.Context())
		if err != nil {
			writeAdminFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, active)
	})
}

func handleSetActivePersonality(store *admin.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		var selection struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&selection); err != nil || selection.ID == "" {
			writeJSONError(w, http.StatusBadRequest, "id required")
			return
		}

		if err := store.SetActivePersonality(r.Context(), selection.ID); err != nil {
			writeAdminFailure(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func handleGetGameData(store *admin.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		data, err := store.GameData(r.Context())
		if err != nil {
			writeAdminFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, data)
	})
}

func handleSetGameData(store *admin.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		var data admin.GameData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid game data document")
			return
		}
		if data.Version == "" || data.Date == "" {
			writeJSONError(w, http.StatusBadRequest, "version, date required")
			return
		}

		if err := store.SetGameData(r.Context(), data); err != nil {
			writeAdminFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, data)
	})
}

func writeAdminFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, admin.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	log.Info().Msgf("admin operation failed: %v", err)
	writeFailure(w, err)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Info().Msgf("failed to write JSON response: %v", err)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/berryhill/draftfly-wp/internal/auth"
	"github.com/berryhill/draftfly-wp/internal/config"
	"github.com/berryhill/draftfly-wp/internal/contentstore"
	"github.com/berryhill/draftfly-wp/internal/ingest"
	"github.com/berryhill/draftfly-wp/internal/validate"
)

// apiError is the body of the error envelope. Messages are caller-safe;
// upstream detail stays in the logs.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": apiError{Code: code, Message: message},
	})
}

// writeAuthError maps the authenticator's sentinel errors onto the wire
// taxonomy. A missing credential on either side is a server-side
// configuration problem, not a caller mistake.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingKey):
		writeError(w, http.StatusUnauthorized, "missing_api_key", "Missing API key.")
	case errors.Is(err, auth.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "api_not_configured", "No API key has been configured.")
	case errors.Is(err, auth.ErrInvalidKey):
		writeError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key.")
	case errors.Is(err, auth.ErrMissingAdminToken):
		writeError(w, http.StatusUnauthorized, "missing_admin_token", "Missing admin token.")
	case errors.Is(err, auth.ErrAdminNotConfigured):
		writeError(w, http.StatusInternalServerError, "admin_not_configured", "No admin token has been configured.")
	case errors.Is(err, auth.ErrInvalidAdminToken):
		writeError(w, http.StatusUnauthorized, "invalid_admin_token", "Invalid admin token.")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal error.")
	}
}

// writeIngestError maps ingestion failures onto the wire taxonomy. Caller
// mistakes are logged at debug only; upstream failures at error.
func writeIngestError(w http.ResponseWriter, err error) {
	var vErr *validate.Error
	switch {
	case errors.As(err, &vErr):
		log.Debug().Err(err).Msg("Rejected invalid draft")
		writeError(w, http.StatusBadRequest, "invalid_param", vErr.Error())
	case errors.Is(err, contentstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "post_not_found", "Post not found.")
	case errors.Is(err, ingest.ErrCreateFailed):
		log.Error().Err(err).Msg("Error creating post")
		writeError(w, http.StatusInternalServerError, "post_creation_failed", "Could not create the post.")
	case errors.Is(err, ingest.ErrUpdateFailed):
		log.Error().Err(err).Msg("Error updating post")
		writeError(w, http.StatusInternalServerError, "post_update_failed", "Could not update the post.")
	default:
		log.Error().Err(err).Msg("Unhandled ingest error")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal error.")
	}
}

// Package api is the HTTP boundary: route table, auth middleware, and the
// JSON error envelope.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/berryhill/draftfly-wp/internal/auth"
	"github.com/berryhill/draftfly-wp/internal/config"
	"github.com/berryhill/draftfly-wp/internal/ingest"
	"github.com/berryhill/draftfly-wp/internal/keystore"
	"github.com/berryhill/draftfly-wp/internal/logview"
	"github.com/berryhill/draftfly-wp/internal/model"
)

const defaultLogLines = 100

var log zerolog.Logger

func SetLogger(l zerolog.Logger) {
	log = l
}

type Handler struct {
	prefix    string
	apiAuth   auth.Provider
	adminAuth auth.Provider
	posts     *ingest.Service
	keys      *keystore.Store
	logs      *logview.Viewer
}

func New(prefix string, apiAuth, adminAuth auth.Provider, posts *ingest.Service, keys *keystore.Store, logs *logview.Viewer) *Handler {
	return &Handler{
		prefix:    prefix,
		apiAuth:   apiAuth,
		adminAuth: adminAuth,
		posts:     posts,
		keys:      keys,
		logs:      logs,
	}
}

// Routes builds the full route table. Every route is authenticated; the
// admin surface uses the admin-token provider, everything else the API-key
// provider.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+h.prefix+"/health", h.protect(h.apiAuth, h.health))
	mux.HandleFunc("GET "+h.prefix+"/auth/validate", h.protect(h.apiAuth, h.validateAuth))
	mux.HandleFunc("POST "+h.prefix+"/posts", h.protect(h.apiAuth, h.createPost))
	mux.HandleFunc("PATCH "+h.prefix+"/posts/{id}", h.protect(h.apiAuth, h.updatePost))

	mux.HandleFunc("POST "+h.prefix+"/admin/key", h.protect(h.adminAuth, h.generateKey))
	mux.HandleFunc("GET "+h.prefix+"/admin/key", h.protect(h.adminAuth, h.showKey))
	mux.HandleFunc("DELETE "+h.prefix+"/admin/key", h.protect(h.adminAuth, h.revokeKey))
	mux.HandleFunc("GET "+h.prefix+"/admin/logs", h.protect(h.adminAuth, h.tailLogs))
	mux.HandleFunc("DELETE "+h.prefix+"/admin/logs", h.protect(h.adminAuth, h.clearLogs))

	return secureHeaders(mux)
}

func (h *Handler) protect(p auth.Provider, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.Authenticate(r); err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected request")
			writeAuthError(w, err)
			return
		}
		next(w, r)
	}
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HContentTypeOptions, "nosniff")
		w.Header().Set(config.HCacheControl, "no-store")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) validateAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var draft model.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON.")
		return
	}

	receipt, err := h.posts.Create(r.Context(), draft)
	if err != nil {
		writeIngestError(w, err)
		return
	}

	log.Info().Str("post_id", receipt.ID).Str("title", receipt.Title).Msg("Created post")
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	// A non-numeric id can never resolve to a post.
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "post_not_found", "Post not found.")
		return
	}

	var draft model.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON.")
		return
	}

	receipt, err := h.posts.Update(r.Context(), id, draft)
	if err != nil {
		writeIngestError(w, err)
		return
	}

	log.Info().Str("post_id", receipt.ID).Msg("Updated post")
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) generateKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keys.Generate()
	if err != nil {
		log.Error().Err(err).Msg("Error generating key")
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not generate a key.")
		return
	}
	log.Info().Msg("Generated new API key")
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (h *Handler) showKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keys.Current()
	if err != nil {
		if errors.Is(err, keystore.ErrNoKey) {
			writeError(w, http.StatusNotFound, "no_api_key", "No API key has been generated.")
			return
		}
		log.Error().Err(err).Msg("Error reading key")
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not read the key.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

func (h *Handler) revokeKey(w http.ResponseWriter, r *http.Request) {
	if err := h.keys.Revoke(); err != nil {
		log.Error().Err(err).Msg("Error revoking key")
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not revoke the key.")
		return
	}
	log.Info().Msg("Revoked API key")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tailLogs(w http.ResponseWriter, r *http.Request) {
	lines := defaultLogLines
	if raw := r.URL.Query().Get("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_param", "lines: must be a positive integer")
			return
		}
		lines = n
	}

	entries, err := h.logs.Tail(lines, r.URL.Query().Get("level"))
	if err != nil {
		log.Error().Err(err).Msg("Error reading log file")
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not read the log file.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) clearLogs(w http.ResponseWriter, r *http.Request) {
	archive, err := h.logs.Clear()
	if err != nil {
		log.Error().Err(err).Msg("Error clearing log file")
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not clear the log file.")
		return
	}
	log.Info().Str("archive", archive).Msg("Cleared log file")
	writeJSON(w, http.StatusOK, map[string]string{"archive": archive})
}

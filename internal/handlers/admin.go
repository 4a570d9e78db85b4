package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HeyImBrandon1/clawding/internal/models"
	"github.com/HeyImBrandon1/clawding/internal/services"
)

// authenticateAdmin compares the bearer token against the configured admin
// token. The server stores it in plaintext config, so there is no hash; the
// constant-time compare is the timing-leak mitigation.
func (h *Handler) authenticateAdmin(w http.ResponseWriter, r *http.Request) bool {
	if h.cfg.AdminToken == "" {
		writeError(w, http.StatusInternalServerError, "admin_not_configured", "Admin not configured")
		return false
	}

	token := services.ExtractBearerToken(r.Header.Get("Authorization"))
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.AdminToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return false
	}
	return true
}

type adminFeedRequest struct {
	Action string `json:"action"`
}

// AdminFeedStatus bans or unbans a feed. Status only ever moves between
// active and banned, and only through this endpoint.
func (h *Handler) AdminFeedStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authenticateAdmin(w, r) {
		return
	}

	slug := chi.URLParam(r, "slug")

	var req adminFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}
	if req.Action != "ban" && req.Action != "unban" {
		writeError(w, http.StatusBadRequest, "invalid_action", `action must be "ban" or "unban"`)
		return
	}

	feed, err := h.store.FeedBySlug(r.Context(), slug)
	if errors.Is(err, services.ErrFeedNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "Feed not found")
		return
	}
	if err != nil {
		log.Printf("admin: feed lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	newStatus := models.FeedStatusActive
	if req.Action == "ban" {
		newStatus = models.FeedStatusBanned
	}

	if err := h.store.SetFeedStatus(r.Context(), feed.ID, newStatus); err != nil {
		log.Printf("admin: status update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"slug":    slug,
		"status":  newStatus,
	})
}

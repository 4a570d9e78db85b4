package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HeyImBrandon1/clawding/internal/models"
	"github.com/HeyImBrandon1/clawding/internal/services"
	"github.com/HeyImBrandon1/clawding/pkg/utils"
)

const (
	feedPageSize    = 20
	feedPageMax     = 50
	activeWindow    = 7 * 24 * time.Hour
	activeBoardSize = 10
	profilePageSize = 30
)

// GlobalFeed returns the public activity feed, newest first, paginated.
func (h *Handler) GlobalFeed(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", feedPageSize, feedPageMax)
	offset := queryInt(r, "offset", 0, 1<<20)

	// Fetch one extra row to compute has_more without a second count query.
	updates, err := h.store.GlobalFeed(r.Context(), limit+1, offset)
	if err != nil {
		log.Printf("global: feed query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	hasMore := len(updates) > limit
	if hasMore {
		updates = updates[:limit]
	}
	if updates == nil {
		updates = []models.FeedUpdate{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"updates":  updates,
		"has_more": hasMore,
	})
}

// Stats returns the platform counters shown on the landing page.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		log.Printf("stats: query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	w.Header().Set("Cache-Control", "public, s-maxage=60, stale-while-revalidate=120")
	writeJSON(w, http.StatusOK, stats)
}

// ActiveCoders returns the leaderboard: post counts over the last 7 days.
func (h *Handler) ActiveCoders(w http.ResponseWriter, r *http.Request) {
	coders, err := h.store.ActiveCoders(r.Context(), time.Now().Add(-activeWindow), activeBoardSize)
	if err != nil {
		log.Printf("active: query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	if coders == nil {
		coders = []models.ActiveCoder{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"coders": coders})
}

// Profiles returns recently active feeds for the discovery surface.
func (h *Handler) Profiles(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.store.Profiles(r.Context(), profilePageSize)
	if err != nil {
		log.Printf("profiles: query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	if feeds == nil {
		feeds = []models.Feed{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": feeds})
}

// GetFeed returns a public profile and its recent updates.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	feed, err := h.store.FeedBySlug(r.Context(), slug)
	if errors.Is(err, services.ErrFeedNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "Feed not found")
		return
	}
	if err != nil {
		log.Printf("feed: lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	if feed.Status == models.FeedStatusBanned {
		writeError(w, http.StatusNotFound, "not_found", "Feed not found")
		return
	}

	updates, err := h.store.RecentPosts(r.Context(), feed.ID, feedPageSize)
	if err != nil {
		log.Printf("feed: updates query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	if updates == nil {
		updates = []models.Update{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feed":    feed,
		"updates": updates,
	})
}

type profileUpdateRequest struct {
	XHandle     string `json:"x_handle"`
	WebsiteURL  string `json:"website_url"`
	Description string `json:"description"`
}

// UpdateProfile edits the authenticated feed's public profile fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	feed := h.authenticate(w, r)
	if feed == nil {
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}

	if err := utils.ValidateXHandle(req.XHandle); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if err := utils.ValidateWebsiteURL(req.WebsiteURL); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	xHandle := utils.CleanXHandle(req.XHandle)
	description := utils.SanitizeContent(req.Description, maxContentLen)

	if err := h.store.UpdateProfile(r.Context(), feed.ID, xHandle, req.WebsiteURL, description); err != nil {
		log.Printf("profile: update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "slug": feed.Slug})
}

func queryInt(r *http.Request, name string, fallback, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}

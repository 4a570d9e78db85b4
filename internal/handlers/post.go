package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HeyImBrandon1/clawding/internal/models"
	"github.com/HeyImBrandon1/clawding/internal/services"
	"github.com/HeyImBrandon1/clawding/pkg/utils"
)

const (
	maxProjectNameLen = 100
	maxContentLen     = 500
)

// authenticate resolves the bearer token for the slug in the URL and writes
// the appropriate error response when it fails.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) *models.Feed {
	slug := chi.URLParam(r, "slug")
	token := services.ExtractBearerToken(r.Header.Get("Authorization"))

	feed, err := h.auth.Authenticate(r.Context(), slug, token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFeedNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Feed not found")
		case errors.Is(err, services.ErrFeedBanned):
			writeError(w, http.StatusForbidden, "feed_banned", "This feed has been suspended")
		case errors.Is(err, services.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		default:
			log.Printf("auth: feed lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		}
		return nil
	}
	return feed
}

type postRequest struct {
	Project string `json:"project"`
	Content string `json:"content"`
}

// CreatePost appends an update to the authenticated feed and broadcasts it
// to live feed watchers.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	feed := h.authenticate(w, r)
	if feed == nil {
		return
	}
	ctx := r.Context()

	allowed, _, err := h.limits.Allow(ctx, "post:"+feed.ID.String(), services.PerFeedPostLimit, services.HourWindow)
	if err != nil {
		writeServiceUnavailable(w)
		return
	}
	if !allowed {
		writeRateLimited(w, "Too many posts. Try again later.")
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}

	project := utils.SanitizeContent(req.Project, maxProjectNameLen)
	content := utils.SanitizeContent(req.Content, maxContentLen)
	if project == "" || content == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "project and content are required")
		return
	}

	update, err := h.store.CreatePost(ctx, feed.ID, project, content)
	if err != nil {
		log.Printf("post: insert failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	if err := h.hub.PublishUpdate(ctx, services.FeedEvent{
		Type:      "update",
		Slug:      feed.Slug,
		Project:   update.ProjectName,
		Content:   update.Content,
		CreatedAt: update.CreatedAt,
	}); err != nil {
		log.Printf("post: failed to publish feed event: %v", err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"post":    update,
	})
}

// DeleteLastPost removes exactly the most recently created update on the
// authenticated feed and returns its prior content.
func (h *Handler) DeleteLastPost(w http.ResponseWriter, r *http.Request) {
	feed := h.authenticate(w, r)
	if feed == nil {
		return
	}
	ctx := r.Context()

	allowed, _, err := h.limits.Allow(ctx, "delete:"+feed.ID.String(), services.PerFeedDeleteLimit, services.HourWindow)
	if err != nil {
		writeServiceUnavailable(w)
		return
	}
	if !allowed {
		writeRateLimited(w, "Too many delete requests. Try again later.")
		return
	}

	lastPost, err := h.store.LatestPost(ctx, feed.ID)
	if errors.Is(err, services.ErrNoPosts) {
		writeError(w, http.StatusNotFound, "no_posts", "No posts to delete")
		return
	}
	if err != nil {
		log.Printf("delete: latest post lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	if err := h.store.DeletePost(ctx, lastPost.ID); err != nil {
		log.Printf("delete: post removal failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": map[string]interface{}{
			"project":    lastPost.ProjectName,
			"content":    lastPost.Content,
			"created_at": lastPost.CreatedAt,
		},
	})
}

// GetLastPost returns the most recent update on the authenticated feed.
func (h *Handler) GetLastPost(w http.ResponseWriter, r *http.Request) {
	feed := h.authenticate(w, r)
	if feed == nil {
		return
	}

	lastPost, err := h.store.LatestPost(r.Context(), feed.ID)
	if errors.Is(err, services.ErrNoPosts) {
		writeError(w, http.StatusNotFound, "no_posts", "No posts found")
		return
	}
	if err != nil {
		log.Printf("last-post: latest post lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"post":    lastPost,
	})
}

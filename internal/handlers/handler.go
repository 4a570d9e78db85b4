package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/HeyImBrandon1/clawding/internal/config"
	"github.com/HeyImBrandon1/clawding/internal/services"
)

// Handler carries the injected collaborators every endpoint uses. Handles
// are constructed once at process start and owned by the hosting process.
type Handler struct {
	cfg    *config.Config
	store  services.FeedStore
	claims *services.ClaimStore
	limits *services.RateLimiter
	mailer services.Mailer
	auth   *services.FeedAuth
	hub    *services.FeedHub
}

func New(cfg *config.Config, store services.FeedStore, claims *services.ClaimStore,
	limits *services.RateLimiter, mailer services.Mailer, hub *services.FeedHub) *Handler {
	return &Handler{
		cfg:    cfg,
		store:  store,
		claims: claims,
		limits: limits,
		mailer: mailer,
		auth:   services.NewFeedAuth(store),
		hub:    hub,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

type errorResponse struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error"`
	Message     string   `json:"message,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeSlugTaken answers 409 with alternative handle suggestions, both at
// claim time and when the insert loses the verification race.
func writeSlugTaken(w http.ResponseWriter, suggestions []string) {
	writeJSON(w, http.StatusConflict, errorResponse{
		Error:       "slug_taken",
		Message:     "This username is already taken",
		Suggestions: suggestions,
	})
}

func writeRateLimited(w http.ResponseWriter, message string) {
	writeError(w, http.StatusTooManyRequests, "rate_limited", message)
}

func writeServiceUnavailable(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "service_unavailable", "Verification service unavailable")
}

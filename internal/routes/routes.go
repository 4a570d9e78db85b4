package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/HeyImBrandon1/clawding/internal/handlers"
)

func SetupRoutes(r *chi.Mux, h *handlers.Handler) {
	// Registration
	r.Post("/api/claim", h.Claim)
	r.Post("/api/claim/verify", h.Verify)

	// Posting (bearer token required)
	r.Post("/api/post/{slug}", h.CreatePost)
	r.Delete("/api/delete/{slug}", h.DeleteLastPost)
	r.Get("/api/delete/{slug}", h.GetLastPost)

	// Public surface
	r.Get("/api/global", h.GlobalFeed)
	r.Get("/api/stats", h.Stats)
	r.Get("/api/active", h.ActiveCoders)
	r.Get("/api/profiles", h.Profiles)
	r.Get("/api/feeds/{slug}", h.GetFeed)
	r.Patch("/api/feeds/{slug}", h.UpdateProfile)

	// Admin (shared token, constant-time compared)
	r.Patch("/api/admin/feeds/{slug}", h.AdminFeedStatus)

	// CLI skill distribution
	r.Get("/i", h.InstallScript)
	r.Get("/api/skills/manifest", h.SkillManifest)

	// Live feed stream
	r.Get("/ws/feed", h.FeedStream)
}

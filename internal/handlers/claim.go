package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/HeyImBrandon1/clawding/internal/services"
	"github.com/HeyImBrandon1/clawding/pkg/clientip"
	"github.com/HeyImBrandon1/clawding/pkg/utils"
)

// MaxFeedsPerEmail is the hard cap on durable accounts per address,
// independent of the hourly claim quotas.
const MaxFeedsPerEmail = 3

type claimRequest struct {
	Slug  string `json:"slug"`
	Email string `json:"email"`
}

type claimResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Slug    string `json:"slug"`
}

// Claim begins a registration: quota checks, validation, availability,
// then a one-time code stored hashed in Redis and emailed to the user.
// Each check short-circuits; the caller re-submits from scratch on failure.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Global claim throttle: protects the platform from registration floods.
	allowed, _, err := h.limits.Allow(ctx, "claim-global", services.GlobalClaimLimit, services.HourWindow)
	if err != nil {
		writeServiceUnavailable(w)
		return
	}
	if !allowed {
		writeRateLimited(w, "Too many registrations right now. Try again later.")
		return
	}

	ip := clientip.RealClientIP(r)
	allowed, _, err = h.limits.Allow(ctx, "claim:"+ip, services.PerIPClaimLimit, services.HourWindow)
	if err != nil {
		writeServiceUnavailable(w)
		return
	}
	if !allowed {
		writeRateLimited(w, "Too many registration attempts. Try again later.")
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}

	if err := utils.ValidateSlug(req.Slug); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slug", err.Error())
		return
	}

	if err := utils.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "email_required", "A valid email is required to claim a handle")
		return
	}
	email := utils.NormalizeEmail(req.Email)

	allowed, _, err = h.limits.Allow(ctx, "claim-email:"+email, services.PerEmailClaimLimit, services.HourWindow)
	if err != nil {
		writeServiceUnavailable(w)
		return
	}
	if !allowed {
		writeRateLimited(w, "Too many attempts for this email. Try again later.")
		return
	}

	taken, err := h.store.SlugExists(ctx, req.Slug)
	if err != nil {
		log.Printf("claim: slug availability check failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	if taken {
		writeSlugTaken(w, utils.GenerateSuggestions(req.Slug))
		return
	}

	count, err := h.store.CountFeedsByEmail(ctx, email)
	if err != nil {
		log.Printf("claim: feed count failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	if count >= MaxFeedsPerEmail {
		writeError(w, http.StatusBadRequest, "max_feeds_reached", "Maximum 3 feeds per email address")
		return
	}

	code, err := utils.GenerateCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	codeHash, err := utils.HashSecret(code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	if err := h.claims.Put(ctx, email, req.Slug, codeHash); err != nil {
		writeServiceUnavailable(w)
		return
	}

	// A failed dispatch fails the whole registration. The claim record is
	// left behind; it self-heals via TTL since no account was created.
	if err := h.mailer.SendVerificationCode(ctx, email, code, req.Slug); err != nil {
		log.Printf("claim: failed to send verification email: %v", err)
		writeError(w, http.StatusInternalServerError, "email_failed", "Failed to send verification email")
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{
		Success: true,
		Message: "Verification code sent to your email",
		Slug:    req.Slug,
	})
}

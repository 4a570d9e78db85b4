package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/HeyImBrandon1/clawding/internal/services"
	"github.com/HeyImBrandon1/clawding/pkg/clientip"
	"github.com/HeyImBrandon1/clawding/pkg/utils"
)

type verifyRequest struct {
	Slug  string `json:"slug"`
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Slug    string `json:"slug"`
	Token   string `json:"token"`
}

// Verify completes a registration: checks the submitted code against the
// pending claim and, on match, creates the durable feed. The plaintext
// bearer token is returned exactly once; only its hash persists.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ip := clientip.RealClientIP(r)
	allowed, _, err := h.limits.Allow(ctx, "claim-verify:"+ip, services.PerIPVerifyLimit, services.HourWindow)
	if err != nil {
		writeServiceUnavailable(w)
		return
	}
	if !allowed {
		writeRateLimited(w, "Too many attempts. Try again later.")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}
	if req.Slug == "" || req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "slug, email, and code are required")
		return
	}

	email := utils.NormalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)

	claim, err := h.claims.Get(ctx, email, req.Slug)
	if err != nil {
		writeServiceUnavailable(w)
		return
	}
	if claim == nil {
		writeError(w, http.StatusBadRequest, "code_expired", "Verification code expired or not found. Request a new one.")
		return
	}

	// The exhaustion check runs before the code comparison: once burned,
	// even the correct code cannot redeem this claim.
	attempts, err := h.claims.Attempts(ctx, email, req.Slug)
	if err != nil {
		writeServiceUnavailable(w)
		return
	}
	if attempts >= services.MaxClaimAttempts {
		if err := h.claims.Purge(ctx, email, req.Slug); err != nil {
			log.Printf("verify: failed to purge exhausted claim: %v", err)
		}
		writeError(w, http.StatusBadRequest, "max_attempts", "Too many failed attempts. Request a new code.")
		return
	}

	if !utils.VerifySecret(code, claim.CodeHash) {
		// Best-effort: a counter error never masks the invalid-code result.
		if err := h.claims.RecordFailure(ctx, email, req.Slug); err != nil {
			log.Printf("verify: failed to record attempt: %v", err)
		}
		writeError(w, http.StatusBadRequest, "invalid_code", "Invalid verification code")
		return
	}

	token, err := utils.GenerateToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}
	tokenHash, err := utils.HashSecret(token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	// Availability was only checked at claim time. The unique index on
	// feeds.slug arbitrates concurrent verifications; the loser gets a
	// conflict with suggestions, not a generic error.
	if _, err := h.store.CreateFeed(ctx, req.Slug, tokenHash, email); err != nil {
		if errors.Is(err, services.ErrSlugTaken) {
			writeSlugTaken(w, utils.GenerateSuggestions(req.Slug))
			return
		}
		log.Printf("verify: feed insert failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
		return
	}

	if err := h.claims.Purge(ctx, email, req.Slug); err != nil {
		log.Printf("verify: failed to purge claim keys: %v", err)
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		Slug:    req.Slug,
		Token:   token,
	})
}

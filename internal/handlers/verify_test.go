package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HeyImBrandon1/clawding/pkg/utils"
)

func TestRegistrationCycle(t *testing.T) {
	env := newTestEnv(t)

	token := env.register(t, "my-cool-app", "dev@example.com", "1.2.3.4")

	// Exactly one durable account with a usable bearer token.
	feed, err := env.store.FeedBySlug(context.Background(), "my-cool-app")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", feed.Email)
	assert.True(t, utils.VerifySecret(token, feed.TokenHash))

	// Zero remaining claim-store keys.
	assert.False(t, env.mr.Exists("claim:dev@example.com:my-cool-app"))
	assert.False(t, env.mr.Exists("claim-attempts:dev@example.com:my-cool-app"))
}

func TestVerifyMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "1.2.3.4", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_fields", body["error"])
}

func TestVerifyWithoutClaim(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "1.2.3.4", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com", "code": "123456",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "code_expired", body["error"])
}

func TestVerifyWrongCodeThenCorrect(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/claim", "1.2.3.4", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	code := env.mailer.lastCode("dev@example.com", "my-cool-app")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	// Up to 4 failures keep the claim alive, each answering invalid_code.
	for i := 0; i < 4; i++ {
		rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "1.2.3.4", "", map[string]string{
			"slug": "my-cool-app", "email": "dev@example.com", "code": wrong,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_code", body["error"])
		// No remaining-attempts hint is leaked.
		assert.NotContains(t, body, "attempts")
	}

	rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "1.2.3.4", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com", "code": code,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["token"])
}

func TestVerifyAttemptsExhausted(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/claim", "1.2.3.4", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	code := env.mailer.lastCode("dev@example.com", "my-cool-app")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 5; i++ {
		rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "1.2.3.4", "", map[string]string{
			"slug": "my-cool-app", "email": "dev@example.com", "code": wrong,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_code", body["error"])
	}

	// The counter check runs before the code comparison, so even the
	// correct code cannot redeem an exhausted claim.
	rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "1.2.3.4", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com", "code": code,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "max_attempts", body["error"])

	// Both claim keys are purged; the correct code now reads as expired.
	assert.False(t, env.mr.Exists("claim:dev@example.com:my-cool-app"))
	assert.False(t, env.mr.Exists("claim-attempts:dev@example.com:my-cool-app"))

	rec, body = env.do(t, http.MethodPost, "/api/claim/verify", "1.2.3.4", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com", "code": code,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "code_expired", body["error"])
}

func TestVerifySlugRace(t *testing.T) {
	env := newTestEnv(t)

	// Two different emails hold valid claims on the same handle: the
	// availability check at claim time cannot see the other claim.
	rec, _ := env.do(t, http.MethodPost, "/api/claim", "1.1.1.1", "", map[string]string{
		"slug": "my-cool-app", "email": "first@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, http.MethodPost, "/api/claim", "2.2.2.2", "", map[string]string{
		"slug": "my-cool-app", "email": "second@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	codeFirst := env.mailer.lastCode("first@example.com", "my-cool-app")
	codeSecond := env.mailer.lastCode("second@example.com", "my-cool-app")

	rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "1.1.1.1", "", map[string]string{
		"slug": "my-cool-app", "email": "first@example.com", "code": codeFirst,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, body["token"])

	// The loser gets a conflict with non-empty suggestions, not a generic error.
	rec, body = env.do(t, http.MethodPost, "/api/claim/verify", "2.2.2.2", "", map[string]string{
		"slug": "my-cool-app", "email": "second@example.com", "code": codeSecond,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slug_taken", body["error"])
	suggestions, ok := body["suggestions"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, suggestions)
}

func TestVerifyPerIPRateLimit(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 10; i++ {
		rec, _ := env.do(t, http.MethodPost, "/api/claim/verify", "7.7.7.7", "", map[string]string{
			"slug": "my-cool-app", "email": "dev@example.com", "code": "123456",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "7.7.7.7", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com", "code": "123456",
	})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", body["error"])
}

func TestReclaimOverwritesPendingClaim(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/claim", "1.1.1.1", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	oldCode := env.mailer.lastCode("dev@example.com", "my-cool-app")

	rec, _ = env.do(t, http.MethodPost, "/api/claim", "2.2.2.2", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	newCode := env.mailer.lastCode("dev@example.com", "my-cool-app")

	if oldCode != newCode {
		rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "3.3.3.3", "", map[string]string{
			"slug": "my-cool-app", "email": "dev@example.com", "code": oldCode,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_code", body["error"])
	}

	rec, body := env.do(t, http.MethodPost, "/api/claim/verify", "3.3.3.3", "", map[string]string{
		"slug": "my-cool-app", "email": "dev@example.com", "code": newCode,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["token"])
}

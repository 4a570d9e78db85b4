package services

import (
	"context"
	"strings"

	"github.com/HeyImBrandon1/clawding/internal/models"
	"github.com/HeyImBrandon1/clawding/pkg/utils"
)

// FeedAuth resolves bearer tokens against stored feed credentials. Every
// mutating request re-authenticates; no session state exists.
type FeedAuth struct {
	store FeedStore
}

func NewFeedAuth(store FeedStore) *FeedAuth {
	return &FeedAuth{store: store}
}

// ExtractBearerToken pulls the token out of an Authorization header value.
func ExtractBearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// Authenticate verifies token against the feed identified by slug.
// Returns ErrFeedNotFound when the slug is unclaimed, ErrFeedBanned when the
// feed is suspended (distinct so clients can show a different message), and
// ErrUnauthorized when the token does not match the stored hash.
func (a *FeedAuth) Authenticate(ctx context.Context, slug, token string) (*models.Feed, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	feed, err := a.store.FeedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if feed.Status == models.FeedStatusBanned {
		return nil, ErrFeedBanned
	}

	if !utils.VerifySecret(token, feed.TokenHash) {
		return nil, ErrUnauthorized
	}

	return feed, nil
}

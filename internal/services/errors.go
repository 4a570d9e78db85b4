package services

import "errors"

// Domain errors surfaced to handlers. Handlers translate these into the
// JSON error envelope; anything else is a 500 for that request.
var (
	ErrSlugTaken    = errors.New("slug already taken")
	ErrFeedNotFound = errors.New("feed not found")
	ErrFeedBanned   = errors.New("feed is banned")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoPosts      = errors.New("no posts")
)

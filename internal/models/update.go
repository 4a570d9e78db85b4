package models

import (
	"time"

	"github.com/google/uuid"
)

// Update is one short status post on a feed.
type Update struct {
	ID          uuid.UUID `json:"id"`
	FeedID      uuid.UUID `json:"-"`
	ProjectName string    `json:"project"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeedUpdate is an update joined with its feed's slug, for the global feed.
type FeedUpdate struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	ProjectName string    `json:"project"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

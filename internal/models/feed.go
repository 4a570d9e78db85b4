package models

import (
	"time"

	"github.com/google/uuid"
)

// Feed statuses. Transitions only active ↔ banned, by an admin.
const (
	FeedStatusActive = "active"
	FeedStatusBanned = "banned"
)

// Feed is a claimed handle and its credentials.
type Feed struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	TokenHash   string     `json:"-"`
	XHandle     string     `json:"x_handle,omitempty"`
	WebsiteURL  string     `json:"website_url,omitempty"`
	Description string     `json:"description,omitempty"`
	Email       string     `json:"-"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	LastPostAt  *time.Time `json:"last_post_at,omitempty"`
}

// Stats is the public platform counter set.
type Stats struct {
	TotalCoders int `json:"total_coders"`
	TotalPosts  int `json:"total_posts"`
	PostsToday  int `json:"posts_today"`
}

// ActiveCoder is one leaderboard row: posts over the trailing window.
type ActiveCoder struct {
	Slug      string `json:"slug"`
	PostCount int    `json:"post_count"`
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/HeyImBrandon1/clawding/internal/models"
)

// pqUniqueViolation is the PostgreSQL error code raised by the feeds.slug
// unique index when two verifications race for the same handle.
const pqUniqueViolation = "23505"

// FeedStore is the durable persistence surface for feeds and updates.
type FeedStore interface {
	FeedBySlug(ctx context.Context, slug string) (*models.Feed, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CountFeedsByEmail(ctx context.Context, email string) (int, error)
	CreateFeed(ctx context.Context, slug, tokenHash, email string) (*models.Feed, error)
	SetFeedStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, xHandle, websiteURL, description string) error

	CreatePost(ctx context.Context, feedID uuid.UUID, projectName, content string) (*models.Update, error)
	LatestPost(ctx context.Context, feedID uuid.UUID) (*models.Update, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	RecentPosts(ctx context.Context, feedID uuid.UUID, limit int) ([]models.Update, error)

	GlobalFeed(ctx context.Context, limit, offset int) ([]models.FeedUpdate, error)
	Stats(ctx context.Context) (*models.Stats, error)
	ActiveCoders(ctx context.Context, since time.Time, limit int) ([]models.ActiveCoder, error)
	Profiles(ctx context.Context, limit int) ([]models.Feed, error)
}

// PostgresFeedStore implements FeedStore over database/sql + lib/pq.
type PostgresFeedStore struct {
	db *sql.DB
}

func NewPostgresFeedStore(db *sql.DB) *PostgresFeedStore {
	return &PostgresFeedStore{db: db}
}

const feedColumns = `id, slug, token_hash,
	COALESCE(x_handle, ''), COALESCE(website_url, ''), COALESCE(description, ''),
	COALESCE(email, ''), status, created_at, last_post_at`

func scanFeed(row *sql.Row) (*models.Feed, error) {
	var f models.Feed
	var lastPostAt sql.NullTime
	err := row.Scan(&f.ID, &f.Slug, &f.TokenHash, &f.XHandle, &f.WebsiteURL,
		&f.Description, &f.Email, &f.Status, &f.CreatedAt, &lastPostAt)
	if err != nil {
		return nil, err
	}
	if lastPostAt.Valid {
		f.LastPostAt = &lastPostAt.Time
	}
	return &f, nil
}

func (s *PostgresFeedStore) FeedBySlug(ctx context.Context, slug string) (*models.Feed, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE slug = $1`, slug)
	feed, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFeedNotFound
	}
	return feed, err
}

func (s *PostgresFeedStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM feeds WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (s *PostgresFeedStore) CountFeedsByEmail(ctx context.Context, email string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feeds WHERE email = $1`, email).Scan(&count)
	return count, err
}

// CreateFeed inserts the durable account record. Availability is deliberately
// not re-checked here; the unique index arbitrates concurrent verifications
// and the loser gets ErrSlugTaken.
func (s *PostgresFeedStore) CreateFeed(ctx context.Context, slug, tokenHash, email string) (*models.Feed, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO feeds (slug, token_hash, email)
		VALUES ($1, $2, $3)
		RETURNING `+feedColumns, slug, tokenHash, email)
	feed, err := scanFeed(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return feed, nil
}

func (s *PostgresFeedStore) SetFeedStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE feeds SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (s *PostgresFeedStore) UpdateProfile(ctx context.Context, id uuid.UUID, xHandle, websiteURL, description string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE feeds SET x_handle = NULLIF($1, ''), website_url = NULLIF($2, ''), description = NULLIF($3, '')
		WHERE id = $4`, xHandle, websiteURL, description, id)
	return err
}

// CreatePost inserts an update and bumps the feed's last_post_at in one
// transaction so the timestamp never drifts from the content.
func (s *PostgresFeedStore) CreatePost(ctx context.Context, feedID uuid.UUID, projectName, content string) (*models.Update, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var u models.Update
	u.FeedID = feedID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO updates (feed_id, project_name, content)
		VALUES ($1, $2, $3)
		RETURNING id, project_name, content, created_at`,
		feedID, projectName, content).Scan(&u.ID, &u.ProjectName, &u.Content, &u.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE feeds SET last_post_at = $1 WHERE id = $2`, u.CreatedAt, feedID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresFeedStore) LatestPost(ctx context.Context, feedID uuid.UUID) (*models.Update, error) {
	var u models.Update
	err := s.db.QueryRowContext(ctx, `
		SELECT id, feed_id, project_name, content, created_at
		FROM updates WHERE feed_id = $1
		ORDER BY created_at DESC LIMIT 1`,
		feedID).Scan(&u.ID, &u.FeedID, &u.ProjectName, &u.Content, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPosts
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresFeedStore) DeletePost(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM updates WHERE id = $1`, id)
	return err
}

func (s *PostgresFeedStore) RecentPosts(ctx context.Context, feedID uuid.UUID, limit int) ([]models.Update, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, feed_id, project_name, content, created_at
		FROM updates WHERE feed_id = $1
		ORDER BY created_at DESC LIMIT $2`, feedID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Update
	for rows.Next() {
		var u models.Update
		if err := rows.Scan(&u.ID, &u.FeedID, &u.ProjectName, &u.Content, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresFeedStore) GlobalFeed(ctx context.Context, limit, offset int) ([]models.FeedUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, f.slug, u.project_name, u.content, u.created_at
		FROM updates u
		JOIN feeds f ON f.id = u.feed_id
		WHERE f.status = 'active'
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FeedUpdate
	for rows.Next() {
		var u models.FeedUpdate
		if err := rows.Scan(&u.ID, &u.Slug, &u.ProjectName, &u.Content, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresFeedStore) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	todayStart := time.Now().UTC().Truncate(24 * time.Hour)

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feeds`).Scan(&stats.TotalCoders); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM updates`).Scan(&stats.TotalPosts); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM updates WHERE created_at >= $1`, todayStart).Scan(&stats.PostsToday); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *PostgresFeedStore) ActiveCoders(ctx context.Context, since time.Time, limit int) ([]models.ActiveCoder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.slug, COUNT(u.id) AS post_count
		FROM feeds f
		JOIN updates u ON u.feed_id = f.id
		WHERE u.created_at >= $1 AND f.status = 'active'
		GROUP BY f.slug
		ORDER BY post_count DESC, f.slug ASC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActiveCoder
	for rows.Next() {
		var c models.ActiveCoder
		if err := rows.Scan(&c.Slug, &c.PostCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresFeedStore) Profiles(ctx context.Context, limit int) ([]models.Feed, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+feedColumns+`
		FROM feeds
		WHERE status = 'active' AND last_post_at IS NOT NULL
		ORDER BY last_post_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Feed
	for rows.Next() {
		var f models.Feed
		var lastPostAt sql.NullTime
		if err := rows.Scan(&f.ID, &f.Slug, &f.TokenHash, &f.XHandle, &f.WebsiteURL,
			&f.Description, &f.Email, &f.Status, &f.CreatedAt, &lastPostAt); err != nil {
			return nil, err
		}
		if lastPostAt.Valid {
			f.LastPostAt = &lastPostAt.Time
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

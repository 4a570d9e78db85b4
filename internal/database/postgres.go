package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// Connect opens the PostgreSQL pool and ensures the schema exists.
func Connect(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		return nil, err
	}

	log.Println("✅ Connected to PostgreSQL")

	if err = InitTables(db); err != nil {
		return nil, err
	}

	return db, nil
}

// InitTables creates the feeds and updates tables if they don't exist.
func InitTables(db *sql.DB) error {
	queries := []string{
		// Feeds table (one row per claimed handle)
		`CREATE TABLE IF NOT EXISTS feeds (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			slug TEXT NOT NULL,
			token_hash TEXT NOT NULL,
			x_handle TEXT,
			website_url TEXT,
			description TEXT,
			email TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_post_at TIMESTAMPTZ
		)`,

		// Updates table (short status posts, cascade on feed removal)
		`CREATE TABLE IF NOT EXISTS updates (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			feed_id UUID NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			project_name TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// The unique slug index is what resolves the claim/verify race.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_feeds_slug ON feeds(slug)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_email ON feeds(email)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_last_post_at ON feeds(last_post_at)`,
		`CREATE INDEX IF NOT EXISTS idx_updates_feed_id ON updates(feed_id)`,
		`CREATE INDEX IF NOT EXISTS idx_updates_created_at ON updates(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

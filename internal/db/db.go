// Package db provides PostgreSQL database access for Spotify Circle.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// schema creates the three tables on first run. Credential rows are keyed by
// the Spotify user id; shares are append-only; reactions are unique per
// (share, reactor) so a second reaction replaces the first.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	access_token TEXT NOT NULL DEFAULT '',
	refresh_token TEXT NOT NULL DEFAULT '',
	token_expires_at DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS shared_songs (
	id BIGSERIAL PRIMARY KEY,
	from_user_id TEXT NOT NULL REFERENCES users(id),
	to_user_id TEXT NOT NULL REFERENCES users(id),
	track_id TEXT NOT NULL,
	track_name TEXT NOT NULL DEFAULT '',
	artist_name TEXT NOT NULL DEFAULT '',
	album_image TEXT NOT NULL DEFAULT '',
	preview_url TEXT NOT NULL DEFAULT '',
	spotify_url TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reactions (
	id BIGSERIAL PRIMARY KEY,
	shared_song_id BIGINT NOT NULL REFERENCES shared_songs(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	reaction TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (shared_song_id, user_id)
);
`

// DB wraps a PostgreSQL connection pool. It is created once at startup and
// shared by all requests; the pool hands out independent connections per
// query and is safe for concurrent acquisition.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// EnsureSchema creates the tables if they do not already exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Credentials returns a CredentialRepository.
func (db *DB) Credentials() *CredentialRepository {
	return &CredentialRepository{pool: db.pool}
}

// Shares returns a ShareRepository.
func (db *DB) Shares() *ShareRepository {
	return &ShareRepository{pool: db.pool}
}

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialRepository handles user credential rows. It is the only owner of
// the users table; nothing else persists credentials.
type CredentialRepository struct {
	pool *pgxpool.Pool
}

// Get retrieves a credential by user id. Returns ErrNotFound for unknown
// ids, which callers treat as "user not connected".
func (r *CredentialRepository) Get(ctx context.Context, userID string) (*Credential, error) {
	query := `
		SELECT id, display_name, image_url, access_token, refresh_token, token_expires_at
		FROM users
		WHERE id = $1
	`
	var c Credential
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&c.UserID,
		&c.DisplayName,
		&c.ImageURL,
		&c.AccessToken,
		&c.RefreshToken,
		&c.TokenExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return &c, nil
}

// Upsert creates or wholesale-replaces a credential row. Runs on every
// successful authorization; last writer wins on all fields.
func (r *CredentialRepository) Upsert(ctx context.Context, c *Credential) error {
	query := `
		INSERT INTO users (id, display_name, image_url, access_token, refresh_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			image_url = EXCLUDED.image_url,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at
	`
	_, err := r.pool.Exec(ctx, query,
		c.UserID,
		c.DisplayName,
		c.ImageURL,
		c.AccessToken,
		c.RefreshToken,
		c.TokenExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upserting credential: %w", err)
	}
	return nil
}

// UpdateTokens replaces only the token fields after a refresh. A missing row
// is a no-op: the caller has already read the row, and the read-then-write
// is not atomic, so overlapping refreshes of the same user resolve as last
// write wins.
func (r *CredentialRepository) UpdateTokens(ctx context.Context, userID, accessToken, refreshToken string, expiresAt float64) error {
	query := `
		UPDATE users
		SET access_token = $2, refresh_token = $3, token_expires_at = $4
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	return nil
}

// ListAll returns every connected user, for cross-user fan-out.
func (r *CredentialRepository) ListAll(ctx context.Context) ([]UserSummary, error) {
	query := `SELECT id, display_name, image_url FROM users ORDER BY display_name`
	return r.listSummaries(ctx, query)
}

// ListOthers returns every connected user except the given one.
func (r *CredentialRepository) ListOthers(ctx context.Context, userID string) ([]UserSummary, error) {
	query := `SELECT id, display_name, image_url FROM users WHERE id != $1 ORDER BY display_name`
	return r.listSummaries(ctx, query, userID)
}

func (r *CredentialRepository) listSummaries(ctx context.Context, query string, args ...any) ([]UserSummary, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []UserSummary
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.ImageURL); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}
	return users, nil
}

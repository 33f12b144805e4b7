package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ShareRepository handles shared songs and their reactions.
type ShareRepository struct {
	pool *pgxpool.Pool
}

// Create appends a share event and fills in its assigned id and timestamp.
func (r *ShareRepository) Create(ctx context.Context, s *SharedSong) error {
	query := `
		INSERT INTO shared_songs (from_user_id, to_user_id, track_id, track_name, artist_name, album_image, preview_url, spotify_url, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		s.FromUserID,
		s.ToUserID,
		s.TrackID,
		s.TrackName,
		s.ArtistName,
		s.AlbumImage,
		s.PreviewURL,
		s.SpotifyURL,
		s.Message,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting shared song: %w", err)
	}
	return nil
}

// ListForUser returns shares the user sent or received, newest first, each
// annotated with the sender's name and the user's own reaction only.
func (r *ShareRepository) ListForUser(ctx context.Context, userID string) ([]SharedSongView, error) {
	query := `
		SELECT s.id, s.from_user_id, s.to_user_id, s.track_id, s.track_name,
		       s.artist_name, s.album_image, s.preview_url, s.spotify_url,
		       s.message, s.created_at, u.display_name,
		       (SELECT reaction FROM reactions WHERE shared_song_id = s.id AND user_id = $1)
		FROM shared_songs s
		JOIN users u ON u.id = s.from_user_id
		WHERE s.to_user_id = $1 OR s.from_user_id = $1
		ORDER BY s.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying shared songs: %w", err)
	}
	defer rows.Close()

	var shares []SharedSongView
	for rows.Next() {
		var v SharedSongView
		err := rows.Scan(
			&v.ID,
			&v.FromUserID,
			&v.ToUserID,
			&v.TrackID,
			&v.TrackName,
			&v.ArtistName,
			&v.AlbumImage,
			&v.PreviewURL,
			&v.SpotifyURL,
			&v.Message,
			&v.CreatedAt,
			&v.FromName,
			&v.MyReaction,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning shared song: %w", err)
		}
		shares = append(shares, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading shared songs: %w", err)
	}
	return shares, nil
}

// React records a reaction on a share. A second reaction from the same user
// on the same share replaces the first.
func (r *ShareRepository) React(ctx context.Context, sharedSongID int64, userID, reaction string) error {
	query := `
		INSERT INTO reactions (shared_song_id, user_id, reaction)
		VALUES ($1, $2, $3)
		ON CONFLICT (shared_song_id, user_id) DO UPDATE SET
			reaction = EXCLUDED.reaction
	`
	_, err := r.pool.Exec(ctx, query, sharedSongID, userID, reaction)
	if err != nil {
		return fmt.Errorf("upserting reaction: %w", err)
	}
	return nil
}

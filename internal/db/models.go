package db

import "time"

// Credential is a user's delegated Spotify credential plus the profile
// snapshot captured at authorization time. One row per Spotify user id.
// TokenExpiresAt is absolute epoch seconds; it only moves forward.
type Credential struct {
	UserID         string
	DisplayName    string
	ImageURL       string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt float64
}

// UserSummary identifies a connected user for listings and fan-out.
type UserSummary struct {
	ID          string
	DisplayName string
	ImageURL    string
}

// SharedSong is one share event. Immutable once created; reactions attach
// to it separately.
type SharedSong struct {
	ID         int64
	FromUserID string
	ToUserID   string
	TrackID    string
	TrackName  string
	ArtistName string
	AlbumImage string
	PreviewURL string
	SpotifyURL string
	Message    string
	CreatedAt  time.Time
}

// SharedSongView is a share as seen by one viewer: the sender's display name
// and the viewer's own reaction (nil if they have not reacted).
type SharedSongView struct {
	SharedSong
	FromName   string
	MyReaction *string
}

package spotify

import "time"

// Time ranges accepted by the top-items endpoints.
const (
	ShortTerm  = "short_term"
	MediumTerm = "medium_term"
	LongTerm   = "long_term"
)

// Profile is the authenticated user's Spotify profile.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url"`
}

// Track is a normalized track: artists joined with ", ", first album image
// or empty.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	AlbumImage string `json:"album_image"`
	PreviewURL string `json:"preview_url"`
	SpotifyURL string `json:"spotify_url"`
}

// Artist is a normalized artist with its genre list.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	Image  string   `json:"image"`
}

// PlayedTrack is one entry of a user's play history.
type PlayedTrack struct {
	Track
	PlayedAt time.Time `json:"played_at"`
}

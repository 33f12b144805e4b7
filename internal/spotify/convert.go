package spotify

import (
	"strings"

	api "github.com/zmb3/spotify/v2"
)

// convertFullTrack normalizes a full track object.
func convertFullTrack(t api.FullTrack) Track {
	return Track{
		ID:         t.ID.String(),
		Name:       t.Name,
		Artist:     joinArtists(t.Artists),
		AlbumImage: firstImage(t.Album.Images),
		PreviewURL: t.PreviewURL,
		SpotifyURL: t.ExternalURLs["spotify"],
	}
}

// convertArtist normalizes a full artist object. Genres is never nil so the
// JSON encoding is always a list.
func convertArtist(a api.FullArtist) Artist {
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	return Artist{
		ID:     a.ID.String(),
		Name:   a.Name,
		Genres: genres,
		Image:  firstImage(a.Images),
	}
}

// convertPlayed normalizes a play-history entry. The recently-played
// endpoint returns simplified tracks without album artwork.
func convertPlayed(item api.RecentlyPlayedItem) PlayedTrack {
	return PlayedTrack{
		Track: Track{
			ID:         item.Track.ID.String(),
			Name:       item.Track.Name,
			Artist:     joinArtists(item.Track.Artists),
			PreviewURL: item.Track.PreviewURL,
			SpotifyURL: item.Track.ExternalURLs["spotify"],
		},
		PlayedAt: item.PlayedAt,
	}
}

// joinArtists joins artist names with ", ".
func joinArtists(artists []api.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// firstImage returns the first image URL or "" when none exist.
func firstImage(images []api.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

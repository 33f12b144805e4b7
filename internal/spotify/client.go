// Package spotify wraps the Spotify Web API with normalized request and
// response types. The client holds no per-user state: every call takes the
// bearer access token it should use, so token lifecycle stays with the
// caller.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	api "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-circle/internal/apperror"
)

// defaultTimeout bounds a single catalog call. It is deliberately shorter
// than any fan-out deadline so one hung call cannot exhaust the budget.
const defaultTimeout = 8 * time.Second

// Client issues typed catalog requests. Non-2xx responses surface as
// apperror.UpstreamError with the upstream status; nothing is retried and a
// 429 is an error like any other.
type Client struct {
	timeout time.Duration
}

// NewClient creates a catalog client with the default per-call timeout.
func NewClient() *Client {
	return &Client{timeout: defaultTimeout}
}

// api builds a short-lived API client bound to one access token. The static
// token source never refreshes; expiry handling belongs to the token
// manager.
func (c *Client) api(ctx context.Context, accessToken string) *api.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = c.timeout
	return api.New(httpClient)
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	user, err := c.api(ctx, accessToken).CurrentUser(ctx)
	if err != nil {
		return nil, mapErr("get profile", err)
	}

	imageURL := ""
	if len(user.Images) > 0 {
		imageURL = user.Images[0].URL
	}
	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.ID
	}
	return &Profile{ID: user.ID, DisplayName: displayName, ImageURL: imageURL}, nil
}

// TopTracks fetches one page of the user's top tracks for the given
// lookback window.
func (c *Client) TopTracks(ctx context.Context, accessToken string, limit int, timeRange string) ([]Track, error) {
	page, err := c.api(ctx, accessToken).CurrentUsersTopTracks(ctx,
		api.Limit(limit),
		api.Timerange(api.Range(timeRange)),
	)
	if err != nil {
		return nil, mapErr("get top tracks", err)
	}

	tracks := make([]Track, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		tracks = append(tracks, convertFullTrack(t))
	}
	return tracks, nil
}

// TopArtists fetches one page of the user's top artists for the given
// lookback window.
func (c *Client) TopArtists(ctx context.Context, accessToken string, limit int, timeRange string) ([]Artist, error) {
	page, err := c.api(ctx, accessToken).CurrentUsersTopArtists(ctx,
		api.Limit(limit),
		api.Timerange(api.Range(timeRange)),
	)
	if err != nil {
		return nil, mapErr("get top artists", err)
	}

	artists := make([]Artist, 0, len(page.Artists))
	for _, a := range page.Artists {
		artists = append(artists, convertArtist(a))
	}
	return artists, nil
}

// RecentlyPlayed fetches the user's most recent plays, newest first.
func (c *Client) RecentlyPlayed(ctx context.Context, accessToken string, limit int) ([]PlayedTrack, error) {
	items, err := c.api(ctx, accessToken).PlayerRecentlyPlayedOpt(ctx, &api.RecentlyPlayedOptions{Limit: api.Numeric(limit)})
	if err != nil {
		return nil, mapErr("get recently played", err)
	}

	played := make([]PlayedTrack, 0, len(items))
	for _, item := range items {
		played = append(played, convertPlayed(item))
	}
	return played, nil
}

// SearchTracks runs a track search on the user's behalf.
func (c *Client) SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]Track, error) {
	result, err := c.api(ctx, accessToken).Search(ctx, query, api.SearchTypeTrack, api.Limit(limit))
	if err != nil {
		return nil, mapErr("search tracks", err)
	}

	if result.Tracks == nil {
		return []Track{}, nil
	}
	tracks := make([]Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, convertFullTrack(t))
	}
	return tracks, nil
}

// mapErr turns a zmb3 API error into the upstream failure category,
// preserving the status code Spotify returned.
func mapErr(op string, err error) error {
	var se api.Error
	if errors.As(err, &se) {
		return apperror.Upstream(op, se.Status, se.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Package lyrics fetches lyric snippets from lyrics.ovh. The feature is
// decorative: callers treat every failure as "no snippet" and move on.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.lyrics.ovh/v1"
	clientTimeout  = 5 * time.Second
)

// ErrNoLyrics is returned when no usable lyric line exists for a track.
var ErrNoLyrics = errors.New("no lyrics found")

// Snippet is a single lyric line with its attribution.
type Snippet struct {
	Text string `json:"text"`
	Attr string `json:"attr"`
}

// Client is a lyrics.ovh API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a lyrics client with a short per-call timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: clientTimeout},
		baseURL:    defaultBaseURL,
	}
}

// SetBaseURL overrides the upstream URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
}

// SnippetFor fetches lyrics for a track and picks one random line from it.
// Returns ErrNoLyrics when the track has no lyrics or no line survives
// filtering.
func (c *Client) SnippetFor(ctx context.Context, artist, title string) (*Snippet, error) {
	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(artist), url.PathEscape(cleanTitle(title)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching lyrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNoLyrics
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading lyrics response: %w", err)
	}

	var parsed lyricsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing lyrics response: %w", err)
	}

	lines := snippetLines(parsed.Lyrics)
	if len(lines) == 0 {
		return nil, ErrNoLyrics
	}

	return &Snippet{
		Text: lines[rand.Intn(len(lines))],
		Attr: fmt.Sprintf("%s — %s", title, artist),
	}, nil
}

// cleanTitle strips featured-artist and version suffixes that lyrics.ovh
// does not recognize, e.g. "Song (Remastered)" or "Song feat. X".
func cleanTitle(title string) string {
	for _, sep := range []string{" (", " -", " feat", " ft."} {
		if i := strings.Index(title, sep); i >= 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}

// snippetLines filters raw lyrics down to quotable lines: long enough,
// not a section header, not a provider watermark.
func snippetLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 {
			continue
		}
		if strings.HasPrefix(line, "[") || strings.HasPrefix(line, "(") {
			continue
		}
		if strings.Contains(line, "Paroles de") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

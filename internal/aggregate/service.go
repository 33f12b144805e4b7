// Package aggregate fans catalog calls out across one or many users'
// credentials and merges the results into cross-user views.
package aggregate

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-spotify-circle/internal/db"
	"github.com/justestif/go-spotify-circle/internal/lyrics"
	"github.com/justestif/go-spotify-circle/internal/spotify"
)

// Page sizes and lookback windows. Compare uses the same limit and window
// on both sides so rank positions stay comparable.
const (
	topTracksLimit  = 50
	topTracksRange  = spotify.MediumTerm
	topArtistsLimit = 20
	topArtistsRange = spotify.ShortTerm
	compareLimit    = 50
	compareRange    = spotify.MediumTerm
	recentPageSize  = 20
	recentFeedSize  = 20
	searchLimit     = 10
	genreListSize   = 10

	// fanoutDeadline bounds a whole cross-user or per-track fan-out. Calls
	// still pending at the deadline are abandoned and excluded.
	fanoutDeadline = 15 * time.Second
)

// TokenSource yields a currently-valid access token for a user.
type TokenSource interface {
	ValidAccessToken(ctx context.Context, userID string) (string, error)
}

// Catalog is the slice of the upstream client the engine needs.
type Catalog interface {
	TopTracks(ctx context.Context, accessToken string, limit int, timeRange string) ([]spotify.Track, error)
	TopArtists(ctx context.Context, accessToken string, limit int, timeRange string) ([]spotify.Artist, error)
	RecentlyPlayed(ctx context.Context, accessToken string, limit int) ([]spotify.PlayedTrack, error)
	SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]spotify.Track, error)
}

// UserLister enumerates connected users for cross-user fan-out.
type UserLister interface {
	ListAll(ctx context.Context) ([]db.UserSummary, error)
}

// LyricsSource yields a lyric snippet for one track.
type LyricsSource interface {
	SnippetFor(ctx context.Context, artist, title string) (*lyrics.Snippet, error)
}

// FeedItem is one play in the merged recent-activity feed, annotated with
// the listener it belongs to.
type FeedItem struct {
	spotify.PlayedTrack
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// Comparison is the taste comparison between two users.
type Comparison struct {
	CompatibilityScore float64       `json:"compatibility_score"`
	SharedArtists      []string      `json:"shared_artists"`
	SharedTrackCount   int           `json:"shared_track_count"`
	MyTopGenres        []string      `json:"my_top_genres"`
	TheirTopGenres     []string      `json:"their_top_genres"`
	CombinedTracks     []RankedTrack `json:"combined_tracks"`
}

// Service is the aggregation engine. It is a stateless pipeline over
// point-in-time catalog responses; it persists nothing.
type Service struct {
	tokens  TokenSource
	catalog Catalog
	users   UserLister
	lyrics  LyricsSource
	logger  *log.Logger
}

// NewService creates the aggregation engine.
func NewService(tokens TokenSource, catalog Catalog, users UserLister, lyricsSource LyricsSource, logger *log.Logger) *Service {
	return &Service{tokens: tokens, catalog: catalog, users: users, lyrics: lyricsSource, logger: logger}
}

// TopTracks returns one page of the user's top tracks.
func (s *Service) TopTracks(ctx context.Context, userID string) ([]spotify.Track, error) {
	token, err := s.tokens.ValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.TopTracks(ctx, token, topTracksLimit, topTracksRange)
}

// TopArtists returns one page of the user's top artists.
func (s *Service) TopArtists(ctx context.Context, userID string) ([]spotify.Artist, error) {
	token, err := s.tokens.ValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.TopArtists(ctx, token, topArtistsLimit, topArtistsRange)
}

// SearchTracks runs a catalog search on the user's behalf.
func (s *Service) SearchTracks(ctx context.Context, userID, query string) ([]spotify.Track, error) {
	token, err := s.tokens.ValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.SearchTracks(ctx, token, query, searchLimit)
}

// RecentActivity merges the most recent plays of every connected user into
// one feed, newest first, truncated to recentFeedSize.
//
// The merge is best-effort: a user whose token cannot be obtained or whose
// fetch fails is skipped, and the remaining users' plays still come back.
// All users failing yields an empty feed, not an error.
func (s *Service) RecentActivity(ctx context.Context) ([]FeedItem, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, fanoutDeadline)
	defer cancel()

	var (
		mu    sync.Mutex
		items []FeedItem
		wg    sync.WaitGroup
	)
	for _, u := range users {
		wg.Add(1)
		go func(u db.UserSummary) {
			defer wg.Done()

			token, err := s.tokens.ValidAccessToken(ctx, u.ID)
			if err != nil {
				s.logger.Debug("skipping user in recent-activity merge", "user", u.ID, "err", err)
				return
			}
			played, err := s.catalog.RecentlyPlayed(ctx, token, recentPageSize)
			if err != nil {
				s.logger.Debug("skipping user in recent-activity merge", "user", u.ID, "err", err)
				return
			}

			mu.Lock()
			for _, p := range played {
				items = append(items, FeedItem{PlayedTrack: p, UserID: u.ID, UserName: u.DisplayName})
			}
			mu.Unlock()
		}(u)
	}
	wg.Wait()

	sort.SliceStable(items, func(i, j int) bool { return items[i].PlayedAt.After(items[j].PlayedAt) })
	if len(items) > recentFeedSize {
		items = items[:recentFeedSize]
	}
	if items == nil {
		items = []FeedItem{}
	}
	return items, nil
}

// Compare builds the pairwise taste comparison. Unlike the recent-activity
// merge it is all-or-nothing: a comparison with one side missing is
// meaningless, so any token or fetch failure fails the whole operation.
// An unconnected target surfaces as apperror.ErrNotConnected.
func (s *Service) Compare(ctx context.Context, myID, otherID string) (*Comparison, error) {
	myToken, err := s.tokens.ValidAccessToken(ctx, myID)
	if err != nil {
		return nil, err
	}
	otherToken, err := s.tokens.ValidAccessToken(ctx, otherID)
	if err != nil {
		return nil, err
	}

	var (
		myArtists, otherArtists []spotify.Artist
		myTracks, otherTracks   []spotify.Track
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		myArtists, err = s.catalog.TopArtists(gctx, myToken, compareLimit, compareRange)
		return err
	})
	g.Go(func() (err error) {
		otherArtists, err = s.catalog.TopArtists(gctx, otherToken, compareLimit, compareRange)
		return err
	})
	g.Go(func() (err error) {
		myTracks, err = s.catalog.TopTracks(gctx, myToken, compareLimit, compareRange)
		return err
	})
	g.Go(func() (err error) {
		otherTracks, err = s.catalog.TopTracks(gctx, otherToken, compareLimit, compareRange)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shared := sharedArtistNames(myArtists, otherArtists)
	return &Comparison{
		CompatibilityScore: compatibilityScore(len(myArtists), len(otherArtists), len(shared)),
		SharedArtists:      shared,
		SharedTrackCount:   sharedTrackCount(myTracks, otherTracks),
		MyTopGenres:        topGenres(myArtists, genreListSize),
		TheirTopGenres:     topGenres(otherArtists, genreListSize),
		CombinedTracks:     combineRankings(myTracks, otherTracks),
	}, nil
}

// TopLyrics picks one lyric line from each of the user's top tracks where
// lyrics can be found, in shuffled order. Per-track failures are skipped;
// tracks still pending at the deadline are excluded.
func (s *Service) TopLyrics(ctx context.Context, userID string) ([]lyrics.Snippet, error) {
	tracks, err := s.TopTracks(ctx, userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, fanoutDeadline)
	defer cancel()

	var (
		mu       sync.Mutex
		snippets []lyrics.Snippet
		wg       sync.WaitGroup
	)
	for _, t := range tracks {
		wg.Add(1)
		go func(t spotify.Track) {
			defer wg.Done()

			artist := firstArtist(t.Artist)
			snippet, err := s.lyrics.SnippetFor(ctx, artist, t.Name)
			if err != nil {
				return
			}

			mu.Lock()
			snippets = append(snippets, *snippet)
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	rand.Shuffle(len(snippets), func(i, j int) {
		snippets[i], snippets[j] = snippets[j], snippets[i]
	})
	if snippets == nil {
		snippets = []lyrics.Snippet{}
	}
	return snippets, nil
}

// firstArtist returns the first name of a ", "-joined artist string.
func firstArtist(joined string) string {
	if i := strings.Index(joined, ", "); i >= 0 {
		return joined[:i]
	}
	if joined == "" {
		return "Unknown"
	}
	return joined
}

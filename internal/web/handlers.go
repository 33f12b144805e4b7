package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/justestif/go-spotify-circle/internal/aggregate"
	"github.com/justestif/go-spotify-circle/internal/apperror"
	"github.com/justestif/go-spotify-circle/internal/auth"
	"github.com/justestif/go-spotify-circle/internal/db"
	"github.com/justestif/go-spotify-circle/internal/spotify"
)

const stateCookieName = "oauth_state"

// Handlers contains the HTTP handlers for the application.
type Handlers struct {
	authenticator *auth.Authenticator
	sessions      *auth.Sessions
	catalog       *spotify.Client
	credentials   *db.CredentialRepository
	shares        *db.ShareRepository
	aggregator    *aggregate.Service
	logger        *log.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(
	authenticator *auth.Authenticator,
	sessions *auth.Sessions,
	catalog *spotify.Client,
	credentials *db.CredentialRepository,
	shares *db.ShareRepository,
	aggregator *aggregate.Service,
	logger *log.Logger,
) *Handlers {
	return &Handlers{
		authenticator: authenticator,
		sessions:      sessions,
		catalog:       catalog,
		credentials:   credentials,
		shares:        shares,
		aggregator:    aggregator,
		logger:        logger,
	}
}

// Login starts the Spotify authorization flow (GET /login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	http.Redirect(w, r, h.authenticator.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the authorization flow (GET /callback): verifies the
// state nonce, exchanges the code, fetches the profile, upserts the
// credential row wholesale, and issues the session cookie.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || r.URL.Query().Get("state") != stateCookie.Value {
		respondError(w, h.logger, apperror.Validation("state mismatch"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Redirect(w, r, "/?error="+errMsg, http.StatusTemporaryRedirect)
		return
	}

	token, err := h.authenticator.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	profile, err := h.catalog.Profile(r.Context(), token.AccessToken)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	cred := &db.Credential{
		UserID:         profile.ID,
		DisplayName:    profile.DisplayName,
		ImageURL:       profile.ImageURL,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: float64(token.Expiry.Unix()),
	}
	if err := h.credentials.Upsert(r.Context(), cred); err != nil {
		respondError(w, h.logger, err)
		return
	}

	session, err := h.sessions.Issue(profile.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.sessions.SetCookie(w, session)

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout clears the session cookie (GET /logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Me returns the stored profile of the resolved identity (GET /api/me).
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	cred, err := h.credentials.Get(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, spotify.Profile{
		ID:          cred.UserID,
		DisplayName: cred.DisplayName,
		ImageURL:    cred.ImageURL,
	})
}

type userResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url"`
}

// Users lists every other connected user (GET /api/users).
func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	others, err := h.credentials.ListOthers(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	users := make([]userResponse, 0, len(others))
	for _, u := range others {
		users = append(users, userResponse{ID: u.ID, DisplayName: u.DisplayName, ImageURL: u.ImageURL})
	}
	respondJSON(w, http.StatusOK, users)
}

// TopTracks returns the user's top tracks (GET /api/me/top-tracks).
func (h *Handlers) TopTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.aggregator.TopTracks(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

// TopArtists returns the user's top artists (GET /api/me/top-artists).
func (h *Handlers) TopArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.aggregator.TopArtists(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, artists)
}

// TopLyrics returns lyric snippets from the user's top tracks
// (GET /api/me/top-lyrics).
func (h *Handlers) TopLyrics(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.aggregator.TopLyrics(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snippets)
}

// Recent returns the merged recent-activity feed (GET /api/recent).
func (h *Handlers) Recent(w http.ResponseWriter, r *http.Request) {
	feed, err := h.aggregator.RecentActivity(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, feed)
}

// Compare compares the caller with another user (GET /api/compare/{userID}).
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	comparison, err := h.aggregator.Compare(r.Context(), userID(r), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, comparison)
}

// Search searches the catalog for tracks (GET /api/search?q=).
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, h.logger, apperror.Validation("missing query parameter q"))
		return
	}

	tracks, err := h.aggregator.SearchTracks(r.Context(), userID(r), query)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

type shareRequest struct {
	ToUserID   string `json:"to_user_id"`
	TrackID    string `json:"track_id"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	AlbumImage string `json:"album_image"`
	PreviewURL string `json:"preview_url"`
	SpotifyURL string `json:"spotify_url"`
	Message    string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// Share records a track shared with another user (POST /api/share).
func (h *Handlers) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperror.Validation("invalid JSON body"))
		return
	}
	if req.ToUserID == "" || req.TrackID == "" {
		respondError(w, h.logger, apperror.Validation("to_user_id and track_id are required"))
		return
	}

	share := &db.SharedSong{
		FromUserID: userID(r),
		ToUserID:   req.ToUserID,
		TrackID:    req.TrackID,
		TrackName:  req.TrackName,
		ArtistName: req.ArtistName,
		AlbumImage: req.AlbumImage,
		PreviewURL: req.PreviewURL,
		SpotifyURL: req.SpotifyURL,
		Message:    req.Message,
	}
	if err := h.shares.Create(r.Context(), share); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

type sharedSongResponse struct {
	ID         int64     `json:"id"`
	FromUserID string    `json:"from_user_id"`
	FromName   string    `json:"from_name"`
	ToUserID   string    `json:"to_user_id"`
	TrackID    string    `json:"track_id"`
	TrackName  string    `json:"track_name"`
	ArtistName string    `json:"artist_name"`
	AlbumImage string    `json:"album_image"`
	PreviewURL string    `json:"preview_url"`
	SpotifyURL string    `json:"spotify_url"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	MyReaction *string   `json:"my_reaction"`
}

// Shared lists shares the caller sent or received (GET /api/shared).
func (h *Handlers) Shared(w http.ResponseWriter, r *http.Request) {
	views, err := h.shares.ListForUser(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	shares := make([]sharedSongResponse, 0, len(views))
	for _, v := range views {
		shares = append(shares, sharedSongResponse{
			ID:         v.ID,
			FromUserID: v.FromUserID,
			FromName:   v.FromName,
			ToUserID:   v.ToUserID,
			TrackID:    v.TrackID,
			TrackName:  v.TrackName,
			ArtistName: v.ArtistName,
			AlbumImage: v.AlbumImage,
			PreviewURL: v.PreviewURL,
			SpotifyURL: v.SpotifyURL,
			Message:    v.Message,
			CreatedAt:  v.CreatedAt,
			MyReaction: v.MyReaction,
		})
	}
	respondJSON(w, http.StatusOK, shares)
}

type reactRequest struct {
	SharedSongID int64  `json:"shared_song_id"`
	Reaction     string `json:"reaction"`
}

// React records a reaction on a share (POST /api/react). Reacting again
// replaces the earlier reaction.
func (h *Handlers) React(w http.ResponseWriter, r *http.Request) {
	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperror.Validation("invalid JSON body"))
		return
	}
	if req.SharedSongID == 0 || req.Reaction == "" {
		respondError(w, h.logger, apperror.Validation("shared_song_id and reaction are required"))
		return
	}

	if err := h.shares.React(r.Context(), req.SharedSongID, userID(r), req.Reaction); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

// Package tokens keeps each user's delegated access token valid, refreshing
// through the credential store when one is near expiry.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-circle/internal/apperror"
	"github.com/justestif/go-spotify-circle/internal/db"
)

// refreshMargin is the safety window before actual expiry. A token inside
// the margin is treated as expired so callers never hand Spotify a token
// about to lapse mid-request.
const refreshMargin = 60 * time.Second

// CredentialStore is the slice of the credential repository the manager
// needs.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*db.Credential, error)
	UpdateTokens(ctx context.Context, userID, accessToken, refreshToken string, expiresAt float64) error
}

// Refresher performs the upstream refresh-token grant.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Manager hands out currently-valid access tokens per user.
//
// Two overlapping requests may both decide to refresh the same user; the
// second write wins. If Spotify rotates refresh tokens, the loser can
// persist a stale one and lock the user out until re-authorization. Known
// gap, deliberately not papered over with locking.
type Manager struct {
	store     CredentialStore
	refresher Refresher
	now       func() time.Time
}

// NewManager creates a Manager over the given store and refresher.
func NewManager(store CredentialStore, refresher Refresher) *Manager {
	return &Manager{store: store, refresher: refresher, now: time.Now}
}

// ValidAccessToken returns a usable access token for the user.
//
// An unknown user yields apperror.ErrNotConnected — a normal outcome, not a
// fault. A token outside the refresh margin is returned as-is with no
// upstream call. Inside the margin, exactly one synchronous refresh runs;
// its result (including a rotated refresh token, or the retained one when
// Spotify issues none) is persisted before the new access token is
// returned. A failed refresh propagates; the stale token is never used.
func (m *Manager) ValidAccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := m.store.Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return "", apperror.ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}

	now := float64(m.now().Unix())
	if now < cred.TokenExpiresAt-refreshMargin.Seconds() {
		return cred.AccessToken, nil
	}

	token, err := m.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = cred.RefreshToken
	}

	if err := m.store.UpdateTokens(ctx, userID, token.AccessToken, refreshToken, float64(token.Expiry.Unix())); err != nil {
		return "", fmt.Errorf("persisting refreshed tokens: %w", err)
	}
	return token.AccessToken, nil
}

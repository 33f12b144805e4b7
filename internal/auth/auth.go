// Package auth provides Spotify OAuth2 authorization and signed session
// identity for the web application.
package auth

import (
	"context"
	"errors"
	"fmt"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-circle/internal/apperror"
)

// Authenticator wraps the Spotify authorization-code flow: building the
// authorize URL, exchanging a callback code, and refreshing a stored refresh
// token. It holds no per-user state.
type Authenticator struct {
	conf *oauth2.Config
}

// New creates an Authenticator for the given app credentials. The redirect
// URL must match the Spotify app configuration exactly.
func New(clientID, clientSecret, redirectURL string) *Authenticator {
	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				spotifyauth.ScopeUserReadRecentlyPlayed,
				spotifyauth.ScopeUserTopRead,
				spotifyauth.ScopeUserLibraryRead,
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
	}
}

// SetEndpoint overrides the upstream OAuth endpoints. Used by tests to point
// at a local fake.
func (a *Authenticator) SetEndpoint(authURL, tokenURL string) {
	a.conf.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
}

// AuthCodeURL returns the Spotify authorize URL for the given state nonce.
// show_dialog forces the account chooser so a second member of the group can
// connect from a shared browser.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades a callback authorization code for a token pair.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, upstreamErr("exchange code", err)
	}
	return token, nil
}

// Refresh performs a refresh-token grant. The returned token carries the
// prior refresh token when Spotify does not rotate it. Failures surface as
// UpstreamError; there is no retry and no fallback to the stale token.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	// A token with no access token is always invalid, so the source
	// refreshes on the first Token call.
	src := a.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, upstreamErr("refresh token", err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

// upstreamErr maps an oauth2 failure to the upstream error category,
// preserving the token endpoint's status and body when present.
func upstreamErr(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return apperror.Upstream(op, status, string(re.Body))
	}
	return fmt.Errorf("%s: %w", op, err)
}

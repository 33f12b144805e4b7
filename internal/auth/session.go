package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/justestif/go-spotify-circle/internal/apperror"
)

const (
	sessionCookieName = "session"
	sessionTTL        = 30 * 24 * time.Hour
	issuer            = "spotify-circle"
)

// Sessions issues and resolves the signed identity cookie. The token is an
// HS256 JWT whose subject is the Spotify user id; the server keeps no
// session state.
type Sessions struct {
	secret []byte
	now    func() time.Time
}

// NewSessions creates a Sessions with the given signing secret.
func NewSessions(secret string) (*Sessions, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 characters")
	}
	return &Sessions{secret: []byte(secret), now: time.Now}, nil
}

// Issue creates a signed session token for the user.
func (s *Sessions) Issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Resolve validates a session token and returns the user id. Every failure
// mode (missing, tampered, expired, wrong issuer) is reported uniformly as
// ErrUnauthenticated; callers never learn the cause.
func (s *Sessions) Resolve(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !token.Valid {
		return "", apperror.ErrUnauthenticated
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", apperror.ErrUnauthenticated
	}
	return claims.Subject, nil
}

// ResolveRequest extracts and resolves the identity from the session cookie.
func (s *Sessions) ResolveRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", apperror.ErrUnauthenticated
	}
	return s.Resolve(cookie.Value)
}

// SetCookie sets the session cookie on the response.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// ClearCookie removes the session cookie from the response.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/justestif/go-spotify-circle/internal/apperror"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestSessions(t *testing.T) *Sessions {
	t.Helper()
	s, err := NewSessions(testSecret)
	if err != nil {
		t.Fatalf("NewSessions() error = %v", err)
	}
	return s
}

func TestNewSessions_RejectsShortSecret(t *testing.T) {
	if _, err := NewSessions("short"); err == nil {
		t.Fatal("NewSessions() error = nil, want error for short secret")
	}
}

func TestSessions_IssueResolveRoundTrip(t *testing.T) {
	s := newTestSessions(t)

	token, err := s.Issue("wizzlerman")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	userID, err := s.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if userID != "wizzlerman" {
		t.Errorf("Resolve() = %q, want %q", userID, "wizzlerman")
	}
}

func TestSessions_ResolveRejections(t *testing.T) {
	s := newTestSessions(t)
	good, err := s.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	other, err := NewSessions("another-secret-of-decent-length")
	if err != nil {
		t.Fatalf("NewSessions() error = %v", err)
	}
	wrongSecret, err := other.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Valid signature, wrong issuer.
	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	// Valid signature, no expiry claim.
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
		Issuer:  issuer,
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"tampered payload", good[:len(good)-4] + "XXXX"},
		{"wrong secret", wrongSecret},
		{"wrong issuer", wrongIssuer},
		{"missing expiry", noExpiry},
		{"alg none", strings.Replace(good, good[:strings.Index(good, ".")], "eyJhbGciOiJub25lIn0", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Resolve(tt.token); !errors.Is(err, apperror.ErrUnauthenticated) {
				t.Errorf("Resolve() error = %v, want ErrUnauthenticated", err)
			}
		})
	}
}

func TestSessions_ResolveExpired(t *testing.T) {
	s := newTestSessions(t)

	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Still valid just before the TTL elapses, rejected after.
	s.now = func() time.Time { return issued.Add(sessionTTL - time.Minute) }
	if _, err := s.Resolve(token); err != nil {
		t.Errorf("Resolve() before expiry error = %v", err)
	}

	s.now = func() time.Time { return issued.Add(sessionTTL + time.Minute) }
	if _, err := s.Resolve(token); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Resolve() after expiry error = %v, want ErrUnauthenticated", err)
	}
}

func TestSessions_ResolveRequest(t *testing.T) {
	s := newTestSessions(t)
	token, err := s.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	userID, err := s.ResolveRequest(r)
	if err != nil {
		t.Fatalf("ResolveRequest() error = %v", err)
	}
	if userID != "alice" {
		t.Errorf("ResolveRequest() = %q, want %q", userID, "alice")
	}

	bare := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if _, err := s.ResolveRequest(bare); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("ResolveRequest() without cookie error = %v, want ErrUnauthenticated", err)
	}
}

func TestSessions_CookieLifecycle(t *testing.T) {
	s := newTestSessions(t)

	w := httptest.NewRecorder()
	s.SetCookie(w, "token-value")
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("len(cookies) = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != sessionCookieName || c.Value != "token-value" {
		t.Errorf("cookie = %s=%s, want %s=token-value", c.Name, c.Value, sessionCookieName)
	}
	if !c.HttpOnly {
		t.Error("cookie is not HttpOnly")
	}

	w = httptest.NewRecorder()
	s.ClearCookie(w)
	cookies = w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("ClearCookie did not expire the cookie: %+v", cookies)
	}
}

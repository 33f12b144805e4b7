package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-circle/internal/apperror"
	"github.com/justestif/go-spotify-circle/internal/auth"
	"github.com/justestif/go-spotify-circle/internal/db"
)

func testHandlers(t *testing.T) *Handlers {
	t.Helper()
	sessions, err := auth.NewSessions("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewSessions() error = %v", err)
	}
	return &Handlers{
		authenticator: auth.New("client-id", "client-secret", "http://localhost:8888/callback"),
		sessions:      sessions,
		logger:        log.New(io.Discard),
	}
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return resp.Error
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthenticated", apperror.ErrUnauthenticated, http.StatusUnauthorized},
		{"not connected", apperror.ErrNotConnected, http.StatusNotFound},
		{"validation", apperror.Validation("bad input"), http.StatusBadRequest},
		{"row not found", db.ErrNotFound, http.StatusNotFound},
		{"upstream", apperror.Upstream("get profile", 503, "oh no"), http.StatusBadGateway},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	logger := log.New(io.Discard)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondError(w, logger, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q, want JSON", ct)
			}
			if msg := decodeError(t, w.Body); msg == "" {
				t.Error("error body is empty")
			}
		})
	}
}

func TestRespondError_DoesNotLeakUpstreamBody(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, log.New(io.Discard), apperror.Upstream("get profile", 500, "secret internal detail"))

	if strings.Contains(w.Body.String(), "secret internal detail") {
		t.Error("upstream body leaked to the client")
	}
}

func TestRequireUser(t *testing.T) {
	h := testHandlers(t)

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = userID(r)
		w.WriteHeader(http.StatusNoContent)
	})
	protected := h.requireUser(next)

	// No cookie: 401, handler never runs.
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without cookie = %d, want 401", w.Code)
	}
	if gotUserID != "" {
		t.Error("handler ran without an identity")
	}

	// Garbage cookie: still 401.
	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: "garbage"})
	protected.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status with bad cookie = %d, want 401", w.Code)
	}

	// Valid cookie: identity lands in the request context.
	token, err := h.sessions.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: token})
	protected.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Errorf("status with valid cookie = %d, want 204", w.Code)
	}
	if gotUserID != "alice" {
		t.Errorf("userID = %q, want %q", gotUserID, "alice")
	}
}

func TestLogin(t *testing.T) {
	h := testHandlers(t)

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}

	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == stateCookieName {
			state = c.Value
		}
	}
	if state == "" {
		t.Fatal("no state cookie set")
	}

	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parsing redirect location: %v", err)
	}
	if got := loc.Query().Get("state"); got != state {
		t.Errorf("redirect state = %q, cookie state = %q", got, state)
	}
}

func TestCallback_StateMismatch(t *testing.T) {
	h := testHandlers(t)

	tests := []struct {
		name   string
		cookie string
		query  string
	}{
		{"no cookie", "", "state=abc"},
		{"mismatched", "expected", "state=forged"},
		{"missing query state", "expected", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: stateCookieName, Value: tt.cookie})
			}
			h.Callback(w, r)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCallback_UpstreamDenied(t *testing.T) {
	h := testHandlers(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/callback?state=abc&error=access_denied", nil)
	r.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})
	h.Callback(w, r)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/?error=access_denied" {
		t.Errorf("Location = %q", loc)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	h := testHandlers(t)

	w := httptest.NewRecorder()
	h.Search(w, httptest.NewRequest(http.MethodGet, "/api/search", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestShare_Validation(t *testing.T) {
	h := testHandlers(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing to_user_id", `{"track_id": "t1"}`},
		{"missing track_id", `{"to_user_id": "bob"}`},
		{"empty body object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/share", strings.NewReader(tt.body))
			h.Share(w, r)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestReact_Validation(t *testing.T) {
	h := testHandlers(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "not json"},
		{"missing reaction", `{"shared_song_id": 7}`},
		{"missing id", `{"reaction": "🔥"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/react", strings.NewReader(tt.body))
			h.React(w, r)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := testHandlers(t)

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodGet, "/logout", nil))

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie was not cleared")
	}
}

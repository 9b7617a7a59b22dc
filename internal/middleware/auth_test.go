package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/i18n"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

type fakeSessions map[string]*identity.SessionInfo

func (f fakeSessions) CurrentSession(ctx context.Context, token string) (*identity.SessionInfo, error) {
	if s, ok := f[token]; ok {
		return s, nil
	}
	return nil, apperr.Unauthenticated("error.auth.session_expired", "bad token")
}

type fakeProfiles map[string]*models.Profile

func (f fakeProfiles) Get(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("error.profile.not_found", "no profile")
}

var (
	sessions = fakeSessions{
		"farmer": {SessionID: "s-1", UserID: "u-farmer"},
		"admin":  {SessionID: "s-2", UserID: "u-admin"},
		"orphan": {SessionID: "s-3", UserID: "u-orphan"},
	}
	profiles = fakeProfiles{
		"u-farmer": {ID: "u-farmer", Role: models.RoleFarmer},
		"u-admin":  {ID: "u-admin", Role: models.RoleAdmin},
	}
)

func writeStatus(w http.ResponseWriter, r *http.Request, err error) {
	w.WriteHeader(apperr.HTTPStatus(err))
}

func serve(h http.Handler, token string, cookie bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		if cookie {
			req.AddCookie(&http.Cookie{Name: AccessCookie, Value: token})
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	rec := httptest.NewRecorder()
	Auth(sessions, profiles)(h).ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole(models.RoleAdmin, writeStatus)(ok)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"bad token", "forged", http.StatusUnauthorized},
		{"farmer", "farmer", http.StatusForbidden},
		{"no profile", "orphan", http.StatusForbidden},
		{"admin", "admin", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(h, tt.token, false); rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequirePage(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequirePage(models.RoleFarmer)(ok)

	tests := []struct {
		name     string
		token    string
		want     int
		location string
	}{
		{"anonymous", "", http.StatusFound, "/login"},
		{"admin on farmer page", "admin", http.StatusFound, "/unauthorized"},
		{"profile not loaded", "orphan", http.StatusNoContent, ""},
		{"farmer", "farmer", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.token, true)
			if rec.Code != tt.want {
				t.Fatalf("Expected %d, got %d", tt.want, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.location {
				t.Errorf("Expected Location %q, got %q", tt.location, loc)
			}
		})
	}
}

func TestTokenFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "cookie"})
	if got := TokenFrom(req); got != "abc" {
		t.Errorf("Expected header token to win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic xyz")
	if got := TokenFrom(req); got != "" {
		t.Errorf("Expected non-bearer scheme to be ignored, got %q", got)
	}
}

func TestLocale(t *testing.T) {
	var got string
	h := Locale(i18n.New("en"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LanguageFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/?lang=kn", nil)
	req.Header.Set("Accept-Language", "hi-IN,hi;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "kn" {
		t.Errorf("Expected query to win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "hi-IN,hi;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "hi" {
		t.Errorf("Expected Accept-Language to pick hi, got %q", got)
	}
}

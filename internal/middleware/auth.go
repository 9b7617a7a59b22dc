package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/guard"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

type contextKey string

const (
	ViewerContextKey contextKey = "viewer"

	// AccessCookie carries the access token for page navigations
	AccessCookie = "access_token"
)

// Viewer is whoever sent the request. Profile is nil when the user has none yet.
type Viewer struct {
	Token   string
	Session *identity.SessionInfo
	Profile *models.Profile
}

// Principal converts the viewer for lifecycle operations. A nil viewer is anonymous.
func (v *Viewer) Principal() identity.Principal {
	if v == nil || v.Session == nil {
		return identity.Principal{}
	}
	p := identity.Principal{UserID: v.Session.UserID, SessionID: v.Session.SessionID}
	if v.Profile != nil {
		p.Role = v.Profile.Role
	}
	return p
}

// SessionSource resolves access tokens
type SessionSource interface {
	CurrentSession(ctx context.Context, accessToken string) (*identity.SessionInfo, error)
}

// ErrorWriter renders an error response
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// ViewerFrom returns the viewer stored by Auth, or nil
func ViewerFrom(ctx context.Context) *Viewer {
	v, _ := ctx.Value(ViewerContextKey).(*Viewer)
	return v
}

// TokenFrom reads a bearer token, falling back to the access cookie
func TokenFrom(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(AccessCookie); err == nil {
		return c.Value
	}
	return ""
}

// Auth resolves the token, if any, and stores the viewer in the request context. It never
// rejects a request: anonymous requests carry no viewer and the Require* middlewares decide.
func Auth(sessions SessionSource, profiles guard.ProfileSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFrom(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.CurrentSession(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			viewer := &Viewer{Token: token, Session: session}
			profile, err := profiles.Get(r.Context(), session.UserID)
			switch {
			case err == nil:
				viewer.Profile = profile
			case errors.Is(err, apperr.ErrNotFound):
			default:
				log.Printf("⚠️ Profile lookup for %s failed: %v", session.UserID, err)
			}

			ctx := context.WithValue(r.Context(), ViewerContextKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards JSON endpoints: 401 without a session, 403 for another role
func RequireRole(role models.Role, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ViewerFrom(r.Context()).Principal().Require(role); err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession guards endpoints open to any signed-in user
func RequireSession(fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ViewerFrom(r.Context()).Principal().UserID == "" {
				fail(w, r, apperr.Unauthenticated("error.auth.session_required", "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuardState builds the guard input for the request's viewer. Loading is over by the time a
// request is served.
func GuardState(r *http.Request, role models.Role) guard.State {
	s := guard.State{RequiredRole: role}
	if v := ViewerFrom(r.Context()); v != nil {
		s.Session = v.Session
		s.Profile = v.Profile
	}
	return s
}

// RequirePage guards HTML pages with the guard decision: 302 to the login or unauthorized
// page, 204 while the profile does not exist yet, otherwise the page.
func RequirePage(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.Decide(GuardState(r, role))
			switch d.Outcome {
			case guard.RedirectLogin, guard.RedirectUnauthorized:
				http.Redirect(w, r, d.Destination, http.StatusFound)
			case guard.Pending:
				w.WriteHeader(http.StatusNoContent)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

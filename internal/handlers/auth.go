package handlers

import (
	"net/http"

	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/middleware"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// RefreshRequest carries the refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// register handles farmer self-registration
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var body RegisterRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}

	session, profile, err := r.identity.SignUp(req.Context(), identity.SignUpRequest{
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
		Phone:    body.Phone,
		Location: body.Location,
	})
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}

	resp := map[string]interface{}{
		"profile":            profile,
		"confirmation_email": session == nil,
	}
	if session != nil {
		r.setSessionCookie(w, session)
		resp["session"] = session
	}
	respondJSON(w, http.StatusCreated, resp)
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}

	session, err := r.identity.SignIn(req.Context(), body.Email, body.Password)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}

	profile, err := r.identity.Profiles().Get(req.Context(), session.UserID)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}

	r.setSessionCookie(w, session)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"profile": profile,
	})
}

// logout revokes the caller's session. Logging out without a session succeeds.
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	if token := middleware.TokenFrom(req); token != "" {
		if err := r.identity.SignOut(req.Context(), token); err != nil {
			r.respondAppError(w, req, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// refresh exchanges a refresh token for a new pair
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var body RefreshRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}

	session, err := r.identity.Refresh(req.Context(), body.RefreshToken)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.setSessionCookie(w, session)
	respondJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// currentSession reports the viewer behind the request, with session and profile null when absent
func (r *Router) currentSession(w http.ResponseWriter, req *http.Request) {
	var (
		session interface{}
		profile interface{}
	)
	if v := middleware.ViewerFrom(req.Context()); v != nil {
		session = v.Session
		if v.Profile != nil {
			profile = v.Profile
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"profile": profile,
	})
}

// updateProfile edits the caller's name, phone and location
func (r *Router) updateProfile(w http.ResponseWriter, req *http.Request) {
	var body identity.Details
	if !r.decodeJSON(w, req, &body) {
		return
	}
	profile, err := r.identity.Profiles().UpdateDetails(req.Context(), principal(req), body)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (r *Router) setSessionCookie(w http.ResponseWriter, s *identity.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   r.cfg.NodeEnv == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

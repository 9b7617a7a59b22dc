// Package guard decides whether the current viewer may enter a role-restricted area.
package guard

import (
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

// Destinations used for redirects
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// Outcome of a guard evaluation
type Outcome int

const (
	// Pending: session or profile still loading, no redirect yet
	Pending Outcome = iota
	// RedirectLogin: no session once loading completed
	RedirectLogin
	// RedirectUnauthorized: the profile's role differs from the required one
	RedirectUnauthorized
	// Authorized: render
	Authorized
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case RedirectLogin, RedirectUnauthorized:
		return "redirect"
	case Authorized:
		return "ok"
	default:
		return "unknown"
	}
}

// Redirects reports whether the outcome navigates away
func (o Outcome) Redirects() bool {
	return o == RedirectLogin || o == RedirectUnauthorized
}

// State is everything the decision depends on
type State struct {
	Session      *identity.SessionInfo
	Profile      *models.Profile
	Loading      bool
	RequiredRole models.Role
}

// Decision is an outcome plus where to go for redirects
type Decision struct {
	Outcome     Outcome `json:"-"`
	Status      string  `json:"status"`
	Destination string  `json:"destination,omitempty"`
}

func decision(o Outcome, dest string) Decision {
	return Decision{Outcome: o, Status: o.String(), Destination: dest}
}

// Decide is a pure function of the state. A session whose profile has not arrived yet stays
// pending rather than redirecting.
func Decide(s State) Decision {
	if s.Loading {
		return decision(Pending, "")
	}
	if s.Session == nil {
		return decision(RedirectLogin, LoginPath)
	}
	if s.Profile == nil {
		return decision(Pending, "")
	}
	if s.Profile.Role != s.RequiredRole {
		return decision(RedirectUnauthorized, UnauthorizedPath)
	}
	return decision(Authorized, "")
}

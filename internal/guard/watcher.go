package guard

import (
	"context"
	"log"
	"sync"

	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

// Navigator performs the redirect side effect
type Navigator interface {
	Navigate(destination string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(destination string)

func (f NavigatorFunc) Navigate(destination string) { f(destination) }

// Subscriber is the session-change feed, usually *identity.Provider or *identity.Broker
type Subscriber interface {
	Subscribe(fn func(identity.Event)) func()
}

// ProfileSource loads the profile of a user
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
}

// Watcher keeps one viewer's guard state and re-decides on every change. It navigates only
// for redirect outcomes, and only when the decision differs from the previous one.
type Watcher struct {
	mu    sync.Mutex
	state State
	last  Decision
	nav   Navigator
}

// NewWatcher starts in the loading state
func NewWatcher(required models.Role, nav Navigator) *Watcher {
	w := &Watcher{
		state: State{Loading: true, RequiredRole: required},
		nav:   nav,
	}
	w.last = Decide(w.state)
	return w
}

// Update mutates the state and re-evaluates
func (w *Watcher) Update(fn func(*State)) Decision {
	w.mu.Lock()
	fn(&w.state)
	d := Decide(w.state)
	changed := d != w.last
	w.last = d
	w.mu.Unlock()

	if changed && d.Outcome.Redirects() && w.nav != nil {
		w.nav.Navigate(d.Destination)
	}
	return d
}

// Load sets session and profile together and ends loading
func (w *Watcher) Load(session *identity.SessionInfo, profile *models.Profile) Decision {
	return w.Update(func(s *State) {
		s.Session = session
		s.Profile = profile
		s.Loading = false
	})
}

// Decision returns the latest decision
func (w *Watcher) Decision() Decision {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// State returns a copy of the current state
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Attach re-runs the guard on every session change of this viewer: sign-out of the watched
// session clears it; sign-in or token refresh of the same user reloads the profile. The
// returned function detaches.
func (w *Watcher) Attach(ctx context.Context, sub Subscriber, profiles ProfileSource) func() {
	return sub.Subscribe(func(e identity.Event) {
		current := w.State().Session

		switch e.Type {
		case identity.EventSignedOut:
			if current == nil || current.SessionID != e.SessionID {
				return
			}
			w.Load(nil, nil)

		case identity.EventSignedIn, identity.EventTokenRefreshed:
			if current == nil || current.UserID != e.UserID {
				return
			}
			w.Update(func(s *State) { s.Loading = true })

			profile, err := profiles.Get(ctx, e.UserID)
			if err != nil {
				log.Printf("⚠️ Guard: profile reload for %s failed: %v", e.UserID, err)
				profile = nil
			}
			w.Update(func(s *State) {
				s.Profile = profile
				s.Loading = false
			})
		}
	})
}

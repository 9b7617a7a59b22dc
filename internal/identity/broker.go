package identity

import (
	"log"
	"sync"
	"time"
)

// EventType names a session change
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is pushed to subscribers whenever a user's session changes
type Event struct {
	Type      EventType `json:"event"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// Broker fans session events out to subscribers. It lives from NewBroker until Close;
// publishing after Close is a no-op.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]func(Event)
	next   int
	closed bool
}

// NewBroker creates an open broker
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns the function that removes it
func (b *Broker) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every subscriber on the caller's goroutine
func (b *Broker) Publish(e Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("⚠️ Session subscriber panicked on %s: %v", e.Type, r)
				}
			}()
			fn(e)
		}()
	}
}

// Close drops all subscribers
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[int]func(Event))
}

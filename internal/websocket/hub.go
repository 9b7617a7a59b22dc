package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/farmkit/agrorent/internal/guard"
	"github.com/farmkit/agrorent/internal/identity"
)

// SessionSource resolves an access token to a live session
type SessionSource interface {
	CurrentSession(ctx context.Context, accessToken string) (*identity.SessionInfo, error)
}

// Message is what the hub pushes to browsers
type Message struct {
	Type        string             `json:"type"`
	MsgID       string             `json:"msgId,omitempty"`
	Status      string             `json:"status,omitempty"`
	Event       identity.EventType `json:"event,omitempty"`
	SessionID   string             `json:"session_id,omitempty"`
	Destination string             `json:"destination,omitempty"`
	Error       string             `json:"error,omitempty"`
	At          *time.Time         `json:"at,omitempty"`
}

const (
	TypeAck            = "ACK"
	TypeError          = "ERROR"
	TypeSessionChanged = "SESSION_CHANGED"
	TypeNavigate       = "NAVIGATE"
)

// Hub maintains the set of identified clients per user and pushes session changes to them
type Hub struct {
	// Registered clients: UserID -> set of clients (one per open tab)
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	sessions SessionSource
	feed     guard.Subscriber
	profiles guard.ProfileSource

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a hub. It does nothing until Run is called.
func NewHub(sessions SessionSource, feed guard.Subscriber, profiles guard.ProfileSource) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sessions:   sessions,
		feed:       feed,
		profiles:   profiles,
	}
}

// Run serves registrations and session events until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	unsubscribe := h.feed.Subscribe(h.onSessionEvent)
	defer unsubscribe()
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			log.Printf("🔌 Client connected: user %s (%d open)", client.UserID, len(set))

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.UserID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					client.close()
					if len(set) == 0 {
						delete(h.clients, client.UserID)
					}
					log.Printf("📴 Client disconnected: user %s", client.UserID)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for userID, set := range h.clients {
				for c := range set {
					c.close()
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			log.Println("🛑 WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) onSessionEvent(e identity.Event) {
	at := e.At
	n := h.SendToUser(e.UserID, Message{
		Type:      TypeSessionChanged,
		Event:     e.Type,
		SessionID: e.SessionID,
		At:        &at,
	})
	if n > 0 {
		log.Printf("📣 %s pushed to %d client(s) of user %s", e.Type, n, e.UserID)
	}
}

// SendToUser pushes a message to every open client of a user and returns how many accepted it
func (h *Hub) SendToUser(userID string, message interface{}) int {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.trySend(jsonMsg) {
			sent++
		}
	}
	return sent
}

// Connected returns how many clients a user has open
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

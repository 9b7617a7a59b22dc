package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/farmkit/agrorent/internal/guard"
	"github.com/farmkit/agrorent/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Browsers only send the identify handshake.
	maxMessageSize = 8 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	mu     sync.Mutex
	closed bool

	// Set by the IDENTIFY handshake
	UserID string

	// Credential carried by the upgrade request, used when IDENTIFY has no token
	upgradeToken string

	// Guard for the page the browser is on, nil when the client did not name a role
	watcher *guard.Watcher
	detach  func()
}

// IdentifyMessage is the handshake a browser sends after connecting
type IdentifyMessage struct {
	Type  string      `json:"type"`
	Token string      `json:"token"`
	Role  models.Role `json:"role,omitempty"`
	MsgID string      `json:"msgId,omitempty"`
}

// readPump reads handshakes until the connection drops.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if c.detach != nil {
			c.detach()
		}
		if c.UserID != "" {
			c.hub.remove(c)
		} else {
			c.close()
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS error: %v", err)
			}
			return
		}

		var msg IdentifyMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Type != "IDENTIFY" {
			continue
		}
		if c.UserID != "" {
			c.SendJSON(Message{Type: TypeAck, MsgID: msg.MsgID, Status: "already identified"})
			continue
		}
		if !c.identify(ctx, msg) {
			continue
		}
		if !c.hub.add(c) {
			return
		}
	}
}

// identify resolves the token and, when a role is named, starts a guard watcher whose
// redirects are pushed as NAVIGATE messages.
func (c *Client) identify(ctx context.Context, msg IdentifyMessage) bool {
	token := msg.Token
	if token == "" {
		token = c.upgradeToken
	}
	session, err := c.hub.sessions.CurrentSession(ctx, token)
	if err != nil {
		c.SendJSON(Message{Type: TypeError, MsgID: msg.MsgID, Error: "invalid session"})
		return false
	}
	if msg.Role != "" && !msg.Role.Valid() {
		c.SendJSON(Message{Type: TypeError, MsgID: msg.MsgID, Error: "unknown role"})
		return false
	}

	c.UserID = session.UserID
	c.SendJSON(Message{Type: TypeAck, MsgID: msg.MsgID, Status: "connected"})

	if msg.Role != "" {
		profile, err := c.hub.profiles.Get(ctx, session.UserID)
		if err != nil {
			profile = nil
		}
		c.watcher = guard.NewWatcher(msg.Role, guard.NavigatorFunc(func(dest string) {
			c.SendJSON(Message{Type: TypeNavigate, Destination: dest})
		}))
		c.detach = c.watcher.Attach(ctx, c.hub.feed, c.hub.profiles)
		c.watcher.Load(session, profile)
	}
	return true
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON queues a JSON message; it is dropped if the client is gone or its buffer is full
func (c *Client) SendJSON(v interface{}) bool {
	msg, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return c.trySend(msg)
}

func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ServeWs upgrades the request. The client stays anonymous until it sends IDENTIFY.
// token is the session cookie of the upgrade request, if any.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, token string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 64), upgradeToken: token}

	// The request context ends when the handler returns, so the client gets its own
	ctx, cancel := context.WithCancel(context.Background())
	go client.writePump()
	go func() {
		defer cancel()
		client.readPump(ctx)
	}()
}

// Package realtime keeps live WebSocket connections per user and pushes
// JSON frames to them.
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Hub tracks connected clients by user ID. One user may hold several
// connections; every one of them receives the user's frames.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool
	log     logrus.FieldLogger
}

// NewHub returns an empty hub.
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		log:     log,
	}
}

// Client is one registered connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	role   string
	send   chan []byte
	once   sync.Once
}

// UserID is the authenticated owner of the connection.
func (c *Client) UserID() string { return c.userID }

// Role is the owner's role at connect time.
func (c *Client) Role() string { return c.role }

// Register adds the connection and starts its writer.
func (h *Hub) Register(userID, role string, conn *websocket.Conn) *Client {
	c := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		role:   role,
		send:   make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][c] = true
	h.mu.Unlock()

	go c.writePump()

	h.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"role":     role,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Client registered with hub.")
	return c
}

// Unregister removes the client and stops its writer. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()

	c.once.Do(func() { close(c.send) })
	h.log.WithFields(logrus.Fields{
		"user_id":  c.userID,
		"conn_ptr": fmt.Sprintf("%p", c.conn),
	}).Info("Client unregistered from hub.")
}

// Connected counts the user's open connections.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUser queues payload for each of the user's connections. Offline
// users and full buffers drop the frame.
func (h *Hub) SendToUser(userID string, payload interface{}) {
	msg, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("Failed to encode push payload.")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
		default:
			h.log.WithField("user_id", userID).Warn("Client send buffer full, dropping message.")
		}
	}
}

// ReadPump reads frames until the connection closes, handing each text
// frame to handle. It unregisters the client on return.
func (c *Client) ReadPump(handle func(c *Client, msg []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.log.WithError(err).WithField("user_id", c.userID).Warn("WebSocket closed unexpectedly.")
			}
			return
		}
		if messageType == websocket.TextMessage && handle != nil {
			handle(c, p)
		}
	}
}

// Reply sends a frame to this connection only.
func (c *Client) Reply(payload interface{}) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c.userID][c] {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.WithError(err).WithField("user_id", c.userID).Warn("Failed to write to client.")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

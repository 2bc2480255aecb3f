package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pfrederiksen/worldcup-events/internal/logger"
	"github.com/pfrederiksen/worldcup-events/internal/notifier"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// FeedMessage is one frame of the websocket feed.
type FeedMessage struct {
	Type      string            `json:"type"`
	Timestamp int64             `json:"timestamp"`
	Message   *notifier.Message `json:"message,omitempty"`
}

// Hub broadcasts notifications to websocket clients. It implements
// notifier.Notifier so it can be added to the delivery fan-out.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	log     *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Default()
	}
	return &Hub{clients: make(map[*client]bool), log: log}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify sends msg to every client subscribed to its match. Clients whose
// buffer is full are disconnected. It never fails.
func (h *Hub) Notify(_ context.Context, msg notifier.Message) error {
	data, err := json.Marshal(FeedMessage{Type: "notification", Timestamp: time.Now().Unix(), Message: &msg})
	if err != nil {
		return err
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.wants(msg.MatchID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("Dropping slow websocket client", nil)
		h.unregister(c)
	}
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("Websocket client registered", logger.Fields{"clients": n})
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("Websocket client unregistered", logger.Fields{"clients": n})
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu      sync.RWMutex
	matches map[string]bool
}

func (c *client) wants(matchID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matches) == 0 || c.matches[matchID]
}

// subscription is the only message clients send: an empty match list
// subscribes to everything.
type subscription struct {
	Type     string   `json:"type"`
	MatchIDs []string `json:"match_ids"`
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var sub subscription
		if err := c.conn.ReadJSON(&sub); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("Websocket read failed", logger.Fields{"error": err.Error()})
			}
			return
		}

		c.mu.Lock()
		switch sub.Type {
		case "subscribe":
			c.matches = make(map[string]bool, len(sub.MatchIDs))
			for _, id := range sub.MatchIDs {
				c.matches[id] = true
			}
		case "unsubscribe":
			c.matches = nil
		}
		c.mu.Unlock()
	}
}

func (c *client) writePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// Package realtime pushes conversation-change events to the owning user's
// open sockets, so the UI can patch its caches incrementally instead of
// re-fetching whole lists.
package realtime

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/cleitonmachado77/NutriBoxBack/internal/services"
)

type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan services.ConversationEvent
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type envelope struct {
	Type  string                     `json:"type"`
	Event services.ConversationEvent `json:"event"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan services.ConversationEvent, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ConversationChanged implements services.Notifier. Events for users with no
// open socket are dropped; the database remains the source of truth.
func (h *Hub) ConversationChanged(event services.ConversationEvent) {
	select {
	case h.events <- event:
	default:
		log.Printf("realtime: event buffer full, dropping update for conversation %d", event.ConversationID)
	}
}

func (h *Hub) deliver(event services.ConversationEvent) {
	set, ok := h.clients[strconv.FormatInt(event.UserID, 10)]
	if !ok {
		return
	}
	payload, err := json.Marshal(envelope{Type: "conversation_changed", Event: event})
	if err != nil {
		log.Printf("realtime: marshal event: %v", err)
		return
	}
	for client := range set {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the frame rather than block the hub.
		}
	}
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 50 * time.Second
)

// WritePump drains the client's send queue onto the socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// ReadPump consumes and discards inbound frames; the feed is one-way. It
// unregisters the client when the socket closes.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

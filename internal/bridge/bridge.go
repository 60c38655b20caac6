// Package bridge carries coordination traffic over WebSocket.
//
// Every snapshot and activation published on a coord.Bus is sent to each
// connected client as a JSON frame. Clients may publish too: a "snapshot"
// frame replaces the bus snapshot, a "clear" frame clears it and an
// "activation" frame is forwarded to activation subscribers.
package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/JuniperHelps/internal/coord"
	"github.com/FocuswithJustin/JuniperHelps/internal/logging"
)

// Frame types.
const (
	TypeSnapshot   = "snapshot"
	TypeClear      = "clear"
	TypeActivation = "activation"
	TypeError      = "error"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Message is one JSON frame.
type Message struct {
	Type      string          `json:"type"`
	Snapshot  *coord.Snapshot `json:"snapshot,omitempty"`
	Event     *coord.Event    `json:"event,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Config holds connection limits.
type Config struct {
	// AllowedOrigins lists accepted Origin header values. "*" accepts any
	// origin. When empty only same-host origins are accepted.
	AllowedOrigins []string

	// MaxMessageSize is the largest frame read from a client, in bytes.
	MaxMessageSize int64
}

// DefaultConfig returns the default limits. A chapter snapshot of a long
// chapter runs to a few hundred kilobytes.
func DefaultConfig() Config {
	return Config{MaxMessageSize: 4 << 20}
}

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub relays bus traffic to and from WebSocket clients.
type Hub struct {
	bus      *coord.Bus
	config   Config
	upgrader websocket.Upgrader

	clients    map[*Client]bool
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub returns a hub for bus. Call Run before serving connections.
func NewHub(bus *coord.Bus, config Config) *Hub {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultConfig().MaxMessageSize
	}
	h := &Hub{
		bus:        bus,
		config:     config,
		clients:    make(map[*Client]bool),
		direct:     make(chan directMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run relays messages until ctx is done. It closes every client on return.
func (h *Hub) Run(ctx context.Context) {
	snapshots := h.bus.Subscribe(ctx)
	activations := h.bus.Activations(ctx)
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logging.BridgeEvent("client_connected", count)
			if snap, ok := h.bus.Latest(); ok {
				h.deliver(client, encode(Message{Type: TypeSnapshot, Snapshot: &snap}))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			logging.BridgeEvent("client_disconnected", count)

		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			msg := Message{Type: TypeSnapshot, Snapshot: &snap}
			if snap.Cleared() {
				msg = Message{Type: TypeClear}
			}
			h.fanOut(encode(msg))

		case ev, ok := <-activations:
			if !ok {
				activations = nil
				continue
			}
			h.fanOut(encode(Message{Type: TypeActivation, Event: &ev}))

		case dm := <-h.direct:
			h.deliver(dm.client, dm.data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", "error", err, "origin", r.Header.Get("Origin"))
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) fanOut(data []byte) {
	if data == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client channel full, disconnect
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	if data == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}

// checkOrigin applies Config.AllowedOrigins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	if len(h.config.AllowedOrigins) > 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// handle applies one client frame to the bus.
func (h *Hub) handle(c *Client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(c, "invalid frame: "+err.Error())
		return
	}

	switch msg.Type {
	case TypeSnapshot:
		if msg.Snapshot == nil {
			h.reply(c, "snapshot frame without snapshot")
			return
		}
		h.bus.Publish(*msg.Snapshot)
	case TypeClear:
		h.bus.Clear()
	case TypeActivation:
		if msg.Event == nil || msg.Event.SemanticID == "" {
			h.reply(c, "activation frame without semantic id")
			return
		}
		h.bus.Activate(*msg.Event)
	default:
		h.reply(c, "unknown frame type "+msg.Type)
	}
}

func (h *Hub) reply(c *Client, text string) {
	select {
	case h.direct <- directMessage{client: c, data: encode(Message{Type: TypeError, Error: text})}:
	case <-h.done:
	}
}

func encode(msg Message) []byte {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal bridge message", "type", msg.Type, "error", err)
		return nil
	}
	return data
}

// readPump reads frames from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn("websocket unexpected close", "error", err)
			}
			return
		}
		c.hub.handle(c, data)
	}
}

// writePump writes queued frames to the WebSocket connection, one message
// per frame.
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

package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"storyline/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// Event types delivered to clients.
const (
	TypeSuggestionReady   = "suggestion.ready"
	TypeSuggestionCleared = "suggestion.cleared"
	TypeSceneGenerated    = "scene.generated"
	TypeSceneGenFailed    = "scene.generation_failed"
	TypeCharacterSaved    = "character.saved"
	TypeMediaAttached     = "media.attached"
	TypeActiveChanged     = "active.changed"
)

// Event is one message pushed to the subscribers of a story.
type Event struct {
	Type    string `json:"type"`
	StoryID string `json:"story_id"`
	Data    any    `json:"data,omitempty"`
	Time    int64  `json:"time"`
}

type client struct {
	id      string
	storyID string
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
}

// Hub fans events out to the websocket clients subscribed to each story.
type Hub struct {
	clients    map[string]*client
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{}
	mu         sync.RWMutex
	closed     atomic.Bool
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHub creates a new hub. Call Run to start delivering events.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: slog.Default().With("component", "events"),
	}
}

// Run delivers events until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case e := <-h.broadcast:
			h.deliver(e)
		}
	}
}

// Publish queues an event for the subscribers of storyID. It never blocks;
// events are dropped when the queue is full.
func (h *Hub) Publish(storyID, eventType string, data any) {
	if h.closed.Load() {
		return
	}
	e := Event{Type: eventType, StoryID: storyID, Data: data, Time: time.Now().Unix()}
	select {
	case h.broadcast <- e:
	default:
		h.logger.Warn("event queue full, dropping event", "story_id", storyID, "type", eventType)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and subscribes the connection to storyID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, storyID string) {
	if h.closed.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "story_id", storyID, "error", err)
		return
	}

	c := &client{
		id:      uuid.New().String(),
		storyID: storyID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		hub:     h,
	}
	if !h.enqueue(h.register, c) {
		_ = conn.Close()
		return
	}
	go c.readPump()
}

// enqueue hands c to Run through ch. It gives up once Run has stopped, so
// callers never block on a hub that is no longer reading.
func (h *Hub) enqueue(ch chan<- *client, c *client) bool {
	select {
	case ch <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) registerClient(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	metrics.EventSubscribers.Set(float64(n))
	h.logger.Info("client connected", "client_id", c.id, "story_id", c.storyID, "total", n)
	go c.writePump()
}

func (h *Hub) unregisterClient(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.EventSubscribers.Set(float64(n))
		h.logger.Info("client disconnected", "client_id", c.id, "story_id", c.storyID, "total", n)
	}
}

func (h *Hub) deliver(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("failed to marshal event", "type", e.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.storyID != e.StoryID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client send buffer full", "client_id", c.id)
		}
	}
}

func (h *Hub) shutdown() {
	if h.closed.Swap(true) {
		return
	}
	close(h.done)

	h.mu.Lock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	h.mu.Unlock()
	metrics.EventSubscribers.Set(0)

	// Clients queued but never registered have no write pump to close them.
	for {
		select {
		case c := <-h.register:
			if c != nil && c.conn != nil {
				_ = c.conn.Close()
			}
		default:
			return
		}
	}
}

// writePump pumps messages from the hub to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// readPump discards client messages and detects disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.enqueue(c.hub.unregister, c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("unexpected websocket close", "client_id", c.id, "error", err)
			}
			return
		}
	}
}

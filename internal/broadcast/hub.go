package broadcast

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust for production
	},
}

type client struct {
	conn   *websocket.Conn
	topics map[string]bool
	send   chan []byte
}

// Hub is an in-process websocket transport: connected clients subscribe
// to topics and receive every payload sent to them. It satisfies
// Transport so it can back the dispatcher directly or fan out alongside
// redis.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]bool),
		logger:  logger,
	}
}

// Send implements Transport: the payload goes to every client
// subscribed to the topic. A slow client's full buffer drops the
// message for that client only.
func (h *Hub) Send(ctx context.Context, topic string, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.topics[topic] {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("Websocket client buffer full, dropping message",
				zap.String("topic", topic),
			)
		}
	}
	return nil
}

// ServeHTTP upgrades the connection and registers the client for the
// topics listed in the "topics" query parameter (comma separated).
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	topics := make(map[string]bool)
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics[t] = true
		}
	}

	c := &client{
		conn:   conn,
		topics: topics,
		send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	h.logger.Info("Websocket client connected", zap.Int("topics", len(topics)))

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		// Subscribers only receive; any read error means the client left.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
	h.logger.Info("Websocket client disconnected")
}

// ClientCount reports connected clients, for health reporting.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

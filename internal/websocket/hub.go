package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/goccy/go-json"

	"factsheet/pkg/contracts/events"
)

// Hub keeps the latest run status and pushes every change to all connected
// clients. It is a pipeline status sink.
type Hub struct {
	clients *haxmap.Map[string, *Client]

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}

	mu      sync.RWMutex
	status  *string
	running bool

	logger *slog.Logger
}

// NewHub creates a hub; call Start before serving clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    haxmap.New[string, *Client](),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Start runs the hub loop in the background
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop disconnects every client and ends the hub loop
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.clients.ForEach(func(id string, c *Client) bool {
				h.clients.Del(id)
				close(c.send)
				return true
			})
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.clients.Set(client.id, client)
			h.logger.Info("Client registered",
				slog.Int("total_clients", h.ClientCount()),
				slog.String("remote_addr", client.remoteAddr))
			if msg, err := h.encode(h.Status()); err == nil {
				h.deliver(client, msg)
			}

		case client := <-h.unregister:
			if _, ok := h.clients.Get(client.id); ok {
				h.clients.Del(client.id)
				close(client.send)
				h.logger.Info("Client unregistered",
					slog.Int("total_clients", h.ClientCount()),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.clients.ForEach(func(_ string, c *Client) bool {
				h.deliver(c, message)
				return true
			})
		}
	}
}

// deliver queues message for c, dropping clients that cannot keep up.
func (h *Hub) deliver(c *Client, message []byte) {
	select {
	case c.send <- message:
	default:
		h.clients.Del(c.id)
		close(c.send)
		h.logger.Warn("Client send buffer full, disconnecting", slog.String("client_id", c.id))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.clients.Len())
}

// Status returns the latest status, or nil when no run is in progress.
func (h *Hub) Status() *string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.status == nil {
		return nil
	}
	s := *h.status
	return &s
}

// SetStatus implements pipeline.StatusSink
func (h *Hub) SetStatus(text string) {
	h.publish(&text)
}

// Clear implements pipeline.StatusSink
func (h *Hub) Clear() {
	h.publish(nil)
}

func (h *Hub) publish(status *string) {
	h.mu.Lock()
	h.status = status
	running := h.running
	h.mu.Unlock()

	if !running {
		return
	}
	msg, err := h.encode(status)
	if err != nil {
		h.logger.Error("Error marshaling status message", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.quit:
	}
}

func (h *Hub) encode(status *string) ([]byte, error) {
	return json.Marshal(events.NewStatusMessage(status))
}

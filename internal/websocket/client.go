package websocket

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Status viewers only listen, so inbound frames are tiny and the queue is short.
const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	keepalive    = idleTimeout * 9 / 10

	inboundLimit = 512
	queueSize    = 64
)

// Client is one status viewer attached to the hub.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	remoteAddr  string
	connectedAt time.Time
	logger      *slog.Logger
}

// NewClient attaches conn to hub under a fresh client ID.
func NewClient(hub *Hub, conn Connection, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, queueSize),
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

func (c *Client) ID() string { return c.id }

// ReadPump discards inbound frames and detaches the client once the viewer
// goes away or stops answering pings.
func (c *Client) ReadPump() {
	defer c.leave()

	c.conn.SetReadLimit(inboundLimit)
	c.extendDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendDeadline()
		return nil
	})
	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.logger.Warn("Status viewer dropped", slog.String("error", err.Error()))
		}
		return
	}
}

// WritePump forwards queued status frames until the hub closes the queue.
func (c *Client) WritePump() {
	ticker := time.NewTicker(keepalive)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Debug("Status viewer detached",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
	}()

	for {
		select {
		case frame, open := <-c.send:
			if !open {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("Status frame not delivered", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(kind, data)
}

func (c *Client) extendDeadline() {
	c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
}

// leave unregisters from a running hub and closes the connection.
func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.quit:
	}
	c.conn.Close()
}

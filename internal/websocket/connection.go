package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Connection is the part of a websocket connection clients use, so tests can
// substitute it.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// connWrapper adapts *websocket.Conn to Connection
type connWrapper struct {
	*websocket.Conn
}

// RemoteAddr returns the remote network address
func (c connWrapper) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

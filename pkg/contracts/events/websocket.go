// Package events contains the messages pushed to websocket clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeStatus carries the current run status text
	MessageTypeStatus MessageType = "status"
)

// StatusMessage carries the current status text; Status is null once the
// run has finished.
type StatusMessage struct {
	Type      MessageType `json:"type"`
	Status    *string     `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewStatusMessage stamps a status message with the current time.
func NewStatusMessage(status *string) StatusMessage {
	return StatusMessage{Type: MessageTypeStatus, Status: status, Timestamp: time.Now().UTC()}
}

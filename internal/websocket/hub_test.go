package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/pkg/contracts/events"
)

func dial(t *testing.T, hub *Hub) *gorilla.Conn {
	t.Helper()
	srv := httptest.NewServer(NewHandler(hub, nil))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *gorilla.Conn) events.StatusMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg events.StatusMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubSendsCurrentStatusOnConnect(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()
	hub.SetStatus("Preparing Data: Fund A")

	conn := dial(t, hub)
	msg := readStatus(t, conn)

	assert.Equal(t, events.MessageTypeStatus, msg.Type)
	require.NotNil(t, msg.Status)
	assert.Equal(t, "Preparing Data: Fund A", *msg.Status)
}

func TestHubBroadcastsChanges(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	conn := dial(t, hub)
	first := readStatus(t, conn)
	assert.Nil(t, first.Status, "idle hub reports no status")

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.SetStatus("Creating PDF Report: Fund B")
	msg := readStatus(t, conn)
	require.NotNil(t, msg.Status)
	assert.Equal(t, "Creating PDF Report: Fund B", *msg.Status)

	hub.Clear()
	msg = readStatus(t, conn)
	assert.Nil(t, msg.Status)
	assert.Nil(t, hub.Status())
}

func TestHubStatusWithoutStart(t *testing.T) {
	hub := NewHub(nil)

	hub.SetStatus("Finished: Fund A")
	require.NotNil(t, hub.Status())
	assert.Equal(t, "Finished: Fund A", *hub.Status())

	hub.Clear()
	assert.Nil(t, hub.Status())
}

func TestStatusMessageEncoding(t *testing.T) {
	hub := NewHub(nil)
	data, err := hub.encode(nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":null`)
	assert.Contains(t, string(data), `"type":"status"`)
}

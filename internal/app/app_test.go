package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.Root = t.TempDir()
	cfg.Telemetry.Metrics = true
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApplication(t *testing.T) {
	application, err := NewApplication(testConfig(t), testLogger())
	require.NoError(t, err)

	assert.NotNil(t, application.Router)
	assert.NotNil(t, application.Pipeline)
	assert.NotNil(t, application.Hub)
	assert.Equal(t, ":8080", application.Server.Addr)
	assert.Equal(t, application.Router, application.Server.Handler)
}

func TestApplicationRoutes(t *testing.T) {
	application, err := NewApplication(testConfig(t), testLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(application.Router)
	defer srv.Close()

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/api/status", http.StatusOK},
		{"/api/runs/last", http.StatusNotFound},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestStartStop(t *testing.T) {
	application, err := NewApplication(testConfig(t), testLogger())
	require.NoError(t, err)
	application.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, application.Start(ctx, cancel))

	resp, err := http.Get(fmt.Sprintf("http://%s/api/status", application.Addr()))
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Nil(t, body["status"])
	assert.Equal(t, false, body["running"])

	require.NoError(t, application.Stop(ctx))

	_, err = http.Get(fmt.Sprintf("http://%s/healthz", application.Addr()))
	assert.Error(t, err)
}

func TestInvalidStorageConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "ftp"

	_, err := NewApplication(cfg, testLogger())
	assert.Error(t, err)
}

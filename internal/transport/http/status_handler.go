package http

import (
	"net/http"

	"github.com/go-chi/render"

	"factsheet/pkg/contracts"
	api "factsheet/pkg/contracts/api/v1"
)

// StatusReader exposes the latest status text; nil when idle.
type StatusReader interface {
	Status() *string
}

// StatusHandler serves the current status
type StatusHandler struct {
	status StatusReader
	runs   *RunsHandler
}

// NewStatusHandler creates a status handler
func NewStatusHandler(status StatusReader, runs *RunsHandler) *StatusHandler {
	return &StatusHandler{status: status, runs: runs}
}

// Get handles GET /api/status
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := api.StatusResponse{Status: h.status.Status()}
	if h.runs != nil {
		resp.Running = h.runs.Running()
	}
	render.JSON(w, r, resp)
}

// Health handles GET /healthz
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.HealthResponse{Status: "ok", Version: contracts.GetVersionInfo()})
}

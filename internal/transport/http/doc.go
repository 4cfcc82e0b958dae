// Package http is the web front end: start a report run, read the current
// status, stream status over a websocket, and expose health and metrics.
//
// Routes:
//
//	POST /api/runs        start a run (202, or 200 with ?wait=true)
//	GET  /api/runs/last   manifest of the latest finished run
//	GET  /api/status      current status text
//	GET  /ws              live status stream
//	GET  /healthz         liveness and version
//	GET  /metrics         Prometheus metrics, when enabled
//
// Errors are RFC 7807 problem documents.
package http

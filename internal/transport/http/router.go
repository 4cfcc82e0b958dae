package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"factsheet/internal/middleware"
)

// RouterDeps are the handlers and middleware settings of the web front end.
type RouterDeps struct {
	Runs    *RunsHandler
	Status  *StatusHandler
	Stream  http.Handler
	Metrics http.Handler
	Limiter *middleware.RateLimiter
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

// NewRouter builds the chi router.
func NewRouter(d RouterDeps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	// The websocket route stays outside the logging and tracing group so
	// the upgraded connection is not wrapped.
	if d.Stream != nil {
		r.Handle("/ws", d.Stream)
	}
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		if d.Tracer != nil {
			r.Use(middleware.Tracing(d.Tracer))
		}
		r.Use(middleware.StructuredLogger(logger))
		r.Use(middleware.Recoverer(logger))

		r.Get("/healthz", Health)

		r.Route("/api", func(r chi.Router) {
			if d.Status != nil {
				r.Get("/status", d.Status.Get)
			}
			r.Route("/runs", func(r chi.Router) {
				if d.Limiter != nil {
					r.With(d.Limiter.Handler).Post("/", d.Runs.Create)
				} else {
					r.Post("/", d.Runs.Create)
				}
				r.Get("/last", d.Runs.Last)
			})
		})
	})

	return r
}

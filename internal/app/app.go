package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"factsheet/internal/config"
	"factsheet/internal/infrastructure"
	"factsheet/internal/middleware"
	"factsheet/internal/pipeline"
	handlers "factsheet/internal/transport/http"
	ws "factsheet/internal/websocket"
	"factsheet/pkg/contracts"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Minute
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Application represents the main application container
type Application struct {
	Config   *config.Config
	Router   *chi.Mux
	Server   *http.Server
	Hub      *ws.Hub
	Runs     *handlers.RunsHandler
	Pipeline *pipeline.Pipeline
	OTel     *infrastructure.OTelProviders
	Logger   *slog.Logger

	runCtx    context.Context
	cancelRun context.CancelFunc
	listener  net.Listener
}

// NewApplication creates the application for cfg
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("version", contracts.GetVersionString()),
		slog.String("root", cfg.Paths.Root))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.NewPipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline metrics: %w", err)
	}

	hub := ws.NewHub(logger)
	sink := pipeline.MultiSink{hub, pipeline.NewLogSink(logger)}

	p, err := pipeline.NewFromConfig(cfg, sink, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	app := &Application{
		Config:    cfg,
		Hub:       hub,
		Pipeline:  p,
		OTel:      otelProviders,
		Logger:    logger,
		runCtx:    runCtx,
		cancelRun: cancelRun,
	}
	app.Runs = handlers.NewRunsHandler(runCtx, p, cfg.Layout().ManifestPath(), logger)

	app.setupRouter()
	app.createServer()
	return app, nil
}

// setupRouter mounts the handlers and middleware
func (a *Application) setupRouter() {
	deps := handlers.RouterDeps{
		Runs:    a.Runs,
		Status:  handlers.NewStatusHandler(a.Hub, a.Runs),
		Stream:  ws.NewHandler(a.Hub, a.Logger),
		Metrics: a.OTel.PrometheusHTTP,
		Tracer:  a.OTel.Tracer,
		Logger:  a.Logger,
	}
	if a.Config.Server.RateLimitRPS > 0 {
		deps.Limiter = middleware.NewRateLimiter(a.Config.Server.RateLimitRPS, a.Config.Server.RateLimitBurst, a.Logger)
	}
	a.Router = handlers.NewRouter(deps)
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Addr returns the address the server listens on once started.
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Start binds the listener and serves in the background. cancel is called
// if the server stops with an error.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.Hub.Start()

	go func() {
		if err := a.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", a.Addr()),
		slog.String("level", a.Config.Logging.Level))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Background runs stop at the next fund boundary.
	a.cancelRun()
	a.Runs.Wait()
	a.Hub.Stop()

	if a.OTel != nil {
		if err := a.OTel.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

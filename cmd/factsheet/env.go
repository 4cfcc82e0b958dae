package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"factsheet/internal/config"
	"factsheet/internal/infrastructure"
	"factsheet/internal/pipeline"
)

// environment holds what every command needs after configuration.
type environment struct {
	cfg     *config.Config
	logger  *slog.Logger
	otel    *infrastructure.OTelProviders
	metrics *infrastructure.PipelineMetrics
}

func loadEnvironment(path string) (*environment, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &environment{cfg: cfg, logger: logger}, nil
}

// withTelemetry starts tracing and metrics for a pipeline run.
func (e *environment) withTelemetry() error {
	providers, err := infrastructure.InitializeOTel(e.cfg.Telemetry, e.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline metrics: %w", err)
	}
	e.otel, e.metrics = providers, metrics
	return nil
}

func (e *environment) pipeline(sink pipeline.StatusSink) (*pipeline.Pipeline, error) {
	return pipeline.NewFromConfig(e.cfg, sink, e.metrics, e.logger)
}

func (e *environment) close() {
	if e.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.otel.Shutdown(ctx); err != nil {
			e.logger.Warn("Failed to shut down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
	_ = infrastructure.CloseLogFile()
}

// printResult writes one line per fund outcome.
func printResult(w io.Writer, result *pipeline.BatchResult) {
	if result == nil {
		return
	}
	for _, o := range result.Outcomes {
		switch {
		case o.OK():
			fmt.Fprintf(w, "ok      %s  %s\n", o.Fund, o.Document)
		case o.Exported:
			fmt.Fprintf(w, "kept    %s  %s (%v)\n", o.Fund, o.Document, o.Err)
		default:
			fmt.Fprintf(w, "failed  %s  %s: %v\n", o.Fund, o.FailedStage, o.Err)
		}
	}
	if len(result.Outcomes) == 0 {
		fmt.Fprintf(w, "no funds selected by %q\n", result.Selection)
	}
}

func stderr(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

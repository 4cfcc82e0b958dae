package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"factsheet/internal/config"
	"factsheet/pkg/contracts"
)

const (
	ServiceName = "factsheet"
	MeterName   = "factsheet"
	TracerName  = "factsheet/pipeline"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics according to cfg. Disabled
// signals fall back to no-op implementations so callers never branch.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", ServiceName),
		slog.String("version", contracts.Version),
		slog.Bool("tracing_enabled", cfg.Tracing),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.Metrics))

	res, err := createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
		Tracer: tracenoop.NewTracerProvider().Tracer(TracerName),
		Meter:  noop.NewMeterProvider().Meter(MeterName),
	}

	if cfg.Tracing && cfg.TraceExporter == "stdout" {
		if err := initializeTracing(res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.Metrics {
		if err := initializeMetrics(res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.Bool("tracer_provider_set", providers.TracerProvider != nil),
		slog.Bool("meter_provider_set", providers.MeterProvider != nil))

	return providers, nil
}

// createResource creates an OpenTelemetry resource with service information.
// The service attributes carry no schema URL so they merge with whatever
// schema the sdk's default resource uses.
func createResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(contracts.Version),
		),
	)
}

// initializeTracing pretty-prints spans to stdout
func initializeTracing(res *resource.Resource, providers *OTelProviders) error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(TracerName)
	return nil
}

// initializeMetrics sets up a Prometheus exporter on its own registry so
// repeated initialisation (tests, restarts) never collides on registration.
func initializeMetrics(res *resource.Resource, providers *OTelProviders) error {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(mp)
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName)
	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return nil
}

// Shutdown gracefully shuts down the OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// PipelineMetrics holds the instruments recorded by a report run.
type PipelineMetrics struct {
	FundsProcessed metric.Int64Counter
	StageDuration  metric.Float64Histogram
	Uploads        metric.Int64Counter
	Runs           metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter. A nil meter
// yields no-op instruments.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	fundsProcessed, err := meter.Int64Counter(
		"factsheet_funds_processed_total",
		metric.WithDescription("Funds processed by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create funds counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram(
		"factsheet_stage_duration_seconds",
		metric.WithDescription("Duration of a pipeline stage for one fund"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage histogram: %w", err)
	}

	uploads, err := meter.Int64Counter(
		"factsheet_uploads_total",
		metric.WithDescription("Document uploads by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create uploads counter: %w", err)
	}

	runs, err := meter.Int64Counter(
		"factsheet_runs_total",
		metric.WithDescription("Report runs by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	return &PipelineMetrics{
		FundsProcessed: fundsProcessed,
		StageDuration:  stageDuration,
		Uploads:        uploads,
		Runs:           runs,
	}, nil
}

// RecordStage records how long stage took for fund.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordFund counts one fund with outcome "ok" or an error kind.
func (m *PipelineMetrics) RecordFund(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.FundsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordUpload counts one upload attempt.
func (m *PipelineMetrics) RecordUpload(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.Uploads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
}

// RecordRun counts one finished run.
func (m *PipelineMetrics) RecordRun(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordError records an error on the span in ctx
func RecordError(ctx context.Context, err error, description string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, description)
	}
}

// TraceIDFromContext returns the hex trace ID of the span in ctx, if any.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

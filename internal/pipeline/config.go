package pipeline

import (
	"fmt"
	"log/slog"

	"factsheet/internal/analytics"
	"factsheet/internal/config"
	"factsheet/internal/funds"
	"factsheet/internal/infrastructure"
	"factsheet/internal/linkcode"
	"factsheet/internal/publish"
	"factsheet/internal/render"
	"factsheet/internal/report"
)

// PolicyFromConfig maps the batch settings to a BatchPolicy.
func PolicyFromConfig(cfg config.BatchConfig) BatchPolicy {
	if cfg.ContinueOnError {
		return ContinueOnError
	}
	return AbortOnError
}

// NewFromConfig wires the production collaborators for cfg.
func NewFromConfig(cfg *config.Config, sink StatusSink, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	layout := cfg.Layout()

	policy, err := linkcode.PolicyFor(cfg.Link.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid link format: %w", err)
	}
	style := linkcode.Style{FinderColor: cfg.Brand.Color, Scale: cfg.Link.Scale, Border: cfg.Link.Border}

	publisher, err := publish.NewPublisherFromConfig(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid storage settings: %w", err)
	}

	deps := Deps{
		Layout:   layout,
		Selector: funds.NewSelector(layout.FundsDir, logger),
		Data:     funds.NewAcquirer(layout, logger),
		Deriver:  analytics.NewDeriver(logger),
		Links: func(dir string) LinkGenerator {
			return linkcode.NewGenerator(cfg.Brand.Host, style, policy, dir, logger)
		},
		Assembler: report.NewAssembler(report.PolicyFromConfig(cfg.Brand), logger),
		Hosts:     render.NewSessionFactory(cfg, logger),
		Publisher: publisher,
		Sink:      sink,
		Metrics:   metrics,
		Logger:    logger,
	}
	return New(deps, PolicyFromConfig(cfg.Batch)), nil
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"factsheet/internal/config"
	reporterrors "factsheet/internal/errors"
	"factsheet/internal/infrastructure"
	"factsheet/internal/render"
	"factsheet/pkg/contracts/domain"
)

// Selector resolves a fund selection to fund directories.
type Selector interface {
	Select(ctx context.Context, selection string) ([]domain.FundDir, error)
}

// DataSource loads per-fund and shared inputs.
type DataSource interface {
	LoadFund(ctx context.Context, fd domain.FundDir) (domain.RawFundData, error)
	LoadBoilerplate(ctx context.Context) (domain.SharedBoilerplate, error)
}

// Deriver computes analytics from raw fund data.
type Deriver interface {
	Derive(ctx context.Context, raw domain.RawFundData) (domain.DerivedAnalytics, error)
}

// LinkGenerator writes the link artifact of a fund.
type LinkGenerator interface {
	Generate(ctx context.Context, fund domain.FundID) (domain.LinkArtifact, error)
}

// LinkFactory creates a LinkGenerator writing into the run's scratch dir.
type LinkFactory func(dir string) LinkGenerator

// Assembler builds the named values rendered for a fund.
type Assembler interface {
	Assemble(ctx context.Context, fund domain.FundID, shared domain.SharedBoilerplate,
		derived domain.DerivedAnalytics, holdings domain.Table, artifact domain.LinkArtifact) domain.ReportBundle
}

// Publisher uploads an exported document when asked to.
type Publisher interface {
	Publish(ctx context.Context, documentPath string, fund domain.FundID, upload bool) (bool, error)
}

// Deps are the collaborators of a Pipeline. Sink, Metrics, Tracer and Logger
// are optional.
type Deps struct {
	Layout    config.Layout
	Selector  Selector
	Data      DataSource
	Deriver   Deriver
	Links     LinkFactory
	Assembler Assembler
	Hosts     render.HostFactory
	Publisher Publisher

	Sink    StatusSink
	Metrics *infrastructure.PipelineMetrics
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

// Pipeline runs report batches. It keeps no state between runs; a Pipeline
// may be reused but runs must not overlap on the same deployment root.
type Pipeline struct {
	deps   Deps
	policy BatchPolicy
	sink   StatusSink
	tracer trace.Tracer
	logger *slog.Logger
}

// New creates a pipeline.
func New(deps Deps, policy BatchPolicy) *Pipeline {
	p := &Pipeline{deps: deps, policy: policy, sink: deps.Sink, tracer: deps.Tracer, logger: deps.Logger}
	if p.sink == nil {
		p.sink = NopSink{}
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(infrastructure.TracerName)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = infrastructure.WithComponent(p.logger, "pipeline")
	return p
}

// Policy returns the batch policy.
func (p *Pipeline) Policy() BatchPolicy { return p.policy }

// Run processes every fund named by settings. The returned result is never
// nil once the settings are valid; it lists an outcome for each fund that was
// attempted. Under AbortOnError the first fund error is returned, under
// ContinueOnError all fund errors are joined.
func (p *Pipeline) Run(ctx context.Context, settings domain.Settings) (result *BatchResult, err error) {
	defer p.sink.Clear()

	if err := settings.Validate(); err != nil {
		return nil, reporterrors.InvalidSettings(err)
	}

	ctx = infrastructure.EnsureRunID(ctx)
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", infrastructure.GetRunID(ctx)),
			attribute.String("run.selection", settings.FundSelection),
			attribute.String("run.policy", p.policy.String()),
			attribute.Bool("run.upload", settings.UploadExportedDocument),
		),
	)
	defer span.End()

	result = &BatchResult{
		RunID:     infrastructure.GetRunID(ctx),
		Selection: settings.FundSelection,
		Policy:    p.policy,
		StartedAt: time.Now(),
	}
	p.logger.InfoContext(ctx, "Run started",
		slog.String("selection", settings.FundSelection),
		slog.String("policy", p.policy.String()),
		slog.Bool("open", settings.OpenExportedDocument),
		slog.Bool("upload", settings.UploadExportedDocument))

	defer func() {
		result.FinishedAt = time.Now()
		result.Err = err
		p.finish(ctx, span, result)
	}()

	p.sink.SetStatus(statusSelecting(settings.FundSelection))
	selected, err := p.deps.Selector.Select(ctx, settings.FundSelection)
	if err != nil {
		return result, err
	}
	if len(selected) == 0 {
		p.logger.WarnContext(ctx, "No funds selected", slog.String("selection", settings.FundSelection))
		return result, nil
	}

	if err := p.deps.Layout.EnsureReportDirectories(); err != nil {
		return result, reporterrors.New(reporterrors.KindInternal, "", "cannot create report directories", err)
	}

	shared, err := p.deps.Data.LoadBoilerplate(ctx)
	if err != nil {
		return result, err
	}

	host, err := p.deps.Hosts(ctx)
	if err != nil {
		return result, reporterrors.New(reporterrors.KindRender, "", "cannot start rendering host", err)
	}
	defer func() {
		if cerr := host.Close(); cerr != nil {
			p.logger.WarnContext(ctx, "Failed to close rendering host", slog.String("error", cerr.Error()))
		}
	}()

	scratch, err := os.MkdirTemp("", "factsheet-"+result.RunID+"-")
	if err != nil {
		return result, reporterrors.New(reporterrors.KindInternal, "", "cannot create scratch directory", err)
	}
	defer os.RemoveAll(scratch)
	links := p.deps.Links(scratch)

	for _, fd := range selected {
		if cerr := ctx.Err(); cerr != nil {
			return result, reporterrors.Cancelled(cerr)
		}

		outcome := p.processFund(ctx, host, links, shared, fd, settings)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Err != nil && p.policy == AbortOnError {
			return result, outcome.Err
		}
	}

	return result, result.joinedErr()
}

// finish records the run in metrics, the span and the manifest.
func (p *Pipeline) finish(ctx context.Context, span trace.Span, result *BatchResult) {
	outcome := outcomeLabel(result.Err)
	p.deps.Metrics.RecordRun(ctx, outcome)

	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	attrs := []any{
		slog.Int("funds", len(result.Outcomes)),
		slog.Int("failed", len(result.Failed())),
		slog.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
	}
	if result.Err != nil {
		p.logger.ErrorContext(ctx, "Run failed", append(attrs, slog.String("error", result.Err.Error()))...)
	} else {
		p.logger.InfoContext(ctx, "Run finished", attrs...)
	}

	if len(result.Outcomes) == 0 {
		return
	}
	if err := WriteManifest(p.deps.Layout.ManifestPath(), NewManifest(result)); err != nil {
		p.logger.WarnContext(ctx, "Failed to write run manifest", slog.String("error", err.Error()))
	}
}

// processFund runs the per-fund state machine. It never returns early
// without an outcome.
func (p *Pipeline) processFund(ctx context.Context, host render.Host, links LinkGenerator,
	shared domain.SharedBoilerplate, fd domain.FundDir, settings domain.Settings) (out FundOutcome) {
	start := time.Now()
	fund := fd.Fund
	name := fund.String()

	ctx, span := p.tracer.Start(ctx, "pipeline.fund",
		trace.WithAttributes(attribute.String("fund", name)))
	defer span.End()

	out = FundOutcome{
		Fund:     fund,
		Workbook: p.deps.Layout.WorkbookPath(fund),
		Document: p.deps.Layout.DocumentPath(fund),
	}
	defer func() {
		out.Duration = time.Since(start)
		p.deps.Metrics.RecordFund(ctx, outcomeLabel(out.Err))
		if out.Err != nil {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, string(out.FailedStage))
		}
	}()

	fail := func(stage Stage, err error) FundOutcome {
		out.FailedStage = stage
		out.Err = reporterrors.WithContext(err, name, string(stage))
		return out
	}

	p.sink.SetStatus(statusPreparing(name))
	var bundle domain.ReportBundle
	err := p.stage(ctx, name, StagePreprocessing, func(ctx context.Context) error {
		raw, err := p.deps.Data.LoadFund(ctx, fd)
		if err != nil {
			return err
		}
		derived, err := p.deps.Deriver.Derive(ctx, raw)
		if err != nil {
			return err
		}
		artifact, err := links.Generate(ctx, fund)
		if err != nil {
			return err
		}
		bundle = p.deps.Assembler.Assemble(ctx, fund, shared, derived, raw.Holdings, artifact)
		return nil
	})
	if err != nil {
		return fail(StagePreprocessing, err)
	}

	p.sink.SetStatus(statusRendering(name))
	var doc render.Document
	err = p.stage(ctx, name, StageRendering, func(ctx context.Context) error {
		var rerr error
		doc, rerr = host.Render(ctx, render.RenderRequest{
			TemplatePath: p.deps.Layout.TemplateFile(),
			OutputPath:   out.Workbook,
			Values:       bundle.Values(),
		})
		if rerr != nil {
			return reporterrors.Render(name, rerr)
		}
		return nil
	})
	if err != nil {
		return fail(StageRendering, err)
	}

	p.sink.SetStatus(statusExporting(name))
	err = p.stage(ctx, name, StageExporting, func(ctx context.Context) error {
		eerr := doc.Export(ctx, render.ExportRequest{
			Path:       out.Document,
			LayoutPath: p.deps.Layout.PageLayoutFile(),
			Show:       settings.OpenExportedDocument,
		})
		if eerr != nil {
			return reporterrors.Export(name, eerr)
		}
		return nil
	})
	if err != nil {
		return fail(StageExporting, err)
	}
	out.Exported = true
	if digest, derr := documentDigest(out.Document); derr != nil {
		p.logger.WarnContext(ctx, "Failed to hash exported document",
			slog.String("fund", name),
			slog.String("error", derr.Error()))
	} else {
		out.Digest = digest
	}

	if settings.UploadExportedDocument {
		p.sink.SetStatus(statusUploading(name))
		err = p.stage(ctx, name, StagePublishing, func(ctx context.Context) error {
			published, perr := p.deps.Publisher.Publish(ctx, out.Document, fund, true)
			out.Published = published
			p.deps.Metrics.RecordUpload(ctx, perr == nil)
			return perr
		})
		if err != nil {
			return fail(StagePublishing, err)
		}
	}

	p.sink.SetStatus(statusFinished(name))
	return out
}

// stage times fn and logs its start and end.
func (p *Pipeline) stage(ctx context.Context, fund string, stage Stage, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, fmt.Sprintf("pipeline.%s", stage),
		trace.WithAttributes(attribute.String("fund", fund)))
	defer span.End()

	p.logger.DebugContext(ctx, "Stage started",
		slog.String("fund", fund),
		slog.String("stage", string(stage)))

	err := fn(ctx)
	elapsed := time.Since(start)
	p.deps.Metrics.RecordStage(ctx, string(stage), elapsed)

	if err != nil {
		infrastructure.RecordError(ctx, err, string(stage)+" failed")
		p.logger.ErrorContext(ctx, "Stage failed",
			slog.String("fund", fund),
			slog.String("stage", string(stage)),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		return err
	}

	p.logger.InfoContext(ctx, "Stage completed",
		slog.String("fund", fund),
		slog.String("stage", string(stage)),
		slog.Duration("duration", elapsed))
	return nil
}

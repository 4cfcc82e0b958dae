package report

import (
	"context"
	"log/slog"
	"time"

	"factsheet/internal/config"
	"factsheet/pkg/contracts/domain"
)

// Assembler merges everything known about a fund into the bundle handed to
// the template renderer.
type Assembler struct {
	policy TextPolicy
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Assembler
type Option func(*Assembler)

// WithClock replaces the wall clock used for the as-of timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// NewAssembler creates an assembler applying policy to text blocks.
func NewAssembler(policy TextPolicy, logger *slog.Logger, opts ...Option) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assembler{policy: policy, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PolicyFromConfig returns the brand text policy.
func PolicyFromConfig(brand config.BrandConfig) TextPolicy {
	return TextPolicy{HeadingSize: brand.HeadingSize, HeadingColor: brand.Color}
}

// Assemble builds the bundle. Keyed structures are flattened so their key is
// an ordinary first column, and the as-of timestamp is captured in local time.
func (a *Assembler) Assemble(ctx context.Context, fund domain.FundID, shared domain.SharedBoilerplate,
	derived domain.DerivedAnalytics, holdings domain.Table, artifact domain.LinkArtifact) domain.ReportBundle {
	bundle := domain.ReportBundle{
		FundName:   fund,
		Intro:      StyleMarkdown(shared.Intro, a.policy),
		Disclaimer: StyleMarkdown(shared.Disclaimer, a.policy),
		FundReturn: derived.FundReturn,
		AsOf:       a.now().Local(),
		Holdings:   holdings,
		Sectors:    derived.SectorWeights.Table(),
		QRCode:     artifact,
		History:    derived.History.Table(),
	}

	a.logger.DebugContext(ctx, "Assembled report data",
		slog.String("fund", fund.String()),
		slog.Time("as_of", bundle.AsOf),
		slog.Int("holdings", bundle.Holdings.Len()),
		slog.Int("sectors", bundle.Sectors.Len()),
		slog.Int("history", bundle.History.Len()))

	return bundle
}

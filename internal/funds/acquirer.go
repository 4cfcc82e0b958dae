package funds

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"factsheet/internal/config"
	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts/domain"
)

// Acquirer loads fund inputs from the deployment layout. Nothing is cached;
// every call reads the files again.
type Acquirer struct {
	layout config.Layout
	logger *slog.Logger
}

// NewAcquirer creates an acquirer for layout. A nil logger uses slog.Default().
func NewAcquirer(layout config.Layout, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{layout: layout, logger: logger}
}

// LoadFund reads the holdings and history tables of one fund. A missing or
// malformed file is a MissingInput error for that fund.
func (a *Acquirer) LoadFund(ctx context.Context, fd domain.FundDir) (domain.RawFundData, error) {
	start := time.Now()
	fund := fd.Fund.String()

	holdingsPath := a.layout.HoldingsFile(fd.Dir)
	holdings, err := ReadTable(holdingsPath)
	if err != nil {
		return domain.RawFundData{}, reporterrors.MissingInput(fund, holdingsPath, err)
	}
	if holdings.ColumnIndex(domain.ColumnIndustry) < 0 {
		return domain.RawFundData{}, reporterrors.MissingInput(fund, holdingsPath,
			errMissingColumn(domain.ColumnIndustry))
	}

	historyPath := a.layout.HistoryFile(fd.Dir)
	history, err := ReadHistory(historyPath)
	if err != nil {
		return domain.RawFundData{}, reporterrors.MissingInput(fund, historyPath, err)
	}
	if history.ColumnIndex(domain.ColumnFund) < 0 {
		return domain.RawFundData{}, reporterrors.MissingInput(fund, historyPath,
			errMissingColumn(domain.ColumnFund))
	}

	a.logger.DebugContext(ctx, "Loaded fund data",
		slog.String("fund", fund),
		slog.Int("holdings", holdings.Len()),
		slog.Int("history", len(history.Points)),
		slog.Duration("duration", time.Since(start)))

	return domain.RawFundData{Fund: fd.Fund, Holdings: holdings, History: history}, nil
}

// LoadBoilerplate reads the intro and disclaimer shared by every fund.
func (a *Acquirer) LoadBoilerplate(ctx context.Context) (domain.SharedBoilerplate, error) {
	introPath := a.layout.IntroFile()
	intro, err := ReadDocxText(introPath)
	if err != nil {
		return domain.SharedBoilerplate{}, reporterrors.MissingInput("", introPath, err)
	}

	disclaimerPath := a.layout.DisclaimerFile()
	disclaimer, err := os.ReadFile(disclaimerPath)
	if err != nil {
		return domain.SharedBoilerplate{}, reporterrors.MissingInput("", disclaimerPath, err)
	}

	a.logger.DebugContext(ctx, "Loaded shared boilerplate",
		slog.Int("intro_bytes", len(intro)),
		slog.Int("disclaimer_bytes", len(disclaimer)))

	return domain.SharedBoilerplate{Intro: intro, Disclaimer: string(disclaimer)}, nil
}

func errMissingColumn(name string) error {
	return fmt.Errorf("missing %q column", name)
}

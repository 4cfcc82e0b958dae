// Package bootstrap writes a working deployment root: the default template,
// the shared boilerplate, a control workbook and two sample funds.
package bootstrap

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"factsheet/internal/config"
	"factsheet/internal/funds"
	"factsheet/internal/render"
	"factsheet/internal/workbook"
	"factsheet/pkg/contracts/domain"
)

// ControlWorkbookName is the file name of the control workbook below the root.
const ControlWorkbookName = "factsheet.xlsx"

// Options controls Init.
type Options struct {
	// Force overwrites files that already exist.
	Force bool
	// SkipSamples leaves data/funds empty.
	SkipSamples bool
}

// Summary lists what Init wrote and what it left alone.
type Summary struct {
	Written []string
	Skipped []string
}

type holdingRow struct {
	Instrument string          `csv:"Instrument"`
	Industry   string          `csv:"Industry"`
	Weight     decimal.Decimal `csv:"Weight"`
	Value      decimal.Decimal `csv:"Value"`
}

type historyRow struct {
	Date      string          `csv:"Date"`
	Fund      decimal.Decimal `csv:"Fund"`
	Benchmark decimal.Decimal `csv:"Benchmark"`
}

type sampleFund struct {
	name     string
	drift    float64
	holdings []holdingRow
}

var sampleFunds = []sampleFund{
	{
		name:  "Fund A",
		drift: 0.008,
		holdings: []holdingRow{
			{"Apple", "Technology", decimal.RequireFromString("0.25"), decimal.NewFromInt(250)},
			{"Microsoft", "Technology", decimal.RequireFromString("0.20"), decimal.NewFromInt(200)},
			{"Nestle", "Consumer Staples", decimal.RequireFromString("0.15"), decimal.NewFromInt(150)},
			{"Novartis", "Health Care", decimal.RequireFromString("0.40"), decimal.NewFromInt(400)},
		},
	},
	{
		name:  "Fund B",
		drift: 0.005,
		holdings: []holdingRow{
			{"Siemens", "Industrials", decimal.RequireFromString("0.30"), decimal.NewFromInt(300)},
			{"Allianz", "Financials", decimal.RequireFromString("0.30"), decimal.NewFromInt(300)},
			{"Roche", "Health Care", decimal.RequireFromString("0.25"), decimal.NewFromInt(250)},
			{"Shell", "Energy", decimal.RequireFromString("0.15"), decimal.NewFromInt(150)},
		},
	},
}

var introParagraphs = []string{
	"About our funds",
	"Our funds invest in a diversified portfolio of listed equities.",
	"This factsheet is published monthly.",
}

const disclaimer = `**Disclaimer.** This document is for information purposes only.
*Past performance is no guarantee of future results.*
`

type step struct {
	path  string
	write func(path string) error
}

// historyMonths is the length of the sample history series.
const historyMonths = 36

// Init writes the deployment root described by cfg.
func Init(cfg *config.Config, opts Options, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	layout := cfg.Layout()
	s := &Summary{}

	for _, dir := range []string{layout.FundsDir, layout.CommonDir, layout.TemplateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	steps := []step{
		{layout.TemplateFile(), func(p string) error { return render.WriteDefaultTemplate(p, cfg.Brand.Color) }},
		{layout.IntroFile(), func(p string) error { return funds.WriteDocx(p, introParagraphs) }},
		{layout.DisclaimerFile(), func(p string) error { return os.WriteFile(p, []byte(disclaimer), 0644) }},
		{filepath.Join(layout.Root, ControlWorkbookName), func(p string) error {
			return workbook.Create(p, domain.Settings{FundSelection: domain.AllFunds})
		}},
	}
	if !opts.SkipSamples {
		end := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
		for _, fund := range sampleFunds {
			fund := fund
			dir := filepath.Join(layout.FundsDir, fund.name)
			steps = append(steps,
				step{layout.HoldingsFile(dir), func(p string) error { return writeCSV(p, fund.holdings) }},
				step{layout.HistoryFile(dir), func(p string) error { return writeCSV(p, sampleHistory(fund.drift, end)) }},
			)
		}
	}

	for _, st := range steps {
		if !opts.Force && config.FileExists(st.path) {
			s.Skipped = append(s.Skipped, st.path)
			logger.Debug("Keeping existing file", slog.String("path", st.path))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(st.path), 0755); err != nil {
			return s, fmt.Errorf("failed to create %s: %w", filepath.Dir(st.path), err)
		}
		if err := st.write(st.path); err != nil {
			return s, fmt.Errorf("failed to write %s: %w", st.path, err)
		}
		s.Written = append(s.Written, st.path)
		logger.Info("Wrote file", slog.String("path", st.path))
	}

	return s, nil
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sampleHistory returns month-end values ending at end, starting at 100 for
// both the fund and its benchmark.
func sampleHistory(drift float64, end time.Time) []historyRow {
	rows := make([]historyRow, 0, historyMonths+1)
	first := time.Date(end.Year(), end.Month()-historyMonths+1, 1, 0, 0, 0, 0, time.UTC)
	for k := 0; k <= historyMonths; k++ {
		// month end preceding month k
		date := first.AddDate(0, k, -1)
		fund := 100 * math.Pow(1+drift, float64(k)) * (1 + 0.02*math.Sin(float64(k)/2))
		bench := 100 * math.Pow(1.004, float64(k))
		rows = append(rows, historyRow{
			Date:      date.Format("2006-01-02"),
			Fund:      decimal.NewFromFloat(fund).Round(2),
			Benchmark: decimal.NewFromFloat(bench).Round(2),
		})
	}
	return rows
}

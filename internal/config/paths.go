package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"factsheet/pkg/contracts/domain"
)

// Well-known file names of the deployment layout
const (
	HoldingsFileName   = "holdings.csv"
	HistoryFileName    = "history.csv"
	IntroFileName      = "intro.docx"
	DisclaimerFileName = "disclaimer.md"
	TemplateFileName   = "template.xlsx"
	PageLayoutFileName = "layout.pdf"
	ManifestFileName   = "manifest.json"
)

// Layout is the single source of truth for every path below the deployment root:
//
//	root/
//	  ├── data/funds/<fund>/holdings.csv, history.csv
//	  ├── data/common/intro.docx, disclaimer.md
//	  ├── template/template.xlsx, layout.pdf
//	  └── reports/xlsx/<fund>.xlsx, reports/pdf/<fund>.pdf
type Layout struct {
	Root        string
	DataDir     string
	FundsDir    string
	CommonDir   string
	TemplateDir string
	ReportsDir  string
	XLSXDir     string
	PDFDir      string
}

// NewLayout returns the layout below root
func NewLayout(root string) Layout {
	dataDir := filepath.Join(root, "data")
	reportsDir := filepath.Join(root, "reports")
	return Layout{
		Root:        root,
		DataDir:     dataDir,
		FundsDir:    filepath.Join(dataDir, "funds"),
		CommonDir:   filepath.Join(dataDir, "common"),
		TemplateDir: filepath.Join(root, "template"),
		ReportsDir:  reportsDir,
		XLSXDir:     filepath.Join(reportsDir, "xlsx"),
		PDFDir:      filepath.Join(reportsDir, "pdf"),
	}
}

// HoldingsFile returns the holdings table of a fund directory
func (l Layout) HoldingsFile(fundDir string) string {
	return filepath.Join(fundDir, HoldingsFileName)
}

// HistoryFile returns the date-indexed history table of a fund directory
func (l Layout) HistoryFile(fundDir string) string {
	return filepath.Join(fundDir, HistoryFileName)
}

// IntroFile returns the shared intro document
func (l Layout) IntroFile() string { return filepath.Join(l.CommonDir, IntroFileName) }

// DisclaimerFile returns the shared disclaimer text
func (l Layout) DisclaimerFile() string { return filepath.Join(l.CommonDir, DisclaimerFileName) }

// TemplateFile returns the report workbook template
func (l Layout) TemplateFile() string { return filepath.Join(l.TemplateDir, TemplateFileName) }

// PageLayoutFile returns the optional page layout stamped under exported pages
func (l Layout) PageLayoutFile() string { return filepath.Join(l.TemplateDir, PageLayoutFileName) }

// WorkbookPath returns the rendered workbook path of a fund
func (l Layout) WorkbookPath(fund domain.FundID) string {
	return filepath.Join(l.XLSXDir, fund.String()+".xlsx")
}

// DocumentPath returns the exported document path of a fund
func (l Layout) DocumentPath(fund domain.FundID) string {
	return filepath.Join(l.PDFDir, fund.String()+".pdf")
}

// ManifestPath returns the run manifest written after every run
func (l Layout) ManifestPath() string {
	return filepath.Join(l.ReportsDir, ManifestFileName)
}

// EnsureReportDirectories creates the report output directories if they don't exist
func (l Layout) EnsureReportDirectories() error {
	logger := slog.Default()
	for _, dir := range []string{l.XLSXDir, l.PDFDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

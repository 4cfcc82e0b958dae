package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Exporter turns rendered workbooks into PDF documents.
type Exporter struct {
	printer Printer
	opts    PrintOptions
	open    Opener
	logger  *slog.Logger
}

// NewExporter creates an exporter. A nil opener disables showing documents.
func NewExporter(printer Printer, opts PrintOptions, open Opener, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{printer: printer, opts: opts, open: open, logger: logger}
}

// Export prints wb to req.Path, replacing any previous document. The page
// layout is applied when req.LayoutPath names an existing file. Failing to
// open the finished document is logged, not returned.
func (e *Exporter) Export(ctx context.Context, wb *Workbook, req ExportRequest) error {
	start := time.Now()

	markup, err := BuildHTML(wb, e.opts)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "factsheet-export-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "report.html")
	if err := os.WriteFile(htmlPath, markup, 0644); err != nil {
		return err
	}

	pdf, err := e.printer.PrintPDF(ctx, htmlPath, e.opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(req.Path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(req.Path, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", req.Path, err)
	}

	if req.LayoutPath != "" {
		if fileExists(req.LayoutPath) {
			if err := ApplyLayout(req.Path, req.LayoutPath); err != nil {
				return err
			}
		} else {
			e.logger.DebugContext(ctx, "No page layout, exporting plain pages",
				slog.String("layout", req.LayoutPath))
		}
	}

	pages, err := PageCount(req.Path)
	if err != nil {
		return fmt.Errorf("exported document %s is not a valid PDF: %w", req.Path, err)
	}
	if pages == 0 {
		return fmt.Errorf("exported document %s has no pages", req.Path)
	}

	e.logger.DebugContext(ctx, "Exported document",
		slog.String("workbook", wb.path),
		slog.String("document", req.Path),
		slog.Int("pages", pages),
		slog.Duration("duration", time.Since(start)))

	if req.Show && e.open != nil {
		if err := e.open(req.Path); err != nil {
			e.logger.WarnContext(ctx, "Failed to open exported document",
				slog.String("document", req.Path),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

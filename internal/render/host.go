package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"factsheet/internal/config"
)

// RenderRequest names the template, the output workbook and the values.
type RenderRequest struct {
	TemplatePath string
	OutputPath   string
	Values       map[string]interface{}
}

// ExportRequest names the document to write, an optional page layout whose
// first page is placed under every exported page, and whether to open the
// document afterwards.
type ExportRequest struct {
	Path       string
	LayoutPath string
	Show       bool
}

// Document is a rendered workbook that can be exported.
type Document interface {
	Path() string
	Export(ctx context.Context, req ExportRequest) error
}

// Host renders and exports reports. One Host serves a whole run.
type Host interface {
	Render(ctx context.Context, req RenderRequest) (Document, error)
	Close() error
}

// HostFactory acquires a Host at the start of a run.
type HostFactory func(ctx context.Context) (Host, error)

// Session is the production Host: an excelize template renderer and an
// exporter printing through one headless Chrome process.
type Session struct {
	renderer *TemplateRenderer
	exporter *Exporter
	printer  Printer
	logger   *slog.Logger
}

// NewSession assembles a session from its parts.
func NewSession(renderer *TemplateRenderer, exporter *Exporter, printer Printer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{renderer: renderer, exporter: exporter, printer: printer, logger: logger}
}

// NewSessionFactory returns a factory starting Chrome with the export
// settings and styling charts with the brand color.
func NewSessionFactory(cfg *config.Config, logger *slog.Logger) HostFactory {
	return func(ctx context.Context) (Host, error) {
		printer, err := StartChrome(ctx, cfg.Export, logger)
		if err != nil {
			return nil, err
		}
		opts := PrintOptionsFromConfig(cfg.Export)
		opts.ChartColor = cfg.Brand.Color
		renderer := NewTemplateRenderer(cfg.Brand.Color, logger)
		exporter := NewExporter(printer, opts, OpenDocument, logger)
		return NewSession(renderer, exporter, printer, logger), nil
	}
}

// Render fills the template and saves the workbook.
func (s *Session) Render(ctx context.Context, req RenderRequest) (Document, error) {
	wb, err := s.renderer.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	wb.exporter = s.exporter
	return wb, nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	if s.printer == nil {
		return nil
	}
	s.logger.Debug("Closing render session")
	return s.printer.Close()
}

// Path returns the saved workbook file.
func (w *Workbook) Path() string { return w.path }

// Export writes the workbook as a PDF.
func (w *Workbook) Export(ctx context.Context, req ExportRequest) error {
	if w.exporter == nil {
		return fmt.Errorf("workbook %s was not rendered by a session", w.path)
	}
	return w.exporter.Export(ctx, w, req)
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

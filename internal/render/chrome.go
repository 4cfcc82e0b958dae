package render

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"factsheet/internal/config"
)

// PrintOptions controls the paper and chart look of exported documents.
type PrintOptions struct {
	PaperWidth  float64
	PaperHeight float64
	Timeout     time.Duration
	ChartColor  string
}

// PrintOptionsFromConfig maps the export settings. Sizes are in inches.
func PrintOptionsFromConfig(cfg config.ExportConfig) PrintOptions {
	return PrintOptions{
		PaperWidth:  cfg.PaperWidth,
		PaperHeight: cfg.PaperHeight,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Printer prints an HTML file to PDF bytes.
type Printer interface {
	PrintPDF(ctx context.Context, htmlPath string, opts PrintOptions) ([]byte, error)
	Close() error
}

// ChromeHost is a headless Chrome process shared by all exports of a run.
// Every print opens its own tab.
type ChromeHost struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	logger        *slog.Logger
}

// StartChrome launches the browser and waits until it accepts commands.
func StartChrome(ctx context.Context, cfg config.ExportConfig, logger *slog.Logger) (*ChromeHost, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	// The browser outlives the caller's context; Close ends it.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "chrome"))
		}))

	startCtx, cancelStart := context.WithTimeout(browserCtx, time.Minute)
	defer cancelStart()
	stop := context.AfterFunc(ctx, cancelStart)
	defer stop()

	start := time.Now()
	if err := chromedp.Run(startCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start Chrome: %w", err)
	}

	logger.InfoContext(ctx, "Started render host",
		slog.Bool("headless", cfg.Headless),
		slog.Duration("duration", time.Since(start)))

	return &ChromeHost{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		logger:        logger,
	}, nil
}

// PrintPDF loads htmlPath in a new tab and prints it.
func (h *ChromeHost) PrintPDF(ctx context.Context, htmlPath string, opts PrintOptions) ([]byte, error) {
	tabCtx, cancelTab := chromedp.NewContext(h.browserCtx)
	defer cancelTab()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	target, err := fileURL(htmlPath)
	if err != nil {
		return nil, err
	}

	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(opts.PaperWidth).
				WithPaperHeight(opts.PaperHeight).
				Do(ctx)
			pdf = data
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print %s: %w", htmlPath, err)
	}
	return pdf, nil
}

// Close ends the browser process.
func (h *ChromeHost) Close() error {
	h.cancelBrowser()
	h.cancelAlloc()
	return nil
}

func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if p[0] != '/' {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String(), nil
}

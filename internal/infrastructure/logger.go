package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"factsheet/internal/config"
)

type contextKey string

// RunIDContextKey carries the pipeline run ID through request and run contexts.
const RunIDContextKey contextKey = "run_id"

// process-wide logger and the log file it may own
var (
	loggerMu   sync.Mutex
	procLogger *slog.Logger
	logFile    *os.File
)

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// InitializeLogger builds the process logger from cfg and installs it as the
// slog default. Later calls return the first logger unchanged.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if procLogger != nil {
		return procLogger, nil
	}

	out, file, err := logOutput(cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	logFile = file
	procLogger = slog.New(&contextHandler{Handler: slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(cfg.Level),
	})})
	slog.SetDefault(procLogger)
	return procLogger, nil
}

// GetLogger returns the process logger, or slog.Default before initialization.
func GetLogger() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if procLogger == nil {
		return slog.Default()
	}
	return procLogger
}

// NewLogger creates a JSON logger writing to w without touching global state.
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)})
	return slog.New(&contextHandler{Handler: handler})
}

// logOutput resolves cfg.Output to a writer. "file" and "both" also return
// the opened log file so it can be closed on exit.
func logOutput(cfg config.LoggingConfig, console io.Writer) (io.Writer, *os.File, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return console, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", cfg.FilePath, err)
	}
	if mode == "both" {
		return io.MultiWriter(console, f), f, nil
	}
	return f, f, nil
}

// contextHandler stamps run_id and trace_id from the record's context.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetRunID(ctx); id != "" {
		r.AddAttrs(slog.String("run_id", id))
	}
	if id := TraceIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel maps a config level name to slog, defaulting to info.
func parseLogLevel(level string) slog.Level {
	if l, ok := logLevels[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// CloseLogFile closes the log file opened by InitializeLogger, if any.
func CloseLogFile() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ResetLoggerForTesting drops the process logger so tests can reinitialize it.
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	loggerMu.Lock()
	procLogger = nil
	loggerMu.Unlock()
}

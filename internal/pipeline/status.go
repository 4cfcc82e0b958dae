package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// StatusSink receives the human readable progress of a run. Clear resets the
// status to "nothing in progress".
type StatusSink interface {
	SetStatus(text string)
	Clear()
}

// StatusFunc adapts a function to StatusSink; Clear passes "".
type StatusFunc func(text string)

// SetStatus implements StatusSink
func (f StatusFunc) SetStatus(text string) { f(text) }

// Clear implements StatusSink
func (f StatusFunc) Clear() { f("") }

// NopSink discards status updates.
type NopSink struct{}

func (NopSink) SetStatus(string) {}
func (NopSink) Clear()           {}

// WriterSink prints every status on its own line, like an output pane.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink printing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// SetStatus implements StatusSink
func (s *WriterSink) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, text)
}

// Clear implements StatusSink; a cleared pane prints nothing.
func (s *WriterSink) Clear() {}

// LogSink records status changes at info level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// SetStatus implements StatusSink
func (s *LogSink) SetStatus(text string) {
	s.logger.Info("Status", slog.String("status", text))
}

// Clear implements StatusSink
func (s *LogSink) Clear() {
	s.logger.Debug("Status cleared")
}

// MultiSink fans status updates out to several sinks in order.
type MultiSink []StatusSink

// SetStatus implements StatusSink
func (m MultiSink) SetStatus(text string) {
	for _, s := range m {
		if s != nil {
			s.SetStatus(text)
		}
	}
}

// Clear implements StatusSink
func (m MultiSink) Clear() {
	for _, s := range m {
		if s != nil {
			s.Clear()
		}
	}
}

// Status texts. Front ends show them verbatim.
func statusSelecting(selection string) string { return "Selecting funds: " + selection }
func statusPreparing(fund string) string      { return "Preparing Data: " + fund }
func statusRendering(fund string) string      { return "Creating Excel Report: " + fund }
func statusExporting(fund string) string      { return "Creating PDF Report: " + fund }
func statusUploading(fund string) string      { return "Uploading: " + fund }
func statusFinished(fund string) string       { return "Finished: " + fund }

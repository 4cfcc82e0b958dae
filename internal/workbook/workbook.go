package workbook

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"factsheet/pkg/contracts/domain"
)

// Defined names and fallback locations inside the control workbook.
const (
	SettingsName = "settings"
	StatusName   = "status"

	RunSheet         = "Run"
	fallbackSettings = "Run!$A$1:$B$3"
	fallbackStatus   = "Run!$B$5"
)

// Book is an open control workbook.
type Book struct {
	mu     sync.Mutex
	path   string
	f      *excelize.File
	logger *slog.Logger
}

// Open opens the control workbook at path.
func Open(path string, logger *slog.Logger) (*Book, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Book{path: path, f: f, logger: logger}, nil
}

// Path returns the workbook file.
func (b *Book) Path() string { return b.path }

// Close releases the workbook.
func (b *Book) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}

// Settings reads the key/value range named "settings", or Run!A1:B3 when the
// name is not defined, and validates it.
func (b *Book) Settings() (domain.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref := b.definedName(SettingsName, fallbackSettings)
	sheet, from, to, err := parseRef(ref)
	if err != nil {
		return domain.Settings{}, err
	}
	c1, r1, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return domain.Settings{}, err
	}
	c2, r2 := c1+1, r1
	if to != "" {
		if c2, r2, err = excelize.CellNameToCoordinates(to); err != nil {
			return domain.Settings{}, err
		}
	}

	fields := make(map[string]string)
	for row := r1; row <= r2; row++ {
		keyCell, _ := excelize.CoordinatesToCellName(c1, row)
		valueCell, _ := excelize.CoordinatesToCellName(c2, row)
		key, err := b.f.GetCellValue(sheet, keyCell)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("failed to read %s!%s: %w", sheet, keyCell, err)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value, err := b.f.GetCellValue(sheet, valueCell)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("failed to read %s!%s: %w", sheet, valueCell, err)
		}
		fields[key] = value
	}

	b.logger.Debug("Read workbook settings",
		slog.String("workbook", b.path),
		slog.String("range", ref),
		slog.Int("fields", len(fields)))
	return domain.SettingsFromFields(fields)
}

// StatusCell returns a status sink writing to the cell named "status", or
// Run!B5 when the name is not defined.
func (b *Book) StatusCell() (*StatusCell, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sheet, cell, _, err := parseRef(b.definedName(StatusName, fallbackStatus))
	if err != nil {
		return nil, err
	}
	return &StatusCell{book: b, sheet: sheet, cell: cell}, nil
}

// definedName returns what name refers to, or fallback.
func (b *Book) definedName(name, fallback string) string {
	for _, dn := range b.f.GetDefinedName() {
		if strings.EqualFold(dn.Name, name) {
			return dn.RefersTo
		}
	}
	return fallback
}

// parseRef splits "'Sheet'!$A$1:$B$3" into sheet and cell names without
// absolute markers. to is empty for single cells.
func parseRef(ref string) (sheet, from, to string, err error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "=")
	i := strings.LastIndex(ref, "!")
	if i <= 0 {
		return "", "", "", fmt.Errorf("reference %q has no sheet", ref)
	}
	sheet = strings.Trim(ref[:i], "'")
	cells := strings.ReplaceAll(ref[i+1:], "$", "")
	from, to, _ = strings.Cut(cells, ":")
	if from == "" {
		return "", "", "", fmt.Errorf("reference %q has no cell", ref)
	}
	return sheet, from, to, nil
}

// StatusCell shows pipeline status inside the control workbook. Every update
// is saved so other readers of the file see it.
type StatusCell struct {
	book  *Book
	sheet string
	cell  string
}

// SetStatus implements pipeline.StatusSink
func (s *StatusCell) SetStatus(text string) {
	s.write(text)
}

// Clear implements pipeline.StatusSink
func (s *StatusCell) Clear() {
	s.write("")
}

// Value returns the current status text.
func (s *StatusCell) Value() string {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()
	v, _ := s.book.f.GetCellValue(s.sheet, s.cell)
	return v
}

func (s *StatusCell) write(text string) {
	b := s.book
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.f.SetCellStr(s.sheet, s.cell, text); err != nil {
		b.logger.Warn("Failed to write status cell", slog.String("cell", s.cell), slog.String("error", err.Error()))
		return
	}
	if err := b.f.Save(); err != nil {
		b.logger.Warn("Failed to save workbook status", slog.String("workbook", b.path), slog.String("error", err.Error()))
	}
}

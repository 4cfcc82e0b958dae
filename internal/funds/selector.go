package funds

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts/domain"
)

// Selector resolves a fund selection below a funds root directory.
type Selector struct {
	root   string
	logger *slog.Logger
}

// NewSelector creates a selector over root. A nil logger uses slog.Default().
func NewSelector(root string, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{root: root, logger: logger}
}

// Select returns the fund directories named by selection, in processing order.
//
// ALL yields every immediate, non-hidden subdirectory sorted by name; an
// empty root yields an empty slice. A literal selection yields exactly one
// pair whose identifier is the literal as given, even when the filesystem
// resolves it to a directory spelled differently.
func (s *Selector) Select(ctx context.Context, selection string) ([]domain.FundDir, error) {
	if selection == domain.AllFunds {
		return s.selectAll(ctx)
	}
	return s.selectOne(ctx, selection)
}

func (s *Selector) selectAll(ctx context.Context) ([]domain.FundDir, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, reporterrors.MissingInput("", s.root, err)
	}

	// os.ReadDir returns entries sorted by filename
	var dirs []domain.FundDir
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dirs = append(dirs, domain.FundDir{
			Dir:  filepath.Join(s.root, entry.Name()),
			Fund: domain.FundID(entry.Name()),
		})
	}

	if len(dirs) == 0 {
		s.logger.WarnContext(ctx, "No fund directories found", slog.String("root", s.root))
	}
	s.logger.DebugContext(ctx, "Selected all funds",
		slog.String("root", s.root),
		slog.Int("count", len(dirs)))
	return dirs, nil
}

func (s *Selector) selectOne(ctx context.Context, name string) ([]domain.FundDir, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, reporterrors.New(reporterrors.KindInvalidSettings, name,
			fmt.Sprintf("%q is not a fund name", name), nil)
	}

	dir := filepath.Join(s.root, name)
	info, err := os.Stat(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, reporterrors.MissingInput(name, dir, err)
	}
	if err != nil || !info.IsDir() {
		s.logger.DebugContext(ctx, "Fund selection matched nothing",
			slog.String("fund", name),
			slog.String("root", s.root))
		return nil, reporterrors.NotFound(name)
	}

	return []domain.FundDir{{Dir: dir, Fund: domain.FundID(name)}}, nil
}

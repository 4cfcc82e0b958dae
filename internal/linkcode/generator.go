package linkcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"factsheet/internal/config"
	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts/domain"
)

// Style is the fixed look of every link artifact.
type Style struct {
	// FinderColor paints the three finder patterns, as #rrggbb.
	FinderColor string
	// Scale is the edge length of one module in output units.
	Scale int
	// Border is the quiet zone width in modules.
	Border int
}

// Generator writes scannable link codes for fund pages.
type Generator struct {
	host   string
	style  Style
	policy FormatPolicy
	dir    string
	logger *slog.Logger
}

// NewGenerator creates a generator writing into dir.
func NewGenerator(host string, style Style, policy FormatPolicy, dir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = PlatformPolicy{}
	}
	return &Generator{host: host, style: style, policy: policy, dir: dir, logger: logger}
}

// NewGeneratorFromConfig builds a generator from the brand and link settings.
func NewGeneratorFromConfig(cfg *config.Config, dir string, logger *slog.Logger) (*Generator, error) {
	policy, err := PolicyFor(cfg.Link.Format)
	if err != nil {
		return nil, err
	}
	style := Style{FinderColor: cfg.Brand.Color, Scale: cfg.Link.Scale, Border: cfg.Link.Border}
	return NewGenerator(cfg.Brand.Host, style, policy, dir, logger), nil
}

// FundURL returns the public page of fund on host. Spaces become hyphens;
// nothing else is escaped.
func FundURL(host string, fund domain.FundID) string {
	return fmt.Sprintf("https://%s/funds/%s", host, fund.Slug())
}

// Generate encodes the fund URL and writes the artifact image. The whole URL
// is always encoded; content that does not fit is an ArtifactGeneration error.
func (g *Generator) Generate(ctx context.Context, fund domain.FundID) (domain.LinkArtifact, error) {
	url := FundURL(g.host, fund)

	matrix, err := Encode(url)
	if err != nil {
		return domain.LinkArtifact{}, reporterrors.ArtifactGeneration(fund.String(), err)
	}

	format := g.policy.Format()
	path := filepath.Join(g.dir, fmt.Sprintf("qr-%s.%s", fund.Slug(), format))

	var data []byte
	switch format {
	case domain.ArtifactPNG:
		data, err = matrix.PNG(g.style)
	case domain.ArtifactSVG:
		data, err = matrix.SVG(g.style)
	default:
		err = fmt.Errorf("unsupported artifact format %q", format)
	}
	if err != nil {
		return domain.LinkArtifact{}, reporterrors.ArtifactGeneration(fund.String(), err)
	}

	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return domain.LinkArtifact{}, reporterrors.ArtifactGeneration(fund.String(), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return domain.LinkArtifact{}, reporterrors.ArtifactGeneration(fund.String(), err)
	}

	g.logger.DebugContext(ctx, "Generated link artifact",
		slog.String("fund", fund.String()),
		slog.String("url", url),
		slog.String("format", string(format)),
		slog.String("path", path))

	return domain.LinkArtifact{URL: url, Path: path, Format: format}, nil
}

// Matrix is an encoded code without quiet zone; true is a dark module.
type Matrix [][]bool

// Encode builds the module matrix for content at medium error correction.
func Encode(content string) (Matrix, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %q: %w", content, err)
	}
	code.DisableBorder = true
	return Matrix(code.Bitmap()), nil
}

// Size returns the number of modules per side.
func (m Matrix) Size() int { return len(m) }

// InFinder reports whether module (row, col) belongs to one of the three
// 7x7 finder patterns.
func (m Matrix) InFinder(row, col int) bool {
	n := m.Size()
	top, left := row < 7, col < 7
	bottom, right := row >= n-7, col >= n-7
	return (top && left) || (top && right) || (bottom && left)
}

package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"factsheet/pkg/contracts/domain"
)

// minimalPDF builds a valid PDF with the given number of pages.
func minimalPDF(pages int) []byte {
	content := "0 0 1 rg 10 10 100 100 re f"
	objs := []string{"<< /Type /Catalog /Pages 2 0 R >>"}

	kids := make([]string, pages)
	contentObj := 3 + pages
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		objs = append(objs, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents %d 0 R /Resources << >> >>", contentObj))
	}
	objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

// fakePrinter records printed HTML and returns a fixed PDF.
type fakePrinter struct {
	mu     sync.Mutex
	pages  int
	err    error
	html   []string
	closed bool
}

func (p *fakePrinter) PrintPDF(_ context.Context, htmlPath string, _ PrintOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, err
	}
	p.html = append(p.html, string(data))
	return minimalPDF(max(p.pages, 1)), nil
}

func (p *fakePrinter) Close() error {
	p.closed = true
	return nil
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func num(s string) domain.Cell {
	return domain.NumberCell(decimal.RequireFromString(s))
}

// sampleBundle returns a complete bundle whose link artifact is a PNG in dir.
func sampleBundle(t *testing.T, dir string) domain.ReportBundle {
	t.Helper()
	qr := filepath.Join(dir, "qr.png")
	writePNG(t, qr)

	return domain.ReportBundle{
		FundName: "Fund A",
		Intro: domain.StyledText{Runs: []domain.TextRun{
			{Text: "Intro", Style: domain.TextStyle{Size: 11, Color: "#15a43a", Bold: true}},
			{Text: "\n\nWelcome."},
		}},
		Disclaimer: domain.StyledText{Runs: []domain.TextRun{{Text: "Not advice."}}},
		FundReturn: decimal.RequireFromString("0.21"),
		AsOf:       time.Date(2022, 1, 15, 9, 30, 0, 0, time.Local),
		Holdings: domain.Table{
			Columns: []string{"Instrument", "Industry", "Weight"},
			Rows: [][]domain.Cell{
				{domain.TextCell("Apple"), domain.TextCell("Technology"), num("0.6")},
				{domain.TextCell("Roche"), domain.TextCell("Health Care"), num("0.4")},
			},
		},
		Sectors: domain.Table{
			Columns: []string{"Industry", "Weight"},
			Rows: [][]domain.Cell{
				{domain.TextCell("Health Care"), num("0.4")},
				{domain.TextCell("Technology"), num("0.6")},
			},
		},
		QRCode: domain.LinkArtifact{URL: "https://www.xlwings.org/funds/Fund-A", Path: qr, Format: domain.ArtifactPNG},
		History: domain.Table{
			Columns: []string{"Date", "Fund"},
			Rows: [][]domain.Cell{
				{domain.DateCell(day(2021, 1, 1)), {}},
				{domain.DateCell(day(2021, 3, 31)), num("100")},
				{domain.DateCell(day(2021, 12, 31)), num("121")},
			},
		},
	}
}

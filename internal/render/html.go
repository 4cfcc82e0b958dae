package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	"github.com/xuri/excelize/v2"
)

// htmlPage is the printable rendition of a workbook.
type htmlPage struct {
	PaperWidth  float64
	PaperHeight float64
	Sheets      []htmlSheet
}

type htmlSheet struct {
	Name string
	Rows [][]htmlCell
}

type htmlCell struct {
	Runs    []htmlRun
	Images  []template.URL
	Chart   template.HTML
	Colspan int
}

type htmlRun struct {
	Text  string
	Style template.CSS
}

var pageTemplate = template.Must(template.New("workbook").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
@page { size: {{.PaperWidth}}in {{.PaperHeight}}in; margin: 0.5in; }
body { font-family: Calibri, Arial, sans-serif; font-size: 10pt; margin: 0; }
section { page-break-after: always; }
section:last-child { page-break-after: auto; }
table { border-collapse: collapse; }
td { padding: 2px 6px; vertical-align: top; white-space: pre-wrap; }
img { max-width: 100%; }
</style>
</head>
<body>
{{range .Sheets}}<section data-sheet="{{.Name}}">
<table>
{{range .Rows}}<tr>{{range .}}<td{{if gt .Colspan 1}} colspan="{{.Colspan}}"{{end}}>{{range .Runs}}<span{{if .Style}} style="{{.Style}}"{{end}}>{{.Text}}</span>{{end}}{{range .Images}}<img src="{{.}}">{{end}}{{.Chart}}</td>{{end}}</tr>
{{end}}</table>
</section>
{{end}}</body>
</html>
`))

// BuildHTML lays out every visible sheet of the saved workbook as an HTML
// table. Rich text keeps its fonts, pictures are inlined and charts are drawn
// as SVG.
func BuildHTML(wb *Workbook, opts PrintOptions) ([]byte, error) {
	f, err := excelize.OpenFile(wb.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", wb.path, err)
	}
	defer f.Close()

	page := htmlPage{PaperWidth: opts.PaperWidth, PaperHeight: opts.PaperHeight}
	for _, name := range f.GetSheetList() {
		if visible, err := f.GetSheetVisible(name); err == nil && !visible {
			continue
		}
		sheet, err := buildSheet(f, name, wb.charts, opts.ChartColor)
		if err != nil {
			return nil, err
		}
		page.Sheets = append(page.Sheets, sheet)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildSheet(f *excelize.File, name string, charts []ChartPlacement, chartColor string) (htmlSheet, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return htmlSheet{}, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	grid := newGrid(rows)

	pictureCells, err := f.GetPictureCells(name)
	if err != nil {
		return htmlSheet{}, err
	}
	for _, ref := range pictureCells {
		col, row, err := excelize.CellNameToCoordinates(ref)
		if err != nil {
			return htmlSheet{}, err
		}
		pics, err := f.GetPictures(name, ref)
		if err != nil {
			return htmlSheet{}, err
		}
		cell := grid.at(row-1, col-1)
		for _, pic := range pics {
			cell.Images = append(cell.Images, dataURI(pic.Extension, pic.File))
		}
	}

	for _, ch := range charts {
		if ch.Sheet != name {
			continue
		}
		col, row, err := excelize.CellNameToCoordinates(ch.Cell)
		if err != nil {
			return htmlSheet{}, err
		}
		svg, err := LineChartSVG(ch.Title, ch.Data, chartWidth, chartHeight, chartColor)
		if err != nil {
			return htmlSheet{}, err
		}
		cell := grid.at(row-1, col-1)
		cell.Chart = template.HTML(svg)
	}

	for r, row := range rows {
		for c, text := range row {
			if text == "" {
				continue
			}
			ref, _ := excelize.CoordinatesToCellName(c+1, r+1)
			cell := grid.at(r, c)
			rich, err := f.GetCellRichText(name, ref)
			if err == nil && len(rich) > 0 {
				for _, run := range rich {
					cell.Runs = append(cell.Runs, htmlRun{Text: run.Text, Style: fontCSS(run.Font)})
				}
				continue
			}
			cell.Runs = []htmlRun{{Text: text}}
		}
	}

	return htmlSheet{Name: name, Rows: grid.rows()}, nil
}

// grid is a growable matrix of cells.
type grid struct {
	cells [][]*htmlCell
}

func newGrid(rows [][]string) *grid {
	g := &grid{}
	for r, row := range rows {
		if len(row) > 0 {
			g.at(r, len(row)-1)
		}
	}
	return g
}

func (g *grid) at(r, c int) *htmlCell {
	for len(g.cells) <= r {
		g.cells = append(g.cells, nil)
	}
	for len(g.cells[r]) <= c {
		g.cells[r] = append(g.cells[r], &htmlCell{})
	}
	return g.cells[r][c]
}

// rows squares the matrix off; a cell holding a chart or picture spans the
// empty cells to its right.
func (g *grid) rows() [][]htmlCell {
	width := 0
	for _, row := range g.cells {
		width = max(width, len(row))
	}
	out := make([][]htmlCell, len(g.cells))
	for r, row := range g.cells {
		for c := 0; c < width; c++ {
			var cell htmlCell
			if c < len(row) {
				cell = *row[c]
			}
			if cell.Chart != "" || len(cell.Images) > 0 {
				span := 1
				for c+span < width && (c+span >= len(row) || isBlank(row[c+span])) {
					span++
				}
				cell.Colspan = span
				out[r] = append(out[r], cell)
				c += span - 1
				continue
			}
			out[r] = append(out[r], cell)
		}
	}
	return out
}

func isBlank(c *htmlCell) bool {
	return len(c.Runs) == 0 && len(c.Images) == 0 && c.Chart == ""
}

func fontCSS(font *excelize.Font) template.CSS {
	if font == nil {
		return ""
	}
	var parts []string
	if font.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if font.Italic {
		parts = append(parts, "font-style:italic")
	}
	if font.Size > 0 {
		parts = append(parts, fmt.Sprintf("font-size:%gpt", font.Size))
	}
	if c := strings.TrimPrefix(font.Color, "#"); isHex(c) {
		// excelize may report ARGB
		if len(c) == 8 {
			c = c[2:]
		}
		parts = append(parts, "color:#"+strings.ToLower(c))
	}
	return template.CSS(strings.Join(parts, ";"))
}

func isHex(s string) bool {
	if len(s) != 6 && len(s) != 8 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func dataURI(ext string, data []byte) template.URL {
	mime := "image/png"
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "svg":
		mime = "image/svg+xml"
	case "jpg", "jpeg":
		mime = "image/jpeg"
	case "gif":
		mime = "image/gif"
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}

package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"factsheet/pkg/contracts/domain"
)

const (
	chartFilter  = "chart"
	chartWidth   = 480
	chartHeight  = 260
	dateNumFmt   = 14
	dataSheetFmt = "data_%s"
)

var (
	// wholePlaceholder matches a cell that is exactly one placeholder.
	wholePlaceholder = regexp.MustCompile(`^\s*\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?:\|\s*([A-Za-z_]+)\s*)?\}\}\s*$`)
	// inlinePlaceholder matches placeholders embedded in longer text.
	inlinePlaceholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
)

// Workbook is a rendered report saved to disk.
type Workbook struct {
	path     string
	charts   []ChartPlacement
	exporter *Exporter
}

// Charts returns the charts placed in the workbook.
func (w *Workbook) Charts() []ChartPlacement { return w.charts }

// ChartPlacement records where a chart was drawn and the data behind it.
type ChartPlacement struct {
	Sheet string
	Cell  string
	Title string
	Data  domain.Table
}

// placeholder is one template cell to be filled.
type placeholder struct {
	sheet  string
	cell   string
	name   string
	filter string
}

// tableRange records where a table landed so charts can reference it.
type tableRange struct {
	sheet    string
	col, row int
	table    domain.Table
}

// TemplateRenderer fills .xlsx templates with excelize.
type TemplateRenderer struct {
	seriesColor string
	logger      *slog.Logger
}

// NewTemplateRenderer creates a renderer. seriesColor is the #rrggbb color of
// the first chart series.
func NewTemplateRenderer(seriesColor string, logger *slog.Logger) *TemplateRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateRenderer{seriesColor: seriesColor, logger: logger}
}

// Render opens the template, fills every placeholder and saves the result to
// req.OutputPath, replacing any previous file.
func (r *TemplateRenderer) Render(ctx context.Context, req RenderRequest) (*Workbook, error) {
	start := time.Now()

	f, err := excelize.OpenFile(req.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template %s: %w", req.TemplatePath, err)
	}
	defer f.Close()

	placeholders, err := findPlaceholders(f)
	if err != nil {
		return nil, err
	}

	var (
		tables []placeholder
		charts []placeholder
	)
	for _, p := range placeholders {
		value, ok := req.Values[p.name]
		if !ok {
			return nil, fmt.Errorf("%s!%s: no value named %q", p.sheet, p.cell, p.name)
		}
		switch {
		case p.filter == chartFilter:
			charts = append(charts, p)
		case p.filter != "":
			return nil, fmt.Errorf("%s!%s: unknown filter %q", p.sheet, p.cell, p.filter)
		default:
			if _, isTable := value.(domain.Table); isTable {
				tables = append(tables, p)
				continue
			}
			if err := writeValue(f, p.sheet, p.cell, value); err != nil {
				return nil, fmt.Errorf("%s!%s (%s): %w", p.sheet, p.cell, p.name, err)
			}
		}
	}

	if err := substituteInline(f, req.Values); err != nil {
		return nil, err
	}

	placed := make(map[string]tableRange)
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: dateNumFmt})
	if err != nil {
		return nil, err
	}
	for _, p := range tables {
		table := req.Values[p.name].(domain.Table)
		rng, err := writeTable(f, p.sheet, p.cell, table, dateStyle)
		if err != nil {
			return nil, fmt.Errorf("%s!%s (%s): %w", p.sheet, p.cell, p.name, err)
		}
		if _, seen := placed[p.name]; !seen {
			placed[p.name] = rng
		}
	}

	wb := &Workbook{path: req.OutputPath}
	for _, p := range charts {
		table, ok := req.Values[p.name].(domain.Table)
		if !ok {
			return nil, fmt.Errorf("%s!%s: %q is not a table and cannot be charted", p.sheet, p.cell, p.name)
		}
		rng, ok := placed[p.name]
		if !ok {
			if rng, err = writeDataSheet(f, p.name, table, dateStyle); err != nil {
				return nil, err
			}
			placed[p.name] = rng
		}
		if err := f.SetCellValue(p.sheet, p.cell, nil); err != nil {
			return nil, err
		}
		if err := addLineChart(f, p.sheet, p.cell, p.name, rng, r.seriesColor); err != nil {
			return nil, fmt.Errorf("%s!%s (%s): %w", p.sheet, p.cell, p.name, err)
		}
		wb.charts = append(wb.charts, ChartPlacement{Sheet: p.sheet, Cell: p.cell, Title: p.name, Data: table})
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return nil, err
	}
	if err := f.SaveAs(req.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to save workbook %s: %w", req.OutputPath, err)
	}

	r.logger.DebugContext(ctx, "Rendered workbook",
		slog.String("template", req.TemplatePath),
		slog.String("output", req.OutputPath),
		slog.Int("placeholders", len(placeholders)),
		slog.Int("charts", len(wb.charts)),
		slog.Duration("duration", time.Since(start)))

	return wb, nil
}

// findPlaceholders lists whole-cell placeholders in sheet order, top to bottom.
func findPlaceholders(f *excelize.File) ([]placeholder, error) {
	var out []placeholder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		for r, row := range rows {
			for c, text := range row {
				m := wholePlaceholder.FindStringSubmatch(text)
				if m == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				out = append(out, placeholder{sheet: sheet, cell: cell, name: m[1], filter: m[2]})
			}
		}
	}
	return out, nil
}

// substituteInline replaces placeholders embedded in text cells.
func substituteInline(f *excelize.File, values map[string]interface{}) error {
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return err
		}
		for r, row := range rows {
			for c, text := range row {
				if !inlinePlaceholder.MatchString(text) || wholePlaceholder.MatchString(text) {
					continue
				}
				var missing string
				replaced := inlinePlaceholder.ReplaceAllStringFunc(text, func(m string) string {
					name := inlinePlaceholder.FindStringSubmatch(m)[1]
					v, ok := values[name]
					if !ok {
						missing = name
						return m
					}
					return formatInline(v)
				})
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if missing != "" {
					return fmt.Errorf("%s!%s: no value named %q", sheet, cell, missing)
				}
				if err := f.SetCellStr(sheet, cell, replaced); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// writeValue writes a scalar, styled text or picture into one cell.
func writeValue(f *excelize.File, sheet, cell string, value interface{}) error {
	switch v := value.(type) {
	case nil:
		return f.SetCellValue(sheet, cell, nil)
	case string:
		return f.SetCellStr(sheet, cell, v)
	case decimal.Decimal:
		return f.SetCellFloat(sheet, cell, v.InexactFloat64(), -1, 64)
	case time.Time:
		return f.SetCellValue(sheet, cell, v)
	case domain.StyledText:
		if len(v.Runs) == 0 {
			return f.SetCellValue(sheet, cell, nil)
		}
		return f.SetCellRichText(sheet, cell, richText(v))
	case domain.LinkArtifact:
		if err := f.SetCellValue(sheet, cell, nil); err != nil {
			return err
		}
		return f.AddPicture(sheet, cell, v.Path, &excelize.GraphicOptions{
			AltText:       v.URL,
			Hyperlink:     v.URL,
			HyperlinkType: "External",
			Positioning:   "oneCell",
		})
	default:
		return f.SetCellValue(sheet, cell, v)
	}
}

// writeTable writes a header row and the table rows starting at cell.
func writeTable(f *excelize.File, sheet, cell string, t domain.Table, dateStyle int) (tableRange, error) {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return tableRange{}, err
	}

	header := make([]interface{}, len(t.Columns))
	for i, name := range t.Columns {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, cell, &header); err != nil {
		return tableRange{}, err
	}

	for i, cells := range t.Rows {
		values := make([]interface{}, len(t.Columns))
		for j := range t.Columns {
			if j < len(cells) {
				values[j] = cells[j].Value()
			}
		}
		start, err := excelize.CoordinatesToCellName(col, row+1+i)
		if err != nil {
			return tableRange{}, err
		}
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return tableRange{}, err
		}
		for j := range t.Columns {
			if j < len(cells) && cells[j].Kind == domain.CellDate {
				ref, _ := excelize.CoordinatesToCellName(col+j, row+1+i)
				if err := f.SetCellStyle(sheet, ref, ref, dateStyle); err != nil {
					return tableRange{}, err
				}
			}
		}
	}
	return tableRange{sheet: sheet, col: col, row: row, table: t}, nil
}

// writeDataSheet stores a table on a hidden sheet for charts whose data is
// not shown elsewhere in the workbook.
func writeDataSheet(f *excelize.File, name string, t domain.Table, dateStyle int) (tableRange, error) {
	sheet := fmt.Sprintf(dataSheetFmt, name)
	if _, err := f.NewSheet(sheet); err != nil {
		return tableRange{}, err
	}
	rng, err := writeTable(f, sheet, "A1", t, dateStyle)
	if err != nil {
		return tableRange{}, err
	}
	if err := f.SetSheetVisible(sheet, false); err != nil {
		return tableRange{}, err
	}
	return rng, nil
}

// richText converts styled runs to excelize runs. Colors drop the leading #.
func richText(s domain.StyledText) []excelize.RichTextRun {
	runs := make([]excelize.RichTextRun, 0, len(s.Runs))
	for _, run := range s.Runs {
		font := &excelize.Font{
			Bold:   run.Style.Bold,
			Italic: run.Style.Italic,
			Size:   run.Style.Size,
			Color:  strings.TrimPrefix(run.Style.Color, "#"),
		}
		runs = append(runs, excelize.RichTextRun{Text: run.Text, Font: font})
	}
	return runs
}

// formatInline renders a value inside surrounding text.
func formatInline(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format("2006-01-02 15:04")
	case domain.StyledText:
		return x.PlainText()
	case domain.LinkArtifact:
		return x.URL
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

package render

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"factsheet/pkg/contracts/domain"
)

// palette colors the chart series after the first, which uses the brand color.
var palette = []string{"#7f7f7f", "#1f77b4", "#ff7f0e", "#9467bd", "#8c564b"}

func seriesColors(first string, n int) []string {
	colors := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i == 0 && first != "" {
			colors = append(colors, first)
			continue
		}
		colors = append(colors, palette[(i-1+len(palette))%len(palette)])
	}
	return colors
}

// addLineChart draws a native line chart of the date-indexed table at rng.
func addLineChart(f *excelize.File, sheet, cell, title string, rng tableRange, firstColor string) error {
	t := rng.table
	if !t.DateIndexed() {
		return fmt.Errorf("table %q is not date indexed", title)
	}
	if len(t.Columns) < 2 {
		return fmt.Errorf("table %q has no value columns", title)
	}

	prefix := quoteSheet(rng.sheet) + "!"
	abs := func(col, row int) string {
		name, _ := excelize.CoordinatesToCellName(col, row, true)
		return name
	}
	column := func(col int) string {
		return prefix + abs(col, rng.row+1) + ":" + abs(col, rng.row+t.Len())
	}
	categories := column(rng.col)

	colors := seriesColors(firstColor, len(t.Columns)-1)
	var series []excelize.ChartSeries
	for j := 1; j < len(t.Columns); j++ {
		if !t.IsNumericColumn(j) {
			continue
		}
		series = append(series, excelize.ChartSeries{
			Name:       prefix + abs(rng.col+j, rng.row),
			Categories: categories,
			Values:     column(rng.col + j),
			Line: excelize.ChartLine{
				Width: 1.5,
			},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(colors[j-1], "#")}},
		})
	}
	if len(series) == 0 {
		return fmt.Errorf("table %q has no numeric columns", title)
	}

	return f.AddChart(sheet, cell, &excelize.Chart{
		Type:         excelize.Line,
		Series:       series,
		Title:        []excelize.RichTextRun{{Text: title}},
		Legend:       excelize.ChartLegend{Position: "bottom"},
		Dimension:    excelize.ChartDimension{Width: chartWidth, Height: chartHeight},
		ShowBlanksAs: "gap",
	})
}

func quoteSheet(name string) string {
	if strings.ContainsAny(name, " -'!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// LineChartSVG draws the numeric columns of a date-indexed table as an SVG
// line chart. Empty cells break the line, so a leading "no value" row only
// widens the x axis.
func LineChartSVG(title string, t domain.Table, width, height int, firstColor string) (string, error) {
	if !t.DateIndexed() {
		return "", fmt.Errorf("table %q is not date indexed", title)
	}

	const (
		left, right, top, bottom = 48.0, 12.0, 28.0, 40.0
	)
	plotW := float64(width) - left - right
	plotH := float64(height) - top - bottom

	minDate, maxDate := t.Rows[0][0].Date, t.Rows[0][0].Date
	minY, maxY := math.Inf(1), math.Inf(-1)
	var cols []int
	for j := 1; j < len(t.Columns); j++ {
		if !t.IsNumericColumn(j) {
			continue
		}
		cols = append(cols, j)
		for _, row := range t.Rows {
			if j < len(row) && !row[j].IsEmpty() {
				v := row[j].Number.InexactFloat64()
				minY, maxY = math.Min(minY, v), math.Max(maxY, v)
			}
		}
	}
	for _, row := range t.Rows {
		if row[0].Date.Before(minDate) {
			minDate = row[0].Date
		}
		if row[0].Date.After(maxDate) {
			maxDate = row[0].Date
		}
	}
	if len(cols) == 0 || math.IsInf(minY, 1) {
		return "", fmt.Errorf("table %q has no values to chart", title)
	}
	if maxY == minY {
		minY, maxY = minY-1, maxY+1
	}
	span := maxDate.Sub(minDate)
	if span <= 0 {
		span = 24 * time.Hour
	}

	x := func(d time.Time) float64 { return left + plotW*float64(d.Sub(minDate))/float64(span) }
	y := func(v float64) float64 { return top + plotH*(1-(v-minY)/(maxY-minY)) }

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="chart" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)
	fmt.Fprintf(&b, `<text x="%g" y="18" font-size="12" font-weight="bold">%s</text>`, left, html.EscapeString(title))
	fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="#bfbfbf"/>`, left, top+plotH, left+plotW, top+plotH)
	fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="#bfbfbf"/>`, left, top, left, top+plotH)
	fmt.Fprintf(&b, `<text x="%g" y="%g" font-size="9" text-anchor="end">%s</text>`, left-4, top+4, formatTick(maxY))
	fmt.Fprintf(&b, `<text x="%g" y="%g" font-size="9" text-anchor="end">%s</text>`, left-4, top+plotH, formatTick(minY))
	fmt.Fprintf(&b, `<text x="%g" y="%g" font-size="9">%s</text>`, left, top+plotH+14, minDate.Format(domain.DateLayout))
	fmt.Fprintf(&b, `<text x="%g" y="%g" font-size="9" text-anchor="end">%s</text>`, left+plotW, top+plotH+14, maxDate.Format(domain.DateLayout))

	colors := seriesColors(firstColor, len(cols))
	for i, j := range cols {
		var segment []string
		flush := func() {
			if len(segment) > 1 {
				fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="1.5" points="%s"/>`,
					colors[i], strings.Join(segment, " "))
			}
			segment = segment[:0]
		}
		for _, row := range t.Rows {
			if j >= len(row) || row[j].IsEmpty() {
				flush()
				continue
			}
			segment = append(segment, fmt.Sprintf("%.1f,%.1f", x(row[0].Date), y(row[j].Number.InexactFloat64())))
		}
		flush()

		lx := left + float64(i)*90
		fmt.Fprintf(&b, `<rect x="%g" y="%g" width="10" height="3" fill="%s"/>`, lx, float64(height)-10, colors[i])
		fmt.Fprintf(&b, `<text x="%g" y="%g" font-size="9">%s</text>`, lx+14, float64(height)-6, html.EscapeString(t.Columns[j]))
	}
	b.WriteString("</svg>")
	return b.String(), nil
}

func formatTick(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

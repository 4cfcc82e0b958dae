package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name of the bundled template.
const DefaultSheet = "Factsheet"

// WriteDefaultTemplate writes a one-page factsheet template using every
// bundle value. brandColor styles the title and section headings.
func WriteDefaultTemplate(path, brandColor string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DefaultSheet); err != nil {
		return err
	}
	color := strings.TrimPrefix(brandColor, "#")

	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 18, Color: color}})
	if err != nil {
		return err
	}
	heading, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11, Color: color}})
	if err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	cells := []struct {
		cell  string
		value string
		style int
	}{
		{"A1", "{{ fundname }}", title},
		{"A2", "As of {{ asofdate }}", 0},
		{"F1", "{{ qrcode }}", 0},
		{"A4", "{{ intro }}", wrap},
		{"A6", "Total return", heading},
		{"B6", "{{ fund_return }}", percent},
		{"A8", "Sector weights", heading},
		{"A9", "{{ sectors }}", 0},
		{"A18", "Performance", heading},
		{"A19", "{{ history | chart }}", 0},
		{"A35", "Holdings", heading},
		{"A36", "{{ holdings }}", 0},
		{"A60", "{{ disclaimer }}", wrap},
	}
	for _, c := range cells {
		if err := f.SetCellStr(DefaultSheet, c.cell, c.value); err != nil {
			return err
		}
		if c.style != 0 {
			if err := f.SetCellStyle(DefaultSheet, c.cell, c.cell, c.style); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(DefaultSheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(DefaultSheet, "B", "E", 14); err != nil {
		return err
	}
	for _, row := range []int{4, 60} {
		if err := f.SetRowHeight(DefaultSheet, row, 90); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save template %s: %w", path, err)
	}
	return nil
}

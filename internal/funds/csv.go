package funds

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"factsheet/pkg/contracts/domain"
)

// dateLayouts are tried in order when parsing a date column.
var dateLayouts = []string{
	domain.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// ParseDate parses a calendar date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// readRecords reads a CSV file into its header and data records.
func readRecords(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := gocsv.LazyCSVReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty CSV file")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if header[i] == "" {
			return nil, nil, fmt.Errorf("column %d has no name", i+1)
		}
	}
	return header, records[1:], nil
}

// ReadTable loads a CSV file and types every column: a column whose non-empty
// values all parse as numbers becomes numeric, the Date column is parsed as
// calendar dates, everything else stays text. Empty fields become empty cells.
func ReadTable(path string) (domain.Table, error) {
	header, records, err := readRecords(path)
	if err != nil {
		return domain.Table{}, err
	}

	kinds := make([]domain.CellKind, len(header))
	for col, name := range header {
		kinds[col] = inferKind(name, records, col)
	}

	table := domain.Table{Columns: header, Rows: make([][]domain.Cell, 0, len(records))}
	for lineNo, record := range records {
		if isBlankRecord(record) {
			continue
		}
		row := make([]domain.Cell, len(header))
		for col := range header {
			raw := field(record, col)
			if raw == "" {
				continue
			}
			switch kinds[col] {
			case domain.CellNumber:
				d, err := decimal.NewFromString(raw)
				if err != nil {
					return domain.Table{}, fmt.Errorf("line %d column %q: %w", lineNo+2, header[col], err)
				}
				row[col] = domain.NumberCell(d)
			case domain.CellDate:
				t, err := ParseDate(raw)
				if err != nil {
					return domain.Table{}, fmt.Errorf("line %d column %q: %w", lineNo+2, header[col], err)
				}
				row[col] = domain.DateCell(t)
			default:
				row[col] = domain.TextCell(raw)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadHistory loads a date-indexed CSV file. The Date column becomes the
// index; every other column must be numeric, with empty fields as "no value".
func ReadHistory(path string) (domain.HistorySeries, error) {
	header, records, err := readRecords(path)
	if err != nil {
		return domain.HistorySeries{}, err
	}

	dateCol := -1
	for i, h := range header {
		if h == domain.ColumnDate {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return domain.HistorySeries{}, fmt.Errorf("missing %q column", domain.ColumnDate)
	}

	series := domain.HistorySeries{Points: make([]domain.HistoryPoint, 0, len(records))}
	valueCols := make([]int, 0, len(header)-1)
	for i, h := range header {
		if i == dateCol {
			continue
		}
		series.Columns = append(series.Columns, h)
		valueCols = append(valueCols, i)
	}

	for lineNo, record := range records {
		if isBlankRecord(record) {
			continue
		}
		date, err := ParseDate(field(record, dateCol))
		if err != nil {
			return domain.HistorySeries{}, fmt.Errorf("line %d: %w", lineNo+2, err)
		}
		point := domain.HistoryPoint{Date: date, Values: make([]decimal.NullDecimal, len(valueCols))}
		for i, col := range valueCols {
			raw := field(record, col)
			if raw == "" {
				continue
			}
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return domain.HistorySeries{}, fmt.Errorf("line %d column %q: %w", lineNo+2, header[col], err)
			}
			point.Values[i] = decimal.NewNullDecimal(d)
		}
		series.Points = append(series.Points, point)
	}
	return series, nil
}

func inferKind(name string, records [][]string, col int) domain.CellKind {
	if name == domain.ColumnDate {
		return domain.CellDate
	}
	seen := false
	for _, record := range records {
		raw := field(record, col)
		if raw == "" {
			continue
		}
		if _, err := decimal.NewFromString(raw); err != nil {
			return domain.CellText
		}
		seen = true
	}
	if !seen {
		return domain.CellText
	}
	return domain.CellNumber
}

func field(record []string, col int) string {
	if col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CellKind tells which field of a Cell carries the value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// DateLayout is the calendar date format used in CSV inputs and rendered tables.
const DateLayout = "2006-01-02"

// Cell is a single typed table value. CellEmpty is the "no value" marker.
type Cell struct {
	Kind   CellKind
	Text   string
	Number decimal.Decimal
	Date   time.Time
}

// TextCell returns a text cell.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// NumberCell returns a numeric cell.
func NumberCell(d decimal.Decimal) Cell { return Cell{Kind: CellNumber, Number: d} }

// DateCell returns a calendar date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Date: t} }

// NullableCell maps an invalid NullDecimal to the empty marker.
func NullableCell(d decimal.NullDecimal) Cell {
	if !d.Valid {
		return Cell{}
	}
	return NumberCell(d.Decimal)
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// Value returns the cell as a plain Go value suitable for spreadsheet writers:
// nil, string, float64 or time.Time.
func (c Cell) Value() interface{} {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number.InexactFloat64()
	case CellDate:
		return c.Date
	default:
		return nil
	}
}

// String formats the cell for text output.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number.String()
	case CellDate:
		return c.Date.Format(DateLayout)
	default:
		return ""
	}
}

// Table is a column-named grid of typed cells. Tables handed to the renderer
// carry any grouping or date key as an ordinary first column.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every cell of the named column.
func (t Table) Column(name string) []Cell {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]Cell, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, Cell{})
		}
	}
	return out
}

// IsNumericColumn reports whether every non-empty cell in the column is a number
// and at least one is present.
func (t Table) IsNumericColumn(idx int) bool {
	seen := false
	for _, row := range t.Rows {
		if idx >= len(row) || row[idx].IsEmpty() {
			continue
		}
		if row[idx].Kind != CellNumber {
			return false
		}
		seen = true
	}
	return seen
}

// DateIndexed reports whether the first column holds calendar dates.
func (t Table) DateIndexed() bool {
	if len(t.Columns) == 0 || len(t.Rows) == 0 {
		return false
	}
	for _, row := range t.Rows {
		if len(row) == 0 || row[0].Kind != CellDate {
			return false
		}
	}
	return true
}

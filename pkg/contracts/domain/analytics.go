package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Column names with fixed meaning in fund inputs.
const (
	ColumnDate     = "Date"
	ColumnFund     = "Fund"
	ColumnIndustry = "Industry"
)

// RawFundData is the per-fund input loaded fresh for every run.
type RawFundData struct {
	Fund     FundID
	Holdings Table
	History  HistorySeries
}

// SharedBoilerplate holds the text blocks common to every fund in a run.
type SharedBoilerplate struct {
	Intro      string
	Disclaimer string
}

// HistoryPoint is one dated row of the history table. Synthetic points anchor
// chart rendering and are never real observations.
type HistoryPoint struct {
	Date      time.Time
	Values    []decimal.NullDecimal
	Synthetic bool
}

// HistorySeries is the date-indexed history table.
type HistorySeries struct {
	Columns []string
	Points  []HistoryPoint
}

// ColumnIndex returns the position of the named value column or -1.
func (h HistorySeries) ColumnIndex(name string) int {
	for i, c := range h.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Sorted reports whether the points are in ascending date order.
func (h HistorySeries) Sorted() bool {
	return sort.SliceIsSorted(h.Points, func(i, j int) bool {
		return h.Points[i].Date.Before(h.Points[j].Date)
	})
}

// Observations returns the points that are real observations.
func (h HistorySeries) Observations() []HistoryPoint {
	out := make([]HistoryPoint, 0, len(h.Points))
	for _, p := range h.Points {
		if !p.Synthetic {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy so derivations never alias the raw input.
func (h HistorySeries) Clone() HistorySeries {
	out := HistorySeries{
		Columns: append([]string(nil), h.Columns...),
		Points:  make([]HistoryPoint, len(h.Points)),
	}
	for i, p := range h.Points {
		out.Points[i] = HistoryPoint{
			Date:      p.Date,
			Values:    append([]decimal.NullDecimal(nil), p.Values...),
			Synthetic: p.Synthetic,
		}
	}
	return out
}

// Table materializes the series with the date as an ordinary first column.
func (h HistorySeries) Table() Table {
	t := Table{
		Columns: append([]string{ColumnDate}, h.Columns...),
		Rows:    make([][]Cell, 0, len(h.Points)),
	}
	for _, p := range h.Points {
		row := make([]Cell, 0, len(h.Columns)+1)
		row = append(row, DateCell(p.Date))
		for i := range h.Columns {
			if i < len(p.Values) {
				row = append(row, NullableCell(p.Values[i]))
			} else {
				row = append(row, Cell{})
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SectorWeight is one industry group with per-column sums.
type SectorWeight struct {
	Industry string
	Sums     []decimal.Decimal
}

// SectorWeights aggregates the numeric holdings columns per industry.
type SectorWeights struct {
	Columns []string
	Groups  []SectorWeight
}

// Table materializes the weights with the industry as an ordinary first column.
func (s SectorWeights) Table() Table {
	t := Table{
		Columns: append([]string{ColumnIndustry}, s.Columns...),
		Rows:    make([][]Cell, 0, len(s.Groups)),
	}
	for _, g := range s.Groups {
		row := make([]Cell, 0, len(g.Sums)+1)
		row = append(row, TextCell(g.Industry))
		for _, v := range g.Sums {
			row = append(row, NumberCell(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Total returns the sum of a column across all groups.
func (s SectorWeights) Total(column string) decimal.Decimal {
	total := decimal.Zero
	for i, c := range s.Columns {
		if c != column {
			continue
		}
		for _, g := range s.Groups {
			total = total.Add(g.Sums[i])
		}
	}
	return total
}

// DerivedAnalytics is computed from RawFundData for one fund.
type DerivedAnalytics struct {
	FundReturn    decimal.Decimal
	SectorWeights SectorWeights
	History       HistorySeries
}

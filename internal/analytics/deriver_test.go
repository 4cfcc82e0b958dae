package analytics

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func num(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func history(points ...domain.HistoryPoint) domain.HistorySeries {
	return domain.HistorySeries{Columns: []string{"Fund", "Benchmark"}, Points: points}
}

func point(date time.Time, fund, bench string) domain.HistoryPoint {
	return domain.HistoryPoint{Date: date, Values: []decimal.NullDecimal{num(fund), num(bench)}}
}

func TestFundReturnSortsFirst(t *testing.T) {
	// reverse chronological input must not invert the sign
	h := history(
		point(day(2021, 12, 31), "121", "108"),
		point(day(2021, 6, 30), "110", "105"),
		point(day(2021, 3, 31), "100", "100"),
	)

	got, err := FundReturn("Fund A", SortHistory(h))
	require.NoError(t, err)
	assert.Equal(t, "0.21", got.String())
}

func TestFundReturnRounding(t *testing.T) {
	h := history(
		point(day(2020, 1, 31), "3", "1"),
		point(day(2020, 2, 29), "4", "1"),
	)
	got, err := FundReturn("Fund A", h)
	require.NoError(t, err)
	assert.Equal(t, "0.3333", got.String())
}

func TestFundReturnInvalidData(t *testing.T) {
	tests := []struct {
		name string
		h    domain.HistorySeries
	}{
		{name: "zero first value", h: history(point(day(2021, 1, 31), "0", "1"), point(day(2021, 2, 28), "5", "1"))},
		{name: "empty", h: history()},
		{name: "no fund column", h: domain.HistorySeries{Columns: []string{"Other"}, Points: []domain.HistoryPoint{{Date: day(2021, 1, 1), Values: []decimal.NullDecimal{num("1")}}}}},
		{name: "missing first value", h: history(
			domain.HistoryPoint{Date: day(2021, 1, 31), Values: []decimal.NullDecimal{{}, num("1")}},
			point(day(2021, 2, 28), "5", "1"),
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FundReturn("Fund A", tt.h)
			require.Error(t, err)
			assert.ErrorIs(t, err, reporterrors.ErrInvalidData)
		})
	}
}

func TestFundReturnIgnoresSyntheticPoint(t *testing.T) {
	h := AnchorHistory(history(
		point(day(2021, 3, 31), "100", "100"),
		point(day(2021, 12, 31), "121", "108"),
	))
	require.True(t, h.Points[0].Synthetic)

	got, err := FundReturn("Fund A", h)
	require.NoError(t, err)
	assert.Equal(t, "0.21", got.String())
}

func TestFundReturnProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		h := randomHistory(rng)
		sorted := SortHistory(h)
		first := sorted.Points[0].Values[0].Decimal
		last := sorted.Points[len(sorted.Points)-1].Values[0].Decimal
		want := last.Div(first).Sub(decimal.NewFromInt(1)).Round(ReturnPlaces)

		got, err := FundReturn("Fund", sorted)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "want %s got %s", want, got)
	}
}

func TestAnchorHistoryProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		sorted := SortHistory(randomHistory(rng))
		anchored := AnchorHistory(sorted)

		require.True(t, anchored.Sorted())
		require.Len(t, anchored.Points, len(sorted.Points)+1)

		var synthetic []domain.HistoryPoint
		for _, p := range anchored.Points {
			if p.Synthetic {
				synthetic = append(synthetic, p)
			}
		}
		require.Len(t, synthetic, 1)
		assert.Equal(t, day(sorted.Points[0].Date.Year(), time.January, 1), synthetic[0].Date)
		require.Len(t, synthetic[0].Values, len(sorted.Columns))
		for _, v := range synthetic[0].Values {
			assert.False(t, v.Valid)
		}
	}
}

func TestAnchorHistoryKeepsRealJanuaryFirst(t *testing.T) {
	sorted := history(point(day(2021, 1, 1), "100", "100"), point(day(2021, 2, 1), "101", "100"))
	anchored := AnchorHistory(sorted)

	require.Len(t, anchored.Points, 3)
	assert.Equal(t, day(2021, 1, 1), anchored.Points[0].Date)
	assert.Equal(t, day(2021, 1, 1), anchored.Points[1].Date)
	assert.Len(t, anchored.Observations(), 2)
}

func TestAnchorHistoryDoesNotAlias(t *testing.T) {
	sorted := history(point(day(2021, 3, 31), "100", "100"))
	_ = AnchorHistory(sorted)
	assert.Len(t, sorted.Points, 1)
}

func TestDerive(t *testing.T) {
	raw := domain.RawFundData{
		Fund: "Fund A",
		Holdings: domain.Table{
			Columns: []string{"Instrument", "Industry", "Weight"},
			Rows: [][]domain.Cell{
				{domain.TextCell("Apple"), domain.TextCell("Technology"), domain.NumberCell(decimal.RequireFromString("0.6"))},
				{domain.TextCell("Roche"), domain.TextCell("Health Care"), domain.NumberCell(decimal.RequireFromString("0.4"))},
			},
		},
		History: history(
			point(day(2021, 12, 31), "121", "108"),
			point(day(2021, 3, 31), "100", "100"),
		),
	}

	derived, err := NewDeriver(nil).Derive(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "0.21", derived.FundReturn.String())
	assert.Len(t, derived.SectorWeights.Groups, 2)
	require.Len(t, derived.History.Points, 3)
	assert.True(t, derived.History.Points[0].Synthetic)
	// raw history is untouched
	assert.Equal(t, day(2021, 12, 31), raw.History.Points[0].Date)
}

func randomHistory(rng *rand.Rand) domain.HistorySeries {
	n := 1 + rng.Intn(30)
	base := day(2000+rng.Intn(20), time.Month(1+rng.Intn(12)), 1+rng.Intn(28))
	offsets := rng.Perm(n * 3)[:n]

	h := domain.HistorySeries{Columns: []string{"Fund", "Benchmark"}}
	for _, off := range offsets {
		fund := decimal.NewFromInt(int64(1 + rng.Intn(100000))).Shift(-2)
		bench := decimal.NewFromInt(int64(rng.Intn(100000))).Shift(-2)
		h.Points = append(h.Points, domain.HistoryPoint{
			Date:   base.AddDate(0, 0, off*7),
			Values: []decimal.NullDecimal{decimal.NewNullDecimal(fund), decimal.NewNullDecimal(bench)},
		})
	}
	return h
}

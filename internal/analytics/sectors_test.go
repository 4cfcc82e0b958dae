package analytics

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/pkg/contracts/domain"
)

func holding(name, industry, weight, value string) []domain.Cell {
	return []domain.Cell{
		domain.TextCell(name),
		domain.TextCell(industry),
		domain.NumberCell(decimal.RequireFromString(weight)),
		domain.NumberCell(decimal.RequireFromString(value)),
	}
}

func sampleHoldings() domain.Table {
	return domain.Table{
		Columns: []string{"Instrument", "Industry", "Weight", "Value"},
		Rows: [][]domain.Cell{
			holding("Apple", "Technology", "0.25", "250"),
			holding("Nestle", "Consumer", "0.15", "150"),
			holding("Microsoft", "Technology", "0.20", "200"),
			holding("Novartis", "Health Care", "0.40", "400"),
		},
	}
}

func TestSectorWeights(t *testing.T) {
	weights, err := SectorWeights(sampleHoldings())
	require.NoError(t, err)

	assert.Equal(t, []string{"Weight", "Value"}, weights.Columns)
	require.Len(t, weights.Groups, 3)
	assert.Equal(t, "Consumer", weights.Groups[0].Industry)
	assert.Equal(t, "Health Care", weights.Groups[1].Industry)
	assert.Equal(t, "Technology", weights.Groups[2].Industry)
	assert.Equal(t, "0.45", weights.Groups[2].Sums[0].String())
	assert.Equal(t, "450", weights.Groups[2].Sums[1].String())

	table := weights.Table()
	assert.Equal(t, []string{"Industry", "Weight", "Value"}, table.Columns)
	assert.Equal(t, "Consumer", table.Rows[0][0].Text)
}

func TestSectorWeightsPermutationInvariant(t *testing.T) {
	holdings := sampleHoldings()
	want, err := SectorWeights(holdings)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		shuffled := domain.Table{Columns: holdings.Columns, Rows: append([][]domain.Cell(nil), holdings.Rows...)}
		rng.Shuffle(len(shuffled.Rows), func(a, b int) {
			shuffled.Rows[a], shuffled.Rows[b] = shuffled.Rows[b], shuffled.Rows[a]
		})

		got, err := SectorWeights(shuffled)
		require.NoError(t, err)
		require.Len(t, got.Groups, len(want.Groups))
		for g := range want.Groups {
			assert.Equal(t, want.Groups[g].Industry, got.Groups[g].Industry)
			for c := range want.Columns {
				assert.True(t, want.Groups[g].Sums[c].Equal(got.Groups[g].Sums[c]))
			}
		}
	}
}

func TestSectorWeightsConserveTotals(t *testing.T) {
	holdings := sampleHoldings()
	weights, err := SectorWeights(holdings)
	require.NoError(t, err)

	for _, column := range weights.Columns {
		total := decimal.Zero
		for _, c := range holdings.Column(column) {
			total = total.Add(c.Number)
		}
		assert.True(t, total.Equal(weights.Total(column)), column)
	}
}

func TestSectorWeightsSkipsEmptyCells(t *testing.T) {
	holdings := sampleHoldings()
	holdings.Rows = append(holdings.Rows, []domain.Cell{domain.TextCell("Cash"), domain.TextCell("Consumer"), {}, {}})

	weights, err := SectorWeights(holdings)
	require.NoError(t, err)
	assert.Equal(t, "0.15", weights.Groups[0].Sums[0].String())
}

func TestSectorWeightsRequiresIndustry(t *testing.T) {
	_, err := SectorWeights(domain.Table{Columns: []string{"Instrument", "Weight"}})
	assert.Error(t, err)
}

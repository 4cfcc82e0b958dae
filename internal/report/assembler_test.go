package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/internal/config"
	"factsheet/pkg/contracts/domain"
)

func TestAssemble(t *testing.T) {
	now := time.Date(2022, 1, 15, 9, 30, 0, 0, time.UTC)
	a := NewAssembler(PolicyFromConfig(config.Default().Brand), nil, WithClock(func() time.Time { return now }))

	derived := domain.DerivedAnalytics{
		FundReturn: decimal.RequireFromString("0.21"),
		SectorWeights: domain.SectorWeights{
			Columns: []string{"Weight"},
			Groups:  []domain.SectorWeight{{Industry: "Technology", Sums: []decimal.Decimal{decimal.RequireFromString("0.45")}}},
		},
		History: domain.HistorySeries{
			Columns: []string{"Fund"},
			Points: []domain.HistoryPoint{
				{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Values: []decimal.NullDecimal{{}}, Synthetic: true},
				{Date: time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC), Values: []decimal.NullDecimal{decimal.NewNullDecimal(decimal.NewFromInt(100))}},
			},
		},
	}
	holdings := domain.Table{Columns: []string{"Instrument", "Industry"}, Rows: [][]domain.Cell{{domain.TextCell("Apple"), domain.TextCell("Technology")}}}
	artifact := domain.LinkArtifact{URL: "https://www.xlwings.org/funds/Fund-A", Path: "/tmp/qr.svg", Format: domain.ArtifactSVG}
	shared := domain.SharedBoilerplate{Intro: "# Intro\nWelcome.\n", Disclaimer: "Not advice."}

	bundle := a.Assemble(context.Background(), "Fund A", shared, derived, holdings, artifact)

	assert.Equal(t, domain.FundID("Fund A"), bundle.FundName)
	assert.True(t, bundle.AsOf.Equal(now))
	assert.Equal(t, time.Local, bundle.AsOf.Location())
	assert.Equal(t, "0.21", bundle.FundReturn.String())
	assert.Equal(t, artifact, bundle.QRCode)

	assert.Equal(t, []string{"Industry", "Weight"}, bundle.Sectors.Columns)
	assert.Equal(t, "Technology", bundle.Sectors.Rows[0][0].Text)

	require.Equal(t, 2, bundle.History.Len())
	assert.Equal(t, []string{"Date", "Fund"}, bundle.History.Columns)
	assert.True(t, bundle.History.Rows[0][1].IsEmpty())
	assert.True(t, bundle.History.DateIndexed())

	assert.Equal(t, "#15a43a", bundle.Intro.Runs[0].Style.Color)
	assert.Equal(t, "Not advice.", bundle.Disclaimer.PlainText())

	values := bundle.Values()
	assert.Len(t, values, 9)
	assert.Equal(t, "Fund A", values[domain.ValueFundName])
}

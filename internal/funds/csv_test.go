package funds

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/internal/shared/testutil"
	"factsheet/pkg/contracts/domain"
)

func TestReadTableTypesColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.csv")
	testutil.WriteFile(t, path, "\ufeffInstrument, Industry,Weight,Value\n"+
		"Apple,Technology,0.25,250\n"+
		"Nestle,Consumer,,150\n"+
		",,,\n")

	table, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Instrument", "Industry", "Weight", "Value"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, domain.CellText, table.Rows[0][0].Kind)
	assert.Equal(t, domain.CellNumber, table.Rows[0][2].Kind)
	assert.True(t, table.Rows[0][2].Number.Equal(decimal.RequireFromString("0.25")))
	assert.True(t, table.Rows[1][2].IsEmpty())
	assert.True(t, table.IsNumericColumn(3))
	assert.False(t, table.IsNumericColumn(1))
}

func TestReadTableMixedColumnIsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	testutil.WriteFile(t, path, "Code,Weight\n123,1\nABC,2\n")

	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, domain.CellText, table.Rows[0][0].Kind)
	assert.Equal(t, "123", table.Rows[0][0].Text)
}

func TestReadTableErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadTable(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	testutil.WriteFile(t, empty, "")
	_, err = ReadTable(empty)
	assert.Error(t, err)

	ragged := filepath.Join(dir, "ragged.csv")
	testutil.WriteFile(t, ragged, "A,B\n1,2,3\n")
	_, err = ReadTable(ragged)
	assert.Error(t, err)
}

func TestReadHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	testutil.WriteFile(t, path, "Fund,Date,Benchmark\n110,2021-06-30,\n100,2021-03-31,100\n")

	series, err := ReadHistory(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Fund", "Benchmark"}, series.Columns)
	require.Len(t, series.Points, 2)
	assert.Equal(t, time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC), series.Points[0].Date)
	assert.True(t, series.Points[0].Values[0].Valid)
	assert.False(t, series.Points[0].Values[1].Valid)
	assert.False(t, series.Sorted())
}

func TestReadHistoryRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"no date column": "Fund\n100\n",
		"bad date":       "Date,Fund\nyesterday,100\n",
		"bad number":     "Date,Fund\n2021-01-31,lots\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.csv")
			testutil.WriteFile(t, path, content)
			_, err := ReadHistory(path)
			assert.Error(t, err)
		})
	}
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2021-03-31", "2021-03-31 00:00:00", "03/31/2021", "2021/03/31"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
}

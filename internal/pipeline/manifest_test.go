package pipeline

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts"
)

func TestManifestRoundTrip(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	publishErr := reporterrors.Publish("Fund B", errors.New("denied"))
	result := &BatchResult{
		RunID:      "run-1",
		Selection:  "ALL",
		Policy:     ContinueOnError,
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Outcomes: []FundOutcome{
			{Fund: "Fund A", Document: "/r/pdf/Fund A.pdf", Exported: true, Duration: 1500 * time.Millisecond},
			{Fund: "Fund B", Document: "/r/pdf/Fund B.pdf", Exported: true, FailedStage: StagePublishing, Err: publishErr},
		},
		Err: publishErr,
	}
	path := filepath.Join(t.TempDir(), "reports", "manifest.json")

	require.NoError(t, WriteManifest(path, NewManifest(result)))
	m, err := ReadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, contracts.ManifestFormatVersion, m.FormatVersion)
	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, "continue", m.Policy)
	assert.Equal(t, ManifestPartial, m.Status)
	assert.True(t, m.StartedAt.Equal(start))
	require.Len(t, m.Funds, 2)
	assert.Equal(t, "1.5s", m.Funds[0].Duration)
	assert.Empty(t, m.Funds[0].Error)
	assert.Equal(t, "publish", m.Funds[1].ErrorKind)
	assert.Equal(t, "publishing", m.Funds[1].FailedStage)
	assert.NoFileExists(t, path+".tmp")
}

func TestManifestStatus(t *testing.T) {
	failed := &BatchResult{
		Outcomes: []FundOutcome{{Fund: "Fund A", Err: reporterrors.Render("Fund A", errors.New("x"))}},
	}
	failed.Err = failed.Outcomes[0].Err
	assert.Equal(t, ManifestFailed, NewManifest(failed).Status)

	ok := &BatchResult{Outcomes: []FundOutcome{{Fund: "Fund A", Exported: true}}}
	assert.Equal(t, ManifestCompleted, NewManifest(ok).Status)
}

func TestReadManifestMissing(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts"
)

// Manifest is the JSON record of the latest run, written next to the reports.
type Manifest struct {
	FormatVersion string          `json:"format_version"`
	RunID         string          `json:"run_id"`
	Selection     string          `json:"selection"`
	Policy        string          `json:"policy"`
	Status        string          `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Error         string          `json:"error,omitempty"`
	Funds         []ManifestEntry `json:"funds"`
}

// ManifestEntry describes one fund of the run.
type ManifestEntry struct {
	Fund        string `json:"fund"`
	Workbook    string `json:"workbook"`
	Document    string `json:"document"`
	Exported    bool   `json:"exported"`
	Digest      string `json:"digest,omitempty"`
	Published   bool   `json:"published"`
	Duration    string `json:"duration"`
	FailedStage string `json:"failed_stage,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Manifest statuses
const (
	ManifestCompleted = "completed"
	ManifestPartial   = "partial"
	ManifestFailed    = "failed"
)

// NewManifest summarizes result.
func NewManifest(result *BatchResult) *Manifest {
	m := &Manifest{
		FormatVersion: contracts.ManifestFormatVersion,
		RunID:         result.RunID,
		Selection:     result.Selection,
		Policy:        result.Policy.String(),
		StartedAt:     result.StartedAt,
		FinishedAt:    result.FinishedAt,
		Funds:         make([]ManifestEntry, 0, len(result.Outcomes)),
	}

	exported := 0
	for _, o := range result.Outcomes {
		entry := ManifestEntry{
			Fund:        o.Fund.String(),
			Workbook:    o.Workbook,
			Document:    o.Document,
			Exported:    o.Exported,
			Digest:      o.Digest,
			Published:   o.Published,
			Duration:    o.Duration.Round(time.Millisecond).String(),
			FailedStage: string(o.FailedStage),
		}
		if o.Err != nil {
			entry.ErrorKind = string(reporterrors.KindOf(o.Err))
			entry.Error = o.Err.Error()
		}
		if o.Exported {
			exported++
		}
		m.Funds = append(m.Funds, entry)
	}

	switch {
	case result.Err == nil:
		m.Status = ManifestCompleted
	case exported > 0:
		m.Status = ManifestPartial
	default:
		m.Status = ManifestFailed
	}
	if result.Err != nil {
		m.Error = result.Err.Error()
	}
	return m
}

// WriteManifest atomically replaces the manifest at path.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	return &m, nil
}

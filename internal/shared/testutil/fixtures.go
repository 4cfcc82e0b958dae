package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Sample inputs shared by package tests.
const (
	SampleHoldingsCSV = `Instrument,Industry,Weight,Value
Apple,Technology,0.25,250
Nestle,Consumer,0.15,150
Microsoft,Technology,0.20,200
Novartis,Health Care,0.40,400
`
	// Rows are intentionally out of date order.
	SampleHistoryCSV = `Date,Fund,Benchmark
2021-06-30,110,105
2021-03-31,100,100
2021-12-31,121,108
`
)

// WriteFile writes content below dir, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFund creates a fund directory with holdings.csv and history.csv and
// returns its path.
func WriteFund(t *testing.T, fundsDir, name, holdings, history string) string {
	t.Helper()
	dir := filepath.Join(fundsDir, name)
	WriteFile(t, filepath.Join(dir, "holdings.csv"), holdings)
	WriteFile(t, filepath.Join(dir, "history.csv"), history)
	return dir
}

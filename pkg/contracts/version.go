package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application
	Version = "0.3.0"

	// ManifestFormatVersion is the version of the run manifest written next to the reports
	ManifestFormatVersion = "v1"

	// APIVersion is the version of the HTTP and WebSocket messages
	APIVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version        string `json:"version"`
	BuildTime      string `json:"build_time"`
	GitCommit      string `json:"git_commit"`
	GoVersion      string `json:"go_version"`
	OS             string `json:"os"`
	Architecture   string `json:"architecture"`
	ManifestFormat string `json:"manifest_format"`
	APIVersion     string `json:"api_version"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:        Version,
		BuildTime:      BuildTime,
		GitCommit:      GitCommit,
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Architecture:   runtime.GOARCH,
		ManifestFormat: ManifestFormatVersion,
		APIVersion:     APIVersion,
	}
}

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("factsheet v%s", Version)
}

// GetFullVersionString returns a detailed version string
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf(
		"%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		GetVersionString(),
		info.BuildTime,
		info.GitCommit,
		info.GoVersion,
		info.OS,
		info.Architecture,
	)
}

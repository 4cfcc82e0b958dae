package linkcode

import (
	"fmt"
	"runtime"
	"strings"

	"factsheet/pkg/contracts/domain"
)

// FormatPolicy decides which image format link artifacts are written in.
type FormatPolicy interface {
	Format() domain.ArtifactFormat
}

// StaticPolicy always yields the same format.
type StaticPolicy domain.ArtifactFormat

// Format implements FormatPolicy
func (p StaticPolicy) Format() domain.ArtifactFormat { return domain.ArtifactFormat(p) }

// PlatformPolicy picks the raster fallback on platforms whose export
// pipeline cannot display vector images, and SVG everywhere else.
type PlatformPolicy struct {
	GOOS string
}

// rasterPlatforms lack an SVG-capable viewer in the export pipeline.
var rasterPlatforms = map[string]bool{
	"darwin": true,
}

// Format implements FormatPolicy
func (p PlatformPolicy) Format() domain.ArtifactFormat {
	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if rasterPlatforms[goos] {
		return domain.ArtifactPNG
	}
	return domain.ArtifactSVG
}

// PolicyFor maps the configured link format ("auto", "svg" or "png") to a
// policy.
func PolicyFor(format string) (FormatPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		return PlatformPolicy{}, nil
	case string(domain.ArtifactSVG):
		return StaticPolicy(domain.ArtifactSVG), nil
	case string(domain.ArtifactPNG):
		return StaticPolicy(domain.ArtifactPNG), nil
	}
	return nil, fmt.Errorf("unknown link artifact format %q", format)
}

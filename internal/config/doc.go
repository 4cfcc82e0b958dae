// Package config provides configuration loading and the deployment layout of
// the factsheet generator.
//
// # Configuration Sources
//
// Configuration is built in three layers, later layers winning:
//
//  1. Default() values
//  2. A config file (factsheet.yaml, factsheet.yml or factsheet.toml)
//  3. Environment variables with the FACTSHEET_ prefix
//
// # Environment Variables
//
//	FACTSHEET_PATHS_ROOT=/srv/factsheets
//	FACTSHEET_BRAND_COLOR=#15a43a
//	FACTSHEET_LINK_FORMAT=svg
//	FACTSHEET_STORAGE_BACKEND=http
//	FACTSHEET_STORAGE_ENDPOINT=https://storage.example.com
//	FACTSHEET_BATCH_CONTINUE_ON_ERROR=true
//
// # Layout
//
// Layout resolves every input and output path below the deployment root. All
// components take their paths from it rather than joining strings themselves.
package config

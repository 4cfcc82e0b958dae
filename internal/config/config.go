package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. FACTSHEET_BRAND_COLOR.
const EnvPrefix = "FACTSHEET"

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" toml:"paths" envconfig:"PATHS"`
	Brand     BrandConfig     `yaml:"brand" toml:"brand" envconfig:"BRAND"`
	Link      LinkConfig      `yaml:"link" toml:"link" envconfig:"LINK"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage" envconfig:"STORAGE"`
	Export    ExportConfig    `yaml:"export" toml:"export" envconfig:"EXPORT"`
	Batch     BatchConfig     `yaml:"batch" toml:"batch" envconfig:"BATCH"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" toml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry" envconfig:"TELEMETRY"`
}

// PathsConfig locates the deployment root holding data/, template/ and reports/
type PathsConfig struct {
	Root string `yaml:"root" toml:"root" envconfig:"ROOT"`
}

// BrandConfig holds the fixed branding constants shared by the link artifact,
// the text styling policy and the public fund URLs.
type BrandConfig struct {
	Color       string  `yaml:"color" toml:"color" envconfig:"COLOR"`
	Host        string  `yaml:"host" toml:"host" envconfig:"HOST"`
	HeadingSize float64 `yaml:"heading_size" toml:"heading_size" envconfig:"HEADING_SIZE"`
}

// LinkConfig configures the scannable link artifact
type LinkConfig struct {
	// Format is "auto", "svg" or "png"; auto applies the platform table.
	Format string `yaml:"format" toml:"format" envconfig:"FORMAT"`
	Scale  int    `yaml:"scale" toml:"scale" envconfig:"SCALE"`
	Border int    `yaml:"border" toml:"border" envconfig:"BORDER"`
}

// StorageConfig configures where exported documents are published
type StorageConfig struct {
	Backend         string `yaml:"backend" toml:"backend" envconfig:"BACKEND"`
	Bucket          string `yaml:"bucket" toml:"bucket" envconfig:"BUCKET"`
	Prefix          string `yaml:"prefix" toml:"prefix" envconfig:"PREFIX"`
	Endpoint        string `yaml:"endpoint" toml:"endpoint" envconfig:"ENDPOINT"`
	CredentialsFile string `yaml:"credentials_file" toml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	Retries         int    `yaml:"retries" toml:"retries" envconfig:"RETRIES"`
}

// ExportConfig configures the headless browser used to paginate reports
type ExportConfig struct {
	Headless       bool    `yaml:"headless" toml:"headless" envconfig:"HEADLESS"`
	ChromePath     string  `yaml:"chrome_path" toml:"chrome_path" envconfig:"CHROME_PATH"`
	PaperWidth     float64 `yaml:"paper_width" toml:"paper_width" envconfig:"PAPER_WIDTH"`
	PaperHeight    float64 `yaml:"paper_height" toml:"paper_height" envconfig:"PAPER_HEIGHT"`
	TimeoutSeconds int     `yaml:"timeout_seconds" toml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
}

// BatchConfig selects the multi-fund failure policy
type BatchConfig struct {
	ContinueOnError bool `yaml:"continue_on_error" toml:"continue_on_error" envconfig:"CONTINUE_ON_ERROR"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" toml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" toml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" toml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains settings of the web front end
type ServerConfig struct {
	Port           int     `yaml:"port" toml:"port" envconfig:"PORT"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" toml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" toml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// TelemetryConfig toggles tracing and metrics
type TelemetryConfig struct {
	Tracing       bool   `yaml:"tracing" toml:"tracing" envconfig:"TRACING"`
	TraceExporter string `yaml:"trace_exporter" toml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	Metrics       bool   `yaml:"metrics" toml:"metrics" envconfig:"METRICS"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Brand: BrandConfig{
			Color:       "#15a43a",
			Host:        "www.xlwings.org",
			HeadingSize: 11,
		},
		Link: LinkConfig{
			Format: LinkFormatAuto,
			Scale:  5,
			Border: 0,
		},
		Storage: StorageConfig{
			Backend: StorageBackendGCS,
			Bucket:  "xlwings",
			Prefix:  "funds",
		},
		Export: ExportConfig{
			Headless:       true,
			PaperWidth:     8.27,
			PaperHeight:    11.69,
			TimeoutSeconds: 120,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/factsheet.log",
		},
		Server: ServerConfig{
			Port:           8080,
			RateLimitRPS:   2,
			RateLimitBurst: 5,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			Metrics:       true,
		},
	}
}

// Link formats accepted by LinkConfig.Format
const (
	LinkFormatAuto = "auto"
	LinkFormatSVG  = "svg"
	LinkFormatPNG  = "png"
)

// Storage backends accepted by StorageConfig.Backend
const (
	StorageBackendGCS  = "gcs"
	StorageBackendHTTP = "http"
)

// Load builds the configuration from defaults, then the config file (an
// explicit path or the first file found in the usual locations), then
// FACTSHEET_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags: only variables that are set override the file.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays a YAML or TOML file onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
}

// findConfigFile returns the first config file in the usual locations
func findConfigFile() string {
	locations := []string{
		"factsheet.yaml",
		"factsheet.yml",
		"factsheet.toml",
		"configs/factsheet.yaml",
		"configs/factsheet.toml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// resolvePaths makes the deployment root absolute
func (c *Config) resolvePaths() error {
	root := c.Paths.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	c.Paths.Root = abs
	return nil
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate validates the configuration
func (c *Config) Validate() error {
	if !hexColor.MatchString(c.Brand.Color) {
		return fmt.Errorf("brand color must be #rrggbb, got %q", c.Brand.Color)
	}
	if strings.TrimSpace(c.Brand.Host) == "" {
		return fmt.Errorf("brand host must be set")
	}
	if c.Brand.HeadingSize <= 0 {
		return fmt.Errorf("heading size must be positive")
	}

	switch c.Link.Format {
	case LinkFormatAuto, LinkFormatSVG, LinkFormatPNG:
	default:
		return fmt.Errorf("unknown link format %q", c.Link.Format)
	}
	if c.Link.Scale <= 0 {
		return fmt.Errorf("link scale must be positive")
	}
	if c.Link.Border < 0 {
		return fmt.Errorf("link border must not be negative")
	}

	switch c.Storage.Backend {
	case StorageBackendGCS:
	case StorageBackendHTTP:
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("storage endpoint is required for the http backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket must be set")
	}

	if c.Export.PaperWidth <= 0 || c.Export.PaperHeight <= 0 {
		return fmt.Errorf("paper size must be positive")
	}
	if c.Export.TimeoutSeconds <= 0 {
		return fmt.Errorf("export timeout must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Telemetry.TraceExporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter %q", c.Telemetry.TraceExporter)
	}
	return nil
}

// Layout returns the filesystem layout below the configured root
func (c *Config) Layout() Layout {
	return NewLayout(c.Paths.Root)
}

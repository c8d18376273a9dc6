// Package config provides configuration management for the cleaning worker.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"accidentes/internal/models"
	"accidentes/pkg/metadata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ACCIDENTES_SOURCE_URL.
// Keys are derived from the field names; there is no unprefixed fallback.
const EnvPrefix = "ACCIDENTES"

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// Defaults for the Monterrey dataset.
const (
	DefaultSourceURL            = "https://nuevoleon.opendatasoft.com/api/explore/v2.1/catalog/datasets/indices-de-estadisticas-de-accidentes-viales-monterrey/exports/csv?lang=en&timezone=America%2FMexico_City&use_labels=true&delimiter=%2C"
	DefaultOutputPath           = "csv/accidentes_viales_mty.csv"
	DefaultTimeoutSec           = 60
	DefaultMaxSizeMb            = 256
	DefaultTopSettlements       = 10
	DefaultAccidentTypeMinCount = 300
)

// Configuration validation errors.
var (
	ErrMissingSource        = errors.New("source.url or source.file is required")
	ErrInvalidTimeout       = errors.New("source.timeout_sec must be at least 1")
	ErrInvalidMaxSize       = errors.New("source.max_size_mb must be at least 1")
	ErrMissingOutputPath    = errors.New("output.path is required")
	ErrNoDateLayouts        = errors.New("cleaning.date_layouts must not be empty")
	ErrNoTimeLayouts        = errors.New("cleaning.time_layouts must not be empty")
	ErrInvalidTopN          = errors.New("features.top_settlements must be at least 1")
	ErrInvalidMinCount      = errors.New("features.accident_type_min_count must be non-negative")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat     = errors.New("logging.format must be 'text' or 'json'")
	ErrOutputCollidesXLSX   = errors.New("output.xlsx_path must differ from output.path")
	ErrRequiredColumnPruned = errors.New("cleaning.drop_columns must not contain a required column")
)

// Config represents the complete worker configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Cleaning CleaningConfig `yaml:"cleaning" envconfig:"CLEANING"`
	Features FeaturesConfig `yaml:"features" envconfig:"FEATURES"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
}

// SourceConfig describes where the raw table comes from.
type SourceConfig struct {
	URL        string `yaml:"url" split_words:"true"`
	File       string `yaml:"file" split_words:"true"`
	UserAgent  string `yaml:"user_agent" split_words:"true"`
	TimeoutSec int    `yaml:"timeout_sec" split_words:"true"`
	MaxSizeMb  int    `yaml:"max_size_mb" split_words:"true"`
}

// IsLocalFile returns true if this source uses a local file.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

// GetSource returns the file path if local, or URL if remote.
func (s *SourceConfig) GetSource() string {
	if s.IsLocalFile() {
		return s.File
	}

	return s.URL
}

// GetTimeout returns the fetch timeout.
func (s *SourceConfig) GetTimeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// MaxBytes returns the response size cap in bytes.
func (s *SourceConfig) MaxBytes() int64 {
	return int64(s.MaxSizeMb) * 1024 * 1024
}

// OutputConfig defines where the canonical table goes.
type OutputConfig struct {
	Path       string `yaml:"path" split_words:"true"`
	XLSXPath   string `yaml:"xlsx_path" split_words:"true"`
	Manifest   bool   `yaml:"manifest" split_words:"true"`
	CreateDirs bool   `yaml:"create_dirs" split_words:"true"`
}

// CleaningConfig holds the parsing and filtering rules.
type CleaningConfig struct {
	DropColumns   []string `yaml:"drop_columns" split_words:"true"`
	NullValues    []string `yaml:"null_values" split_words:"true"`
	HoraSentinels []string `yaml:"hora_sentinels" split_words:"true"`
	DateLayouts   []string `yaml:"date_layouts" split_words:"true"`
	TimeLayouts   []string `yaml:"time_layouts" split_words:"true"`
}

// FeaturesConfig holds the frequency thresholds of the derived features.
type FeaturesConfig struct {
	TopSettlements       int `yaml:"top_settlements" split_words:"true"`
	AccidentTypeMinCount int `yaml:"accident_type_min_count" split_words:"true"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
}

// MetricsConfig defines where run metrics are exported. Empty disables export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" split_words:"true"`
}

// Default returns the configuration of the production run.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:        DefaultSourceURL,
			UserAgent:  "accidentes-worker/1.0",
			TimeoutSec: DefaultTimeoutSec,
			MaxSizeMb:  DefaultMaxSizeMb,
		},
		Output: OutputConfig{
			Path:     DefaultOutputPath,
			Manifest: true,
		},
		Cleaning: CleaningConfig{
			DropColumns: []string{"Nota", "Ejercicio"},
			// pandas read_csv default NA tokens
			NullValues: []string{
				"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
				"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
				"n/a", "nan", "null",
			},
			HoraSentinels: []string{"SD", "No Dato", "sd"},
			DateLayouts: []string{
				"2006-01-02",
				"2006-01-02T15:04:05",
				"2006-01-02T15:04:05Z07:00",
				"2006-01-02 15:04:05",
				"2006/01/02",
			},
			TimeLayouts: []string{
				"15:04:05",
				"15:04",
				"15:04:05.999999",
				"3:04:05 PM",
				"3:04 PM",
				"3:04:05PM",
				"3:04PM",
			},
		},
		Features: FeaturesConfig{
			TopSettlements:       DefaultTopSettlements,
			AccidentTypeMinCount: DefaultAccidentTypeMinCount,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file (if any), then
// .env and the process environment. The result is validated.
func Load(filepath string) (*Config, error) {
	cfg := Default()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" && strings.TrimSpace(c.Source.File) == "" {
		return ErrMissingSource
	}

	if c.Source.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Source.MaxSizeMb < 1 {
		return ErrInvalidMaxSize
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		return ErrMissingOutputPath
	}

	if c.Output.XLSXPath != "" && c.Output.XLSXPath == c.Output.Path {
		return ErrOutputCollidesXLSX
	}

	for _, col := range c.Cleaning.DropColumns {
		if slices.Contains(models.RequiredColumns, col) {
			return fmt.Errorf("%w: %s", ErrRequiredColumnPruned, col)
		}
	}

	if len(c.Cleaning.DateLayouts) == 0 {
		return ErrNoDateLayouts
	}

	if len(c.Cleaning.TimeLayouts) == 0 {
		return ErrNoTimeLayouts
	}

	if c.Features.TopSettlements < 1 {
		return ErrInvalidTopN
	}

	if c.Features.AccidentTypeMinCount < 0 {
		return ErrInvalidMinCount
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// ManifestPath returns the sidecar path of the canonical table.
func (c *Config) ManifestPath() string {
	return metadata.PathFor(c.Output.Path)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s, Output: %s, TopSettlements: %d, AccidentTypeMinCount: %d}",
		c.Source.GetSource(),
		c.Output.Path,
		c.Features.TopSettlements,
		c.Features.AccidentTypeMinCount,
	)
}

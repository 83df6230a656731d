package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"gopkg.in/yaml.v3"
)

// ReferenceLayout is the layout of the reference date and of dates in config.
const ReferenceLayout = "2006-01-02"

// Config holds all goat-explorer configuration.
type Config struct {
	// Data source
	Data DataConfig `yaml:"data"`

	// Chart defaults
	Charts ChartConfig `yaml:"charts"`

	// Web UI
	Server ServerConfig `yaml:"server"`

	// Snapshot persistence
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig describes where the dataset comes from and how it is cleaned.
type DataConfig struct {
	Path            string   `yaml:"path"`
	ReferenceDate   string   `yaml:"reference_date"`
	RequiredColumns []string `yaml:"required_columns"`
	Explorable      []string `yaml:"explorable"`
	Watch           bool     `yaml:"watch"`
}

// ChartConfig holds rendering defaults.
type ChartConfig struct {
	Bins     int     `yaml:"bins"`
	TopN     int     `yaml:"top_n"`
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
	OutDir   string  `yaml:"out_dir"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

// StoreConfig selects the snapshot database.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres
	DSN    string `yaml:"dsn"`
}

// LoggingConfig mirrors the ENV / LOGLEVEL variables.
type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// ValidDrivers lists the supported snapshot store drivers.
var ValidDrivers = []string{"sqlite", "postgres"}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:            "cleaned_dataset.csv",
			ReferenceDate:   "2025-03-31",
			RequiredColumns: []string{"rank", "price", "daysfrommarch"},
			Explorable: []string{
				"price", "rank", "daysfrommarch",
				"Designer", "MainColor", "Technology", "Category",
			},
		},
		Charts: ChartConfig{
			Bins:     20,
			TopN:     10,
			WidthIn:  8,
			HeightIn: 5,
			OutDir:   "plots",
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxUploadSize: 32 << 20,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "data/goatx.db",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("GOATX_DATA"); path != "" {
		c.Data.Path = path
	}
	if ref := os.Getenv("GOATX_REFERENCE_DATE"); ref != "" {
		c.Data.ReferenceDate = ref
	}
	if cols := os.Getenv("GOATX_REQUIRED_COLUMNS"); cols != "" {
		c.Data.RequiredColumns = splitList(cols)
	}
	if watch := os.Getenv("GOATX_WATCH"); watch != "" {
		c.Data.Watch, _ = strconv.ParseBool(watch)
	}
	if addr := os.Getenv("GOATX_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if driver := os.Getenv("GOATX_STORE_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}
	if dsn := os.Getenv("GOATX_STORE_DSN"); dsn != "" {
		c.Store.DSN = dsn
	}
	if env := os.Getenv("ENV"); env != "" {
		c.Logging.Env = env
	}
	if level := os.Getenv("LOGLEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Reference returns the parsed reference date (UTC midnight).
func (c *Config) Reference() (time.Time, error) {
	t, err := time.Parse(ReferenceLayout, c.Data.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q: %w", c.Data.ReferenceDate, err)
	}
	return t, nil
}

// DatasetOptions returns the cleaning options the configuration describes.
func (c *Config) DatasetOptions() (dataset.Options, error) {
	ref, err := c.Reference()
	if err != nil {
		return dataset.Options{}, err
	}
	opts := dataset.Options{Reference: ref}
	for _, col := range c.Data.RequiredColumns {
		opts.Required = append(opts.Required, dataset.Canonical(col))
	}
	return opts, nil
}

// Validate checks the configuration for values the dashboard cannot work with.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("data path not configured")
	}
	if _, err := c.Reference(); err != nil {
		return err
	}
	if c.Charts.Bins < 1 {
		return fmt.Errorf("histogram bins must be positive, got %d", c.Charts.Bins)
	}
	if c.Charts.TopN < 1 {
		return fmt.Errorf("top-N must be positive, got %d", c.Charts.TopN)
	}
	if c.Charts.WidthIn <= 0 || c.Charts.HeightIn <= 0 {
		return fmt.Errorf("chart size must be positive, got %gx%g", c.Charts.WidthIn, c.Charts.HeightIn)
	}

	validDriver := false
	for _, d := range ValidDrivers {
		if c.Store.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"GOATX_DATA", "GOATX_REFERENCE_DATE", "GOATX_REQUIRED_COLUMNS", "GOATX_WATCH",
		"GOATX_ADDR", "GOATX_STORE_DRIVER", "GOATX_STORE_DSN", "ENV", "LOGLEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "cleaned_dataset.csv", cfg.Data.Path)
	assert.Equal(t, []string{"rank", "price", "daysfrommarch"}, cfg.Data.RequiredColumns)
	assert.Equal(t, 20, cfg.Charts.Bins)
	assert.Equal(t, 10, cfg.Charts.TopN)
	require.NoError(t, cfg.Validate())

	ref, err := cfg.Reference()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), ref)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "goatx.yaml")

	cfg := DefaultConfig()
	cfg.Data.Path = "shoes.csv"
	cfg.Charts.Bins = 35
	cfg.Store.Driver = "postgres"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shoes.csv", loaded.Data.Path)
	assert.Equal(t, 35, loaded.Charts.Bins)
	assert.Equal(t, "postgres", loaded.Store.Driver)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOATX_DATA", "/srv/goat.csv")
	t.Setenv("GOATX_REQUIRED_COLUMNS", "rank, price ,")
	t.Setenv("GOATX_WATCH", "true")
	t.Setenv("LOGLEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/goat.csv", cfg.Data.Path)
	assert.Equal(t, []string{"rank", "price"}, cfg.Data.RequiredColumns)
	assert.True(t, cfg.Data.Watch)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad reference date", func(c *Config) { c.Data.ReferenceDate = "31/03/2025" }},
		{"zero bins", func(c *Config) { c.Charts.Bins = 0 }},
		{"negative top", func(c *Config) { c.Charts.TopN = -1 }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }},
		{"empty path", func(c *Config) { c.Data.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatasetOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.ReferenceDate = "2025-03-01"
	cfg.Data.RequiredColumns = []string{"rank", "Main.Color"}

	opts, err := cfg.DatasetOptions()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), opts.Reference)
	assert.Equal(t, []string{"rank", "MainColor"}, opts.Required)

	cfg.Data.ReferenceDate = "March"
	_, err = cfg.DatasetOptions()
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 40, cfg.Extraction.Window)
	assert.Equal(t, 10, cfg.Extraction.Overlap)
	assert.Equal(t, "gemini", cfg.Extraction.Provider)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.False(t, cfg.Aggregation.IncludeOther)
	assert.Equal(t, 60*time.Second, cfg.Extraction.WindowTimeout)
	require.NoError(t, cfg.Validate())
}

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Extraction.Concurrency = 8
	cfg.Aggregation.IncludeOther = true
	cfg.Storage.Backend = "mongo"
	cfg.Storage.MongoURI = "mongodb://localhost:27017"

	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, got.Extraction.Concurrency)
	assert.True(t, got.Aggregation.IncludeOther)
	assert.Equal(t, "mongo", got.Storage.Backend)
	assert.Equal(t, cfg.Extraction.WindowTimeout, got.Extraction.WindowTimeout)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraction:\n  window: 50\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, got.Extraction.Window)
	assert.Equal(t, 10, got.Extraction.Overlap)
	assert.Equal(t, "8080", got.Server.Port)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"STATEMENT_SCORING_PROVIDER":      "openai",
		"OPENAI_API_KEY":                  "sk-test",
		"STATEMENT_SCORING_CONCURRENCY":   "2",
		"STATEMENT_SCORING_INCLUDE_OTHER": "true",
		"GCS_BUCKET":                      "statements",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "openai", cfg.Extraction.Provider)
	assert.Equal(t, "sk-test", cfg.Extraction.OpenAIAPIKey)
	assert.Equal(t, 2, cfg.Extraction.Concurrency)
	assert.True(t, cfg.Aggregation.IncludeOther)
	assert.Equal(t, "statements", cfg.GCS.Bucket)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals window", func(c *Config) { c.Extraction.Overlap = c.Extraction.Window }},
		{"zero window", func(c *Config) { c.Extraction.Window = 0 }},
		{"zero concurrency", func(c *Config) { c.Extraction.Concurrency = 0 }},
		{"unknown provider", func(c *Config) { c.Extraction.Provider = "llama" }},
		{"bigquery without project", func(c *Config) { c.Storage.Backend = "bigquery" }},
		{"mongo without uri", func(c *Config) { c.Storage.Backend = "mongo" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

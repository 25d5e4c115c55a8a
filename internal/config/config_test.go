package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendSGLang, cfg.Backend.Type)
	assert.Equal(t, 120*time.Second, cfg.Timeout())
	assert.Equal(t, 8000, cfg.Summarizer.ChunkSize)
	assert.Equal(t, 200, cfg.Summarizer.ChunkOverlap)
	assert.Equal(t, 3000, cfg.Summarizer.ChunkMaxTokens)
	assert.True(t, cfg.Summarizer.AutoChunk)
	assert.Equal(t, StoreJSON, cfg.Catalog.Store)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  type: openai
  endpoints: ["http://gpu0:30000", "http://gpu1:30000"]
  timeout_secs: 900
summarizer:
  auto_chunk: false
  chunk_size: 4000
catalog:
  store: sqlite
  path: catalog.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendOpenAI, cfg.Backend.Type)
	assert.Equal(t, []string{"http://gpu0:30000", "http://gpu1:30000"}, cfg.Backend.Endpoints)
	assert.Equal(t, 300*time.Second, cfg.Timeout())
	assert.False(t, cfg.Summarizer.AutoChunk)
	assert.Equal(t, 4000, cfg.Summarizer.ChunkSize)
	assert.Equal(t, 200, cfg.Summarizer.ChunkOverlap)
	assert.Equal(t, StoreSQLite, cfg.Catalog.Store)

	opts := cfg.SummarizerOptions()
	assert.Equal(t, 4000, opts.ChunkSize)
	assert.False(t, opts.AutoChunk)
	assert.Equal(t, cfg.Sampling.Stop, opts.Sampling.Stop)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MDSUM_BACKEND", "extractive")
	t.Setenv("MDSUM_ENDPOINTS", "http://a:1, ,http://b:2")
	t.Setenv("MDSUM_TIMEOUT_SECS", "30")
	t.Setenv("MDSUM_CATALOG_PATH", "/tmp/idx.json")
	t.Setenv("MDSUM_LOG_LEVEL", "debug")
	t.Setenv("MDSUM_ADDR", ":9000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendExtractive, cfg.Backend.Type)
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, cfg.Backend.Endpoints)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, "/tmp/idx.json", cfg.Catalog.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoad_BadTimeoutEnv(t *testing.T) {
	t.Setenv("MDSUM_TIMEOUT_SECS", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MDSUM_TEST_ONLY_VAR=from-dotenv\n"), 0o644))
	t.Setenv("MDSUM_TEST_ONLY_VAR", "")
	require.NoError(t, os.Unsetenv("MDSUM_TEST_ONLY_VAR"))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("MDSUM_TEST_ONLY_VAR"))

	assert.NoError(t, LoadEnv(filepath.Join(dir, "absent.env")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"unknown backend", func(c *AppConfig) { c.Backend.Type = "llama" }},
		{"no endpoints", func(c *AppConfig) { c.Backend.Endpoints = nil }},
		{"unknown store", func(c *AppConfig) { c.Catalog.Store = "mongo" }},
		{"overlap too large", func(c *AppConfig) { c.Summarizer.ChunkOverlap = c.Summarizer.ChunkSize }},
		{"zero chunk size", func(c *AppConfig) { c.Summarizer.ChunkSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := defaultConfig()
	cfg.Backend.Type = BackendExtractive
	cfg.Backend.Endpoints = nil
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Backend.Model = "qwen3"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qwen3", loaded.Backend.Model)
}

func TestAPIKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backend.APIKeyEnv = "MDSUM_TEST_KEY"
	t.Setenv("MDSUM_TEST_KEY", "secret")
	assert.Equal(t, "secret", cfg.APIKey())

	cfg.Backend.APIKeyEnv = ""
	assert.Empty(t, cfg.APIKey())
}

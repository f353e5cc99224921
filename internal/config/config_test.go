package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/homescore.db", cfg.Store.Path)
	assert.Equal(t, 30, cfg.Cache.TTLDays)
	assert.Equal(t, "data/api_cache.json", cfg.Cache.Path)
	assert.Equal(t, "scoring_config.json", cfg.Scoring.Path)
	assert.Equal(t, 5, cfg.Analyze.PhotoWorkers)
	assert.Equal(t, 5, cfg.Vision.MaxImagesPerCall)
	assert.Equal(t, 15, cfg.Vision.TextTimeoutSecs)
	assert.Equal(t, 60, cfg.Vision.PhotoTimeoutSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := chdirTemp(t)

	doc := map[string]any{
		"store": map[string]any{
			"driver":       "postgres",
			"database_url": "postgres://localhost/homescore",
		},
		"cache": map[string]any{
			"ttl_days": 7,
		},
		"analyze": map[string]any{
			"photo_workers": 3,
		},
	}
	raw, err := yaml.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/homescore", cfg.Store.DatabaseURL)
	assert.Equal(t, 7, cfg.Cache.TTLDays)
	assert.Equal(t, 3, cfg.Analyze.PhotoWorkers)
	// Untouched keys keep defaults.
	assert.Equal(t, 30, cfg.Jinka.TimeoutSecs)
}

func TestLoadEnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HOMESCORE_LOG_LEVEL", "debug")
	t.Setenv("HOMESCORE_VISION_MODEL", "claude-sonnet-4-5-20250929")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Vision.Model)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestInitLoggerConsole(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "console"}))
}

// chdirTemp switches the working directory to an empty temp dir so Load does
// not pick up a developer's config.yaml.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

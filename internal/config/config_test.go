package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.HTTPClient.PreferIPv4)
	assert.Equal(t, 180*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, "gemini-3-pro-image-preview", cfg.Gemini.Model)
	assert.Equal(t, "memory", cfg.History.Backend)
	assert.Equal(t, 50, cfg.History.MaxRecords)
	assert.Equal(t, 1200*time.Millisecond, cfg.Telegram.MediaGroupDebounce)
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("GEMINI_BASE_URL", "https://example.test/")
	t.Setenv("HISTORY_BACKEND", "Redis")
	t.Setenv("HISTORY_MAX_RECORDS", "0")
	t.Setenv("STUDIO_JPEG_QUALITY", "500")
	t.Setenv("STUDIO_MAX_DIMENSION", "10")
	t.Setenv("MAX_CONCURRENT", "-3")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.test,https://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://example.test", cfg.Gemini.BaseURL)
	assert.Equal(t, "redis", cfg.History.Backend)
	assert.Equal(t, 1, cfg.History.MaxRecords)
	assert.Equal(t, 85, cfg.Studio.JPEGQuality)
	assert.Equal(t, 256, cfg.Studio.MaxDimension)
	assert.Equal(t, 1, cfg.Telegram.MaxConcurrent)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadUnknownBackendFallsBackToMemory(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HISTORY_BACKEND", "postgres")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.History.Backend)
}

func TestRequire(t *testing.T) {
	var cfg Config
	assert.EqualError(t, cfg.RequireGemini(), "GEMINI_API_KEY is required")
	assert.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_BOT_TOKEN is required")

	cfg.Gemini.APIKey = "k"
	cfg.Telegram.Token = "t"
	assert.NoError(t, cfg.RequireGemini())
	assert.NoError(t, cfg.RequireTelegram())
}

package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "host=localhost dbname=siteflow")
	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("JWT_SECRET", "jwt")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"SERVER_PORT", "UPLOAD_DIR", "MEDIA_URL", "CORS_ORIGINS",
		"REQUEST_TIMEOUT", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "./media", cfg.UploadDir)
	assert.Equal(t, "/media", cfg.MediaURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://site.example ,")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://site.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is not set")

	setRequired(t)
	t.Setenv("REQUEST_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

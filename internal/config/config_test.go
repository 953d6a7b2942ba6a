package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"API_URL", "HTTP_TIMEOUT", "LISTEN_ADDR", "COOKIE_SECURE", "GUARD_ROUTES_FILE", "LOG_LEVEL", "LOG_FORMAT", "SESSION_SECRET"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.API.URL)
	assert.Equal(t, "http://localhost:5000/api/v1", cfg.API.BaseURL())
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, ":3000", cfg.Server.ListenAddr)
	assert.False(t, cfg.Server.CookieSecure)
	assert.Empty(t, cfg.Server.SessionSecret)
	assert.Equal(t, DefaultGuardConfig(), cfg.Guard)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_URL", "https://api.example.com/")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("GUARD_ROUTES_FILE", "")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api/v1", cfg.API.BaseURL())
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Server.CookieSecure)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Server.SessionSecret)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_TIMEOUT", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "HTTP_TIMEOUT")
}

func TestLoadGuardFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("protected:\n  - /dashboard\n  - /admin\n"), 0644))

	guard, err := LoadGuardFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/dashboard", "/admin"}, guard.Protected)
	assert.Equal(t, DefaultGuardConfig().AuthOnly, guard.AuthOnly)
}

func TestLoadGuardFile_Missing(t *testing.T) {
	_, err := LoadGuardFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read guard routes file")
}

func TestIdentityConfig_GoogleEnabled(t *testing.T) {
	assert.False(t, IdentityConfig{}.GoogleEnabled())
	assert.True(t, IdentityConfig{
		FirebaseAPIKey:     "key",
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
	}.GoogleEnabled())
}

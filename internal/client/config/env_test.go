package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useDotenv(t *testing.T, content string) {
	t.Helper()
	orig := dotenvFile
	t.Cleanup(func() { dotenvFile = orig })

	dotenvFile = filepath.Join(t.TempDir(), ".env")
	if content != "" {
		require.NoError(t, os.WriteFile(dotenvFile, []byte(content), 0o600))
	}
}

func TestParseEnv_Variables(t *testing.T) {
	useDotenv(t, "")
	t.Setenv("FRESHCART_API_URL", "http://env:4000")
	t.Setenv("FRESHCART_REQUEST_TIMEOUT", "2s")
	t.Setenv("FRESHCART_PUBLIC_PATHS", "/,/catalog")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "http://env:4000", cfg.APIBaseURL)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"/", "/catalog"}, cfg.PublicPaths)
	assert.Equal(t, "freshcart.db", cfg.DatabasePath)
}

func TestParseEnv_DotenvFile(t *testing.T) {
	useDotenv(t, "FRESHCART_HOME_PATH=/shop\nFRESHCART_COOKIE_TTL=1h\n")
	t.Setenv("FRESHCART_COOKIE_TTL", "2h")
	t.Cleanup(func() { _ = os.Unsetenv("FRESHCART_HOME_PATH") })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "/shop", cfg.HomePath)
	assert.Equal(t, 2*time.Hour, cfg.CookieTTL, "process environment wins over .env")
}

func TestParseEnv_Malformed(t *testing.T) {
	useDotenv(t, "")
	t.Setenv("FRESHCART_REQUEST_TIMEOUT", "soon")

	cfg := &Config{}
	require.Panics(t, func() { parseEnv(cfg) })
}

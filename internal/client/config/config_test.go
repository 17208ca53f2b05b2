package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ravey/almond/pkg/qrlogin"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ALMOND_SERVER_URL", "ALMOND_APP_ID", "ALMOND_PAGE", "ALMOND_ENV_VERSION", "ALMOND_DATA_DIR",
		"ALMOND_LOG_LEVEL", "ALMOND_LOG_FORMAT", "ALMOND_WIDTH", "ALMOND_POLL_INTERVAL", "ALMOND_LOGIN_TIMEOUT",
		"ALMOND_COMPANION_SECRET",
	} {
		t.Setenv(k, "")
	}
	// Keep the default path away from the real user config.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.ServerURL)
	require.Equal(t, qrlogin.DefaultAppID, cfg.AppID)
	require.Equal(t, qrlogin.EnvTrial, cfg.EnvVersion)
	require.Equal(t, 2*time.Second, cfg.PollInterval)
	require.Equal(t, 300*time.Second, cfg.LoginTimeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALMOND_LOGIN_TIMEOUT", "1m")
	t.Setenv("ALMOND_SERVER_URL", "https://env.example")

	path := writeFile(t, `
server_url: https://file.example
env_version: develop
poll_interval: 500ms
login_timeout: 10s
width: 600
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.example", cfg.ServerURL)
	require.Equal(t, qrlogin.EnvDevelop, cfg.EnvVersion)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, time.Minute, cfg.LoginTimeout)
	require.Equal(t, 600, cfg.Width)
	require.Equal(t, qrlogin.DefaultPage, cfg.Page)
}

func TestLoadExpandsEnvInFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("QR_HOST", "qr.internal")
	t.Setenv("QR_SECRET", "from-env")

	cfg, err := Load(writeFile(t, "server_url: http://${QR_HOST}:9000\ncompanion_secret: ${QR_SECRET}\n"))
	require.NoError(t, err)
	require.Equal(t, "http://qr.internal:9000", cfg.ServerURL)
	require.Equal(t, "from-env", cfg.CompanionSecret)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "env_version: staging\n"))
	require.ErrorContains(t, err, "env_version")

	_, err = Load(writeFile(t, "poll_interval: 1m\nlogin_timeout: 10s\n"))
	require.ErrorContains(t, err, "poll_interval")

	_, err = Load(writeFile(t, "width: [1\n"))
	require.ErrorContains(t, err, "unmarshal config")
}

package adapter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"REELCTL_API_URL", "REELCTL_STORAGE_DIR", "REELCTL_LOG_LEVEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Cache.ListStale)
	assert.Equal(t, 5*time.Minute, cfg.Cache.UserStale)
	assert.Equal(t, time.Minute, cfg.Auth.RefreshSkew)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  url: https://api.example.com/
  max_retries: 1
cache:
  list_stale: 2m
logging:
  level: debug
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Server.URL)
	assert.Equal(t, 1, cfg.Server.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Cache.ListStale)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: https://file.example.com\n"), 0644))
	t.Setenv("REELCTL_API_URL", "https://env.example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Server.URL)
}

func TestLoadConfigRejectsBadURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("REELCTL_API_URL", "ftp://example.com")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	assert.ErrorContains(t, err, "server.url")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.URL = "https://saved.example.com"
	cfg.Cache.GCAfter = 48 * time.Hour
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com", loaded.Server.URL)
	assert.Equal(t, 48*time.Hour, loaded.Cache.GCAfter)
	assert.Equal(t, cfg.Server.RequestsPerSecond, loaded.Server.RequestsPerSecond)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "x.log"), ExpandHome("~/logs/x.log"))
	assert.Equal(t, "/var/log/x.log", ExpandHome("/var/log/x.log"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warning").String())
	assert.Equal(t, "ERROR", parseLogLevel("ERROR").String())
	assert.Equal(t, "INFO", parseLogLevel("nonsense").String())
}

func TestSetupLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reelctl.log")
	logger, closer, err := SetupLogger(&LoggingConfig{File: path, Level: "INFO"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "videoID", "abc")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"videoID":"abc"`)
}

func TestTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	term := NewTerminal(&out, &errOut)

	term.Success("Video saved successfully")
	term.Error("Failed to delete video")
	term.ToLogin()

	assert.Contains(t, out.String(), "Video saved successfully")
	assert.Contains(t, errOut.String(), "Failed to delete video")
	assert.Contains(t, errOut.String(), "reelctl login")
	assert.Equal(t, 1, term.Errors())
	assert.Contains(t, PlatformBadge(domain.PlatformYouTube), "YouTube")
}

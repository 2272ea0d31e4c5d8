package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()

	assert.Equal(t, 30*time.Second, cfg.Scheduler.AlertVisibility)
	assert.Equal(t, time.Minute, cfg.Scheduler.TickPeriod)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.TickTimeout)
	assert.Empty(t, cfg.Scheduler.DigestAt)

	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Len(t, cfg.HTTP.RetryDelays, 3)

	assert.Equal(t, 500*time.Millisecond, cfg.Daemon.StartupWait)
	assert.Equal(t, 5*time.Second, cfg.Daemon.KillTimeout)

	assert.False(t, cfg.Telegram.Enabled())
	assert.False(t, cfg.Storage.InMemory())
	assert.Equal(t, 3*time.Second, cfg.Storage.LockTimeout)
	assert.Equal(t, 2*time.Second, cfg.Storage.PollInterval)
}

func TestGlobalConfigExists(t *testing.T) {
	require.NotNil(t, Global)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MEDALERT_DATABASE", ":memory:")
	t.Setenv("MEDALERT_LOCK_TIMEOUT", "500ms")
	t.Setenv("MEDALERT_POLL_INTERVAL", "5s")
	t.Setenv("MEDALERT_ALERT_VISIBILITY", "45s")
	t.Setenv("MEDALERT_TICK_PERIOD", "2m")
	t.Setenv("MEDALERT_TICK_TIMEOUT", "10s")
	t.Setenv("MEDALERT_DIGEST_AT", " 08:00 ")
	t.Setenv("MEDALERT_HTTP_TIMEOUT", "5s")
	t.Setenv("MEDALERT_HTTP_MAX_RETRIES", "1")
	t.Setenv("MEDALERT_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("MEDALERT_TELEGRAM_CHAT_ID", "-1001234")
	t.Setenv("MEDALERT_TELEGRAM_DELETE_ON_DISMISS", "true")
	t.Setenv("MEDALERT_DAEMON_STARTUP_WAIT", "1s")
	t.Setenv("MEDALERT_DAEMON_KILL_TIMEOUT", "10s")

	cfg := DefaultRuntimeConfig()
	cfg.ReloadFromEnv()

	assert.True(t, cfg.Storage.InMemory())
	assert.Equal(t, 500*time.Millisecond, cfg.Storage.LockTimeout)
	assert.Equal(t, 5*time.Second, cfg.Storage.PollInterval)
	assert.Equal(t, 45*time.Second, cfg.Scheduler.AlertVisibility)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.TickPeriod)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.TickTimeout)
	assert.Equal(t, "08:00", cfg.Scheduler.DigestAt)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 1, cfg.HTTP.MaxRetries)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(-1001234), cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.DeleteOnDismiss)
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, time.Second, cfg.Daemon.StartupWait)
	assert.Equal(t, 10*time.Second, cfg.Daemon.KillTimeout)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("MEDALERT_ALERT_VISIBILITY", "soon")
	t.Setenv("MEDALERT_TICK_PERIOD", "-1m")
	t.Setenv("MEDALERT_HTTP_MAX_RETRIES", "-2")
	t.Setenv("MEDALERT_TELEGRAM_CHAT_ID", "chat")
	t.Setenv("MEDALERT_TELEGRAM_DELETE_ON_DISMISS", "maybe")

	cfg := DefaultRuntimeConfig()
	cfg.ReloadFromEnv()

	assert.Equal(t, 30*time.Second, cfg.Scheduler.AlertVisibility)
	assert.Equal(t, time.Minute, cfg.Scheduler.TickPeriod)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Zero(t, cfg.Telegram.ChatID)
	assert.False(t, cfg.Telegram.DeleteOnDismiss)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEDALERT_DIGEST_AT=07:00\nMEDALERT_TICK_TIMEOUT=5s\n"), 0o600))

	t.Setenv("MEDALERT_DIGEST_AT", "09:00")
	// Registers cleanup so the loaded variable does not leak into other tests.
	t.Setenv("MEDALERT_TICK_TIMEOUT", "")
	require.NoError(t, os.Unsetenv("MEDALERT_TICK_TIMEOUT"))

	require.NoError(t, godotenv.Load(path))

	cfg := DefaultRuntimeConfig()
	cfg.ReloadFromEnv()
	assert.Equal(t, "09:00", cfg.Scheduler.DigestAt)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.TickTimeout)
}

func TestReset(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	cfg.Scheduler.AlertVisibility = time.Hour
	cfg.Reset()
	assert.Equal(t, 30*time.Second, cfg.Scheduler.AlertVisibility)
}

// Package config provides centralized configuration for medalert runtime values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RuntimeConfig holds all runtime configuration values.
type RuntimeConfig struct {
	Storage   StorageConfig
	Scheduler SchedulerConfig
	HTTP      HTTPConfig
	Telegram  TelegramConfig
	Daemon    DaemonConfig
}

// StorageConfig holds storage-related configuration.
type StorageConfig struct {
	// Database is the badger directory. Empty means the XDG data path;
	// ":memory:" opens an in-memory store.
	Database string

	// LockTimeout is how long an open waits for another process to release
	// the database directory.
	// Default: 3s
	LockTimeout time.Duration

	// PollInterval is how often long-running readers reload the store.
	// Default: 2s
	PollInterval time.Duration
}

// InMemory reports whether the database should be opened in memory.
func (s StorageConfig) InMemory() bool {
	return s.Database == ":memory:"
}

// SchedulerConfig holds alert scheduling configuration.
type SchedulerConfig struct {
	// AlertVisibility is how long an alert stays live before it auto-expires.
	// Default: 30s
	AlertVisibility time.Duration

	// TickPeriod is the interval between scheduler passes.
	// Default: 1m
	TickPeriod time.Duration

	// TickTimeout bounds the record fetch of a single pass.
	// Default: 30s
	TickTimeout time.Duration

	// DigestAt is the local HH:MM at which the daily digest is sent.
	// Empty disables the digest.
	DigestAt string
}

// HTTPConfig holds webhook HTTP client configuration.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	// Default: 30s
	Timeout time.Duration

	// MaxRetries is the maximum number of attempts per delivery.
	// Default: 3
	MaxRetries int

	// RetryDelays are the delays before each attempt.
	// Default: [0s, 5s, 30s]
	RetryDelays []time.Duration
}

// TelegramConfig holds the optional Telegram sink configuration.
type TelegramConfig struct {
	Token           string
	ChatID          int64
	DeleteOnDismiss bool
}

// Enabled reports whether a Telegram sink can be built.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	// StartupWait is the time to wait for the daemon to start before checking status.
	// Default: 500ms
	StartupWait time.Duration

	// KillTimeout is the timeout for graceful shutdown before force kill.
	// Default: 5s
	KillTimeout time.Duration
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Storage: StorageConfig{
			LockTimeout:  3 * time.Second,
			PollInterval: 2 * time.Second,
		},
		Scheduler: SchedulerConfig{
			AlertVisibility: 30 * time.Second,
			TickPeriod:      time.Minute,
			TickTimeout:     30 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelays: []time.Duration{
				0,
				5 * time.Second,
				30 * time.Second,
			},
		},
		Daemon: DaemonConfig{
			StartupWait: 500 * time.Millisecond,
			KillTimeout: 5 * time.Second,
		},
	}
}

// Global holds the global runtime configuration instance.
// It is initialized with defaults and can be overridden via environment variables.
var Global = initGlobal()

func initGlobal() *RuntimeConfig {
	// godotenv.Load does not override variables already set in the environment.
	_ = godotenv.Load()

	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()
	return cfg
}

func (c *RuntimeConfig) loadFromEnv() {
	if v := os.Getenv("MEDALERT_DATABASE"); v != "" {
		c.Storage.Database = v
	}
	if d, ok := envDuration("MEDALERT_LOCK_TIMEOUT"); ok && d >= 0 {
		c.Storage.LockTimeout = d
	}
	if d, ok := envDuration("MEDALERT_POLL_INTERVAL"); ok && d > 0 {
		c.Storage.PollInterval = d
	}

	// Scheduler configuration
	if d, ok := envDuration("MEDALERT_ALERT_VISIBILITY"); ok && d > 0 {
		c.Scheduler.AlertVisibility = d
	}
	if d, ok := envDuration("MEDALERT_TICK_PERIOD"); ok && d > 0 {
		c.Scheduler.TickPeriod = d
	}
	if d, ok := envDuration("MEDALERT_TICK_TIMEOUT"); ok && d > 0 {
		c.Scheduler.TickTimeout = d
	}
	if v, ok := os.LookupEnv("MEDALERT_DIGEST_AT"); ok {
		c.Scheduler.DigestAt = strings.TrimSpace(v)
	}

	// HTTP configuration
	if d, ok := envDuration("MEDALERT_HTTP_TIMEOUT"); ok {
		c.HTTP.Timeout = d
	}
	if v := os.Getenv("MEDALERT_HTTP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.HTTP.MaxRetries = n
		}
	}

	// Telegram configuration
	if v := os.Getenv("MEDALERT_TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("MEDALERT_TELEGRAM_CHAT_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = n
		}
	}
	if v := os.Getenv("MEDALERT_TELEGRAM_DELETE_ON_DISMISS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Telegram.DeleteOnDismiss = b
		}
	}

	// Daemon configuration
	if d, ok := envDuration("MEDALERT_DAEMON_STARTUP_WAIT"); ok {
		c.Daemon.StartupWait = d
	}
	if d, ok := envDuration("MEDALERT_DAEMON_KILL_TIMEOUT"); ok {
		c.Daemon.KillTimeout = d
	}
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// ReloadFromEnv reloads configuration from environment variables.
func (c *RuntimeConfig) ReloadFromEnv() {
	c.loadFromEnv()
}

// Reset resets the configuration to defaults.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}

package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"
)

// autostartApp describes the login entry that starts the daemon.
func autostartApp() (*autostart.App, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable path: %w", err)
	}

	return &autostart.App{
		Name:        AppName,
		DisplayName: "medalert reminders",
		Exec:        []string{execPath, "daemon", "start", "--foreground"},
	}, nil
}

// EnableAutostart starts the daemon on every login. Enabling twice is a
// no-op.
func EnableAutostart() error {
	app, err := autostartApp()
	if err != nil {
		return err
	}
	if app.IsEnabled() {
		return nil
	}
	if err := app.Enable(); err != nil {
		return fmt.Errorf("failed to enable autostart: %w", err)
	}
	return nil
}

// DisableAutostart removes the login entry.
func DisableAutostart() error {
	app, err := autostartApp()
	if err != nil {
		return err
	}
	if !app.IsEnabled() {
		return nil
	}
	if err := app.Disable(); err != nil {
		return fmt.Errorf("failed to disable autostart: %w", err)
	}
	return nil
}

// AutostartEnabled reports whether the login entry exists.
func AutostartEnabled() bool {
	app, err := autostartApp()
	if err != nil {
		return false
	}
	return app.IsEnabled()
}

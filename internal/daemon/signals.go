package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalHandler turns OS signals into shutdown and check requests.
// SIGINT and SIGTERM stop the daemon; SIGHUP asks for an immediate pass.
type SignalHandler struct {
	signals chan os.Signal
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler() *SignalHandler {
	return &SignalHandler{signals: make(chan os.Signal, 1)}
}

// Setup registers signal handlers.
func (h *SignalHandler) Setup() {
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

// Run blocks until a shutdown signal arrives or ctx is done. check is
// called for every SIGHUP.
func (h *SignalHandler) Run(ctx context.Context, check func()) os.Signal {
	for {
		select {
		case sig := <-h.signals:
			if sig == syscall.SIGHUP {
				if check != nil {
					check()
				}
				continue
			}
			return sig
		case <-ctx.Done():
			return nil
		}
	}
}

// Cleanup stops signal delivery.
func (h *SignalHandler) Cleanup() {
	signal.Stop(h.signals)
}

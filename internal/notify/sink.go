package notify

import (
	"context"

	"github.com/manav03panchal/medalert/internal/model"
)

// Sink presents alerts and withdraws them when they are dismissed or expire.
// Implementations must not block the caller for long.
type Sink interface {
	PresentAlert(ctx context.Context, e model.AlertEvent)
	DismissAlert(key model.AlertKey)
}

// MultiSink fans every call out to several sinks in order.
type MultiSink []Sink

// NewMultiSink creates a MultiSink, dropping nil sinks.
func NewMultiSink(sinks ...Sink) MultiSink {
	out := make(MultiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// PresentAlert presents e on every sink.
func (m MultiSink) PresentAlert(ctx context.Context, e model.AlertEvent) {
	for _, s := range m {
		if s != nil {
			s.PresentAlert(ctx, e)
		}
	}
}

// DismissAlert withdraws key on every sink.
func (m MultiSink) DismissAlert(key model.AlertKey) {
	for _, s := range m {
		if s != nil {
			s.DismissAlert(key)
		}
	}
}

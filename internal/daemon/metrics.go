package daemon

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/manav03panchal/medalert/internal/scheduler"
)

// Metrics tracks daemon operational metrics.
type Metrics struct {
	// Counters
	ticks            atomic.Int64
	ticksSkipped     atomic.Int64
	alertsEmitted    atomic.Int64
	alertsSuppressed atomic.Int64
	fetchFailures    atomic.Int64
	digestsSent      atomic.Int64

	mu                  sync.RWMutex
	lastTickAt          time.Time
	lastTickID          string
	lastAlertAt         time.Time
	lastError           string
	lastErrorAt         time.Time
	consecutiveFailures int
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// MetricsSnapshot represents a point-in-time view of metrics.
type MetricsSnapshot struct {
	TicksTotal            int64      `json:"ticks_total"`
	TicksSkippedTotal     int64      `json:"ticks_skipped_total"`
	AlertsEmittedTotal    int64      `json:"alerts_emitted_total"`
	AlertsSuppressedTotal int64      `json:"alerts_suppressed_total"`
	FetchFailuresTotal    int64      `json:"fetch_failures_total"`
	DigestsSentTotal      int64      `json:"digests_sent_total"`
	ConsecutiveFailures   int        `json:"consecutive_failures"`
	LastTickAt            *time.Time `json:"last_tick_at,omitempty"`
	LastTickID            string     `json:"last_tick_id,omitempty"`
	LastAlertAt           *time.Time `json:"last_alert_at,omitempty"`
	LastError             string     `json:"last_error,omitempty"`
	LastErrorAt           *time.Time `json:"last_error_at,omitempty"`
}

// Snapshot returns a copy of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		TicksTotal:            m.ticks.Load(),
		TicksSkippedTotal:     m.ticksSkipped.Load(),
		AlertsEmittedTotal:    m.alertsEmitted.Load(),
		AlertsSuppressedTotal: m.alertsSuppressed.Load(),
		FetchFailuresTotal:    m.fetchFailures.Load(),
		DigestsSentTotal:      m.digestsSent.Load(),
		ConsecutiveFailures:   m.consecutiveFailures,
		LastTickID:            m.lastTickID,
		LastError:             m.lastError,
	}
	if !m.lastTickAt.IsZero() {
		t := m.lastTickAt
		snap.LastTickAt = &t
	}
	if !m.lastAlertAt.IsZero() {
		t := m.lastAlertAt
		snap.LastAlertAt = &t
	}
	if !m.lastErrorAt.IsZero() {
		t := m.lastErrorAt
		snap.LastErrorAt = &t
	}
	return snap
}

// ObserveTick records one dispatcher pass. It is a scheduler.TickObserver.
func (m *Metrics) ObserveTick(r scheduler.TickReport) {
	m.ticks.Add(1)
	if r.Skipped != "" {
		m.ticksSkipped.Add(1)
	}
	m.alertsEmitted.Add(int64(len(r.Emitted)))
	m.alertsSuppressed.Add(int64(r.Suppressed))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastTickAt = r.At
	m.lastTickID = r.TickID
	if len(r.Emitted) > 0 {
		m.lastAlertAt = r.At
	}

	switch {
	case r.Err != nil:
		m.fetchFailures.Add(1)
		m.consecutiveFailures++
		m.lastError = r.Err.Error()
		m.lastErrorAt = r.At
	case r.Skipped == "":
		m.consecutiveFailures = 0
	}
}

// RecordDigest records a digest run.
func (m *Metrics) RecordDigest(at time.Time, err error) {
	if err == nil {
		m.digestsSent.Add(1)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
	m.lastErrorAt = at
}

// Ticks returns the total passes observed.
func (m *Metrics) Ticks() int64 {
	return m.ticks.Load()
}

// AlertsEmitted returns the total alerts presented.
func (m *Metrics) AlertsEmitted() int64 {
	return m.alertsEmitted.Load()
}

// FetchFailures returns the total failed record fetches.
func (m *Metrics) FetchFailures() int64 {
	return m.fetchFailures.Load()
}

package daemon

import "time"

// Health states reported by daemon status.
const (
	HealthHealthy  = "healthy"
	HealthWaiting  = "waiting"
	HealthStale    = "stale"
	HealthDegraded = "degraded"
)

// degradedAfter is the number of failed fetches in a row that marks the
// daemon degraded.
const degradedAfter = 3

// Health judges a running daemon from its last recorded metrics. period
// is the pass interval; passes start on the first minute boundary, so a
// fresh daemon is given one extra minute.
func Health(snap MetricsSnapshot, startedAt, now time.Time, period time.Duration) string {
	if period <= 0 {
		period = time.Minute
	}
	grace := 2*period + time.Minute

	if snap.LastTickAt == nil {
		if now.Sub(startedAt) < grace {
			return HealthWaiting
		}
		return HealthStale
	}
	if now.Sub(*snap.LastTickAt) > grace {
		return HealthStale
	}
	if snap.ConsecutiveFailures >= degradedAfter {
		return HealthDegraded
	}
	return HealthHealthy
}

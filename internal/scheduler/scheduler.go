// Package scheduler evaluates medication schedules and drives the alert
// and digest jobs of the daemon.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/medalert/internal/logging"
)

// Scheduler runs the alert dispatcher alongside cron jobs such as the
// daily digest.
type Scheduler struct {
	cron     *cron.Cron
	alerts   *AlertDispatcher
	digest   *DigestGenerator
	digestAt string
	digestID cron.EntryID
	timeout  time.Duration
	mu       sync.Mutex
	started  bool
}

// NewScheduler creates a scheduler around an alert dispatcher.
// A nil dispatcher runs cron jobs only.
func NewScheduler(alerts *AlertDispatcher) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		alerts:  alerts,
		timeout: time.Minute,
	}
}

// SetDigest schedules g at the local time of day at (HH:MM). An empty at
// disables the digest.
func (s *Scheduler) SetDigest(g *DigestGenerator, at string) error {
	if at != "" {
		if _, err := DigestSpec(at); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digest = g
	s.digestAt = at
	return nil
}

// DigestSpec converts HH:MM to a seconds-resolution cron spec.
func DigestSpec(at string) (string, error) {
	t, err := time.Parse(timeKeyLayout, at)
	if err != nil {
		return "", fmt.Errorf("invalid digest time %q: use HH:MM", at)
	}
	return fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour()), nil
}

// Start starts the dispatcher and the cron jobs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.alerts != nil {
		if err := s.alerts.Start(); err != nil {
			return fmt.Errorf("failed to start alerts: %w", err)
		}
	}

	if s.digest != nil && s.digestAt != "" {
		spec, err := DigestSpec(s.digestAt)
		if err != nil {
			return err
		}
		if s.digestID != 0 {
			s.cron.Remove(s.digestID)
		}
		digest := s.digest
		timeout := s.timeout
		id, err := s.cron.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := digest.Run(ctx); err != nil {
				logging.Warn("digest failed", logging.KeyError, err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to add digest job: %w", err)
		}
		s.digestID = id
	}

	s.cron.Start()
	s.started = true
	logging.DebugLog("scheduler started", logging.KeyCount, len(s.cron.Entries()))
	return nil
}

// Stop stops the dispatcher and waits for running cron jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alerts != nil {
		s.alerts.Stop()
	}
	if s.started {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.started = false
	}
	logging.DebugLog("scheduler stopped")
}

// Alerts returns the alert dispatcher.
func (s *Scheduler) Alerts() *AlertDispatcher {
	return s.alerts
}

// AddJob adds a custom job to the scheduler.
func (s *Scheduler) AddJob(spec string, job func()) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, job)
}

// RemoveJob removes a job from the scheduler.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.cron.Remove(id)
}

// Entries returns all scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextRun returns the next scheduled run time for any cron job.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

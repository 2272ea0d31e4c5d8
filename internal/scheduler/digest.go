package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/model"
)

// NotificationSender delivers a rendered notification to every configured
// endpoint.
type NotificationSender interface {
	Broadcast(ctx context.Context, n *model.Notification) error
}

// DigestGenerator builds the daily digest of active medications.
type DigestGenerator struct {
	source  RecordSource
	session SessionState
	sender  NotificationSender
	now     func() time.Time
}

// NewDigestGenerator creates a digest generator.
func NewDigestGenerator(source RecordSource, session SessionState, sender NotificationSender) *DigestGenerator {
	return &DigestGenerator{
		source:  source,
		session: session,
		sender:  sender,
		now:     time.Now,
	}
}

// Build renders the digest for the records active at now. It returns nil
// when nothing is active.
func (g *DigestGenerator) Build(records []*model.Medication, now time.Time) *model.Notification {
	var lines []string
	active := 0
	for _, m := range records {
		if !Classify(m, now).Active {
			continue
		}
		active++
		line := fmt.Sprintf("• %s (%s): %s", m.Name, m.Dose, strings.Join(m.Times(), ", "))
		if until, ok := m.ActiveUntil(now.Location()); ok {
			line += fmt.Sprintf(" until %s", until.Format("Jan 2"))
		}
		lines = append(lines, line)
	}
	if active == 0 {
		return nil
	}

	n := model.NewNotification(model.NotifyDigest, "Today's medications", strings.Join(lines, "\n")).
		WithField("Medications", fmt.Sprintf("%d", active)).
		WithColor(model.DefaultColorForType(model.NotifyDigest)).
		WithTimestamp(now)
	return n
}

// Run fetches the records and sends the digest. A missing session or an
// empty digest is not an error.
func (g *DigestGenerator) Run(ctx context.Context) error {
	if !g.session.IsSessionValidated() {
		logging.DebugLog("digest skipped", logging.KeyReason, "no_session")
		return nil
	}

	records, err := g.source.FetchActiveAccountRecords(ctx)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}

	n := g.Build(records, g.now())
	if n == nil {
		logging.DebugLog("digest skipped", logging.KeyReason, "no_active_records")
		return nil
	}

	if err := g.sender.Broadcast(ctx, n); err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	logging.Info("digest sent", logging.KeyCount, n.Fields["Medications"])
	return nil
}

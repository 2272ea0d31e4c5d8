package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*model.Notification
	err  error
}

func (s *fakeSender) Broadcast(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

// =============================================================================
// Digest Tests
// =============================================================================

func TestDigestBuild(t *testing.T) {
	g := NewDigestGenerator(&fakeSource{}, newSession(true), &fakeSender{})
	now := at(2, 7, 0)

	records := []*model.Medication{
		medication("a", at(1, 0, 0), 5, "08:00, 20:00"),
		medication("b", at(1, 0, 0), 0, "09:00"),
		nil,
	}

	n := g.Build(records, now)
	require.NotNil(t, n)
	assert.Equal(t, model.NotifyDigest, n.Type)
	assert.Equal(t, "Today's medications", n.Title)
	assert.Equal(t, "• Med a (1 pill): 08:00, 20:00 until Mar 6", n.Message)
	assert.Equal(t, "1", n.Fields["Medications"])
	assert.Equal(t, model.ColorInfo, n.Color)
	assert.Equal(t, now, n.Timestamp)
}

func TestDigestBuildNothingActive(t *testing.T) {
	g := NewDigestGenerator(&fakeSource{}, newSession(true), &fakeSender{})
	assert.Nil(t, g.Build(nil, at(1, 7, 0)))
	assert.Nil(t, g.Build([]*model.Medication{medication("a", at(1, 0, 0), 1, "08:00")}, at(5, 7, 0)))
}

func TestDigestRun(t *testing.T) {
	source := &fakeSource{}
	source.Set(
		medication("a", at(1, 0, 0), 5, "08:00"),
		medication("b", at(1, 0, 0), 5, "12:00"),
	)
	sender := &fakeSender{}
	g := NewDigestGenerator(source, newSession(true), sender)
	g.now = func() time.Time { return at(2, 7, 0) }

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, 2, strings.Count(sender.sent[0].Message, "•"))
}

func TestDigestRunSkips(t *testing.T) {
	t.Run("no_session", func(t *testing.T) {
		source := &fakeSource{}
		sender := &fakeSender{}
		g := NewDigestGenerator(source, newSession(false), sender)

		require.NoError(t, g.Run(context.Background()))
		assert.Zero(t, source.Calls())
		assert.Empty(t, sender.sent)
	})

	t.Run("no_active_records", func(t *testing.T) {
		sender := &fakeSender{}
		g := NewDigestGenerator(&fakeSource{}, newSession(true), sender)

		require.NoError(t, g.Run(context.Background()))
		assert.Empty(t, sender.sent)
	})
}

func TestDigestRunErrors(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		source := &fakeSource{err: merrors.NewRetrievalError(errors.New("gone"))}
		g := NewDigestGenerator(source, newSession(true), &fakeSender{})

		err := g.Run(context.Background())
		require.Error(t, err)
		assert.True(t, merrors.IsRetrievalError(err))
		assert.Contains(t, err.Error(), "digest:")
	})

	t.Run("broadcast", func(t *testing.T) {
		source := &fakeSource{}
		source.Set(medication("a", at(1, 0, 0), 5, "08:00"))
		sender := &fakeSender{err: errors.New("webhook down")}
		g := NewDigestGenerator(source, newSession(true), sender)
		g.now = func() time.Time { return at(2, 7, 0) }

		err := g.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "webhook down")
	})
}

// =============================================================================
// Scheduler Tests
// =============================================================================

func TestDigestSpec(t *testing.T) {
	spec, err := DigestSpec("07:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 7 * * *", spec)

	spec, err = DigestSpec("00:00")
	require.NoError(t, err)
	assert.Equal(t, "0 0 0 * * *", spec)

	for _, bad := range []string{"", "7:3", "25:00", "noon"} {
		_, err := DigestSpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerSetDigest(t *testing.T) {
	s := NewScheduler(nil)
	g := NewDigestGenerator(&fakeSource{}, newSession(true), &fakeSender{})

	assert.Error(t, s.SetDigest(g, "bogus"))
	assert.NoError(t, s.SetDigest(g, "08:15"))
	assert.NoError(t, s.SetDigest(g, ""))
}

func TestSchedulerStartStop(t *testing.T) {
	h := newHarness(t, clockAt(1, 10, 0, 30))
	s := NewScheduler(h.d)
	require.NoError(t, s.SetDigest(NewDigestGenerator(h.source, h.session, &fakeSender{}), "08:00"))

	require.NoError(t, s.Start())
	assert.True(t, h.d.Running())
	assert.Len(t, s.Entries(), 1)
	assert.False(t, s.NextRun().IsZero())
	assert.Same(t, h.d, s.Alerts())

	// A second Start is a no-op.
	require.NoError(t, s.Start())
	assert.Len(t, s.Entries(), 1)

	s.Stop()
	assert.False(t, h.d.Running())

	// Restarting keeps a single digest entry.
	require.NoError(t, s.Start())
	assert.Len(t, s.Entries(), 1)
	s.Stop()
}

func TestSchedulerStartWithoutSession(t *testing.T) {
	h := newHarness(t, clockAt(1, 10, 0, 30))
	h.session.valid.Store(false)
	s := NewScheduler(h.d)

	err := s.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, merrors.ErrSessionNotValidated)
}

func TestSchedulerCustomJobs(t *testing.T) {
	s := NewScheduler(nil)
	assert.True(t, s.NextRun().IsZero())

	id, err := s.AddJob("@every 1h", func() {})
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)

	_, err = s.AddJob("not a spec", func() {})
	assert.Error(t, err)

	s.RemoveJob(id)
	assert.Empty(t, s.Entries())
}

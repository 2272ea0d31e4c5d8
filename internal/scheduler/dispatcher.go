package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/model"
)

// RecordSource returns a point-in-time snapshot of the signed-in account's
// medications.
type RecordSource interface {
	FetchActiveAccountRecords(ctx context.Context) ([]*model.Medication, error)
}

// SessionState reports whether a validated session is active.
type SessionState interface {
	IsSessionValidated() bool
}

// AlertSink presents and withdraws alerts. Calls are fire-and-forget.
type AlertSink interface {
	PresentAlert(ctx context.Context, event model.AlertEvent)
	DismissAlert(key model.AlertKey)
}

// SkipReason explains why a pass emitted nothing without evaluating records.
type SkipReason string

// Skip reasons.
const (
	SkipOverlap   SkipReason = "overlap"
	SkipNoSession SkipReason = "no_session"
	SkipStale     SkipReason = "stale"
)

// TickReport summarizes one evaluation pass.
type TickReport struct {
	TickID     string
	At         time.Time
	Skipped    SkipReason
	Records    int
	Emitted    []model.AlertEvent
	Suppressed int
	Err        error
}

// TickObserver is called after every pass, including skipped ones.
type TickObserver func(TickReport)

const (
	defaultVisibility = 30 * time.Second
	defaultPeriod     = time.Minute
)

type liveAlert struct {
	id    uint64
	event model.AlertEvent
	timer Timer
}

// AlertDispatcher wakes on minute boundaries, classifies every record and
// emits each due or upcoming alert once while it is live.
type AlertDispatcher struct {
	source   RecordSource
	session  SessionState
	sink     AlertSink
	clock    Clock
	logger   *slog.Logger
	observer TickObserver

	visibility  time.Duration
	period      time.Duration
	tickTimeout time.Duration

	mu         sync.Mutex
	live       map[model.AlertKey]*liveAlert
	nextID     uint64
	running    bool
	timer      Timer
	generation uint64

	inFlight atomic.Bool
}

// Option configures an AlertDispatcher.
type Option func(*AlertDispatcher)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(d *AlertDispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithVisibility sets how long an alert stays live before it expires.
func WithVisibility(v time.Duration) Option {
	return func(d *AlertDispatcher) {
		if v > 0 {
			d.visibility = v
		}
	}
}

// WithPeriod sets the interval between passes after the first one.
func WithPeriod(p time.Duration) Option {
	return func(d *AlertDispatcher) {
		if p > 0 {
			d.period = p
		}
	}
}

// WithTickTimeout bounds the record fetch of each pass. Zero means no bound.
func WithTickTimeout(t time.Duration) Option {
	return func(d *AlertDispatcher) {
		d.tickTimeout = t
	}
}

// WithLogger sets the logger. The package default logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(d *AlertDispatcher) {
		d.logger = l
	}
}

// WithTickObserver registers a callback that receives every TickReport.
func WithTickObserver(o TickObserver) Option {
	return func(d *AlertDispatcher) {
		d.observer = o
	}
}

// NewAlertDispatcher creates a stopped dispatcher.
func NewAlertDispatcher(source RecordSource, session SessionState, sink AlertSink, opts ...Option) *AlertDispatcher {
	d := &AlertDispatcher{
		source:     source,
		session:    session,
		sink:       sink,
		clock:      SystemClock{},
		visibility: defaultVisibility,
		period:     defaultPeriod,
		live:       make(map[model.AlertKey]*liveAlert),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start arms the driver: the first pass runs on the next minute boundary,
// then one pass runs every period. Starting a running dispatcher is a no-op.
func (d *AlertDispatcher) Start() error {
	if !d.session.IsSessionValidated() {
		return merrors.ErrSessionNotValidated
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}
	d.running = true
	d.generation++
	gen := d.generation

	delay := DelayUntilNextMinute(d.clock.Now())
	d.timer = d.clock.AfterFunc(delay, func() { d.fire(gen) })
	d.log(context.Background()).Debug("dispatcher started", logging.KeyDelay, delay.String())
	return nil
}

// Stop cancels the pending first pass or the recurring timer. A pass whose
// fetch is in flight discards its result.
func (d *AlertDispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	d.running = false
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.log(context.Background()).Debug("dispatcher stopped")
}

// Running reports whether the periodic driver is armed.
func (d *AlertDispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// fire runs a timer-driven pass. The next timer is armed first so a slow
// pass does not shift the schedule.
func (d *AlertDispatcher) fire(gen uint64) {
	d.mu.Lock()
	if !d.running || d.generation != gen {
		d.mu.Unlock()
		return
	}
	d.timer = d.clock.AfterFunc(d.period, func() { d.fire(gen) })
	d.mu.Unlock()

	d.Tick(context.Background())
}

// Tick runs one evaluation pass.
func (d *AlertDispatcher) Tick(ctx context.Context) TickReport {
	tickID := logging.GenerateRequestID()
	ctx = logging.WithTickID(ctx, tickID)
	log := d.log(ctx)

	report := TickReport{TickID: tickID, At: d.clock.Now()}
	defer func() {
		if d.observer != nil {
			d.observer(report)
		}
	}()

	if !d.inFlight.CompareAndSwap(false, true) {
		report.Skipped = SkipOverlap
		log.Debug("tick skipped", logging.KeyReason, string(report.Skipped))
		return report
	}
	defer d.inFlight.Store(false)

	if !d.session.IsSessionValidated() {
		report.Skipped = SkipNoSession
		log.Debug("tick skipped", logging.KeyReason, string(report.Skipped))
		return report
	}

	d.mu.Lock()
	gen := d.generation
	d.mu.Unlock()

	records, err := d.fetch(ctx)
	if err != nil {
		report.Err = err
		log.Warn("record fetch failed", logging.KeyError, err)
		return report
	}

	d.mu.Lock()
	stale := d.generation != gen
	d.mu.Unlock()
	if stale || !d.session.IsSessionValidated() {
		report.Skipped = SkipStale
		log.Debug("tick skipped", logging.KeyReason, string(report.Skipped))
		return report
	}

	report.Records = len(records)
	now := report.At
	nowKey := TimeKey(now)
	for _, m := range records {
		c := Classify(m, now)
		if c.DueNow {
			d.emit(ctx, model.NewAlertEvent(m, model.AlertDue, nowKey, now), &report)
		}
		if c.DueSoon {
			d.emit(ctx, model.NewAlertEvent(m, model.AlertUpcoming, nowKey, now), &report)
		}
	}

	log.Debug("tick complete",
		logging.KeyCount, report.Records,
		"emitted", len(report.Emitted),
		"suppressed", report.Suppressed,
	)
	return report
}

func (d *AlertDispatcher) fetch(ctx context.Context) ([]*model.Medication, error) {
	if d.tickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.tickTimeout)
		defer cancel()
	}

	records, err := d.source.FetchActiveAccountRecords(ctx)
	if err != nil && !merrors.IsRetrievalError(err) {
		err = merrors.NewRetrievalError(err)
	}
	return records, err
}

// emit admits the event into the live set and presents it. Events whose
// key is already live are suppressed.
func (d *AlertDispatcher) emit(ctx context.Context, event model.AlertEvent, report *TickReport) {
	key := event.Key()

	d.mu.Lock()
	if _, ok := d.live[key]; ok {
		d.mu.Unlock()
		report.Suppressed++
		return
	}
	d.nextID++
	entry := &liveAlert{id: d.nextID, event: event}
	d.live[key] = entry
	d.mu.Unlock()

	d.log(ctx).Info("alert emitted",
		logging.KeyMedication, event.RecordKey,
		logging.KeyAlertKind, string(event.Kind),
		logging.KeyMinute, event.FiredAtMinute,
	)
	d.sink.PresentAlert(ctx, event)
	report.Emitted = append(report.Emitted, event)

	// The sink may have dismissed the alert synchronously.
	d.mu.Lock()
	if cur, ok := d.live[key]; ok && cur.id == entry.id {
		id := entry.id
		entry.timer = d.clock.AfterFunc(d.visibility, func() { d.expire(key, id) })
	}
	d.mu.Unlock()
}

func (d *AlertDispatcher) expire(key model.AlertKey, id uint64) {
	d.mu.Lock()
	cur, ok := d.live[key]
	if !ok || cur.id != id {
		d.mu.Unlock()
		return
	}
	delete(d.live, key)
	d.mu.Unlock()

	d.log(context.Background()).Debug("alert expired", logging.KeyAlertKey, key.String())
	d.sink.DismissAlert(key)
}

// Dismiss withdraws a live alert. It reports false when the key is not live.
func (d *AlertDispatcher) Dismiss(key model.AlertKey) bool {
	d.mu.Lock()
	cur, ok := d.live[key]
	if !ok {
		d.mu.Unlock()
		return false
	}
	delete(d.live, key)
	if cur.timer != nil {
		cur.timer.Stop()
	}
	d.mu.Unlock()

	d.log(context.Background()).Debug("alert dismissed", logging.KeyAlertKey, key.String())
	d.sink.DismissAlert(key)
	return true
}

// DismissAll withdraws every live alert and returns how many there were.
func (d *AlertDispatcher) DismissAll() int {
	n := 0
	for _, e := range d.LiveAlerts() {
		if d.Dismiss(e.Key()) {
			n++
		}
	}
	return n
}

// LiveAlerts returns the live alerts ordered by emission time, then key.
func (d *AlertDispatcher) LiveAlerts() []model.AlertEvent {
	d.mu.Lock()
	events := make([]model.AlertEvent, 0, len(d.live))
	for _, e := range d.live {
		events = append(events, e.event)
	}
	d.mu.Unlock()

	sort.Slice(events, func(i, j int) bool {
		if !events[i].At.Equal(events[j].At) {
			return events[i].At.Before(events[j].At)
		}
		return events[i].Key().String() < events[j].Key().String()
	})
	return events
}

// IsLive reports whether key is currently live.
func (d *AlertDispatcher) IsLive(key model.AlertKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.live[key]
	return ok
}

func (d *AlertDispatcher) log(ctx context.Context) *logging.ContextLogger {
	return logging.Bind(ctx, d.logger)
}

package storage

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/model"
)

// lockRetryDelay is the pause between attempts while another process holds
// the database directory.
const lockRetryDelay = 50 * time.Millisecond

// OpenWait opens the database, retrying for up to timeout while another
// process holds the directory lock.
func OpenWait(opts Options, timeout time.Duration) (*DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := Open(opts)
		if err == nil || !merrors.Is(err, merrors.ErrLockHeld) || !time.Now().Before(deadline) {
			return db, err
		}
		time.Sleep(lockRetryDelay)
	}
}

// Shared gives long-running processes access to a database directory
// without holding it. Every operation opens the database, runs and closes
// it again, so CLI writers get in between. In-memory databases stay open.
type Shared struct {
	opts    Options
	timeout time.Duration

	mu  sync.Mutex
	mem *DB
}

// NewShared creates a shared store. timeout bounds how long an operation
// waits for the directory lock.
func NewShared(opts Options, timeout time.Duration) *Shared {
	return &Shared{opts: opts, timeout: timeout}
}

// NewSharedMemory wraps an open in-memory database. Close closes it.
func NewSharedMemory(db *DB) *Shared {
	return &Shared{opts: Options{InMemory: true}, mem: db}
}

// Do runs fn against an open database. Calls are serialized within the
// process.
func (s *Shared) Do(fn func(db *DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.InMemory || s.opts.Path == "" {
		if s.mem == nil {
			db, err := Open(s.opts)
			if err != nil {
				return err
			}
			s.mem = db
		}
		return fn(s.mem)
	}

	db, err := OpenWait(s.opts, s.timeout)
	if err != nil {
		return err
	}
	ferr := fn(db)
	if cerr := db.Close(); ferr == nil && cerr != nil {
		return fmt.Errorf("close database: %w", cerr)
	}
	return ferr
}

// Close releases an in-memory database. On-disk stores hold nothing
// between operations.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem == nil {
		return nil
	}
	err := s.mem.Close()
	s.mem = nil
	return err
}

// Records returns the signed-in account's record source over s.
func (s *Shared) Records() *SharedRecords {
	return &SharedRecords{store: s}
}

// Webhooks returns webhook storage over s.
func (s *Shared) Webhooks() *SharedWebhooks {
	return &SharedWebhooks{store: s}
}

// SharedRecords is AccountRecords for a store that is opened per call.
type SharedRecords struct {
	store *Shared
}

// FetchActiveAccountRecords reads the signed-in account's medications.
// A database held past the lock timeout is a RetrievalError like any
// other failure.
func (r *SharedRecords) FetchActiveAccountRecords(ctx context.Context) ([]*model.Medication, error) {
	var meds []*model.Medication
	err := r.store.Do(func(db *DB) error {
		var err error
		meds, err = NewAccountRecords(NewSessionRepo(db), NewMedicationRepo(db)).FetchActiveAccountRecords(ctx)
		return err
	})
	if err != nil && !merrors.IsRetrievalError(err) {
		err = merrors.NewRetrievalError(err)
	}
	return meds, err
}

// IsSessionValidated reports whether a validated session exists. An
// unreadable store counts as not validated.
func (r *SharedRecords) IsSessionValidated() bool {
	validated := false
	err := r.store.Do(func(db *DB) error {
		validated = NewSessionRepo(db).IsSessionValidated()
		return nil
	})
	if err != nil {
		logging.DebugLog("session check failed", logging.KeyError, err)
	}
	return validated
}

// ActiveAccount returns the account of the validated session.
func (r *SharedRecords) ActiveAccount() (string, error) {
	var account string
	err := r.store.Do(func(db *DB) error {
		var err error
		account, err = NewSessionRepo(db).ActiveAccount()
		return err
	})
	return account, err
}

// SharedWebhooks is WebhookRepo for a store that is opened per call.
type SharedWebhooks struct {
	store *Shared
}

// Get retrieves a webhook by name.
func (w *SharedWebhooks) Get(name string) (*model.Webhook, error) {
	var wh *model.Webhook
	err := w.store.Do(func(db *DB) error {
		var err error
		wh, err = NewWebhookRepo(db).Get(name)
		return err
	})
	return wh, err
}

// ListEnabled retrieves all enabled webhooks.
func (w *SharedWebhooks) ListEnabled() ([]*model.Webhook, error) {
	var hooks []*model.Webhook
	err := w.store.Do(func(db *DB) error {
		var err error
		hooks, err = NewWebhookRepo(db).ListEnabled()
		return err
	})
	return hooks, err
}

// UpdateLastUsed records the outcome of a delivery.
func (w *SharedWebhooks) UpdateLastUsed(name string, lastErr error) error {
	return w.store.Do(func(db *DB) error {
		return NewWebhookRepo(db).UpdateLastUsed(name, lastErr)
	})
}

// PollMedications calls fn with the account's medications now and again
// whenever a reload every interval finds them changed. Reloads that find
// the store locked are retried on the next interval. It blocks until ctx
// is done and then returns nil.
func (s *Shared) PollMedications(ctx context.Context, account string, interval time.Duration, fn func([]*model.Medication)) error {
	load := func() ([]*model.Medication, error) {
		var meds []*model.Medication
		err := s.Do(func(db *DB) error {
			var err error
			meds, err = NewMedicationRepo(db).ListByAccount(account)
			return err
		})
		return meds, err
	}

	last, err := load()
	if err != nil {
		return err
	}
	fn(last)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		meds, err := load()
		if err != nil {
			if merrors.Is(err, merrors.ErrLockHeld) {
				logging.DebugLog("medication poll skipped", logging.KeyAccount, account, logging.KeyError, err)
				continue
			}
			return err
		}
		if reflect.DeepEqual(meds, last) {
			continue
		}
		last = meds
		fn(meds)
	}
}

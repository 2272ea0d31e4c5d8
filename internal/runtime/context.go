// Package runtime provides the per-command runtime context for medalert.
package runtime

import (
	"time"

	"github.com/manav03panchal/medalert/internal/config"
	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/output"
	"github.com/manav03panchal/medalert/internal/storage"
)

// Context holds the application runtime context.
type Context struct {
	DB        *storage.DB
	Formatter *output.Formatter

	// Repositories
	MedicationRepo *storage.MedicationRepo
	SessionRepo    *storage.SessionRepo
	WebhookRepo    *storage.WebhookRepo

	// Records is the record source of the signed-in account.
	Records *storage.AccountRecords

	Debug bool

	// Now is the wall clock; tests replace it.
	Now func() time.Time

	storeOpts   storage.Options
	lockTimeout time.Duration
}

// Options configures the runtime context.
type Options struct {
	DBPath    string
	InMemory  bool
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		DBPath:    storage.DefaultPath(),
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// StorageOptions resolves the database location of opts. MEDALERT_DATABASE
// overrides it.
func StorageOptions(opts Options) storage.Options {
	if st := config.Global.Storage; st.Database != "" {
		if st.InMemory() {
			opts.InMemory = true
		} else {
			opts.DBPath = st.Database
		}
	}
	return storage.Options{Path: opts.DBPath, InMemory: opts.InMemory}
}

// New creates a new runtime context. It waits up to the configured lock
// timeout while a daemon pass holds the database.
func New(opts Options) (*Context, error) {
	storeOpts := StorageOptions(opts)
	lockTimeout := config.Global.Storage.LockTimeout

	db, err := storage.OpenWait(storeOpts, lockTimeout)
	if err != nil {
		return nil, err
	}

	meds := storage.NewMedicationRepo(db)
	sessions := storage.NewSessionRepo(db)

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	return &Context{
		DB:             db,
		Formatter:      formatter,
		MedicationRepo: meds,
		SessionRepo:    sessions,
		WebhookRepo:    storage.NewWebhookRepo(db),
		Records:        storage.NewAccountRecords(sessions, meds),
		Debug:          opts.Debug,
		Now:            time.Now,
		storeOpts:      storeOpts,
		lockTimeout:    lockTimeout,
	}, nil
}

// Share hands the database over to a store that opens it per operation,
// for commands that keep running. The context's repositories must not be
// used afterwards. The caller closes the returned store.
func (c *Context) Share() (*storage.Shared, error) {
	if c.storeOpts.InMemory || c.storeOpts.Path == "" {
		store := storage.NewSharedMemory(c.DB)
		c.DB = nil
		return store, nil
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return nil, err
		}
		c.DB = nil
	}
	return storage.NewShared(c.storeOpts, c.lockTimeout), nil
}

// Close closes the runtime context.
func (c *Context) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.IsJSON()
}

// IsCLI returns true if output format is CLI.
func (c *Context) IsCLI() bool {
	return c.Formatter.Format == output.FormatCLI
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...interface{}) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}

// RequireSession returns the validated session or ErrNoActiveSession.
func (c *Context) RequireSession() (*model.Session, error) {
	s, err := c.SessionRepo.Get()
	if err != nil {
		return nil, err
	}
	if !s.IsValidated() {
		return nil, merrors.ErrNoActiveSession
	}
	return s, nil
}

// ResolveMedication finds a medication of the signed-in account by a
// prefix of its ID.
func (c *Context) ResolveMedication(shortID string) (*model.Medication, error) {
	s, err := c.RequireSession()
	if err != nil {
		return nil, err
	}
	m, err := c.MedicationRepo.GetByShortID(s.Account, shortID)
	if merrors.Is(err, merrors.ErrMedicationNotFound) || merrors.Is(err, merrors.ErrAmbiguousID) {
		return nil, merrors.NewFieldError(err, "id", shortID, "")
	}
	return m, err
}

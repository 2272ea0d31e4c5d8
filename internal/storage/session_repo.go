package storage

import (
	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
)

// SessionRepo stores the single signed-in session of this device.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Get returns the current session. It returns ErrNoActiveSession when
// nobody is signed in.
func (r *SessionRepo) Get() (*model.Session, error) {
	s := &model.Session{}
	if err := r.db.Get(model.KeySession, s); err != nil {
		if IsErrKeyNotFound(err) {
			return nil, merrors.ErrNoActiveSession
		}
		return nil, err
	}
	return s, nil
}

// Start signs account in, replacing any previous session.
func (r *SessionRepo) Start(account string) (*model.Session, error) {
	s := model.NewSession(account)
	if err := r.db.Set(s); err != nil {
		return nil, err
	}
	return s, nil
}

// End signs out. Ending without a session is not an error.
func (r *SessionRepo) End() error {
	return r.db.Delete(model.KeySession)
}

// IsSessionValidated reports whether a validated session exists.
// Storage errors count as not validated.
func (r *SessionRepo) IsSessionValidated() bool {
	s, err := r.Get()
	if err != nil {
		return false
	}
	return s.IsValidated()
}

// ActiveAccount returns the account of the validated session.
func (r *SessionRepo) ActiveAccount() (string, error) {
	s, err := r.Get()
	if err != nil {
		return "", err
	}
	if !s.IsValidated() {
		return "", merrors.ErrSessionNotValidated
	}
	return s.Account, nil
}

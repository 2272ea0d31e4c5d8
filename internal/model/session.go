package model

import "time"

// KeySession is the database key of the single active session.
const KeySession = "session"

// Session records which account is signed in on this device.
type Session struct {
	Key       string    `json:"key"`
	Account   string    `json:"account" validate:"required,max=64"`
	Validated bool      `json:"validated"`
	StartedAt time.Time `json:"started_at"`
}

// SetKey sets the database key for this session.
func (s *Session) SetKey(key string) {
	s.Key = key
}

// GetKey returns the database key for this session.
func (s *Session) GetKey() string {
	return s.Key
}

// IsValidated reports whether the session belongs to an account and has
// been validated.
func (s *Session) IsValidated() bool {
	return s != nil && s.Validated && s.Account != ""
}

// NewSession creates a validated session for account.
func NewSession(account string) *Session {
	return &Session{
		Key:       KeySession,
		Account:   account,
		Validated: true,
		StartedAt: time.Now(),
	}
}

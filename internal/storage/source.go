package storage

import (
	"context"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
)

// AccountRecords serves the medications of whichever account is signed in.
// It is the record source the alert dispatcher polls.
type AccountRecords struct {
	sessions *SessionRepo
	meds     *MedicationRepo
}

// NewAccountRecords creates a record source over the given repositories.
func NewAccountRecords(sessions *SessionRepo, meds *MedicationRepo) *AccountRecords {
	return &AccountRecords{sessions: sessions, meds: meds}
}

// FetchActiveAccountRecords returns a snapshot of the signed-in account's
// medications. Every failure is reported as a RetrievalError.
func (a *AccountRecords) FetchActiveAccountRecords(ctx context.Context) ([]*model.Medication, error) {
	if err := ctx.Err(); err != nil {
		return nil, merrors.NewRetrievalError(err)
	}

	account, err := a.sessions.ActiveAccount()
	if err != nil {
		if merrors.Is(err, merrors.ErrSessionNotValidated) {
			err = merrors.ErrNoActiveSession
		}
		return nil, merrors.NewRetrievalError(err)
	}

	meds, err := a.meds.ListByAccount(account)
	if err != nil {
		return nil, merrors.NewRetrievalError(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, merrors.NewRetrievalError(err)
	}
	return meds, nil
}

// IsSessionValidated reports whether a validated session exists.
func (a *AccountRecords) IsSessionValidated() bool {
	return a.sessions.IsSessionValidated()
}

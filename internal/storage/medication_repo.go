package storage

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	merrors "github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
)

// MedicationRepo provides operations for Medication entities.
type MedicationRepo struct {
	db  *DB
	now func() time.Time
}

// NewMedicationRepo creates a new medication repository.
func NewMedicationRepo(db *DB) *MedicationRepo {
	return &MedicationRepo{db: db, now: time.Now}
}

// Create stores a new medication under a generated key.
// CreatedAt is stamped with the current time unless the caller backdated it.
func (r *MedicationRepo) Create(m *model.Medication) error {
	if m.Key == "" {
		m.Key = model.GenerateMedicationKey(m.Account, uuid.New().String())
	}
	now := r.now()
	if m.CreatedAt == nil {
		created := now
		m.CreatedAt = &created
	}
	m.UpdatedAt = now
	return r.db.Set(m)
}

// Get retrieves a medication by key.
func (r *MedicationRepo) Get(key string) (*model.Medication, error) {
	m := &model.Medication{}
	if err := r.db.Get(key, m); err != nil {
		if IsErrKeyNotFound(err) {
			return nil, merrors.ErrMedicationNotFound
		}
		return nil, err
	}
	return m, nil
}

// GetByShortID retrieves an account's medication by a prefix of its UUID.
func (r *MedicationRepo) GetByShortID(account, shortID string) (*model.Medication, error) {
	shortID = strings.ToLower(strings.TrimSpace(shortID))
	if shortID == "" {
		return nil, merrors.ErrMedicationNotFound
	}

	meds, err := r.ListByAccount(account)
	if err != nil {
		return nil, err
	}

	prefix := model.MedicationPrefix(account)
	var matches []*model.Medication
	for _, m := range meds {
		if strings.HasPrefix(strings.TrimPrefix(m.Key, prefix), shortID) {
			matches = append(matches, m)
		}
	}

	switch len(matches) {
	case 0:
		return nil, merrors.ErrMedicationNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, merrors.ErrAmbiguousID
	}
}

// ListByAccount retrieves an account's medications, newest first.
func (r *MedicationRepo) ListByAccount(account string) ([]*model.Medication, error) {
	meds, err := GetAllByPrefix(r.db, model.MedicationPrefix(account), func() *model.Medication {
		return &model.Medication{}
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(meds, func(i, j int) bool {
		return createdAt(meds[i]).After(createdAt(meds[j]))
	})
	return meds, nil
}

// Update replaces a stored medication. The stored creation time is kept
// whatever the caller passes in.
func (r *MedicationRepo) Update(m *model.Medication) error {
	existing, err := r.Get(m.Key)
	if err != nil {
		return err
	}
	m.CreatedAt = existing.CreatedAt
	m.Account = existing.Account
	m.UpdatedAt = r.now()
	return r.db.Set(m)
}

// Delete removes a medication by key.
func (r *MedicationRepo) Delete(key string) error {
	exists, err := r.db.Exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return merrors.ErrMedicationNotFound
	}
	return r.db.Delete(key)
}

func createdAt(m *model.Medication) time.Time {
	if m.CreatedAt == nil {
		return time.Time{}
	}
	return *m.CreatedAt
}

package store

import (
	"slices"
	"strings"
	"time"

	"medistock/m/domain"
	"medistock/m/internal/id"
)

// AddMedicine creates a stock record owned by the session user.
// Identifier, owner and timestamps are assigned here regardless of what
// the input carries.
func (s *Store) AddMedicine(sess *Session, med domain.Medicine) (domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return domain.Medicine{}, err
	}
	if strings.TrimSpace(med.Name) == "" {
		return domain.Medicine{}, &ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(med.BatchNo) == "" {
		return domain.Medicine{}, &ValidationError{Field: "batch_no", Reason: "is required"}
	}
	if med.Quantity < 0 {
		return domain.Medicine{}, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if med.MRP.IsNegative() {
		return domain.Medicine{}, &ValidationError{Field: "mrp", Reason: "must not be negative"}
	}

	now := time.Now().UTC()
	med.ID = id.New()
	med.OwnerID = owner.ID
	med.CreatedAt = now
	med.UpdatedAt = now

	next := append(slices.Clone(s.medicines), med)
	if err := s.persist(keyMedicines, next); err != nil {
		return domain.Medicine{}, err
	}
	s.medicines = next
	return med, nil
}

// GetMedicines lists the session user's medicines in creation order.
func (s *Store) GetMedicines(sess *Session) ([]domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return nil, err
	}
	out := []domain.Medicine{}
	for _, m := range s.medicines {
		if m.OwnerID == owner.ID {
			out = append(out, m)
		}
	}
	return out, nil
}

// UpdateMedicine merges the patch into the session user's medicine with
// the given id and refreshes its update timestamp. A quantity patch may
// not take the stock negative.
func (s *Store) UpdateMedicine(sess *Session, medicineID string, patch domain.MedicinePatch) (domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return domain.Medicine{}, err
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return domain.Medicine{}, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	idx := -1
	for i, m := range s.medicines {
		if m.ID == medicineID && m.OwnerID == owner.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Medicine{}, ErrNotFound
	}

	next := slices.Clone(s.medicines)
	next[idx] = patch.Apply(next[idx])
	next[idx].UpdatedAt = time.Now().UTC()
	if err := s.persist(keyMedicines, next); err != nil {
		return domain.Medicine{}, err
	}
	s.medicines = next
	return next[idx], nil
}

// DeleteMedicine removes the session user's medicine with the given id.
// It reports false, with the collection untouched, when no such record
// exists.
func (s *Store) DeleteMedicine(sess *Session, medicineID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.requireSession(sess)
	if err != nil {
		return false, err
	}

	idx := -1
	for i, m := range s.medicines {
		if m.ID == medicineID && m.OwnerID == owner.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	next := slices.Delete(slices.Clone(s.medicines), idx, idx+1)
	if err := s.persist(keyMedicines, next); err != nil {
		return false, err
	}
	s.medicines = next
	return true, nil
}

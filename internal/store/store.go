// Package store owns the five collections (users, medicines, sales,
// customers and the session pointer) and every operation on them. All
// state lives in memory; every mutation is serialized and written to
// the blob store before it is committed, so a failed write never leaves
// memory ahead of disk.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"medistock/m/domain"
	"medistock/m/internal/blob"
)

// Blob keys, one per collection plus the session pointer.
const (
	keyUsers     = "medistock_users"
	keyMedicines = "medistock_medicines"
	keySales     = "medistock_sales"
	keyCustomers = "medistock_customers"
	keySession   = "medistock_session"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrNoSession         = errors.New("no active session")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError reports a rejected input field with a user-facing
// reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Session identifies an authenticated user. Every owner-scoped
// operation takes one explicitly; there is no process-global current
// user, so one store can serve many sessions at once.
type Session struct {
	UserID string `json:"user_id"`
}

// Store holds the collections and the blob store they persist to.
// Operations lock the whole store for their read-modify-write cycle;
// that is what keeps concurrent checkouts from overselling stock.
type Store struct {
	mu    sync.Mutex
	blobs blob.Store

	users     []domain.User
	medicines []domain.Medicine
	sales     []domain.Sale
	customers []domain.Customer
	current   *Session
}

// Open loads all collections and the persisted session pointer from the
// blob store. A missing blob is an empty collection.
func Open(blobs blob.Store) (*Store, error) {
	s := &Store{blobs: blobs}
	if err := load(blobs, keyUsers, &s.users); err != nil {
		return nil, err
	}
	if err := load(blobs, keyMedicines, &s.medicines); err != nil {
		return nil, err
	}
	if err := load(blobs, keySales, &s.sales); err != nil {
		return nil, err
	}
	if err := load(blobs, keyCustomers, &s.customers); err != nil {
		return nil, err
	}
	if err := load(blobs, keySession, &s.current); err != nil {
		return nil, err
	}
	return s, nil
}

func load(blobs blob.Store, key string, dest any) error {
	data, ok, err := blobs.Get(key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// persist serializes v and writes it under key. Callers commit the
// in-memory mutation only after persist returns nil.
func (s *Store) persist(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.blobs.Put(key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// Current returns the session persisted by the most recent login, if
// any survived a restart.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}

// requireSession validates a session against the users collection.
// Callers hold the lock.
func (s *Store) requireSession(sess *Session) (domain.User, error) {
	if sess == nil || sess.UserID == "" {
		return domain.User{}, ErrNoSession
	}
	for _, u := range s.users {
		if u.ID == sess.UserID {
			return u, nil
		}
	}
	return domain.User{}, ErrNoSession
}

package store

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medistock/m/domain"
	"medistock/m/internal/id"
)

// Registration carries the full profile plus the plaintext password,
// which is hashed before anything is stored.
type Registration struct {
	FirstName    string
	MiddleName   string
	LastName     string
	BusinessName string
	Country      string
	State        string
	City         string
	Street       string
	Pincode      string
	Email        string
	Phone        string
	AltPhone     string
	GST          string
	Aadhar       string
	PAN          string
	DrugLicense  string
	Password     string
}

// RegisterUser creates a user account. Email is lowercased and must be
// unique across all accounts.
func (s *Store) RegisterUser(reg Registration) (domain.User, error) {
	if strings.TrimSpace(reg.Email) == "" {
		return domain.User{}, &ValidationError{Field: "email", Reason: "is required"}
	}
	if reg.Password == "" {
		return domain.User{}, &ValidationError{Field: "password", Reason: "is required"}
	}
	if strings.TrimSpace(reg.FirstName) == "" {
		return domain.User{}, &ValidationError{Field: "first_name", Reason: "is required"}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	for _, u := range s.users {
		if u.Email == email {
			return domain.User{}, ErrDuplicateEmail
		}
	}

	user := domain.User{
		ID:           id.New(),
		FirstName:    reg.FirstName,
		MiddleName:   reg.MiddleName,
		LastName:     reg.LastName,
		BusinessName: reg.BusinessName,
		Country:      reg.Country,
		State:        reg.State,
		City:         reg.City,
		Street:       reg.Street,
		Pincode:      reg.Pincode,
		Email:        email,
		Phone:        reg.Phone,
		AltPhone:     reg.AltPhone,
		GST:          reg.GST,
		Aadhar:       reg.Aadhar,
		PAN:          reg.PAN,
		DrugLicense:  reg.DrugLicense,
		PasswordHash: string(hashed),
		Verified:     false,
		CreatedAt:    time.Now().UTC(),
	}

	next := append(slices.Clone(s.users), user)
	if err := s.persist(keyUsers, next); err != nil {
		return domain.User{}, err
	}
	s.users = next
	return user, nil
}

// LoginUser checks credentials and, on success, returns a session and
// persists it as the current one. A miss returns ErrNotFound without
// saying whether the email or the password was wrong.
func (s *Store) LoginUser(email, password string) (*Session, domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return nil, domain.User{}, ErrNotFound
		}
		sess := &Session{UserID: u.ID}
		if err := s.persist(keySession, sess); err != nil {
			return nil, domain.User{}, err
		}
		s.current = sess
		out := *sess
		return &out, u, nil
	}
	return nil, domain.User{}, ErrNotFound
}

// LogoutUser clears the persisted session pointer.
func (s *Store) LogoutUser() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(keySession, (*Session)(nil)); err != nil {
		return err
	}
	s.current = nil
	return nil
}

// ChangePassword replaces the session user's password hash. The
// plaintext is hashed here and never stored.
func (s *Store) ChangePassword(sess *Session, newPassword string) error {
	if newPassword == "" {
		return &ValidationError{Field: "new_password", Reason: "is required"}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.requireSession(sess)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(s.users, func(u domain.User) bool { return u.ID == user.ID })

	next := slices.Clone(s.users)
	next[idx].PasswordHash = string(hashed)
	if err := s.persist(keyUsers, next); err != nil {
		return err
	}
	s.users = next
	return nil
}

// GetUser returns the session user's profile.
func (s *Store) GetUser(sess *Session) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requireSession(sess)
}

// UpdateUser merges the patch into the user with the given id. Patching
// the email re-checks uniqueness.
func (s *Store) UpdateUser(userID string, patch domain.UserPatch) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, u := range s.users {
		if u.ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.User{}, ErrNotFound
	}

	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		for _, u := range s.users {
			if u.ID != userID && u.Email == email {
				return domain.User{}, ErrDuplicateEmail
			}
		}
		patch.Email = &email
	}

	next := slices.Clone(s.users)
	next[idx] = patch.Apply(next[idx])
	if err := s.persist(keyUsers, next); err != nil {
		return domain.User{}, err
	}
	s.users = next
	return next[idx], nil
}

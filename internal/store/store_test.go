package store

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"medistock/m/domain"
	"medistock/m/internal/blob"
)

func newTestStore(t *testing.T) (*Store, *blob.Memory) {
	t.Helper()
	blobs := blob.NewMemory()
	s, err := Open(blobs)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, blobs
}

func registration(email string) Registration {
	return Registration{
		FirstName:    "Asha",
		LastName:     "Rao",
		BusinessName: "Rao Medicals",
		Country:      "India",
		State:        "Karnataka",
		City:         "Bengaluru",
		Street:       "12 MG Road",
		Pincode:      "560001",
		Email:        email,
		Phone:        "9900112233",
		Password:     "s3cret-pass",
	}
}

func mustLogin(t *testing.T, s *Store, email, password string) *Session {
	t.Helper()
	sess, _, err := s.LoginUser(email, password)
	if err != nil {
		t.Fatalf("LoginUser(%s): %v", email, err)
	}
	return sess
}

func testMedicine(name, batch string, mrp string, qty int64) domain.Medicine {
	return domain.Medicine{
		BatchNo:      batch,
		Name:         name,
		Manufacturer: "Cipla",
		Category:     "Tablet",
		MfgDate:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ExpDate:      time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
		BuyingDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		MRP:          decimal.RequireFromString(mrp),
		Quantity:     qty,
		Type:         "strip",
	}
}

func checkDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: got %s, want %s", label, got, want)
	}
}

func TestLoginReturnsTheMatchingUser(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.RegisterUser(registration("first@example.com")); err != nil {
		t.Fatalf("register first: %v", err)
	}
	second := registration("second@example.com")
	second.Password = "other-pass"
	registered, err := s.RegisterUser(second)
	if err != nil {
		t.Fatalf("register second: %v", err)
	}

	_, user, err := s.LoginUser("second@example.com", "other-pass")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("logged in as %s, want %s", user.ID, registered.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.RegisterUser(registration("owner@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := s.LoginUser("owner@example.com", "wrong"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong password: got %v, want ErrNotFound", err)
	}
	if _, _, err := s.LoginUser("nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown email: got %v, want ErrNotFound", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.RegisterUser(registration("owner@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.RegisterUser(registration("Owner@Example.COM")); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate email: got %v, want ErrDuplicateEmail", err)
	}
}

func TestRegisterNeverStoresPlaintextPassword(t *testing.T) {
	s, _ := newTestStore(t)
	user, err := s.RegisterUser(registration("owner@example.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash == "s3cret-pass" || user.PasswordHash == "" {
		t.Fatalf("password stored incorrectly: %q", user.PasswordHash)
	}
	if user.Verified {
		t.Fatal("new user must not be verified")
	}
}

func TestSessionPersistsAcrossRestartAndClearsOnLogout(t *testing.T) {
	s, blobs := newTestStore(t)
	registered, err := s.RegisterUser(registration("owner@example.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	mustLogin(t, s, "owner@example.com", "s3cret-pass")

	reloaded, err := Open(blobs)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	sess := reloaded.Current()
	if sess == nil || sess.UserID != registered.ID {
		t.Fatalf("session not restored: %+v", sess)
	}

	if err := reloaded.LogoutUser(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if reloaded.Current() != nil {
		t.Fatal("session not cleared by logout")
	}
	again, err := Open(blobs)
	if err != nil {
		t.Fatalf("reopen after logout: %v", err)
	}
	if again.Current() != nil {
		t.Fatal("cleared session came back after restart")
	}
}

func TestUpdateUserMergesPatch(t *testing.T) {
	s, _ := newTestStore(t)
	registered, err := s.RegisterUser(registration("owner@example.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	city := "Mysuru"
	updated, err := s.UpdateUser(registered.ID, domain.UserPatch{City: &city})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.City != "Mysuru" {
		t.Fatalf("city not updated: %q", updated.City)
	}
	if updated.ID != registered.ID || !updated.CreatedAt.Equal(registered.CreatedAt) {
		t.Fatal("system-managed fields changed by patch")
	}
	if updated.FirstName != registered.FirstName || updated.Email != registered.Email {
		t.Fatal("unpatched fields changed")
	}
}

func TestUpdateUserMissingIDReturnsNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	city := "Mysuru"
	if _, err := s.UpdateUser("no-such-id", domain.UserPatch{City: &city}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateUserRejectsTakenEmail(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.RegisterUser(registration("first@example.com")); err != nil {
		t.Fatalf("register first: %v", err)
	}
	second, err := s.RegisterUser(registration("second@example.com"))
	if err != nil {
		t.Fatalf("register second: %v", err)
	}

	taken := "first@example.com"
	if _, err := s.UpdateUser(second.ID, domain.UserPatch{Email: &taken}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestChangePasswordRotatesCredentials(t *testing.T) {
	s, _ := newTestStore(t)
	registered, err := s.RegisterUser(registration("owner@example.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	sess := mustLogin(t, s, "owner@example.com", "s3cret-pass")

	if err := s.ChangePassword(sess, "rotated-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, _, err := s.LoginUser("owner@example.com", "s3cret-pass"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old password still accepted: %v", err)
	}
	_, user, err := s.LoginUser("owner@example.com", "rotated-pass")
	if err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if user.ID != registered.ID || user.Email != registered.Email {
		t.Fatalf("profile changed by password rotation: %+v", user)
	}
	if user.PasswordHash == "rotated-pass" {
		t.Fatal("plaintext password stored")
	}
}

func TestChangePasswordValidatesInput(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.RegisterUser(registration("owner@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	sess := mustLogin(t, s, "owner@example.com", "s3cret-pass")

	var verr *ValidationError
	if err := s.ChangePassword(sess, ""); !errors.As(err, &verr) {
		t.Fatalf("empty password: got %v, want ValidationError", err)
	}
	if err := s.ChangePassword(nil, "whatever"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("nil session: got %v, want ErrNoSession", err)
	}
}

func TestOwnerScopedOperationsRequireSession(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.GetMedicines(nil); !errors.Is(err, ErrNoSession) {
		t.Fatalf("GetMedicines(nil): got %v, want ErrNoSession", err)
	}
	if _, err := s.AddMedicine(nil, testMedicine("Crocin", "B-1", "10.00", 5)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("AddMedicine(nil): got %v, want ErrNoSession", err)
	}
	stale := &Session{UserID: "deleted-user"}
	if _, err := s.GetSales(stale); !errors.Is(err, ErrNoSession) {
		t.Fatalf("stale session: got %v, want ErrNoSession", err)
	}
}

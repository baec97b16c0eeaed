package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"cyberhr/internal/domain/auth"
)

type resetRow struct {
	userID    string
	tokenHash string
	expiresAt time.Time
	used      bool
}

type fakeStore struct {
	users    map[string]*UserRecord // by id
	resets   []*resetRow
	sessions map[string]bool // session id -> revoked
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*UserRecord), sessions: make(map[string]bool)}
}

func (f *fakeStore) CreateUser(_ context.Context, email, fullName, role, phone, passwordHash string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			return "", ErrEmailRegistered
		}
	}
	f.nextID++
	id := "user-" + strconv.Itoa(f.nextID)
	f.users[id] = &UserRecord{ID: id, Email: email, FullName: fullName, Role: role, Phone: phone, PasswordHash: passwordHash}
	return id, nil
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (*UserRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeStore) UserByID(_ context.Context, id string) (*UserRecord, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeStore) CreateReset(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.resets = append(f.resets, &resetRow{userID: userID, tokenHash: tokenHash, expiresAt: expiresAt})
	return nil
}

func (f *fakeStore) ConsumeReset(_ context.Context, tokenHash string) (string, error) {
	for _, r := range f.resets {
		if r.tokenHash == tokenHash && !r.used && time.Now().Before(r.expiresAt) {
			r.used = true
			return r.userID, nil
		}
	}
	return "", ErrInvalidResetCode
}

func (f *fakeStore) CreateSession(_ context.Context, userID, _ string, _ time.Time) (string, error) {
	id := "sess-" + userID
	f.sessions[id] = false
	return id, nil
}

func (f *fakeStore) RevokeSession(_ context.Context, sessionID string) error {
	f.sessions[sessionID] = true
	return nil
}

type captureMailer struct {
	to, subject, body string
	sent              int
}

func (c *captureMailer) Send(_ context.Context, _, to, subject, body string) error {
	c.to, c.subject, c.body = to, subject, body
	c.sent++
	return nil
}

func newTestService() (*Service, *fakeStore, *captureMailer) {
	store := newFakeStore()
	mailer := &captureMailer{}
	svc := NewService(store, mailer, "test-secret", "rrhh@example.com", "https://hr.example.com")
	return svc, store, mailer
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantOK   bool
	}{
		{"Passw0rd", true},
		{"Abcdefg1", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err == nil) != tt.wantOK {
			t.Errorf("ValidatePassword(%q) = %v, want ok=%v", tt.password, err, tt.wantOK)
		}
		if err != nil && !errors.Is(err, ErrWeakPassword) {
			t.Errorf("ValidatePassword(%q) = %v, want ErrWeakPassword", tt.password, err)
		}
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.SignUp(context.Background(), "ana@example.com", "Passw0rd", "Ana", auth.RoleEmployee, ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, err := svc.SignUp(context.Background(), "ANA@example.com", "Passw0rd", "Ana", auth.RoleEmployee, "")
	if !errors.Is(err, ErrEmailRegistered) {
		t.Errorf("got %v, want ErrEmailRegistered", err)
	}
}

func TestSignInIssuesParsableToken(t *testing.T) {
	svc, _, _ := newTestService()
	user, err := svc.SignUp(context.Background(), "ana@example.com", "Passw0rd", "Ana", auth.RoleEmployer, "")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	session, err := svc.SignIn(context.Background(), "ana@example.com", "Passw0rd")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	claims, err := auth.ParseToken("test-secret", session.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != auth.RoleEmployer {
		t.Errorf("claims = %+v", claims)
	}
	if claims.SessionID == "" {
		t.Error("claims missing session id")
	}
}

func TestSignInHidesWhichPartWasWrong(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.SignUp(context.Background(), "ana@example.com", "Passw0rd", "Ana", auth.RoleEmployee, ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	_, badPassword := svc.SignIn(context.Background(), "ana@example.com", "wrong")
	_, badEmail := svc.SignIn(context.Background(), "nadie@example.com", "Passw0rd")
	if !errors.Is(badPassword, ErrInvalidCredentials) || !errors.Is(badEmail, ErrInvalidCredentials) {
		t.Errorf("bad password: %v, bad email: %v, want ErrInvalidCredentials for both", badPassword, badEmail)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mailer := newTestService()
	svc.newToken = func() string { return "fixed-recovery-code" }
	if _, err := svc.SignUp(context.Background(), "ana@example.com", "Passw0rd", "Ana", auth.RoleEmployee, ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if err := svc.RequestPasswordReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if mailer.sent != 1 {
		t.Fatalf("got %d emails, want 1", mailer.sent)
	}
	if !strings.Contains(mailer.body, "update-password?code=fixed-recovery-code") {
		t.Errorf("reset email missing link: %q", mailer.body)
	}

	if err := svc.UpdatePassword(context.Background(), "fixed-recovery-code", "NuevaClave1"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "ana@example.com", "NuevaClave1"); err != nil {
		t.Errorf("sign in with new password: %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "ana@example.com", "Passw0rd"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}

	// The code was consumed; replaying it must fail.
	err := svc.UpdatePassword(context.Background(), "fixed-recovery-code", "OtraClave2")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("replayed code: got %v, want ErrInvalidResetCode", err)
	}
}

func TestUpdatePasswordChecksPolicyBeforeConsumingCode(t *testing.T) {
	svc, _, _ := newTestService()
	svc.newToken = func() string { return "fixed-recovery-code" }
	if _, err := svc.SignUp(context.Background(), "ana@example.com", "Passw0rd", "Ana", auth.RoleEmployee, ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := svc.RequestPasswordReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	if err := svc.UpdatePassword(context.Background(), "fixed-recovery-code", "weak"); err == nil {
		t.Fatal("expected policy error for weak password")
	}
	// The code must survive the failed attempt.
	if err := svc.UpdatePassword(context.Background(), "fixed-recovery-code", "NuevaClave1"); err != nil {
		t.Errorf("code consumed by failed attempt: %v", err)
	}
}

func TestRequestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	svc, store, mailer := newTestService()

	if err := svc.RequestPasswordReset(context.Background(), "nadie@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if mailer.sent != 0 {
		t.Errorf("got %d emails, want 0", mailer.sent)
	}
	if len(store.resets) != 0 {
		t.Errorf("got %d reset rows, want 0", len(store.resets))
	}
}

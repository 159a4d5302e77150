package auth

import (
	"context"
	"errors"
	"testing"

	"bankcore/internal/app/audit"
	"bankcore/internal/domain"
	"bankcore/internal/storage/memory"

	"go.uber.org/zap"
)

func newTestAuth(store *memory.Store) *Service {
	recorder := audit.NewRecorder(store, zap.NewNop())
	tracker := NewMemoryTracker(DefaultLockoutWindow, DefaultLockoutThreshold)
	return NewService(store, tracker, recorder, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuth(store)

	user, err := svc.Register(context.Background(), "Dana Smith", " Dana@Example.com ", "555-0100", "s3cret-pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "dana@example.com" {
		t.Errorf("email normalized to %q", user.Email)
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("role = %s, want customer", user.Role)
	}
	if user.PasswordHash == "s3cret-pw" {
		t.Error("password stored in plain text")
	}

	got, err := svc.Login(context.Background(), "DANA@example.com", "s3cret-pw", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("logged in as user %d, want %d", got.ID, user.ID)
	}

	events, _ := store.AuditEvents(context.Background(), domain.AuditFilter{Action: domain.AuditLoginSuccess, Limit: 5})
	if len(events) != 1 {
		t.Errorf("LOGIN_SUCCESS events = %d, want 1", len(events))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuth(store)

	if _, err := svc.Register(context.Background(), "A", "dup@example.com", "", "pw-one"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "B", "dup@example.com", "", "pw-two"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("Register err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuth(store)

	if _, err := svc.Register(context.Background(), "Eve", "eve@example.com", "", "right-pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "eve@example.com", "wrong-pw", "10.0.0.2"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("Login err = %v, want ErrInvalidCredentials", err)
	}

	events, _ := store.AuditEvents(context.Background(), domain.AuditFilter{Action: domain.AuditLoginFailure, Limit: 5})
	if len(events) != 1 {
		t.Errorf("LOGIN_FAILURE events = %d, want 1", len(events))
	}
}

func TestLoginUnknownUser(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuth(store)

	if _, err := svc.Login(context.Background(), "ghost@example.com", "whatever", "10.0.0.3"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("Login err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginDisabledUser(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuth(store)

	user, err := svc.Register(context.Background(), "Frank", "enabled@example.com", "", "frank-pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	disabled := &domain.User{
		FullName:     "Frank",
		Email:        "frank@example.com",
		PasswordHash: user.PasswordHash,
		Role:         domain.RoleCustomer,
		IsActive:     false,
	}
	if err := store.CreateUser(context.Background(), disabled); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := svc.Login(context.Background(), "frank@example.com", "frank-pw", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("Login err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginLockout(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuth(store)

	if _, err := svc.Register(context.Background(), "Grace", "grace@example.com", "", "grace-pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < DefaultLockoutThreshold; i++ {
		if _, err := svc.Login(context.Background(), "grace@example.com", "bad-pw", "10.0.0.4"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("Login #%d err = %v", i, err)
		}
	}

	// Even the correct password is rejected while locked out.
	if _, err := svc.Login(context.Background(), "grace@example.com", "grace-pw", "10.0.0.4"); !errors.Is(err, domain.ErrLockedOut) {
		t.Fatalf("Login err = %v, want ErrLockedOut", err)
	}

	events, _ := store.AuditEvents(context.Background(), domain.AuditFilter{Action: domain.AuditLoginLockout, Limit: 5})
	if len(events) != 1 {
		t.Errorf("LOGIN_LOCKOUT events = %d, want 1", len(events))
	}
}

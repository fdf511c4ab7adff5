package user

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

var testPolicy = auth.RolePolicy{OrgDomain: "clinic.example.com", SuperAdminMarker: "scribeadmin"}

func newTestService() *Service {
	return NewService(NewRepo(tablestore.NewMemory()), testPolicy, zerolog.Nop())
}

func TestCreateAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u := &User{Username: "Dr.Chen", Name: "Sarah Chen", Role: auth.RoleDoctor}
	if err := svc.Create(ctx, u, "correct horse", "seed"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "dr.chen" {
		t.Errorf("username not lower-cased: %q", u.Username)
	}
	if u.PasswordHash == "" || u.PasswordHash == "correct horse" {
		t.Error("password not hashed")
	}

	// Login is case-insensitive on username.
	got, err := svc.Login(ctx, "DR.CHEN", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.LastLogin.IsZero() {
		t.Error("last login not stamped")
	}

	if _, err := svc.Login(ctx, "dr.chen", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u := &User{Username: "nurse"}
	if err := svc.Create(ctx, u, "password1", "seed"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Deactivate(ctx, "nurse"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if _, err := svc.Login(ctx, "nurse", "password1"); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("err = %v, want ErrAccountDisabled", err)
	}

	// Deactivation is idempotent.
	if err := svc.Deactivate(ctx, "nurse"); err != nil {
		t.Errorf("second Deactivate: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.Create(ctx, &User{Username: "  "}, "password1", "seed"); err == nil {
		t.Error("expected error for blank username")
	}
	if err := svc.Create(ctx, &User{Username: "shortpw"}, "short", "seed"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestCreateDerivesRole(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		username string
		email    string
		want     auth.Role
	}{
		{"dr_house", "", auth.RoleDoctor},
		{"admin", "", auth.RoleSuperAdmin},
		{"jane", "jane@clinic.example.com", auth.RoleSuperAdmin},
		{"nurse", "", auth.RoleNurse},
		{"jdoe", "jdoe@gmail.com", auth.RoleDoctor},
	}
	for _, tc := range cases {
		u := &User{Username: tc.username, Email: tc.email}
		if err := svc.Create(ctx, u, "password1", "seed"); err != nil {
			t.Fatalf("Create %s: %v", tc.username, err)
		}
		if u.Role != tc.want {
			t.Errorf("%s: role = %q, want %q", tc.username, u.Role, tc.want)
		}
	}
}

func TestDuplicateUsername(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.Create(ctx, &User{Username: "drchen"}, "password1", "seed"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := svc.Create(ctx, &User{Username: "DrChen"}, "password2", "seed")
	if !errors.Is(err, tablestore.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestUpdatePasswordAndRole(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.Create(ctx, &User{Username: "drchen"}, "password1", "seed"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, "drchen", "", "", "astronaut", ""); err == nil {
		t.Error("expected error for invalid role")
	}

	u, err := svc.Update(ctx, "drchen", "Sarah Chen", "", auth.RoleAdmin, "newpassword")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Name != "Sarah Chen" || u.Role != auth.RoleAdmin {
		t.Errorf("update not applied: %+v", u)
	}

	if _, err := svc.Login(ctx, "drchen", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still valid after change")
	}
	if _, err := svc.Login(ctx, "drchen", "newpassword"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.SeedAdmin(ctx, "admin", "bootstrap1"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	u, err := svc.Get(ctx, "admin")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Role != auth.RoleSuperAdmin || !u.Active {
		t.Errorf("seeded admin = %+v", u)
	}

	// Re-seeding must not overwrite the existing account.
	if err := svc.SeedAdmin(ctx, "admin", "different1"); err != nil {
		t.Fatalf("second SeedAdmin: %v", err)
	}
	if _, err := svc.Login(ctx, "admin", "bootstrap1"); err != nil {
		t.Errorf("original password rejected after reseed: %v", err)
	}
}

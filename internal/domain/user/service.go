package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords; the
	// two are indistinguishable to the caller on purpose.
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	// ErrAccountDisabled is returned when the account exists but is inactive.
	ErrAccountDisabled = errors.New("user: account disabled")
)

type Service struct {
	repo   Repository
	policy auth.RolePolicy
	logger zerolog.Logger
}

func NewService(repo Repository, policy auth.RolePolicy, logger zerolog.Logger) *Service {
	return &Service{repo: repo, policy: policy, logger: logger}
}

// Login verifies the password against the stored bcrypt hash and stamps the
// last-login time. The timestamp write is best-effort; a failed stamp does not
// fail the login.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, tablestore.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	u.LastLogin = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Warn().Err(err).Str("username", u.Username).Msg("could not stamp last login")
	}
	return u, nil
}

// Create registers a new account. A missing or invalid role is derived from
// the username and email through the role-determination chain.
func (s *Service) Create(ctx context.Context, u *User, password, createdBy string) error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u.Username = Key(u.Username)
	u.Role = auth.RepairRole(s.policy, u.Username, u.Email, u.Role)
	u.PasswordHash = string(hash)
	u.Active = true
	u.CreatedAt = time.Now().UTC()
	u.CreatedBy = createdBy
	u.LastLogin = time.Time{}
	return s.repo.Create(ctx, u)
}

func (s *Service) Get(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *Service) List(ctx context.Context, limit int) ([]*User, error) {
	return s.repo.List(ctx, limit)
}

// Update changes profile fields and optionally the password. Username,
// creation metadata, and the active flag are not touched here.
func (s *Service) Update(ctx context.Context, username, name, email string, role auth.Role, newPassword string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if name != "" {
		u.Name = name
	}
	if email != "" {
		u.Email = email
	}
	if role != "" {
		if !auth.ValidRole(role) {
			return nil, fmt.Errorf("invalid role %q", role)
		}
		u.Role = role
	}
	if newPassword != "" {
		if len(newPassword) < 8 {
			return nil, fmt.Errorf("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Deactivate disables the account instead of deleting it. Idempotent.
func (s *Service) Deactivate(ctx context.Context, username string) error {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !u.Active {
		return nil
	}
	u.Active = false
	return s.repo.Update(ctx, u)
}

// SeedAdmin creates the bootstrap super admin when no such account exists.
func (s *Service) SeedAdmin(ctx context.Context, username, password string) error {
	u := &User{
		Username: username,
		Name:     "Administrator",
		Role:     auth.RoleSuperAdmin,
	}
	err := s.Create(ctx, u, password, "seed")
	if errors.Is(err, tablestore.ErrDuplicate) {
		s.logger.Info().Str("username", Key(username)).Msg("admin account already present")
		return nil
	}
	return err
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/internal/platform/cache"
)

var (
	// ErrSessionExpired is returned when a token's absolute expiry has passed.
	ErrSessionExpired = errors.New("auth: session expired")
	// ErrInvalidToken covers malformed, unsigned, or revoked tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// SweepInterval is how often expired sessions are pruned from the registry.
const SweepInterval = time.Minute

const revokedKeyPrefix = "revoked_session:"

// Identity is what the session layer needs to know about a user at login.
type Identity struct {
	ID       string
	Username string
	Name     string
	Email    string
	Role     Role
}

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// Session is the client-facing view of an issued session.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sessions issues and verifies session tokens. Tokens carry an absolute
// expiry (login time plus a fixed TTL); an in-memory registry mirrors the
// issued tokens so a background sweep can observe expiries, and an optional
// redis denylist makes explicit logout effective across instances.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	policy RolePolicy
	cache  *cache.Client
	logger zerolog.Logger

	mu     sync.Mutex
	active map[string]time.Time // token id -> expiry
}

func NewSessions(secret []byte, ttl time.Duration, policy RolePolicy, c *cache.Client, logger zerolog.Logger) *Sessions {
	return &Sessions{
		secret: secret,
		ttl:    ttl,
		policy: policy,
		cache:  c,
		logger: logger,
		active: make(map[string]time.Time),
	}
}

// Issue creates a session for an authenticated identity. The stored role is
// repaired through the role-determination chain when missing or invalid, and
// the display name falls back name -> username -> email local part -> "User".
func (s *Sessions) Issue(id Identity) (*Session, error) {
	now := time.Now().UTC()
	expiry := now.Add(s.ttl)

	role := RepairRole(s.policy, id.Username, id.Email, id.Role)
	name := DisplayName(id.Name, id.Username, id.Email)

	claims := &Claims{
		Username: id.Username,
		Name:     name,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.mu.Lock()
	s.active[claims.ID] = expiry
	s.mu.Unlock()

	return &Session{
		Token:     token,
		UserID:    id.ID,
		Username:  id.Username,
		Name:      name,
		Role:      role,
		ExpiresAt: expiry,
	}, nil
}

// Verify parses and validates a session token. Expired tokens yield
// ErrSessionExpired and are dropped from the registry; revoked tokens yield
// ErrInvalidToken.
func (s *Sessions) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.drop(claims.ID)
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if revoked, _ := s.cache.Get(ctx, revokedKeyPrefix+claims.ID); revoked != nil {
		return nil, ErrInvalidToken
	}

	// Repair in place if an old token carries a role outside the enumeration.
	if !ValidRole(claims.Role) {
		claims.Role = DetermineRole(s.policy, claims.Username, "", claims.Role)
	}

	return claims, nil
}

// Revoke invalidates a token ahead of its expiry. Idempotent; unknown ids are
// a no-op.
func (s *Sessions) Revoke(ctx context.Context, tokenID string) {
	s.drop(tokenID)
	_ = s.cache.Set(ctx, revokedKeyPrefix+tokenID, []byte("1"), s.ttl)
}

func (s *Sessions) drop(tokenID string) {
	if tokenID == "" {
		return
	}
	s.mu.Lock()
	delete(s.active, tokenID)
	s.mu.Unlock()
}

// ActiveCount returns the number of unexpired sessions in the registry.
func (s *Sessions) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// StartSweep launches the background expiry sweep. Expired entries leave the
// registry within one interval of their expiry. The sweep stops when ctx is
// cancelled.
func (s *Sessions) StartSweep(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(time.Now().UTC())
			}
		}
	}()
}

func (s *Sessions) sweep(now time.Time) {
	s.mu.Lock()
	removed := 0
	for id, expiry := range s.active {
		if now.After(expiry) {
			delete(s.active, id)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.logger.Debug().Int("expired", removed).Msg("session sweep")
	}
}

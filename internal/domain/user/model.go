package user

import (
	"strings"
	"time"

	"github.com/medscribe/medscribe/internal/platform/auth"
)

// User is an account record. Accounts are never hard-deleted; deactivation
// flips Active so the username stays reserved and the audit trail intact.
type User struct {
	Username     string    `json:"username"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         auth.Role `json:"role"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by,omitempty"`
	LastLogin    time.Time `json:"last_login,omitempty"`
}

// Key is the storage row key: usernames are case-insensitive.
func Key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Sanitized returns a copy safe to serialize to clients.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

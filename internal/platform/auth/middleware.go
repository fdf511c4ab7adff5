package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UsernameKey  contextKey = "username"
	UserNameKey  contextKey = "user_name"
	UserRoleKey  contextKey = "user_role"
	SessionIDKey contextKey = "session_id"
)

// Middleware validates the bearer token on each request and places the
// session identity on the request context. The skipper exempts open
// endpoints (health, login, discovery).
func Middleware(sessions *Sessions, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := sessions.Verify(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, ErrSessionExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)
			ctx = context.WithValue(ctx, UserNameKey, claims.Name)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			ctx = context.WithValue(ctx, SessionIDKey, claims.ID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// UsernameFromContext returns the authenticated username, or "".
func UsernameFromContext(ctx context.Context) string {
	u, _ := ctx.Value(UsernameKey).(string)
	return u
}

// NameFromContext returns the authenticated display name, or "".
func NameFromContext(ctx context.Context) string {
	n, _ := ctx.Value(UserNameKey).(string)
	return n
}

// RoleFromContext returns the authenticated role, or "".
func RoleFromContext(ctx context.Context) Role {
	r, _ := ctx.Value(UserRoleKey).(Role)
	return r
}

// SessionIDFromContext returns the session token id, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

package auth

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequirePermission returns middleware that rejects requests whose session
// role does not hold the action. 401 when unauthenticated, 403 otherwise.
func RequirePermission(action Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !HasPermission(role, action) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("required permission: %s", action))
			}
			return next(c)
		}
	}
}

// RequireAnyPermission admits the request when the role holds at least one of
// the actions.
func RequireAnyPermission(actions ...Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			for _, a := range actions {
				if HasPermission(role, a) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient permission")
		}
	}
}

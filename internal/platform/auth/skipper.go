package auth

import "github.com/labstack/echo/v4"

// openPaths are reachable without a session.
var openPaths = map[string]bool{
	"/health":             true,
	"/openapi.json":       true,
	"/api/v1/users/login": true,
}

// Skipper exempts open endpoints from the auth middleware.
func Skipper(c echo.Context) bool {
	return openPaths[c.Request().URL.Path]
}

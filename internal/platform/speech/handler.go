package speech

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medscribe/medscribe/internal/platform/auth"
)

// Handler serves the speech-token endpoint.
type Handler struct {
	provider *Provider
}

func NewHandler(provider *Provider) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/speech-token", h.GetToken, auth.RequirePermission(auth.ActionScribe))
}

func (h *Handler) GetToken(c echo.Context) error {
	ctx := c.Request().Context()
	token, err := h.provider.Get(ctx, auth.UserIDFromContext(ctx), string(auth.RoleFromContext(ctx)))
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return echo.NewHTTPError(http.StatusInternalServerError, "speech service is not configured")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not obtain a speech token")
	}
	return c.JSON(http.StatusOK, token)
}

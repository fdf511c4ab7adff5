package notes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/completion"
	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/generate-notes", h.Generate, auth.RequirePermission(auth.ActionScribe))
}

func (h *Handler) Generate(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	note, err := h.svc.Generate(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPermission):
			return echo.NewHTTPError(http.StatusForbidden, "scribe permission required")
		case errors.Is(err, ErrEmptyTranscript):
			return echo.NewHTTPError(http.StatusBadRequest, "transcript is required")
		case errors.Is(err, ErrNotConfigured):
			return echo.NewHTTPError(http.StatusInternalServerError, "note generation is not configured")
		case errors.Is(err, tablestore.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return completionHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"note": note})
}

// completionHTTPError maps the upstream failure taxonomy onto status codes,
// keeping the classified user-facing message.
func completionHTTPError(err error) error {
	var ce *completion.Error
	if !errors.As(err, &ce) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	switch ce.Kind {
	case completion.KindTimeout:
		return echo.NewHTTPError(http.StatusGatewayTimeout, ce.Message)
	case completion.KindRateLimited:
		return echo.NewHTTPError(http.StatusTooManyRequests, ce.Message)
	case completion.KindAuth, completion.KindNotFound, completion.KindMalformed, completion.KindNetwork:
		return echo.NewHTTPError(http.StatusBadGateway, ce.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, ce.Message)
}

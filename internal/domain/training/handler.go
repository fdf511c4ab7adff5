package training

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medscribe/medscribe/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/training", auth.RequirePermission(auth.ActionTraining))
	g.GET("", h.GetConfig)
	g.PUT("", h.SaveConfig)
	g.GET("/catalog", h.GetCatalog)
	g.POST("/baseline-notes", h.AddBaselineNote)
	g.DELETE("/baseline-notes/:id", h.RemoveBaselineNote)
}

func (h *Handler) GetConfig(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	cfg, err := h.svc.Load(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) SaveConfig(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	var cfg Config
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Save(c.Request().Context(), userID, &cfg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) GetCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"specialties":       Specialties(),
		"default_specialty": DefaultSpecialty,
	})
}

type addBaselineNoteRequest struct {
	Text string `json:"text"`
}

func (h *Handler) AddBaselineNote(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	author := auth.NameFromContext(c.Request().Context())
	var req addBaselineNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	note, err := h.svc.AddBaselineNote(c.Request().Context(), userID, author, req.Text)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, note)
}

func (h *Handler) RemoveBaselineNote(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	if err := h.svc.RemoveBaselineNote(c.Request().Context(), userID, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

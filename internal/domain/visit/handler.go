package visit

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/tablestore"
	"github.com/medscribe/medscribe/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/visits", auth.RequireAnyPermission(auth.ActionReadAllNotes, auth.ActionReadOwnNotes))
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	write := api.Group("/visits", auth.RequireAnyPermission(auth.ActionScribe, auth.ActionEditOwnNotes))
	write.POST("", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	author := auth.NameFromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), &v, author); err != nil {
		if errors.Is(err, tablestore.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "visit already exists")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) Get(c echo.Context) error {
	v, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) List(c echo.Context) error {
	patientID := c.QueryParam("patient_id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	p := pagination.FromContext(c)
	visits, err := h.svc.ListByPatient(c.Request().Context(), patientID, tablestore.MaxListLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	start, end := p.Window(len(visits))
	return c.JSON(http.StatusOK, pagination.NewResponse(visits[start:end], len(visits), p.Limit, p.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v.ID = c.Param("id")
	if err := h.svc.Update(c.Request().Context(), &v); err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

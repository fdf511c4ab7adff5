package patient

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
	read := api.Group("/patients", auth.RequireAnyPermission(auth.ActionReadAllNotes, auth.ActionReadOwnNotes))
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	api.POST("/patients", h.Create, auth.RequirePermission(auth.ActionAddPatients))
	api.PUT("/patients/:id", h.Update, auth.RequirePermission(auth.ActionEditPatients))
	api.DELETE("/patients/:id", h.Delete, auth.RequirePermission(auth.ActionDeletePatients))
}

func (h *Handler) Create(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	createdBy := auth.UsernameFromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), &p, createdBy); err != nil {
		if errors.Is(err, tablestore.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "patient already exists")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	patients, err := h.svc.List(c.Request().Context(), tablestore.MaxListLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	start, end := p.Window(len(patients))
	return c.JSON(http.StatusOK, pagination.NewResponse(patients[start:end], len(patients), p.Limit, p.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = c.Param("id")
	if err := h.svc.Update(c.Request().Context(), &p); err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

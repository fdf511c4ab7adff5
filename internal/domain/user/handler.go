package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/tablestore"
	"github.com/medscribe/medscribe/pkg/pagination"
)

type Handler struct {
	svc      *Service
	sessions *auth.Sessions
}

func NewHandler(svc *Service, sessions *auth.Sessions) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Login is exempted from the auth middleware by the skipper.
	api.POST("/users/login", h.Login)
	api.POST("/users/logout", h.Logout)

	manage := api.Group("/users", auth.RequirePermission(auth.ActionManageUsers))
	manage.GET("", h.List)
	manage.POST("", h.Create)
	manage.GET("/:id", h.Get)
	manage.PUT("/:id", h.Update)
	manage.DELETE("/:id", h.Deactivate)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	u, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, ErrAccountDisabled):
			return echo.NewHTTPError(http.StatusForbidden, "account disabled")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	session, err := h.sessions.Issue(auth.Identity{
		ID:       u.Username,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, session)
}

// Logout revokes the presented session token. The route sits behind the auth
// middleware since revocation needs the verified token id; revoking an
// already-revoked id is a no-op.
func (h *Handler) Logout(c echo.Context) error {
	if id := auth.SessionIDFromContext(c.Request().Context()); id != "" {
		h.sessions.Revoke(c.Request().Context(), id)
	}
	return c.NoContent(http.StatusNoContent)
}

type createUserRequest struct {
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
	Password string    `json:"password"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u := &User{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
	}
	createdBy := auth.UsernameFromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), u, req.Password, createdBy); err != nil {
		if errors.Is(err, tablestore.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u.Sanitized())
}

func (h *Handler) Get(c echo.Context) error {
	u, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, u.Sanitized())
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	users, err := h.svc.List(c.Request().Context(), tablestore.MaxListLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	sanitized := make([]User, 0, len(users))
	for _, u := range users {
		sanitized = append(sanitized, u.Sanitized())
	}
	start, end := p.Window(len(sanitized))
	return c.JSON(http.StatusOK, pagination.NewResponse(sanitized[start:end], len(sanitized), p.Limit, p.Offset))
}

type updateUserRequest struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
	Password string    `json:"password"`
}

func (h *Handler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Update(c.Request().Context(), c.Param("id"), req.Name, req.Email, req.Role, req.Password)
	if err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, u.Sanitized())
}

func (h *Handler) Deactivate(c echo.Context) error {
	if err := h.svc.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

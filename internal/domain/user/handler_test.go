package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/cache"
)

func newTestSessions() *auth.Sessions {
	return auth.NewSessions([]byte("test-secret"), time.Hour, testPolicy, cache.New(""), zerolog.Nop())
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := newTestSessions()
	h := NewHandler(newTestService(), sessions)

	session, err := sessions.Issue(auth.Identity{ID: "drchen", Username: "drchen", Role: auth.RoleDoctor})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := sessions.Verify(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sessions.ActiveCount() != 1 {
		t.Fatalf("active sessions = %d, want 1", sessions.ActiveCount())
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.SessionIDKey, claims.ID))
	rec := httptest.NewRecorder()

	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if sessions.ActiveCount() != 0 {
		t.Errorf("session still in the registry after logout")
	}

	// Revoking the same id again is a no-op.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.SessionIDKey, claims.ID))
	rec = httptest.NewRecorder()
	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("second logout status = %d, want 204", rec.Code)
	}
}

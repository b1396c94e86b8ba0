package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusops/lab-seat-registration/internal/auth"
	"github.com/campusops/lab-seat-registration/internal/model"
	"github.com/campusops/lab-seat-registration/internal/repository"
)

// The token and header failure paths all reject before the principal
// lookup, so a repo with no database behind it is safe here.
func newGate(t *testing.T) (*auth.Service, echo.MiddlewareFunc) {
	t.Helper()
	tokens, err := auth.NewService("test-secret", time.Hour, 10*time.Minute)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens, SessionAuth(tokens, repository.NewPrincipalRepo(nil))
}

func runGate(mw echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	_ = handler(c)
	return rec
}

func bodyError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	return body["error"]
}

func TestSessionAuthMissingHeader(t *testing.T) {
	_, mw := newGate(t)
	rec := runGate(mw, "")
	if rec.Code != http.StatusUnauthorized || bodyError(t, rec) != "missing bearer token" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSessionAuthMalformedHeader(t *testing.T) {
	_, mw := newGate(t)
	rec := runGate(mw, "Basic dXNlcjpwYXNz")
	if rec.Code != http.StatusUnauthorized || bodyError(t, rec) != "missing bearer token" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSessionAuthGarbageToken(t *testing.T) {
	_, mw := newGate(t)
	rec := runGate(mw, "Bearer not.a.token")
	if rec.Code != http.StatusUnauthorized || bodyError(t, rec) != "invalid token" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSessionAuthExpiredToken(t *testing.T) {
	expired, err := auth.NewService("test-secret", -time.Minute, 10*time.Minute)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	issued, err := expired.IssueSession(&model.Principal{ID: 1, Email: "a@x.edu", Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, mw := newGate(t)
	rec := runGate(mw, "Bearer "+issued.Token)
	if rec.Code != http.StatusUnauthorized || bodyError(t, rec) != "token expired" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSessionAuthRejectsVerificationToken(t *testing.T) {
	tokens, mw := newGate(t)
	issued, err := tokens.IssueVerification(&model.Principal{ID: 1, Email: "a@x.edu", Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := runGate(mw, "Bearer "+issued.Token)
	if rec.Code != http.StatusUnauthorized || bodyError(t, rec) != "wrong token type" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequireRoleDenyCarriesRedirect(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/registrations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(CtxRole, model.RoleStudent)

	mw := RequireRole(model.RoleFaculty)
	handler := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	_ = handler(c)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"redirect":"/student"`) {
		t.Fatalf("expected redirect hint to the caller's own area, got %s", rec.Body.String())
	}
}

func TestRequireRoleAllows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/registrations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(CtxRole, model.RoleFaculty)

	mw := RequireRole(model.RoleFaculty)
	handler := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRoleMissingRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/registrations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := RequireRole(model.RoleFaculty)
	handler := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	_ = handler(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

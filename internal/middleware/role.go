package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campusops/lab-seat-registration/internal/model"
)

// homeArea maps a role to the client's default landing area.  The
// redirect hint in a deny response is a UX affordance so the desktop
// client can bounce the user to their own dashboard; the 403 itself is
// the security boundary.
func homeArea(role string) string {
	switch role {
	case model.RoleFaculty:
		return "/faculty"
	case model.RoleStudent:
		return "/student"
	}
	return "/"
}

// RequireRole enforces that the authenticated principal holds one of the
// given roles.  It assumes SessionAuth has already stored the role in the
// context.  A mismatch yields 403 with a redirect hint to the caller's
// own area rather than a bare failure.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":    "forbidden",
					"redirect": homeArea(role),
				})
			}
			return next(c)
		}
	}
}

package middleware // reusable HTTP middleware shared by all route groups

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusops/lab-seat-registration/internal/auth"
	"github.com/campusops/lab-seat-registration/internal/repository"
)

// Context keys populated by SessionAuth for downstream handlers.
const (
	CtxPrincipalID = "principal_id"
	CtxEmail       = "email"
	CtxRole        = "role"
)

// SessionAuth gates protected routes behind a bearer session token.  The
// check order matters: header shape first (MissingToken), then signature
// and expiry, then the purpose claim so a ten-minute verification token
// can never be replayed as a session, and finally a live lookup of the
// principal so a deactivated account is rejected even while its token is
// still unexpired.  Successful validation never refreshes the token.
func SessionAuth(tokens *auth.Service, principals *repository.PrincipalRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := tokens.Validate(raw, auth.PurposeSession)
			switch err {
			case nil:
			case auth.ErrTokenExpired:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
			case auth.ErrPurposeMismatch:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "wrong token type"})
			default:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			id, err := claims.PrincipalID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			p, err := principals.GetByID(ctx, id)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if !p.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account deactivated"})
			}

			c.Set(CtxPrincipalID, p.ID)
			c.Set(CtxEmail, p.Email)
			c.Set(CtxRole, p.Role)
			return next(c)
		}
	}
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/campusops/lab-seat-registration/internal/auth"
	"github.com/campusops/lab-seat-registration/internal/config"
	"github.com/campusops/lab-seat-registration/internal/handler"
	"github.com/campusops/lab-seat-registration/internal/middleware"
	"github.com/campusops/lab-seat-registration/internal/model"
	"github.com/campusops/lab-seat-registration/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the credential endpoints.  Unauthenticated flows
// (signup, login and the two-step self-service password reset) live under
// /v1/auth behind the rate limiter.  The faculty reset, provisioning and
// deactivation endpoints require a faculty session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *auth.Service, principals *repository.PrincipalRepo, rdb *redis.Client) {
	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1/auth", limiter)
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	// Two-step reset: verify-identity issues the ten-minute verification
	// token, reset-password consumes it.  No session is required for
	// either step; the token is the only state between them.
	g.POST("/verify-identity", a.VerifyIdentity)
	g.POST("/reset-password", a.ResetPassword)

	session := e.Group("/v1", middleware.SessionAuth(tokens, principals))
	session.GET("/me", a.Me)

	faculty := session.Group("/faculty", middleware.RequireRole(model.RoleFaculty))
	faculty.POST("/reset-password", a.FacultyReset)
	faculty.POST("/provision", a.Provision)
	faculty.POST("/deactivate", a.Deactivate)
}

// RegisterRegistrations wires the registration ledger endpoints.
// Creation and the active-record lookup are student operations; listing,
// closing and note edits are faculty operations.  The faculty listing is
// served through the Redis response cache.
func RegisterRegistrations(e *echo.Echo, r *handler.RegistrationHandler, tokens *auth.Service, principals *repository.PrincipalRepo, rdb *redis.Client) {
	session := e.Group("/v1", middleware.SessionAuth(tokens, principals))

	student := session.Group("", middleware.RequireRole(model.RoleStudent))
	student.POST("/registrations", r.Create)
	student.GET("/registrations/active", r.Active)

	faculty := session.Group("", middleware.RequireRole(model.RoleFaculty))
	faculty.GET("/registrations", r.List, middleware.CacheGET(config.LoadCacheConfig(), rdb))
	faculty.POST("/registrations/:id/end", r.End)
	faculty.PATCH("/registrations/:id/notes", r.UpdateNotes)
}

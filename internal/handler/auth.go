package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusops/lab-seat-registration/internal/auth"
	"github.com/campusops/lab-seat-registration/internal/config"
	"github.com/campusops/lab-seat-registration/internal/model"
	"github.com/campusops/lab-seat-registration/internal/repository"
	"github.com/campusops/lab-seat-registration/internal/validation"
)

// AuthHandler bundles dependencies for credential endpoints.
type AuthHandler struct {
	Cfg        config.Config
	Tokens     *auth.Service
	Principals principalStore
}

func NewAuthHandler(cfg config.Config, tokens *auth.Service, principals principalStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Tokens: tokens, Principals: principals}
}

// ----- DTOs -----

type signupReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	RollNo      string `json:"rollNo"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
}
type provisionReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type verifyIdentityReq struct {
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
type facultyResetReq struct {
	StudentEmail string `json:"studentEmail"`
	NewPassword  string `json:"newPassword"`
}
type deactivateReq struct {
	StudentEmail string `json:"studentEmail"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type principalPart struct {
	ID     uint64  `json:"id"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	RollNo *string `json:"rollNo,omitempty"`
}
type authResp struct {
	Principal principalPart `json:"principal"`
	Session   tokenPart     `json:"session"`
}

func toPrincipalPart(p model.Principal) principalPart {
	return principalPart{ID: p.ID, Email: p.Email, Role: p.Role, RollNo: p.RollNo}
}

// Signup: student self-provisioning.  Roll number and date of birth are
// required for students; the derived age must be 16-35.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := validation.StudentSignup(req.Email, req.Password, req.RollNo, req.DateOfBirth, time.Now().UTC()); !errs.Ok() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": errs})
	}
	dob, _ := time.Parse(validation.DOBLayout, req.DateOfBirth)
	rollNo := strings.TrimSpace(req.RollNo)

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := model.Principal{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleStudent,
		RollNo:       &rollNo,
		DateOfBirth:  &dob,
		IsActive:     true,
	}
	id, err := h.Principals.Create(ctx, &p)
	if err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		case repository.ErrRollNoExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "roll number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}
	p.ID = id

	session, err := h.Tokens.IssueSession(&p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		Principal: toPrincipalPart(p),
		Session:   tokenPart{Token: session.Token, Expires: session.Exp},
	})
}

// Login: verify credentials and return a session token.  Every failure
// mode (unknown email, wrong password, deactivated account) yields the
// same generic message so the response does not reveal which check failed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Principals.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !p.IsActive || !auth.VerifyPassword(p.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	session, err := h.Tokens.IssueSession(&p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	_ = h.Principals.TouchLastLogin(ctx, p.ID, time.Now().UTC())

	return c.JSON(http.StatusOK, authResp{
		Principal: toPrincipalPart(p),
		Session:   tokenPart{Token: session.Token, Expires: session.Exp},
	})
}

// VerifyIdentity: first step of self-service password reset.  An exact
// date-of-birth match yields a ten-minute verification token.  Unknown
// email and wrong date of birth produce the same generic error; the
// response must not reveal which field was wrong.
func (h *AuthHandler) VerifyIdentity(c echo.Context) error {
	var req verifyIdentityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || strings.TrimSpace(req.DateOfBirth) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/dateOfBirth required"})
	}
	dob, err := time.Parse(validation.DOBLayout, strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid identity details"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Principals.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid identity details"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !p.IsActive || p.DateOfBirth == nil || !sameDate(*p.DateOfBirth, dob) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid identity details"})
	}

	verification, err := h.Tokens.IssueVerification(&p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"verificationToken": tokenPart{Token: verification.Token, Expires: verification.Exp},
	})
}

// ResetPassword: second step of self-service reset.  The verification
// token is the only state carried between the two steps; once it expires
// the flow must restart from VerifyIdentity.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	claims, err := h.Tokens.Validate(strings.TrimSpace(req.Token), auth.PurposeVerification)
	switch err {
	case nil:
	case auth.ErrTokenExpired:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
	case auth.ErrPurposeMismatch:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "wrong token type"})
	default:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	if errs := validation.NewPassword(req.NewPassword); !errs.Ok() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": errs})
	}

	id, err := claims.PrincipalID()
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	hash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Principals.UpdatePassword(ctx, id, hash); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// FacultyReset: faculty-initiated password reset for a student, gated by
// role middleware.  It bypasses DOB verification on purpose: faculty are
// trusted to have verified the student's identity in person.
func (h *AuthHandler) FacultyReset(c echo.Context) error {
	var req facultyResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.StudentEmail = strings.ToLower(strings.TrimSpace(req.StudentEmail))
	if req.StudentEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "studentEmail required"})
	}
	if errs := validation.NewPassword(req.NewPassword); !errs.Ok() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	student, err := h.Principals.GetByEmail(ctx, req.StudentEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if student.Role != model.RoleStudent {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	hash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Principals.UpdatePassword(ctx, student.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Deactivate: faculty-initiated soft disable of a student account.  The
// session middleware rejects a deactivated principal on its next request,
// so no token revocation is needed.  Registration history is untouched.
func (h *AuthHandler) Deactivate(c echo.Context) error {
	var req deactivateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.StudentEmail = strings.ToLower(strings.TrimSpace(req.StudentEmail))
	if req.StudentEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "studentEmail required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	student, err := h.Principals.GetByEmail(ctx, req.StudentEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if student.Role != model.RoleStudent {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	if err := h.Principals.Deactivate(ctx, student.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Provision: faculty-created faculty account.
func (h *AuthHandler) Provision(c echo.Context) error {
	var req provisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := validation.FacultyProvision(req.Email, req.Password); !errs.Ok() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": errs})
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := model.Principal{Email: req.Email, PasswordHash: hash, Role: model.RoleFaculty, IsActive: true}
	id, err := h.Principals.Create(ctx, &p)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}
	p.ID = id
	return c.JSON(http.StatusCreated, echo.Map{"principal": toPrincipalPart(p)})
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"principal_id": c.Get("principal_id"),
		"email":        c.Get("email"),
		"role":         c.Get("role"),
	})
}

// sameDate compares two timestamps at date precision, ignoring the time
// of day and any zone the DATE column round-trip may have attached.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusops/lab-seat-registration/internal/config"
	"github.com/campusops/lab-seat-registration/internal/middleware"
	"github.com/campusops/lab-seat-registration/internal/model"
	"github.com/campusops/lab-seat-registration/internal/queue"
	"github.com/campusops/lab-seat-registration/internal/repository"
	queue_publisher "github.com/campusops/lab-seat-registration/internal/service"
	"github.com/campusops/lab-seat-registration/internal/validation"
)

// RegistrationHandler serves the registration ledger endpoints.  All
// methods assume JWT authentication and role checks already ran in
// middleware.  Conflict handling never pre-checks the ledger: the insert
// is attempted and the store's constraint rejection is the decision.
type RegistrationHandler struct {
	Cfg           config.Config
	Registrations registrationLedger
	Principals    principalStore
}

func NewRegistrationHandler(cfg config.Config, regs registrationLedger, principals principalStore) *RegistrationHandler {
	return &RegistrationHandler{Cfg: cfg, Registrations: regs, Principals: principals}
}

// ----- DTOs -----

type createRegistrationReq struct {
	LabID              string    `json:"labId"`
	WorkstationID      string    `json:"workstationId"`
	StartedAt          time.Time `json:"startedAt"`
	MachineFingerprint string    `json:"machineFingerprint"`
	ClientSystemInfo   string    `json:"clientSystemInfo"`
}
type endSessionReq struct {
	Notes *string `json:"notes"`
}
type notesReq struct {
	Notes string `json:"notes"`
}

type registrationResp struct {
	ID                 uint64     `json:"id"`
	StudentID          uint64     `json:"studentId"`
	RollNo             string     `json:"rollNo"`
	LabID              string     `json:"labId"`
	WorkstationID      string     `json:"workstationId"`
	StartedAt          time.Time  `json:"startedAt"`
	MachineFingerprint string     `json:"machineFingerprint"`
	ClientSystemInfo   string     `json:"clientSystemInfo,omitempty"`
	Status             string     `json:"status"`
	EndedAt            *time.Time `json:"endedAt,omitempty"`
	DurationSeconds    *uint32    `json:"durationSeconds,omitempty"`
	Duration           string     `json:"duration,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
}

func toRegistrationResp(r model.Registration) registrationResp {
	resp := registrationResp{
		ID:                 r.ID,
		StudentID:          r.StudentID,
		RollNo:             r.RollNo,
		LabID:              r.LabID,
		WorkstationID:      r.WorkstationID,
		StartedAt:          r.StartedAt,
		MachineFingerprint: r.MachineFingerprint,
		ClientSystemInfo:   r.ClientSystemInfo,
		Status:             r.Status,
		EndedAt:            r.EndedAt,
		DurationSeconds:    r.DurationSeconds,
		Notes:              r.Notes,
	}
	// Display duration is derived on read, never stored.
	if r.DurationSeconds != nil {
		resp.Duration = model.FormatDuration(*r.DurationSeconds)
	}
	return resp
}

// Create handles POST /v1/registrations for a student session.  The
// decision order is: structural validation, clock-skew window, then the
// atomic constrained insert whose duplicate-key outcome distinguishes a
// duplicate registration from a contested workstation.
func (h *RegistrationHandler) Create(c echo.Context) error {
	studentID, err := principalID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createRegistrationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := validation.RegistrationCreate(req.LabID, req.WorkstationID, req.MachineFingerprint, req.StartedAt); !errs.Ok() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": errs})
	}

	now := time.Now().UTC()
	skew := time.Duration(h.Cfg.ClockSkewMin) * time.Minute
	if !withinSkew(req.StartedAt, now, skew) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "stale timestamp",
			"startedAt": req.StartedAt,
			"window":    skew.String(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	student, err := h.Principals.GetByID(ctx, studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	rollNo := ""
	if student.RollNo != nil {
		rollNo = *student.RollNo
	}

	reg := model.Registration{
		StudentID:          studentID,
		RollNo:             rollNo,
		LabID:              strings.TrimSpace(req.LabID),
		WorkstationID:      strings.TrimSpace(req.WorkstationID),
		StartedAt:          req.StartedAt.UTC(),
		MachineFingerprint: strings.TrimSpace(req.MachineFingerprint),
		ClientSystemInfo:   req.ClientSystemInfo,
	}
	if err := h.Registrations.CreateActive(ctx, &reg); err != nil {
		var dup *repository.DuplicateRegistrationError
		var inUse *repository.WorkstationInUseError
		switch {
		case errors.As(err, &dup):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":         "duplicate registration",
				"labId":         dup.LabID,
				"workstationId": dup.WorkstationID,
			})
		case errors.As(err, &inUse):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":         "workstation in use",
				"labId":         inUse.LabID,
				"workstationId": inUse.WorkstationID,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create registration failed"})
	}

	// Best effort; an unreachable broker never fails the registration.
	_ = queue_publisher.PublishRegistrationCreated(ctx, queue.RegistrationCreatedEvent{
		RegistrationID:     reg.ID,
		StudentID:          reg.StudentID,
		RollNo:             reg.RollNo,
		LabID:              reg.LabID,
		WorkstationID:      reg.WorkstationID,
		StartedAt:          reg.StartedAt.Format(time.RFC3339),
		MachineFingerprint: reg.MachineFingerprint,
	})

	return c.JSON(http.StatusCreated, toRegistrationResp(reg))
}

// Active handles GET /v1/registrations/active: the calling student's own
// active registration, or 404 when none exists.
func (h *RegistrationHandler) Active(c echo.Context) error {
	studentID, err := principalID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reg, err := h.Registrations.ActiveByStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no active registration"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toRegistrationResp(reg))
}

// End handles POST /v1/registrations/:id/end for a faculty session.  The
// transition is one-way: a terminal record yields 409 with its current
// status and remains unchanged.
func (h *RegistrationHandler) End(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}
	var req endSessionReq
	_ = c.Bind(&req) // empty body allowed

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	maxDur := time.Duration(h.Cfg.MaxSessionHours) * time.Hour
	reg, err := h.Registrations.Close(ctx, id, req.Notes, time.Now().UTC(), maxDur)
	if err != nil {
		switch {
		case err == sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		case errors.Is(err, repository.ErrNotActive):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":  "invalid state transition",
				"status": reg.Status,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "end session failed"})
	}

	_ = queue_publisher.PublishSessionClosed(ctx, queue.ClosedEvent(reg))

	return c.JSON(http.StatusOK, toRegistrationResp(reg))
}

// UpdateNotes handles PATCH /v1/registrations/:id/notes.  Notes stay
// mutable after a record reaches a terminal status.
func (h *RegistrationHandler) UpdateNotes(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}
	var req notesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reg, err := h.Registrations.UpdateNotes(ctx, id, req.Notes)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update notes failed"})
	}
	return c.JSON(http.StatusOK, toRegistrationResp(reg))
}

// List handles GET /v1/registrations for faculty, with optional filters
// status, lab_id, roll_no, from and to (RFC3339).
func (h *RegistrationHandler) List(c echo.Context) error {
	filter := repository.ListFilter{
		Status: strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))),
		LabID:  strings.TrimSpace(c.QueryParam("lab_id")),
		RollNo: strings.TrimSpace(c.QueryParam("roll_no")),
	}
	if filter.Status != "" && filter.Status != model.StatusActive &&
		filter.Status != model.StatusCompleted && filter.Status != model.StatusInterrupted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from timestamp"})
		}
		filter.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to timestamp"})
		}
		filter.To = t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	regs, err := h.Registrations.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]registrationResp, 0, len(regs))
	for _, r := range regs {
		out = append(out, toRegistrationResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"registrations": out})
}

// withinSkew reports whether the client-reported start time falls inside
// the accepted window around server time.  Stale and future-dated
// submissions are both rejected.
func withinSkew(startedAt, now time.Time, skew time.Duration) bool {
	diff := now.Sub(startedAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= skew
}

// principalID extracts the authenticated principal's ID stored by the
// session middleware.
func principalID(c echo.Context) (uint64, error) {
	id, ok := c.Get(middleware.CtxPrincipalID).(uint64)
	if !ok || id == 0 {
		return 0, errors.New("no principal in context")
	}
	return id, nil
}

// Package validation performs structural, field-level validation of inbound
// payloads before any business logic runs.  Invariants that depend on
// stored state (uniqueness, state transitions) are not checked here; they
// belong to the repository layer and the store's atomic guarantees.
package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/campusops/lab-seat-registration/internal/model"
)

// Age bounds applied to student dates of birth at create/update time.
const (
	MinStudentAge = 16
	MaxStudentAge = 35
)

// DOBLayout is the wire format for dates of birth.
const DOBLayout = "2006-01-02"

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldError points a caller at a specific invalid input.  Errors are
// always returned as a list, never as a bare string, so clients can
// highlight individual form fields.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is an accumulating list of field errors.
type Errors []FieldError

func (e *Errors) add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Ok reports whether no errors were accumulated.
func (e Errors) Ok() bool { return len(e) == 0 }

// StudentSignup checks a student self-provisioning payload.  The dob
// string must parse with DOBLayout; the derived age must fall within the
// accepted bounds at the reference time.
func StudentSignup(email, password, rollNo, dob string, now time.Time) Errors {
	var errs Errors
	checkEmail(&errs, email)
	checkPassword(&errs, password)
	if strings.TrimSpace(rollNo) == "" {
		errs.add("rollNo", "roll number is required")
	}
	checkDOB(&errs, dob, now)
	return errs
}

// FacultyProvision checks a faculty account creation payload.  Faculty
// carry no roll number or date of birth.
func FacultyProvision(email, password string) Errors {
	var errs Errors
	checkEmail(&errs, email)
	checkPassword(&errs, password)
	return errs
}

// RegistrationCreate checks the structural fields of a registration
// submission.  Timestamp freshness is a business rule checked separately
// against the configured skew window.
func RegistrationCreate(labID, workstationID, fingerprint string, startedAt time.Time) Errors {
	var errs Errors
	if strings.TrimSpace(labID) == "" {
		errs.add("labId", "lab id is required")
	}
	if strings.TrimSpace(workstationID) == "" {
		errs.add("workstationId", "workstation id is required")
	}
	if strings.TrimSpace(fingerprint) == "" {
		errs.add("machineFingerprint", "machine fingerprint is required")
	}
	if startedAt.IsZero() {
		errs.add("startedAt", "start time is required")
	}
	return errs
}

// NewPassword checks a replacement password on the reset paths.  Errors
// are reported under the newPassword field those payloads use.
func NewPassword(password string) Errors {
	var errs Errors
	checkPasswordField(&errs, "newPassword", password)
	return errs
}

func checkEmail(errs *Errors, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.add("email", "email is required")
		return
	}
	if !emailRe.MatchString(email) {
		errs.add("email", "email is not valid")
	}
}

func checkPassword(errs *Errors, password string) {
	checkPasswordField(errs, "password", password)
}

func checkPasswordField(errs *Errors, field, password string) {
	if password == "" {
		errs.add(field, "password is required")
		return
	}
	if len(password) < 8 {
		errs.add(field, "password must be at least 8 characters")
	}
}

func checkDOB(errs *Errors, dob string, now time.Time) {
	if strings.TrimSpace(dob) == "" {
		errs.add("dateOfBirth", "date of birth is required")
		return
	}
	d, err := time.Parse(DOBLayout, dob)
	if err != nil {
		errs.add("dateOfBirth", "date of birth must be YYYY-MM-DD")
		return
	}
	age := model.AgeAt(d, now)
	if age < MinStudentAge || age > MaxStudentAge {
		errs.add("dateOfBirth", "age must be between 16 and 35")
	}
}

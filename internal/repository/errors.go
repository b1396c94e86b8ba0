package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmailExists is returned when a principal insert collides on email.
var ErrEmailExists = errors.New("email already exists")

// ErrRollNoExists is returned when a principal insert collides on roll number.
var ErrRollNoExists = errors.New("roll number already exists")

// ErrNotActive is returned by the close and interrupt paths when the
// target record is already in a terminal status.  Handlers translate it
// into a 409 carrying the record's current status.
var ErrNotActive = errors.New("registration is not active")

// DuplicateRegistrationError reports that the student already holds an
// active registration.  It carries the conflicting seat so the caller can
// tell the user where they are already signed in without a second query.
type DuplicateRegistrationError struct {
	LabID         string
	WorkstationID string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("student already has an active registration at %s/%s", e.LabID, e.WorkstationID)
}

// WorkstationInUseError reports that another student currently occupies
// the requested seat.
type WorkstationInUseError struct {
	LabID         string
	WorkstationID string
}

func (e *WorkstationInUseError) Error() string {
	return fmt.Sprintf("workstation %s/%s is in use", e.LabID, e.WorkstationID)
}

// Names of the partial-uniqueness guard indexes declared in the schema.
// MySQL duplicate-key messages quote the violated index, which is how a
// losing racer's 1062 is mapped back to the business conflict it means.
const (
	idxActiveStudent     = "uq_active_student"
	idxActiveWorkstation = "uq_active_workstation"
	idxPrincipalEmail    = "uq_principal_email"
	idxPrincipalRollNo   = "uq_principal_roll_no"
)

// isDuplicateKey reports whether err is a MySQL 1062 duplicate-key error
// on the named index.
func isDuplicateKey(err error, index string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1062") && strings.Contains(msg, index)
}

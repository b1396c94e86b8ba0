package model

import (
	"fmt"
	"time"
)

// Registration statuses.  ACTIVE is the only non-terminal status; once a
// record is COMPLETED or INTERRUPTED the only field that may still change
// is Notes.
const (
	StatusActive      = "ACTIVE"
	StatusCompleted   = "COMPLETED"
	StatusInterrupted = "INTERRUPTED"
)

// Terminal reports whether status names a terminal registration state.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusInterrupted
}

// Registration represents one occupancy session of a lab workstation by a
// student, as stored in the `registrations` table.  The MachineFingerprint
// is an opaque stable identifier reported by the client machine; the
// server attaches no semantics to it beyond equality.
//
// Fields:
//  ID                 – primary key identifier.
//  StudentID          – principal who occupies the seat.
//  RollNo             – denormalized roll number for faculty listings.
//  LabID              – lab the workstation belongs to.
//  WorkstationID      – seat identifier within the lab.
//  StartedAt          – client-reported session start, bounded by skew check.
//  MachineFingerprint – opaque workstation hardware identifier.
//  ClientSystemInfo   – free-form client environment description.
//  Status             – ACTIVE, COMPLETED or INTERRUPTED.
//  EndedAt            – when the session reached a terminal state.
//  DurationSeconds    – ended-started, clamped to the configured maximum.
//  Notes              – faculty-editable annotation, mutable in any state.
type Registration struct {
	ID                 uint64     // registrations.id
	StudentID          uint64     // registrations.student_id
	RollNo             string     // registrations.roll_no
	LabID              string     // registrations.lab_id
	WorkstationID      string     // registrations.workstation_id
	StartedAt          time.Time  // registrations.started_at
	MachineFingerprint string     // registrations.machine_fingerprint
	ClientSystemInfo   string     // registrations.client_system_info
	Status             string     // registrations.status
	EndedAt            *time.Time // registrations.ended_at (nullable)
	DurationSeconds    *uint32    // registrations.duration_seconds (nullable)
	Notes              *string    // registrations.notes (nullable)
	CreatedAt          time.Time  // registrations.created_at
	UpdatedAt          time.Time  // registrations.updated_at
}

// FormatDuration renders a second count as "1h 05m 09s".  Presentation
// values are derived on read and never stored, so they cannot go stale.
func FormatDuration(seconds uint32) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// ClampDuration bounds a computed session duration to max.  Negative
// durations (client clock ahead of the server at start) collapse to zero.
func ClampDuration(started, ended time.Time, max time.Duration) uint32 {
	d := ended.Sub(started)
	if d < 0 {
		d = 0
	}
	if d > max {
		d = max
	}
	return uint32(d / time.Second)
}

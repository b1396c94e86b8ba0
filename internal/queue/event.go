// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import (
	"time"

	"github.com/campusops/lab-seat-registration/internal/model"
)

// Queue names.  Both queues are declared durable by publisher and
// consumer alike so declaration stays idempotent on either side.
const (
	RegistrationCreatedQueue = "registration.created"
	SessionClosedQueue       = "session.closed"
)

// RegistrationCreatedEvent is published after a registration insert
// commits.  It carries enough context for downstream consumers (audit
// log, lab-usage analytics) without querying the primary database.
type RegistrationCreatedEvent struct {
	RegistrationID     uint64 `json:"registration_id"`
	StudentID          uint64 `json:"student_id"`
	RollNo             string `json:"roll_no"`
	LabID              string `json:"lab_id"`
	WorkstationID      string `json:"workstation_id"`
	StartedAt          string `json:"started_at"`
	MachineFingerprint string `json:"machine_fingerprint"`
}

// SessionClosedEvent is published when a registration reaches a terminal
// status, whether faculty-closed or swept as abandoned.
type SessionClosedEvent struct {
	RegistrationID  uint64 `json:"registration_id"`
	StudentID       uint64 `json:"student_id"`
	RollNo          string `json:"roll_no"`
	LabID           string `json:"lab_id"`
	WorkstationID   string `json:"workstation_id"`
	Status          string `json:"status"`
	EndedAt         string `json:"ended_at"`
	DurationSeconds uint32 `json:"duration_seconds"`
}

// ClosedEvent builds a SessionClosedEvent from a terminal registration.
// Nil terminal fields are tolerated so a partially loaded record still
// produces a well-formed payload.
func ClosedEvent(r model.Registration) SessionClosedEvent {
	ev := SessionClosedEvent{
		RegistrationID: r.ID,
		StudentID:      r.StudentID,
		RollNo:         r.RollNo,
		LabID:          r.LabID,
		WorkstationID:  r.WorkstationID,
		Status:         r.Status,
	}
	if r.EndedAt != nil {
		ev.EndedAt = r.EndedAt.UTC().Format(time.RFC3339)
	}
	if r.DurationSeconds != nil {
		ev.DurationSeconds = *r.DurationSeconds
	}
	return ev
}

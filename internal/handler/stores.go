package handler

import (
	"context"
	"time"

	"github.com/campusops/lab-seat-registration/internal/model"
	"github.com/campusops/lab-seat-registration/internal/repository"
)

// registrationLedger is the slice of the registration repository the
// handlers consume.  Taking an interface here keeps the HTTP layer
// testable without a database.
type registrationLedger interface {
	CreateActive(ctx context.Context, reg *model.Registration) error
	ActiveByStudent(ctx context.Context, studentID uint64) (model.Registration, error)
	Close(ctx context.Context, id uint64, notes *string, now time.Time, maxDuration time.Duration) (model.Registration, error)
	UpdateNotes(ctx context.Context, id uint64, notes string) (model.Registration, error)
	List(ctx context.Context, f repository.ListFilter) ([]model.Registration, error)
}

// principalStore is the slice of the principal repository the handlers
// consume.
type principalStore interface {
	Create(ctx context.Context, p *model.Principal) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Principal, error)
	GetByID(ctx context.Context, id uint64) (model.Principal, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	TouchLastLogin(ctx context.Context, id uint64, at time.Time) error
	Deactivate(ctx context.Context, id uint64) error
}

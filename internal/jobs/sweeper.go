package jobs

import (
	"context"
	"log"
	"time"

	"github.com/campusops/lab-seat-registration/internal/config"
	"github.com/campusops/lab-seat-registration/internal/model"
	"github.com/campusops/lab-seat-registration/internal/queue"
	queue_publisher "github.com/campusops/lab-seat-registration/internal/service"
)

// staleInterrupter is the slice of the registration repository the
// sweeper needs.
type staleInterrupter interface {
	InterruptStale(ctx context.Context, cutoff, now time.Time, maxDuration time.Duration) ([]model.Registration, error)
}

// StartAbandonmentSweeper periodically marks ACTIVE registrations older
// than the maximum session duration as INTERRUPTED.  A student who walks
// away without being signed out would otherwise hold their seat forever,
// and with it the one-active-per-student slot.  Each swept registration
// gets a session.closed event, the same one a faculty close publishes,
// so the audit log records both kinds of closure.
func StartAbandonmentSweeper(ctx context.Context, cfg config.Config, regs staleInterrupter) {
	interval := time.Duration(cfg.SweepIntervalMin) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	maxDuration := time.Duration(cfg.MaxSessionHours) * time.Hour

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				sweepOnce(tickCtx, regs, maxDuration, time.Now().UTC(), queue_publisher.PublishSessionClosed)
				cancel()
			}
		}
	}()
}

// sweepOnce runs a single sweep pass and publishes a closure event per
// interrupted registration.  Publish failures are logged and skipped;
// the database is the source of truth and the audit trail is best
// effort, matching the faculty close path.
func sweepOnce(ctx context.Context, regs staleInterrupter, maxDuration time.Duration, now time.Time, publish func(context.Context, queue.SessionClosedEvent) error) {
	swept, err := regs.InterruptStale(ctx, now.Add(-maxDuration), now, maxDuration)
	if err != nil {
		log.Printf("abandonment sweeper error: %v", err)
		return
	}
	if len(swept) == 0 {
		return
	}
	log.Printf("abandonment sweeper interrupted %d registrations", len(swept))
	for _, reg := range swept {
		if err := publish(ctx, queue.ClosedEvent(reg)); err != nil {
			log.Printf("abandonment sweeper publish registration %d: %v", reg.ID, err)
		}
	}
}

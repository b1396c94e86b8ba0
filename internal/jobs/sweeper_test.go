package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusops/lab-seat-registration/internal/model"
	"github.com/campusops/lab-seat-registration/internal/queue"
)

type fakeInterrupter struct {
	swept     []model.Registration
	err       error
	gotCutoff time.Time
	gotNow    time.Time
	gotMaxDur time.Duration
	callCount int
}

func (f *fakeInterrupter) InterruptStale(ctx context.Context, cutoff, now time.Time, maxDuration time.Duration) ([]model.Registration, error) {
	f.callCount++
	f.gotCutoff = cutoff
	f.gotNow = now
	f.gotMaxDur = maxDuration
	return f.swept, f.err
}

func sweptRegistration(id uint64, roll, lab, ws string, ended time.Time, seconds uint32) model.Registration {
	return model.Registration{
		ID:              id,
		StudentID:       id + 100,
		RollNo:          roll,
		LabID:           lab,
		WorkstationID:   ws,
		Status:          model.StatusInterrupted,
		StartedAt:       ended.Add(-time.Duration(seconds) * time.Second),
		EndedAt:         &ended,
		DurationSeconds: &seconds,
	}
}

func TestSweepPublishesClosureEvents(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeInterrupter{swept: []model.Registration{
		sweptRegistration(7, "21CS042", "Lab-1", "PC-03", now, 28800),
		sweptRegistration(9, "21EC011", "Lab-2", "PC-07", now, 28800),
	}}

	var published []queue.SessionClosedEvent
	sweepOnce(context.Background(), fake, 8*time.Hour, now, func(_ context.Context, ev queue.SessionClosedEvent) error {
		published = append(published, ev)
		return nil
	})

	if fake.callCount != 1 {
		t.Fatalf("InterruptStale called %d times, want 1", fake.callCount)
	}
	if want := now.Add(-8 * time.Hour); !fake.gotCutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", fake.gotCutoff, want)
	}
	if len(published) != 2 {
		t.Fatalf("published %d events, want 2", len(published))
	}
	first := published[0]
	if first.RegistrationID != 7 || first.RollNo != "21CS042" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.Status != model.StatusInterrupted {
		t.Fatalf("event status = %q, want %q", first.Status, model.StatusInterrupted)
	}
	if first.DurationSeconds != 28800 {
		t.Fatalf("event duration = %d, want 28800", first.DurationSeconds)
	}
	if first.EndedAt != now.Format(time.RFC3339) {
		t.Fatalf("event ended_at = %q, want %q", first.EndedAt, now.Format(time.RFC3339))
	}
	if published[1].RegistrationID != 9 || published[1].WorkstationID != "PC-07" {
		t.Fatalf("unexpected second event: %+v", published[1])
	}
}

func TestSweepSkipsPublishOnSweepError(t *testing.T) {
	fake := &fakeInterrupter{err: errors.New("db down")}

	calls := 0
	sweepOnce(context.Background(), fake, 8*time.Hour, time.Now().UTC(), func(context.Context, queue.SessionClosedEvent) error {
		calls++
		return nil
	})
	if calls != 0 {
		t.Fatalf("publish called %d times after sweep error, want 0", calls)
	}
}

func TestSweepPublishFailureDoesNotStopRemaining(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeInterrupter{swept: []model.Registration{
		sweptRegistration(1, "21CS001", "Lab-1", "PC-01", now, 60),
		sweptRegistration(2, "21CS002", "Lab-1", "PC-02", now, 60),
	}}

	var seen []uint64
	sweepOnce(context.Background(), fake, 8*time.Hour, now, func(_ context.Context, ev queue.SessionClosedEvent) error {
		seen = append(seen, ev.RegistrationID)
		if ev.RegistrationID == 1 {
			return errors.New("broker unavailable")
		}
		return nil
	})
	if len(seen) != 2 || seen[1] != 2 {
		t.Fatalf("publish attempts = %v, want both registrations", seen)
	}
}

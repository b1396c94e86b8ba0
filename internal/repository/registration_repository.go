package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/campusops/lab-seat-registration/internal/model"
)

// RegistrationRepo owns the registration ledger.  The one-active-per-
// student and one-active-per-workstation invariants are not checked by
// application code; they live in the uq_active_student and
// uq_active_workstation indexes, so two racing submissions are resolved
// by the store and the loser observes a duplicate-key rejection here.
type RegistrationRepo struct{ DB *sql.DB }

func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{DB: db} }

const registrationColumns = `id, student_id, roll_no, lab_id, workstation_id, started_at,
	machine_fingerprint, client_system_info, status, ended_at, duration_seconds, notes,
	created_at, updated_at`

// CreateActive inserts a new ACTIVE registration in a single constrained
// statement.  There is deliberately no prior existence check: a
// read-then-write here would race.  On a student-guard collision the
// conflicting record is fetched so the caller can report where the
// student is already signed in; on a workstation-guard collision a
// WorkstationInUseError names the contested seat.
func (r *RegistrationRepo) CreateActive(ctx context.Context, reg *model.Registration) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO registrations
		 (student_id, roll_no, lab_id, workstation_id, started_at, machine_fingerprint, client_system_info, status, is_current)
		 VALUES (?,?,?,?,?,?,?,?,1)`,
		reg.StudentID, reg.RollNo, reg.LabID, reg.WorkstationID, reg.StartedAt.UTC(),
		reg.MachineFingerprint, reg.ClientSystemInfo, model.StatusActive)
	if err != nil {
		switch {
		case isDuplicateKey(err, idxActiveStudent):
			dup := &DuplicateRegistrationError{}
			if existing, lookupErr := r.ActiveByStudent(ctx, reg.StudentID); lookupErr == nil {
				dup.LabID = existing.LabID
				dup.WorkstationID = existing.WorkstationID
			}
			return dup
		case isDuplicateKey(err, idxActiveWorkstation):
			return &WorkstationInUseError{LabID: reg.LabID, WorkstationID: reg.WorkstationID}
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reg.ID = uint64(id)
	// Read the row back to pick up store-side defaults and timestamps.
	stored, err := r.GetByID(ctx, reg.ID)
	if err != nil {
		return err
	}
	*reg = stored
	return nil
}

// GetByID fetches a single registration.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (model.Registration, error) {
	return scanRegistration(r.DB.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id=? LIMIT 1`, id))
}

// ActiveByStudent returns the student's current ACTIVE registration, or
// sql.ErrNoRows when the student holds none.
func (r *RegistrationRepo) ActiveByStudent(ctx context.Context, studentID uint64) (model.Registration, error) {
	return scanRegistration(r.DB.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE student_id=? AND status=? LIMIT 1`, studentID, model.StatusActive))
}

// Close completes an ACTIVE registration: stamps ended_at, computes the
// clamped duration, clears the is_current guard and sets COMPLETED.  The
// status check and the update run in one transaction with a row lock so a
// concurrent close cannot complete the same record twice.  When the
// record is already terminal the loaded record is returned alongside
// ErrNotActive so the caller can report its current status.
func (r *RegistrationRepo) Close(ctx context.Context, id uint64, notes *string, now time.Time, maxDuration time.Duration) (model.Registration, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Registration{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	reg, err := scanRegistration(tx.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id=? FOR UPDATE`, id))
	if err != nil {
		return model.Registration{}, err
	}
	if model.Terminal(reg.Status) {
		return reg, ErrNotActive
	}

	ended := now.UTC()
	seconds := model.ClampDuration(reg.StartedAt, ended, maxDuration)
	if notes == nil {
		notes = reg.Notes
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE registrations
		 SET status=?, is_current=NULL, ended_at=?, duration_seconds=?, notes=?
		 WHERE id=?`,
		model.StatusCompleted, ended, seconds, notes, id); err != nil {
		return model.Registration{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Registration{}, err
	}
	committed = true

	reg.Status = model.StatusCompleted
	reg.EndedAt = &ended
	reg.DurationSeconds = &seconds
	reg.Notes = notes
	return reg, nil
}

// InterruptStale transitions every ACTIVE registration that started
// before cutoff to INTERRUPTED, clearing the guard column and recording a
// duration clamped to maxDuration.  The stale rows are selected under a
// row lock and updated in the same transaction, so a concurrent faculty
// close cannot complete a record the sweep is interrupting.  The swept
// records are returned with their terminal fields populated so the caller
// can publish a closure event for each.
func (r *RegistrationRepo) InterruptStale(ctx context.Context, cutoff, now time.Time, maxDuration time.Duration) ([]model.Registration, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE status=? AND started_at < ? FOR UPDATE`,
		model.StatusActive, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	stale := make([]model.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistrationRows(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		stale = append(stale, reg)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(stale) == 0 {
		return nil, nil
	}

	maxSeconds := int64(maxDuration / time.Second)
	if _, err := tx.ExecContext(ctx,
		`UPDATE registrations
		 SET status=?, is_current=NULL, ended_at=?,
		     duration_seconds=LEAST(TIMESTAMPDIFF(SECOND, started_at, ?), ?)
		 WHERE status=? AND started_at < ?`,
		model.StatusInterrupted, now.UTC(), now.UTC(), maxSeconds,
		model.StatusActive, cutoff.UTC()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	ended := now.UTC()
	for i := range stale {
		seconds := model.ClampDuration(stale[i].StartedAt, ended, maxDuration)
		stale[i].Status = model.StatusInterrupted
		stale[i].EndedAt = &ended
		stale[i].DurationSeconds = &seconds
	}
	return stale, nil
}

// UpdateNotes replaces the notes annotation.  Notes are the one field
// that stays mutable after a record reaches a terminal status.
func (r *RegistrationRepo) UpdateNotes(ctx context.Context, id uint64, notes string) (model.Registration, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE registrations SET notes=? WHERE id=?`, notes, id)
	if err != nil {
		return model.Registration{}, err
	}
	if err := requireRow(res); err != nil {
		return model.Registration{}, err
	}
	return r.GetByID(ctx, id)
}

// ListFilter narrows faculty registration listings.  Zero values mean
// "no filter"; From/To bound started_at inclusively.
type ListFilter struct {
	Status string
	LabID  string
	RollNo string
	From   time.Time
	To     time.Time
}

// List returns registrations matching the filter, newest first.
func (r *RegistrationRepo) List(ctx context.Context, f ListFilter) ([]model.Registration, error) {
	var where []string
	var args []interface{}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.LabID != "" {
		where = append(where, "lab_id=?")
		args = append(args, f.LabID)
	}
	if f.RollNo != "" {
		where = append(where, "roll_no=?")
		args = append(args, f.RollNo)
	}
	if !f.From.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "started_at <= ?")
		args = append(args, f.To.UTC())
	}
	q := `SELECT ` + registrationColumns + ` FROM registrations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistrationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRegistration(row *sql.Row) (model.Registration, error) {
	return scanRegistrationFrom(row)
}

func scanRegistrationRows(rows *sql.Rows) (model.Registration, error) {
	return scanRegistrationFrom(rows)
}

func scanRegistrationFrom(s rowScanner) (model.Registration, error) {
	var reg model.Registration
	var sysInfo, notes sql.NullString
	var endedAt sql.NullTime
	var duration sql.NullInt64
	err := s.Scan(&reg.ID, &reg.StudentID, &reg.RollNo, &reg.LabID, &reg.WorkstationID,
		&reg.StartedAt, &reg.MachineFingerprint, &sysInfo, &reg.Status,
		&endedAt, &duration, &notes, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return model.Registration{}, err
	}
	if sysInfo.Valid {
		reg.ClientSystemInfo = sysInfo.String
	}
	if endedAt.Valid {
		v := endedAt.Time
		reg.EndedAt = &v
	}
	if duration.Valid {
		v := uint32(duration.Int64)
		reg.DurationSeconds = &v
	}
	if notes.Valid {
		v := notes.String
		reg.Notes = &v
	}
	return reg, nil
}

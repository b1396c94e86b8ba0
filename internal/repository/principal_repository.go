package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/campusops/lab-seat-registration/internal/model"
)

// PrincipalRepo provides access to the principals table.  All emails are
// normalized to lowercase before they touch the database so the unique
// index doubles as a case-insensitive check.
type PrincipalRepo struct{ DB *sql.DB }

func NewPrincipalRepo(db *sql.DB) *PrincipalRepo { return &PrincipalRepo{DB: db} }

const principalColumns = `id, email, password_hash, role, roll_no, date_of_birth, is_active, last_login_at, created_at, updated_at`

// Create inserts a principal with an already-hashed password and returns
// its ID.  Email and roll-number collisions are reported as sentinel
// errors mapped from the store's duplicate-key rejection.
func (r *PrincipalRepo) Create(ctx context.Context, p *model.Principal) (uint64, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO principals (email, password_hash, role, roll_no, date_of_birth) VALUES (?,?,?,?,?)`,
		p.Email, p.PasswordHash, p.Role, p.RollNo, p.DateOfBirth)
	if err != nil {
		switch {
		case isDuplicateKey(err, idxPrincipalEmail):
			return 0, ErrEmailExists
		case isDuplicateKey(err, idxPrincipalRollNo):
			return 0, ErrRollNoExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a principal by normalized email.
func (r *PrincipalRepo) GetByEmail(ctx context.Context, email string) (model.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE email=? LIMIT 1`, email))
}

// GetByID fetches a principal by id.
func (r *PrincipalRepo) GetByID(ctx context.Context, id uint64) (model.Principal, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id=? LIMIT 1`, id))
}

// UpdatePassword replaces the stored hash.  Used by both the self-service
// (DOB-verified) and the faculty-initiated reset paths.
func (r *PrincipalRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE principals SET password_hash=? WHERE id=?`, hash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// TouchLastLogin stamps a successful login.
func (r *PrincipalRepo) TouchLastLogin(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE principals SET last_login_at=? WHERE id=?`, at.UTC(), id)
	return err
}

// Deactivate soft-disables a principal.  History is never deleted; an
// inactive principal simply fails session validation from then on.
func (r *PrincipalRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE principals SET is_active=0 WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PrincipalRepo) scanOne(row *sql.Row) (model.Principal, error) {
	var p model.Principal
	var rollNo sql.NullString
	var dob, lastLogin sql.NullTime
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Role, &rollNo, &dob,
		&p.IsActive, &lastLogin, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Principal{}, err
	}
	if rollNo.Valid {
		v := rollNo.String
		p.RollNo = &v
	}
	if dob.Valid {
		v := dob.Time
		p.DateOfBirth = &v
	}
	if lastLogin.Valid {
		v := lastLogin.Time
		p.LastLoginAt = &v
	}
	return p, nil
}

// requireRow converts a zero-row update into sql.ErrNoRows so callers can
// distinguish "no such principal" from success.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

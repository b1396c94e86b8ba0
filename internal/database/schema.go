package database

import (
	"context"
	"database/sql"
)

// The two uq_active_* indexes are the registration ledger's whole
// concurrency story: is_current is 1 while a registration is ACTIVE and
// NULL once it reaches a terminal status, so MySQL enforces at most one
// active row per student and per workstation while ignoring history.
// The index names matter: the repository maps duplicate-key errors back
// to business conflicts by matching them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS principals (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(100)    NOT NULL,
		role          VARCHAR(16)     NOT NULL,
		roll_no       VARCHAR(32)     NULL,
		date_of_birth DATE            NULL,
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		last_login_at DATETIME        NULL,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_principal_email (email),
		UNIQUE KEY uq_principal_roll_no (roll_no)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS registrations (
		id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_id          BIGINT UNSIGNED NOT NULL,
		roll_no             VARCHAR(32)     NOT NULL,
		lab_id              VARCHAR(64)     NOT NULL,
		workstation_id      VARCHAR(64)     NOT NULL,
		started_at          DATETIME        NOT NULL,
		machine_fingerprint VARCHAR(128)    NOT NULL,
		client_system_info  TEXT            NULL,
		status              VARCHAR(16)     NOT NULL DEFAULT 'ACTIVE',
		is_current          TINYINT(1)      NULL DEFAULT 1,
		ended_at            DATETIME        NULL,
		duration_seconds    INT UNSIGNED    NULL,
		notes               TEXT            NULL,
		created_at          DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_active_student (student_id, is_current),
		UNIQUE KEY uq_active_workstation (lab_id, workstation_id, is_current),
		KEY idx_registrations_status (status),
		KEY idx_registrations_roll_no (roll_no),
		CONSTRAINT fk_registration_student FOREIGN KEY (student_id) REFERENCES principals (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables and guard indexes if they do not exist.
// Statements are idempotent so running at every startup is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

package model

import "time"

// Roles recognized by the service.  Role is a closed two-variant set
// checked once at the authorization boundary; business code never
// branches on raw strings from the client.
const (
	RoleStudent = "STUDENT"
	RoleFaculty = "FACULTY"
)

// Principal represents an authenticated identity as stored in the
// `principals` table.  Students additionally carry a roll number and a
// date of birth; both are nil for faculty.  Accounts are never hard
// deleted; IsActive soft-disables a principal while keeping its
// registration history intact.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address, stored lowercased.
//  PasswordHash – bcrypt hashed password.
//  Role         – STUDENT or FACULTY.
//  RollNo       – unique roll number (students only).
//  DateOfBirth  – date of birth (students only), date precision.
//  IsActive     – whether the account may authenticate.
//  LastLoginAt  – timestamp of the most recent successful login.
type Principal struct {
	ID           uint64     // principals.id
	Email        string     // principals.email
	PasswordHash string     // principals.password_hash
	Role         string     // principals.role
	RollNo       *string    // principals.roll_no (nullable)
	DateOfBirth  *time.Time // principals.date_of_birth (nullable)
	IsActive     bool       // principals.is_active
	LastLoginAt  *time.Time // principals.last_login_at (nullable)
	CreatedAt    time.Time  // principals.created_at
	UpdatedAt    time.Time  // principals.updated_at
}

// Age returns the principal's age in whole years at the reference time.
// It returns -1 when no date of birth is recorded.
func (p *Principal) Age(at time.Time) int {
	if p.DateOfBirth == nil {
		return -1
	}
	return AgeAt(*p.DateOfBirth, at)
}

// AgeAt computes the number of whole years between dob and at.
func AgeAt(dob, at time.Time) int {
	years := at.Year() - dob.Year()
	// Subtract one year if the birthday has not occurred yet this year.
	anniversary := time.Date(at.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	if at.Before(anniversary) {
		years--
	}
	return years
}

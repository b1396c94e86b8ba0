package validation

import (
	"testing"
	"time"
)

var refNow = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

func hasFieldError(errs Errors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestStudentSignupValid(t *testing.T) {
	errs := StudentSignup("a@x.edu", "password123", "CS-2022-017", "2002-05-01", refNow)
	if !errs.Ok() {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestStudentSignupMissingFields(t *testing.T) {
	errs := StudentSignup("", "", "", "", refNow)
	for _, field := range []string{"email", "password", "rollNo", "dateOfBirth"} {
		if !hasFieldError(errs, field) {
			t.Fatalf("expected error for %s, got %v", field, errs)
		}
	}
}

func TestStudentSignupAgeBounds(t *testing.T) {
	cases := []struct {
		name string
		dob  string
		ok   bool
	}{
		{"too young", "2010-01-01", false},
		{"just sixteen", "2008-09-01", true},
		{"just thirty five", "1989-09-01", true},
		{"too old", "1985-01-01", false},
	}
	for _, tc := range cases {
		errs := StudentSignup("a@x.edu", "password123", "R-1", tc.dob, refNow)
		if tc.ok && hasFieldError(errs, "dateOfBirth") {
			t.Fatalf("%s: unexpected dateOfBirth error: %v", tc.name, errs)
		}
		if !tc.ok && !hasFieldError(errs, "dateOfBirth") {
			t.Fatalf("%s: expected dateOfBirth error, got %v", tc.name, errs)
		}
	}
}

func TestStudentSignupBadDOBFormat(t *testing.T) {
	errs := StudentSignup("a@x.edu", "password123", "R-1", "01/05/2002", refNow)
	if !hasFieldError(errs, "dateOfBirth") {
		t.Fatalf("expected dateOfBirth error, got %v", errs)
	}
}

func TestStudentSignupBadEmail(t *testing.T) {
	errs := StudentSignup("not-an-email", "password123", "R-1", "2002-05-01", refNow)
	if !hasFieldError(errs, "email") {
		t.Fatalf("expected email error, got %v", errs)
	}
}

func TestShortPassword(t *testing.T) {
	// Reset payloads carry the password under newPassword, so the error
	// must come back under that field.
	errs := NewPassword("short")
	if !hasFieldError(errs, "newPassword") {
		t.Fatalf("expected newPassword error, got %v", errs)
	}
	if errs := NewPassword("long enough"); !errs.Ok() {
		t.Fatalf("expected no errors, got %v", errs)
	}
	// Signup still reports under password.
	if errs := StudentSignup("a@x.edu", "short", "21CS042", "2002-05-01", refNow); !hasFieldError(errs, "password") {
		t.Fatalf("expected password error on signup, got %v", errs)
	}
}

func TestRegistrationCreateMissingFields(t *testing.T) {
	errs := RegistrationCreate("", "", "", time.Time{})
	for _, field := range []string{"labId", "workstationId", "machineFingerprint", "startedAt"} {
		if !hasFieldError(errs, field) {
			t.Fatalf("expected error for %s, got %v", field, errs)
		}
	}
	errs = RegistrationCreate("Lab-1", "PC-03", "fp-abc", refNow)
	if !errs.Ok() {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

package auth

import (
	"testing"
	"time"

	"github.com/campusops/lab-seat-registration/internal/model"
)

func newTestService(t *testing.T, sessionTTL, verifyTTL time.Duration) *Service {
	t.Helper()
	svc, err := NewService("test-secret", sessionTTL, verifyTTL)
	if err != nil {
		t.Fatalf("service error: %v", err)
	}
	return svc
}

func testPrincipal() *model.Principal {
	return &model.Principal{ID: 42, Email: "a@x.edu", Role: model.RoleStudent}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService("", time.Hour, time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	svc := newTestService(t, 24*time.Hour, 10*time.Minute)
	issued, err := svc.IssueSession(testPrincipal())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	claims, err := svc.Validate(issued.Token, PurposeSession)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	id, err := claims.PrincipalID()
	if err != nil {
		t.Fatalf("principal id error: %v", err)
	}
	if id != 42 || claims.Email != "a@x.edu" || claims.Role != model.RoleStudent {
		t.Fatalf("unexpected claims: id=%d email=%s role=%s", id, claims.Email, claims.Role)
	}
}

func TestValidateExpired(t *testing.T) {
	svc := newTestService(t, -time.Minute, 10*time.Minute)
	issued, err := svc.IssueSession(testPrincipal())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := svc.Validate(issued.Token, PurposeSession); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidatePurposeMismatch(t *testing.T) {
	svc := newTestService(t, 24*time.Hour, 10*time.Minute)

	session, err := svc.IssueSession(testPrincipal())
	if err != nil {
		t.Fatalf("issue session error: %v", err)
	}
	verification, err := svc.IssueVerification(testPrincipal())
	if err != nil {
		t.Fatalf("issue verification error: %v", err)
	}

	// A verification token must not pass where a session is expected.
	if _, err := svc.Validate(verification.Token, PurposeSession); err != ErrPurposeMismatch {
		t.Fatalf("expected ErrPurposeMismatch, got %v", err)
	}
	// And the other way around.
	if _, err := svc.Validate(session.Token, PurposeVerification); err != ErrPurposeMismatch {
		t.Fatalf("expected ErrPurposeMismatch, got %v", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	svc := newTestService(t, 24*time.Hour, 10*time.Minute)
	issued, err := svc.IssueSession(testPrincipal())
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	other, err := NewService("other-secret", 24*time.Hour, 10*time.Minute)
	if err != nil {
		t.Fatalf("service error: %v", err)
	}
	if _, err := other.Validate(issued.Token, PurposeSession); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidateGarbage(t *testing.T) {
	svc := newTestService(t, 24*time.Hour, 10*time.Minute)
	if _, err := svc.Validate("not.a.token", PurposeSession); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerificationTTLShorterThanSession(t *testing.T) {
	svc := newTestService(t, 24*time.Hour, 10*time.Minute)
	session, _ := svc.IssueSession(testPrincipal())
	verification, _ := svc.IssueVerification(testPrincipal())
	if !verification.Exp.Before(session.Exp) {
		t.Fatalf("verification token should expire before session: %v vs %v", verification.Exp, session.Exp)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "wrong horse") {
		t.Fatal("expected wrong password to fail")
	}
}

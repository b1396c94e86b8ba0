package model

import (
	"testing"
	"time"
)

func TestAgeAt(t *testing.T) {
	dob := time.Date(2002, 5, 1, 0, 0, 0, 0, time.UTC)

	// Day before the birthday the age has not ticked over yet.
	if got := AgeAt(dob, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)); got != 21 {
		t.Fatalf("expected 21, got %d", got)
	}
	// On the birthday it has.
	if got := AgeAt(dob, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)); got != 22 {
		t.Fatalf("expected 22, got %d", got)
	}
}

func TestPrincipalAgeWithoutDOB(t *testing.T) {
	p := Principal{}
	if got := p.Age(time.Now()); got != -1 {
		t.Fatalf("expected -1 for missing dob, got %d", got)
	}
}

package guardrail

import (
	"errors"
	"testing"
)

func TestRequired(t *testing.T) {
	if rej := Required("corridor", "US-IN")(); rej != nil {
		t.Fatalf("expected pass, got %v", rej)
	}
	for _, v := range []string{"", "   ", "\t"} {
		rej := Required("corridor", v)()
		if rej == nil {
			t.Fatalf("expected rejection for %q", v)
		}
		if rej.Check != "corridor" {
			t.Errorf("check = %q, want corridor", rej.Check)
		}
	}
}

func TestCorridorAllowed(t *testing.T) {
	allowed := []string{"US-IN", "UK-IN"}

	for _, c := range allowed {
		if rej := CorridorAllowed(c, allowed)(); rej != nil {
			t.Errorf("corridor %q rejected: %v", c, rej)
		}
	}

	for _, c := range []string{"US-MX", "us-in", "IN-US", ""} {
		if rej := CorridorAllowed(c, allowed)(); rej == nil {
			t.Errorf("corridor %q should be rejected", c)
		}
	}
}

func TestRun_FirstFailureShortCircuits(t *testing.T) {
	second := false
	err := Run(
		func() *RejectionError { return &RejectionError{Check: "first", Message: "nope"} },
		func() *RejectionError { second = true; return nil },
	)
	if err == nil {
		t.Fatal("expected rejection")
	}
	if second {
		t.Error("second check ran after first rejection")
	}

	var rej *RejectionError
	if !errors.As(err, &rej) || rej.Check != "first" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRun_AllPass(t *testing.T) {
	err := Run(
		Required("corridor", "US-IN"),
		CorridorAllowed("US-IN", []string{"US-IN"}),
	)
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}

func TestRejectionError_UnwrapsSentinel(t *testing.T) {
	err := Run(CorridorAllowed("US-MX", []string{"US-IN"}))
	if !errors.Is(err, ErrRejected) {
		t.Errorf("rejection does not unwrap to ErrRejected: %v", err)
	}
}

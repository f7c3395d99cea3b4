package dErrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	err := New(CodeForbidden, "not your listing")
	if !HasCode(err, CodeForbidden) {
		t.Fatalf("expected CodeForbidden")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatalf("did not expect CodeNotFound")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "listing insert failed")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause in chain")
	}
	if !HasCode(err, CodeInternal) {
		t.Fatalf("expected CodeInternal")
	}
	// A further fmt wrap must not lose the code.
	outer := fmt.Errorf("create: %w", err)
	if !HasCode(outer, CodeInternal) {
		t.Fatalf("expected code to survive fmt wrapping")
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Fatalf("expected CodeInternal for uncoded error, got %s", got)
	}
	if got := CodeOf(New(CodeValidation, "price must be positive")); got != CodeValidation {
		t.Fatalf("expected CodeValidation, got %s", got)
	}
}

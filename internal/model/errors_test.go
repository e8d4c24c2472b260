package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := Errorf(KindNotFound, "no element matches %s", `name="Save"`)
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should match sentinel of the same kind")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("errors.Is should not match a different kind")
	}
	wrapped := fmt.Errorf("click: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is should see through fmt wrapping")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q", got)
	}
	if got := KindOf(errors.New("boom")); got != KindInternalFault {
		t.Errorf("KindOf(foreign) = %q, want internal_fault", got)
	}
	if got := KindOf(Errorf(KindStaleReference, "gone")); got != KindStaleReference {
		t.Errorf("KindOf = %q", got)
	}
}

func TestError_MessageIncludesDetails(t *testing.T) {
	err := Errorf(KindTimeout, "element did not appear").With("elapsed", "2s").With("attempts", 5)
	msg := err.Error()
	for _, want := range []string{"timeout", "element did not appear", "attempts=5", "elapsed=2s"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestAutomationResult_FailPromotesCandidates(t *testing.T) {
	cands := []ElementInfo{{Name: "Save"}, {Name: "Save"}}
	err := &Error{Kind: KindMultipleMatches, Message: "2 elements match", Candidates: cands}
	var r AutomationResult
	r.Fail(fmt.Errorf("click: %w", err))
	if r.Success {
		t.Fatal("Fail should clear Success")
	}
	if r.ErrorKind != KindMultipleMatches {
		t.Errorf("kind = %s", r.ErrorKind)
	}
	if len(r.Diagnostics.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(r.Diagnostics.Candidates))
	}
	if !errors.Is(r.Err(), ErrMultipleMatches) {
		t.Errorf("Err() = %v", r.Err())
	}
}

func TestAutomationResult_FailRecordsPartial(t *testing.T) {
	var r AutomationResult
	r.Fail(&PartialError{Completed: 17, Err: Errorf(KindPermissionDenied, "input blocked")})
	if r.PartialCount != 17 {
		t.Errorf("PartialCount = %d, want 17", r.PartialCount)
	}
	if r.ErrorKind != KindPermissionDenied {
		t.Errorf("kind = %s", r.ErrorKind)
	}
}

package model

import (
	"errors"
	"time"
)

// Diagnostics travels with every result so callers can decide whether to
// retry, refine or abandon.
type Diagnostics struct {
	RequestID       string        `yaml:"request_id"                 json:"request_id"`
	Duration        time.Duration `yaml:"duration"                   json:"duration"`
	ElementsScanned int           `yaml:"elements_scanned,omitempty" json:"elements_scanned,omitempty"`
	Attempts        int           `yaml:"attempts,omitempty"         json:"attempts,omitempty"`
	Window          uintptr       `yaml:"window,omitempty"           json:"window,omitempty"`
	Query           string        `yaml:"query,omitempty"            json:"query,omitempty"`
	Strategy        string        `yaml:"strategy,omitempty"         json:"strategy,omitempty"`
	Method          string        `yaml:"method,omitempty"           json:"method,omitempty"`
	Candidates      []ElementInfo `yaml:"candidates,omitempty"       json:"candidates,omitempty"`
}

// AutomationResult is the caller-facing outcome of one operation.
type AutomationResult struct {
	Success      bool           `yaml:"success"                 json:"success"`
	Element      *ElementInfo   `yaml:"element,omitempty"       json:"element,omitempty"`
	Elements     []ElementInfo  `yaml:"elements,omitempty"      json:"elements,omitempty"`
	Windows      []WindowInfo   `yaml:"windows,omitempty"       json:"windows,omitempty"`
	Text         string         `yaml:"text,omitempty"          json:"text,omitempty"`
	TextSource   string         `yaml:"text_source,omitempty"   json:"text_source,omitempty"`
	PartialCount int            `yaml:"partial_count,omitempty" json:"partial_count,omitempty"`
	Released     int            `yaml:"released,omitempty"      json:"released,omitempty"`
	HeldKeys     []string       `yaml:"held_keys,omitempty"     json:"held_keys,omitempty"`
	ErrorKind    ErrorKind      `yaml:"error_kind,omitempty"    json:"error_kind,omitempty"`
	Message      string         `yaml:"message,omitempty"       json:"message,omitempty"`
	Details      map[string]any `yaml:"details,omitempty"       json:"details,omitempty"`
	Diagnostics  Diagnostics    `yaml:"diagnostics"             json:"diagnostics"`
}

// Err reconstructs the structured error of a failed result, or nil.
func (r *AutomationResult) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.ErrorKind, Message: r.Message, Details: r.Details, Candidates: r.Diagnostics.Candidates}
}

// Fail fills the failure fields from err. Candidates attached to the error
// are promoted into the diagnostics.
func (r *AutomationResult) Fail(err error) {
	e := AsError(err)
	r.Success = false
	r.ErrorKind = e.Kind
	r.Message = e.Message
	if e.Err != nil {
		if r.Message != "" {
			r.Message += ": "
		}
		r.Message += e.Err.Error()
	}
	r.Details = e.Details
	if len(e.Candidates) > 0 {
		r.Diagnostics.Candidates = e.Candidates
	}
	var pe *PartialError
	if errors.As(err, &pe) {
		r.PartialCount = pe.Completed
	}
}

// PartialError reports how much of an input operation completed before it
// failed. Completed work is never rolled back.
type PartialError struct {
	Completed int
	Err       error
}

func (e *PartialError) Error() string { return e.Err.Error() }

func (e *PartialError) Unwrap() error { return e.Err }

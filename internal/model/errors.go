package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies every failure the engine reports to callers.
type ErrorKind string

const (
	KindNotFound              ErrorKind = "not_found"
	KindTimeout               ErrorKind = "timeout"
	KindMultipleMatches       ErrorKind = "multiple_matches"
	KindUnsupportedCapability ErrorKind = "unsupported_capability"
	KindStaleReference        ErrorKind = "stale_reference"
	KindPermissionDenied      ErrorKind = "permission_denied"
	KindInvalidInput          ErrorKind = "invalid_input"
	KindEnvironmentBlocked    ErrorKind = "environment_blocked"
	KindScrollExhausted       ErrorKind = "scroll_exhausted"
	KindInternalFault         ErrorKind = "internal_fault"
	KindWindowNotFound        ErrorKind = "window_not_found"
	KindInvalidKey            ErrorKind = "invalid_key"
	KindKeyAlreadyHeld        ErrorKind = "key_already_held"
	KindKeyNotHeld            ErrorKind = "key_not_held"
	KindQueueFull             ErrorKind = "queue_full"
	KindCancelled             ErrorKind = "cancelled"
)

// Sentinels usable with errors.Is. Matching is by kind only.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrTimeout               = &Error{Kind: KindTimeout}
	ErrMultipleMatches       = &Error{Kind: KindMultipleMatches}
	ErrUnsupportedCapability = &Error{Kind: KindUnsupportedCapability}
	ErrStaleReference        = &Error{Kind: KindStaleReference}
	ErrPermissionDenied      = &Error{Kind: KindPermissionDenied}
	ErrInvalidInput          = &Error{Kind: KindInvalidInput}
	ErrEnvironmentBlocked    = &Error{Kind: KindEnvironmentBlocked}
	ErrScrollExhausted       = &Error{Kind: KindScrollExhausted}
	ErrInternalFault         = &Error{Kind: KindInternalFault}
	ErrWindowNotFound        = &Error{Kind: KindWindowNotFound}
	ErrInvalidKey            = &Error{Kind: KindInvalidKey}
	ErrKeyAlreadyHeld        = &Error{Kind: KindKeyAlreadyHeld}
	ErrKeyNotHeld            = &Error{Kind: KindKeyNotHeld}
	ErrQueueFull             = &Error{Kind: KindQueueFull}
	ErrCancelled             = &Error{Kind: KindCancelled}
)

// Error is the structured failure carried across every component boundary.
// Details holds machine-readable context (search criteria, bounds, elapsed
// time); Candidates is populated for MultipleMatches.
type Error struct {
	Kind       ErrorKind
	Message    string
	Details    map[string]any
	Candidates []ElementInfo
	Err        error
}

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a lower-level cause.
func Wrap(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so sentinels like ErrNotFound match any message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// With attaches a detail key and returns the receiver for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// KindOf extracts the ErrorKind of err. Errors that did not originate in the
// engine are reported as InternalFault.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalFault
}

// AsError converts any error into an *Error, wrapping foreign errors as
// InternalFault so raw platform errors never cross a component boundary.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindInternalFault, err, "unexpected platform failure")
}

// Package coreerr implements the closed error-kind taxonomy shared by the
// indexer, retrieval, and task subsystems. Structural errors (NotFound,
// Conflict, InvalidTransition, CycleDetected, ValidationFailed, StoreError)
// always propagate to the caller; per-file and per-task errors (LspTimeout,
// LspUnavailable, TaskTimeout, IoError) are meant to be counted by callers
// and never abort the enclosing operation.
package coreerr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error kinds.
type Kind string

const (
	NotFound          Kind = "not_found"
	Conflict          Kind = "conflict"
	InvalidTransition Kind = "invalid_transition"
	CycleDetected     Kind = "cycle_detected"
	ValidationFailed  Kind = "validation_failed"
	LspTimeout        Kind = "lsp_timeout"
	LspUnavailable    Kind = "lsp_unavailable"
	TaskTimeout       Kind = "task_timeout"
	StoreError        Kind = "store_error"
	IoError           Kind = "io_error"
)

// Error is a typed error carrying one of the closed Kinds plus context.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "add_dependency"
	Subject string // the entity implicated, e.g. a task id or file path
	Err     error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Subject != "" {
			return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Subject, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind.
func New(kind Kind, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, coreerr.New(coreerr.NotFound, "", "", nil)) or more
// conveniently use KindOf below.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// KindOf extracts the Kind of err, if it (or something it wraps) is a
// *Error. The second return is false for errors outside the taxonomy.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Of reports whether err's Kind equals k.
func Of(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

// Package errors provides error handling for clinpipe.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting (clinical text never leaks into reports)
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle not found
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Join      = crdb.Join
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the annotation data model and pipeline engine.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrInvalidSpan indicates a malformed span construction
	// (overlapping ranges, unordered ranges, negative offsets).
	ErrInvalidSpan = New("invalid span")

	// ErrDuplicateID indicates an identifier was reused where a fresh one
	// is required (store integrity violation).
	ErrDuplicateID = New("duplicate identifier")

	// ErrNotFound indicates the requested document, annotation or
	// provenance record does not exist.
	ErrNotFound = New("not found")

	// ErrWiring indicates an unsatisfiable or cyclic pipeline step graph,
	// detected at build time.
	ErrWiring = New("pipeline wiring error")

	// ErrCycle indicates a provenance record would make an output its own
	// transitive input. Always fatal: it means an engine or operation bug.
	ErrCycle = New("provenance cycle")

	// ErrAborted indicates a fail-fast escalation or engine-level fault
	// aborted the whole pipeline run for a document.
	ErrAborted = New("pipeline run aborted")
)

// OperationError records a single item's processing failure inside a
// pipeline step. Per-item failures are isolated and aggregated into the run
// report; the run itself continues unless the operation is fail-fast.
type OperationError struct {
	ItemID string
	Op     string
	Cause  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed on item %s: %v", e.Op, e.ItemID, e.Cause)
}

func (e *OperationError) Unwrap() error { return e.Cause }

// NewOperationError wraps a single-item failure with its item identifier.
func NewOperationError(itemID, op string, cause error) *OperationError {
	return &OperationError{ItemID: itemID, Op: op, Cause: cause}
}

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsIntegrity reports whether the error indicates corrupted store or graph
// state. Integrity errors are surfaced immediately and never recovered.
func IsIntegrity(err error) bool {
	return err != nil && IsAny(err, ErrDuplicateID, ErrCycle)
}

// NewNotFound creates a not-found error with a formatted message.
func NewNotFound(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidSpan creates an invalid-span error with a formatted message.
func NewInvalidSpan(format string, args ...interface{}) error {
	return Wrap(ErrInvalidSpan, Newf(format, args...).Error())
}

/*
errors.go - Centralized error types for the incentive engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every operation rejects with a typed error before mutating anything,
  so callers can always distinguish "nothing happened" from "something
  half-happened" (only LedgerReconciliationError means the latter).

ERROR CATEGORIES:
  1. Validation errors - bad input, rejected before any mutation
  2. Lifecycle errors  - locked state, submission window
  3. Lookup errors     - missing report, item, or adjustment
  4. Reconciliation    - the hours-return dual update diverged mid-flight

USAGE:
  if errors.Is(err, incentive.ErrLocked) { ... }

  var verr *incentive.ValidationError
  if errors.As(err, &verr) { ... }

SEE ALSO:
  - lifecycle.go:   Raises lifecycle and validation errors
  - hoursbridge.go: Raises LedgerReconciliationError
*/
package incentive

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input-validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrLocked is returned when a mutation targets a non-editable report.
	// The operation is a no-op and must be reported, never silently ignored.
	ErrLocked = errors.New("report is locked")

	// ErrNotFound is returned when a referenced report, item, or adjustment
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSubmissionWindow is returned when submitting a report for the
	// current or a future month. Submission requires the period to be closed.
	ErrSubmissionWindow = errors.New("submission window not open")

	// ErrLedgerReconciliation is returned when the hours-return dual update
	// could not complete atomically: the hours bank was credited but the
	// report save failed. The caller retries the report save only.
	ErrLedgerReconciliation = errors.New("hours ledger reconciliation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected input. State is unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// LockedStateError reports an operation attempted while the lifecycle state
// forbids it.
type LockedStateError struct {
	Status ReportStatus
	Op     string // optional operation name for non-edit transitions
}

func (e *LockedStateError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s not allowed in status %q", e.Op, e.Status)
	}
	return fmt.Sprintf("report is not editable in status %q", e.Status)
}

func (e *LockedStateError) Unwrap() error { return ErrLocked }

// NotFoundError identifies the missing thing.
type NotFoundError struct {
	Kind string // "report", "item", "adjustment", "employee"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// SubmissionWindowError reports a submit attempt for a month that is not yet
// closed.
type SubmissionWindowError struct {
	Month   Month
	Current Month
}

func (e *SubmissionWindowError) Error() string {
	return fmt.Sprintf("cannot submit report for %s: month must be before current month %s",
		e.Month, e.Current)
}

func (e *SubmissionWindowError) Unwrap() error { return ErrSubmissionWindow }

// LedgerReconciliationError carries enough context to retry the report save.
// The bank credit already happened and must NOT be re-applied.
type LedgerReconciliationError struct {
	EmployeeID EmployeeID
	Qty        string // decimal string, for the error message only
	Err        error  // the underlying save failure
}

func (e *LedgerReconciliationError) Error() string {
	return fmt.Sprintf("hours returned to bank for %s (qty %s) but report save failed: %v",
		e.EmployeeID, e.Qty, e.Err)
}

func (e *LedgerReconciliationError) Unwrap() error { return ErrLedgerReconciliation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsLocked returns true if the mutation was rejected by the lifecycle state.
func IsLocked(err error) bool { return errors.Is(err, ErrLocked) }

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsRetryableSave returns true if the failure is resolved by retrying the
// report save (and only the save).
func IsRetryableSave(err error) bool { return errors.Is(err, ErrLedgerReconciliation) }

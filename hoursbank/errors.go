package hoursbank

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a transaction with the
	// same idempotency key already exists. Expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInsufficientBalance is returned when a debit exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient hours balance")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID incentive.EmployeeID
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient hours balance for %s: available %s, requested %s",
		e.EmployeeID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

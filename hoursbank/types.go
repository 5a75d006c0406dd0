/*
Package hoursbank implements the hours-debt ledger: a running balance of
compensatory hours owed to each employee.

PURPOSE:
  Hours accumulate in the bank (overtime, shift swaps) and leave it when
  monetized into an incentive report; returning monetized hours puts
  them back. The bank is the incentive engine's external collaborator;
  the engine touches it only through the bridge interface it defines.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: An immutable ledger entry recording balance changes
  - TransactionType: grant / monetization / return / adjustment
  - Store: Append-only persistence contract

DESIGN PRINCIPLES:
  1. Append-only: No Update, no Delete. Corrections are new entries.
  2. Derived balance: Balance is always computed by replaying entries;
     there is no separate balance field that can drift.
  3. Idempotency: Every write carries a key; replaying the same key is
     detected, which is what makes the report bridge's retry contract
     safe (a return credit can never be applied twice).
  4. Precision: decimal.Decimal for hour quantities.

SEE ALSO:
  - service.go: Balance/Credit/Debit operations over the Store
  - store/memory, store/sqlite: Store implementations
*/
package hoursbank

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// TRANSACTION - Atomic change to an employee's hours balance
// =============================================================================

type TransactionID string

type TransactionType string

const (
	TxGrant        TransactionType = "grant"        // hours earned into the bank
	TxMonetization TransactionType = "monetization" // hours converted into incentive pay
	TxReturn       TransactionType = "return"       // monetized hours given back
	TxAdjustment   TransactionType = "adjustment"   // manual admin correction
)

// Transaction is an immutable ledger entry. Hours carries the sign:
// positive entries raise the balance, negative entries lower it.
type Transaction struct {
	ID             TransactionID
	EmployeeID     incentive.EmployeeID
	EffectiveAt    time.Time
	Hours          decimal.Decimal
	Type           TransactionType
	ReferenceID    string // e.g. the report key a monetization/return belongs to
	Reason         string
	IdempotencyKey string
	CreatedAt      time.Time
}

// =============================================================================
// STORE - Append-only persistence
// =============================================================================

// Store persists bank transactions. Append-only: no Update, no Delete.
type Store interface {
	// Append persists a transaction. Fails with ErrDuplicateIdempotencyKey
	// when the key was already written.
	Append(ctx context.Context, tx Transaction) error

	// Load returns all transactions for an employee, ordered by EffectiveAt.
	Load(ctx context.Context, employeeID incentive.EmployeeID) ([]Transaction, error)

	// Exists checks whether an idempotency key was already written.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

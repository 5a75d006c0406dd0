/*
service.go - Hours bank operations over the append-only store

PURPOSE:
  The Service is what callers use: balance lookup (replay), grants,
  debits (monetization) and credits (returns). It implements the
  incentive engine's bridge contract, so the engine never sees the
  store directly.

IDEMPOTENCY:
  Credit treats a duplicate idempotency key as "already applied" and
  returns success. This is load-bearing for the report bridge: after a
  LedgerReconciliationError the caller retries the report save only,
  and even a misbehaving caller that re-sends the credit cannot
  double-credit the balance.

SEE ALSO:
  - types.go:                 Transaction and Store
  - incentive/hoursbridge.go: The consumer contract
*/
package hoursbank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/incentive"
)

// Service exposes the bank to callers.
type Service struct {
	Store Store
	Now   func() time.Time // nil = time.Now UTC
}

// Compile-time check that Service satisfies the engine's bridge contract.
var _ incentive.HoursBank = (*Service)(nil)

func NewService(store Store) *Service {
	return &Service{Store: store}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Balance replays the employee's ledger and returns the current balance.
func (s *Service) Balance(ctx context.Context, employeeID incentive.EmployeeID) (decimal.Decimal, error) {
	txs, err := s.Store.Load(ctx, employeeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load bank ledger for %s: %w", employeeID, err)
	}

	balance := decimal.Zero
	for _, tx := range txs {
		balance = balance.Add(tx.Hours)
	}
	return balance, nil
}

// History returns the employee's full ledger, chronologically.
func (s *Service) History(ctx context.Context, employeeID incentive.EmployeeID) ([]Transaction, error) {
	return s.Store.Load(ctx, employeeID)
}

// Grant adds earned hours to the balance.
func (s *Service) Grant(ctx context.Context, employeeID incentive.EmployeeID, hours decimal.Decimal, reason string) error {
	if !hours.IsPositive() {
		return fmt.Errorf("grant hours must be positive, got %s", hours)
	}
	return s.Store.Append(ctx, Transaction{
		ID:          TransactionID(uuid.NewString()),
		EmployeeID:  employeeID,
		EffectiveAt: s.now(),
		Hours:       hours,
		Type:        TxGrant,
		Reason:      reason,
		CreatedAt:   s.now(),
	})
}

// Credit returns hours to the balance. Idempotent on the credit's key:
// a duplicate is reported as success without a second entry.
func (s *Service) Credit(ctx context.Context, credit incentive.HoursCredit) error {
	if !credit.Hours.IsPositive() {
		return fmt.Errorf("credit hours must be positive, got %s", credit.Hours)
	}

	err := s.Store.Append(ctx, Transaction{
		ID:             TransactionID(uuid.NewString()),
		EmployeeID:     credit.EmployeeID,
		EffectiveAt:    s.now(),
		Hours:          credit.Hours,
		Type:           TxReturn,
		ReferenceID:    credit.ReferenceID,
		Reason:         credit.Reason,
		IdempotencyKey: credit.IdempotencyKey,
		CreatedAt:      s.now(),
	})
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		return nil // already applied
	}
	return err
}

// Debit takes hours out of the balance for monetization. Fails with
// InsufficientBalanceError when the balance cannot cover the hours.
func (s *Service) Debit(ctx context.Context, debit incentive.HoursDebit) error {
	if !debit.Hours.IsPositive() {
		return fmt.Errorf("debit hours must be positive, got %s", debit.Hours)
	}

	balance, err := s.Balance(ctx, debit.EmployeeID)
	if err != nil {
		return err
	}
	if debit.Hours.GreaterThan(balance) {
		return &InsufficientBalanceError{
			EmployeeID: debit.EmployeeID,
			Available:  balance,
			Requested:  debit.Hours,
		}
	}

	err = s.Store.Append(ctx, Transaction{
		ID:             TransactionID(uuid.NewString()),
		EmployeeID:     debit.EmployeeID,
		EffectiveAt:    s.now(),
		Hours:          debit.Hours.Neg(),
		Type:           TxMonetization,
		ReferenceID:    debit.ReferenceID,
		Reason:         debit.Reason,
		IdempotencyKey: debit.IdempotencyKey,
		CreatedAt:      s.now(),
	})
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		return nil // already applied
	}
	return err
}

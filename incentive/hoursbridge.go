/*
hoursbridge.go - Bridge between report items and the hours-debt bank

PURPOSE:
  A report item's HoursPaidQty and the employee's external hours-bank
  balance are two views of the same hours. This file defines the only
  paths that touch both: monetizing banked hours into the report and
  returning paid hours to the bank.

ATOMICITY CONTRACT (return path):
  returning qty hours must (a) credit the bank by qty and (b) decrease
  the item by qty, and the two must never be observed diverged:
    - bank credit fails      -> report untouched, plain error
    - credit ok, save fails  -> LedgerReconciliationError; the caller
      retries the report save ONLY (Session.Save). The credit carries
      an idempotency key, so even a buggy retry cannot double-credit.
  Both ledger-affecting paths persist the report immediately: a balance
  correction must not sit in an editable, discardable draft.

SEE ALSO:
  - hoursbank/:   The append-only bank implementation
  - lifecycle.go: Lock checks and the edit session these ride on
*/
package incentive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS BANK - The engine's view of the external hours-debt ledger
// =============================================================================

// HoursCredit returns hours to an employee's bank balance.
type HoursCredit struct {
	EmployeeID     EmployeeID
	Hours          decimal.Decimal // positive
	Reason         string
	ReferenceID    string // report key the movement belongs to
	IdempotencyKey string
}

// HoursDebit takes hours out of an employee's bank balance for monetization.
type HoursDebit struct {
	EmployeeID     EmployeeID
	Hours          decimal.Decimal // positive
	Reason         string
	ReferenceID    string
	IdempotencyKey string
}

// HoursBank is the narrow contract the engine needs from the external
// hours-debt ledger. The engine never reads or writes the bank except
// through this bridge.
type HoursBank interface {
	// Credit increases the employee's balance. Must be idempotent on
	// IdempotencyKey: re-applying the same credit is a no-op, not a
	// double-credit.
	Credit(ctx context.Context, credit HoursCredit) error

	// Debit decreases the employee's balance, failing when the balance
	// cannot cover the hours.
	Debit(ctx context.Context, debit HoursDebit) error
}

// =============================================================================
// BRIDGE OPERATIONS
// =============================================================================

// AllocateHours stores a paid-hours quantity on an item. The quantity
// arrives from an outside conversion step (see MonetizeHours for the
// bank-debiting flow); this core's responsibility is solely to hold it.
func (s *Session) AllocateHours(employeeID EmployeeID, qty decimal.Decimal) error {
	if qty.IsNegative() {
		return validationf("hours_qty", "must not be negative")
	}
	return s.mutateItem(employeeID, func(it *Item) error {
		it.HoursPaidQty = qty
		return nil
	})
}

// MonetizeHours converts qty banked hours into paid hours on the item:
// the bank is debited first, then the item's quantity grows by qty and the
// report is persisted immediately. A failed debit leaves the report
// untouched; a failed save after a successful debit surfaces as
// LedgerReconciliationError and is recovered by retrying Session.Save.
func (s *Session) MonetizeHours(ctx context.Context, employeeID EmployeeID, qty decimal.Decimal, reason string) error {
	if s.working.Status.Locked() {
		return &LockedStateError{Status: s.working.Status}
	}
	item := s.working.Item(employeeID)
	if item == nil {
		return &NotFoundError{Kind: "item", ID: string(employeeID)}
	}
	if !qty.IsPositive() {
		return validationf("hours_qty", "must be greater than zero")
	}

	debit := HoursDebit{
		EmployeeID:     employeeID,
		Hours:          qty,
		Reason:         reason,
		ReferenceID:    s.reportKey(),
		IdempotencyKey: uuid.NewString(),
	}
	if err := s.mgr.Bank.Debit(ctx, debit); err != nil {
		return fmt.Errorf("debit hours bank: %w", err)
	}

	item.HoursPaidQty = item.HoursPaidQty.Add(qty)
	item.Total = ComputeTotal(*item, s.working.Rates)
	s.working.touch(s.mgr.Clock.Now())

	return s.persistLedgerAffecting(ctx, employeeID, qty, SignalHoursAllocated)
}

// ReturnHours gives qty paid hours back to the employee's bank balance and
// decreases the item's quantity by the same amount, atomically as observed
// by any caller. See the file header for the failure contract.
func (s *Session) ReturnHours(ctx context.Context, employeeID EmployeeID, qty decimal.Decimal, reason string) error {
	if s.working.Status.Locked() {
		return &LockedStateError{Status: s.working.Status}
	}
	item := s.working.Item(employeeID)
	if item == nil {
		return &NotFoundError{Kind: "item", ID: string(employeeID)}
	}
	if !qty.IsPositive() {
		return validationf("hours_qty", "must be greater than zero")
	}
	if qty.GreaterThan(item.HoursPaidQty) {
		return validationf("hours_qty", "cannot return %s: only %s hours are charged", qty, item.HoursPaidQty)
	}

	credit := HoursCredit{
		EmployeeID:     employeeID,
		Hours:          qty,
		Reason:         reason,
		ReferenceID:    s.reportKey(),
		IdempotencyKey: uuid.NewString(),
	}
	if err := s.mgr.Bank.Credit(ctx, credit); err != nil {
		// No partial commit: the report has not been touched yet.
		return fmt.Errorf("credit hours bank: %w", err)
	}

	item.HoursPaidQty = item.HoursPaidQty.Sub(qty)
	item.Total = ComputeTotal(*item, s.working.Rates)
	s.working.touch(s.mgr.Clock.Now())

	return s.persistLedgerAffecting(ctx, employeeID, qty, SignalHoursReturned)
}

// persistLedgerAffecting saves the working copy right away. The bank side
// has already been applied, so a save failure is a reconciliation problem,
// not a rollback: the caller retries the save only.
func (s *Session) persistLedgerAffecting(ctx context.Context, employeeID EmployeeID, qty decimal.Decimal, signal Signal) error {
	if err := s.mgr.Reports.Put(ctx, s.working); err != nil {
		s.dirty = true
		return &LedgerReconciliationError{EmployeeID: employeeID, Qty: qty.String(), Err: err}
	}

	s.clean = s.working.Clone()
	s.persisted = true
	s.dirty = false

	s.mgr.Notify.Emit(ctx, Event{
		Signal:          signal,
		EstablishmentID: s.working.EstablishmentID,
		Month:           s.working.Month,
		EmployeeID:      employeeID,
	})
	return nil
}

func (s *Session) reportKey() string {
	return string(s.working.EstablishmentID) + "/" + s.working.Month.Key()
}

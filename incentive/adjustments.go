/*
adjustments.go - Ad-hoc plus/deduction entries on an item

PURPOSE:
  The adjustment ledger: add and remove bonus/deduction lines while
  keeping totals consistent. Amounts are always positive; whether an
  entry increases or decreases the total is decided by which list it
  lives in, never by the sign of the value.

INVARIANTS:
  - Every entry gets a freshly generated unique id (uuid).
  - Add-then-remove with the same id restores the prior lists and
    total exactly.
  - Both operations reject on a locked report before touching anything.

SEE ALSO:
  - lifecycle.go:  The mutation pattern these operations ride on
  - calculator.go: How entries feed the total
*/
package incentive

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddAdjustment appends a new plus or deduction entry to an item and
// recomputes its total. Returns the generated entry id.
func (s *Session) AddAdjustment(employeeID EmployeeID, kind AdjustmentKind, description string, amount decimal.Decimal) (AdjustmentID, error) {
	if !kind.Valid() {
		return "", validationf("kind", "must be %q or %q", KindPlus, KindDeduction)
	}
	if description == "" {
		return "", validationf("description", "must not be empty")
	}
	if !amount.IsPositive() {
		return "", validationf("amount", "must be greater than zero")
	}

	id := AdjustmentID(uuid.NewString())
	err := s.mutateItem(employeeID, func(it *Item) error {
		entry := Adjustment{ID: id, Description: description, Amount: amount}
		if kind == KindPlus {
			it.Pluses = append(it.Pluses, entry)
		} else {
			it.Deductions = append(it.Deductions, entry)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveAdjustment removes the entry with the given id from the specified
// list and recomputes the item's total.
func (s *Session) RemoveAdjustment(employeeID EmployeeID, kind AdjustmentKind, id AdjustmentID) error {
	if !kind.Valid() {
		return validationf("kind", "must be %q or %q", KindPlus, KindDeduction)
	}

	return s.mutateItem(employeeID, func(it *Item) error {
		list := &it.Pluses
		if kind == KindDeduction {
			list = &it.Deductions
		}
		for i, entry := range *list {
			if entry.ID == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return nil
			}
		}
		return &NotFoundError{Kind: "adjustment", ID: string(id)}
	})
}

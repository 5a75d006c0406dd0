/*
bootstrap.go - Initial draft creation from the roster

PURPOSE:
  Builds the first draft report for a store/month from the active
  roster. Triggered by Open() when the lookup comes back empty AND the
  requested month is the current calendar month. Bootstrap never
  backdates: fabricating a report for a closed month would invent
  historical data.

ELIGIBILITY:
  An employee belongs on the report when either
    - active on the roster, or
    - inactive with a termination event dated on or after the first
      day of the month (left mid-month, still owed that month's
      incentive).

RESULT:
  A draft report with one zeroed item per eligible employee, in roster
  order: base 0, empty adjustment lists, all quantities 0, total 0.
  The draft stays in memory until the session is explicitly saved.
*/
package incentive

import (
	"context"
	"fmt"
)

func (m *Manager) bootstrap(ctx context.Context, establishmentID EstablishmentID, month Month) (*Report, error) {
	employees, err := m.Roster.Employees(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("load roster for %s: %w", establishmentID, err)
	}

	report := NewReport(establishmentID, month, DefaultRates(), m.Clock.Now())

	firstDay := month.FirstDay()
	for _, emp := range employees {
		if !emp.Active && !emp.TerminatedOnOrAfter(firstDay) {
			continue
		}
		report.Items = append(report.Items, Item{
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
		})
	}

	return report, nil
}

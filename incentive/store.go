/*
store.go - Persistence interface for incentive reports

PURPOSE:
  Defines the boundary between the lifecycle manager and the database.
  Different implementations can use SQLite or in-memory storage.

CONTRACT:
  - Get returns (nil, nil) when no report exists for the key. Absence is
    a normal answer (it triggers bootstrap for the current month), not an
    error.
  - Put upserts the whole aggregate. The report is the unit of
    persistence: partial item lists are never written.
  - At most one report exists per (establishment, month); Put replaces,
    it never duplicates.

CONCURRENCY:
  The lifecycle state machine is the concurrency control (single writer
  per editable report), so Put is last-write-wins. No optimistic locking
  is layered on top.

IMPLEMENTATIONS:
  - store/sqlite:  Production SQLite
  - store/memory:  In-memory for testing

SEE ALSO:
  - lifecycle.go: The only caller of Put
*/
package incentive

import "context"

// ReportStore persists whole report aggregates.
type ReportStore interface {
	// Get loads the report for (establishmentID, month).
	// Returns (nil, nil) when absent.
	Get(ctx context.Context, establishmentID EstablishmentID, month Month) (*Report, error)

	// Put upserts the report. All-or-nothing for the whole aggregate.
	Put(ctx context.Context, report *Report) error
}

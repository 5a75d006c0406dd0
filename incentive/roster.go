package incentive

import (
	"context"
	"time"
)

// =============================================================================
// ROSTER - Read-only employee provider
// =============================================================================

// EmployeeEventType classifies roster history entries. Only termination
// events matter to this engine (mid-month leavers stay eligible for that
// month's incentive); other types pass through untouched.
type EmployeeEventType string

const (
	EventHire        EmployeeEventType = "hire"
	EventTermination EmployeeEventType = "termination"
)

// EmployeeEvent is a dated entry in an employee's history.
type EmployeeEvent struct {
	Type EmployeeEventType `json:"type"`
	Date time.Time         `json:"date"`
}

// Employee is the roster record as seen by this engine.
type Employee struct {
	ID              EmployeeID      `json:"id"`
	Name            string          `json:"name"`
	EstablishmentID EstablishmentID `json:"establishment_id"`
	Active          bool            `json:"active"`
	History         []EmployeeEvent `json:"history,omitempty"`
}

// TerminatedOnOrAfter reports whether the employee has a termination event
// dated on or after t.
func (e Employee) TerminatedOnOrAfter(t time.Time) bool {
	for _, ev := range e.History {
		if ev.Type == EventTermination && !ev.Date.Before(t) {
			return true
		}
	}
	return false
}

// RosterProvider exposes a store's employee roster, in roster order.
// Read-only from this engine's perspective.
type RosterProvider interface {
	Employees(ctx context.Context, establishmentID EstablishmentID) ([]Employee, error)
}

package incentive

import "context"

// =============================================================================
// SIGNALS - Named outcomes for the presentation layer
// =============================================================================

// Signal names an engine outcome a presentation layer may want to surface.
// The engine defines no transport or formatting for these.
type Signal string

const (
	SignalSaved           Signal = "saved"
	SignalSubmitted       Signal = "submitted"
	SignalHoursReturned   Signal = "hours_returned"
	SignalHoursAllocated  Signal = "hours_allocated"
	SignalDecisionApplied Signal = "decision_applied"
)

// Event carries a signal plus the report it concerns.
type Event struct {
	Signal          Signal
	EstablishmentID EstablishmentID
	Month           Month
	EmployeeID      EmployeeID // set for item-scoped signals
}

// Notifier receives engine outcomes. Implementations must not block the
// operation that emitted the event; failures are the notifier's problem.
type Notifier interface {
	Emit(ctx context.Context, event Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Emit(context.Context, Event) {}

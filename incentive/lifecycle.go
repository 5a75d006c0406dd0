/*
lifecycle.go - Report lifecycle manager and edit sessions

PURPOSE:
  The state machine governing who may mutate a report and when. All
  mutation paths route through here: field edits and adjustments hit an
  in-memory edit session, hours changes additionally cross the hours
  bank, and every successful mutation ends by re-running the calculator
  and re-stamping the report's update timestamp.

STATE MACHINE:
  draft ──────────────submit──────────────▶ pending_approval
  changes_requested ──submit──────────────▶ pending_approval
  pending_approval ───decide──▶ approved | rejected | changes_requested

  Editable:  draft, changes_requested
  Locked:    pending_approval, approved, rejected
  Terminal:  approved, rejected (reopening is an external action that
             must re-enter changes_requested, never a silent edit)

SUBMISSION WINDOW:
  A report may only be submitted for a month strictly before the
  clock's current month. The period must be closed before it goes to
  the supervisor.

EDIT SESSIONS (copy-on-write):
  Open() returns a Session holding a deep copy of the committed
  aggregate. Mutations apply to the copy and flip a dirty flag; Save()
  persists the copy and replaces the committed state; Discard() (or
  simply abandoning the session) drops the copy. The in-memory view is
  always internally consistent: every field mutation synchronously
  recomputes the affected totals before any persistence call.

CONCURRENCY:
  Single writer per aggregate by construction: one manager edits a
  report while editable, only the supervisor acts while it is
  pending_approval. Save is therefore last-write-wins; no merge logic
  exists and none is needed.

SEE ALSO:
  - adjustments.go: Plus/deduction entries on a session
  - hoursbridge.go: Hours allocation/return through the bank
  - bootstrap.go:   Draft creation for the current month
*/
package incentive

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MANAGER - Lifecycle orchestration
// =============================================================================

// Manager owns report records and exposes every lifecycle operation.
// It is an explicit dependency-injected service: no ambient globals.
type Manager struct {
	Reports ReportStore
	Roster  RosterProvider
	Bank    HoursBank
	Clock   Clock
	Notify  Notifier
}

// NewManager wires a manager. Clock defaults to the system clock and
// Notify to a no-op when nil.
func NewManager(reports ReportStore, roster RosterProvider, bank HoursBank, clock Clock, notify Notifier) *Manager {
	if clock == nil {
		clock = SystemClock{}
	}
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Manager{
		Reports: reports,
		Roster:  roster,
		Bank:    bank,
		Clock:   clock,
		Notify:  notify,
	}
}

// Open loads the report for (establishmentID, month) into an edit session.
//
// When no report exists and month is the current calendar month, a zeroed
// draft is bootstrapped from the roster and held uncommitted until the
// session is saved. Any other absent month is a NotFoundError: bootstrap
// never backdates, a past month with no report stays "no report".
func (m *Manager) Open(ctx context.Context, establishmentID EstablishmentID, month Month) (*Session, error) {
	report, err := m.Reports.Get(ctx, establishmentID, month)
	if err != nil {
		return nil, fmt.Errorf("load report %s/%s: %w", establishmentID, month, err)
	}

	persisted := report != nil
	if report == nil {
		if !month.Equal(m.Clock.CurrentMonth()) {
			return nil, &NotFoundError{Kind: "report", ID: string(establishmentID) + "/" + month.Key()}
		}
		report, err = m.bootstrap(ctx, establishmentID, month)
		if err != nil {
			return nil, err
		}
	}

	return &Session{
		mgr:       m,
		working:   report.Clone(),
		clean:     report,
		persisted: persisted,
		dirty:     !persisted,
	}, nil
}

// Decide records the supervisor's decision on a pending report. Target must
// be approved, rejected, or changes_requested; the latter requires non-empty
// supervisor notes. The decision is persisted immediately.
func (m *Manager) Decide(ctx context.Context, establishmentID EstablishmentID, month Month, target ReportStatus, notes string) (*Report, error) {
	switch target {
	case StatusApproved, StatusRejected, StatusChangesRequested:
	default:
		return nil, validationf("status", "invalid decision target %q", target)
	}
	if target == StatusChangesRequested && notes == "" {
		return nil, validationf("supervisor_notes", "notes are mandatory when requesting changes")
	}

	report, err := m.Reports.Get(ctx, establishmentID, month)
	if err != nil {
		return nil, fmt.Errorf("load report %s/%s: %w", establishmentID, month, err)
	}
	if report == nil {
		return nil, &NotFoundError{Kind: "report", ID: string(establishmentID) + "/" + month.Key()}
	}
	if report.Status != StatusPendingApproval {
		return nil, &LockedStateError{Status: report.Status, Op: "decision"}
	}

	candidate := report.Clone()
	candidate.Status = target
	if target == StatusChangesRequested {
		candidate.SupervisorNotes = notes
	}
	candidate.touch(m.Clock.Now())

	if err := m.Reports.Put(ctx, candidate); err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}

	m.Notify.Emit(ctx, Event{
		Signal:          SignalDecisionApplied,
		EstablishmentID: establishmentID,
		Month:           month,
	})
	return candidate, nil
}

// =============================================================================
// SESSION - Copy-on-write edit session
// =============================================================================

// Session is an uncommitted local copy of one report. All manager-side
// mutations go through it; nothing reaches the store until Save, Submit,
// or a hours return (which persists eagerly, see hoursbridge.go).
type Session struct {
	mgr       *Manager
	working   *Report
	clean     *Report // state to restore on Discard
	persisted bool    // false until the aggregate has been stored once
	dirty     bool
}

// Report exposes the working copy for rendering. Callers must treat it as
// read-only; mutations go through session methods so totals stay derived.
func (s *Session) Report() *Report { return s.working }

// Dirty reports whether the session holds unsaved changes.
func (s *Session) Dirty() bool { return s.dirty }

// Save persists the working copy and makes it the committed state.
// Once issued, a save runs to completion; it is never silently superseded.
func (s *Session) Save(ctx context.Context) error {
	if err := s.mgr.Reports.Put(ctx, s.working); err != nil {
		return fmt.Errorf("save report %s/%s: %w", s.working.EstablishmentID, s.working.Month, err)
	}
	s.clean = s.working.Clone()
	s.persisted = true
	s.dirty = false

	s.mgr.Notify.Emit(ctx, Event{
		Signal:          SignalSaved,
		EstablishmentID: s.working.EstablishmentID,
		Month:           s.working.Month,
	})
	return nil
}

// Discard drops all unsaved changes, restoring the state observed at Open
// (for a bootstrapped draft, the zeroed draft itself).
func (s *Session) Discard() {
	s.working = s.clean.Clone()
	s.dirty = !s.persisted
}

// Submit moves an editable report to pending_approval and persists it.
// Allowed only when the report's month is strictly before the current
// calendar month; the period must be closed before review.
func (s *Session) Submit(ctx context.Context) error {
	if s.working.Status.Locked() {
		return &LockedStateError{Status: s.working.Status, Op: "submit"}
	}

	current := s.mgr.Clock.CurrentMonth()
	if !s.working.Month.Before(current) {
		return &SubmissionWindowError{Month: s.working.Month, Current: current}
	}

	candidate := s.working.Clone()
	candidate.Status = StatusPendingApproval
	candidate.touch(s.mgr.Clock.Now())

	if err := s.mgr.Reports.Put(ctx, candidate); err != nil {
		return fmt.Errorf("submit report %s/%s: %w", candidate.EstablishmentID, candidate.Month, err)
	}

	s.working = candidate
	s.clean = candidate.Clone()
	s.persisted = true
	s.dirty = false

	s.mgr.Notify.Emit(ctx, Event{
		Signal:          SignalSubmitted,
		EstablishmentID: candidate.EstablishmentID,
		Month:           candidate.Month,
	})
	return nil
}

// =============================================================================
// FIELD MUTATIONS - Locked-check, overwrite, recompute, mark dirty
// =============================================================================

// mutateItem applies fn to one item under the standard mutation pattern:
// reject if locked, apply, recompute the cached total, stamp, mark dirty.
func (s *Session) mutateItem(employeeID EmployeeID, fn func(*Item) error) error {
	if s.working.Status.Locked() {
		return &LockedStateError{Status: s.working.Status}
	}
	item := s.working.Item(employeeID)
	if item == nil {
		return &NotFoundError{Kind: "item", ID: string(employeeID)}
	}
	if err := fn(item); err != nil {
		return err
	}
	item.Total = ComputeTotal(*item, s.working.Rates)
	s.working.touch(s.mgr.Clock.Now())
	s.dirty = true
	return nil
}

// SetBaseAmount overwrites an item's base amount.
func (s *Session) SetBaseAmount(employeeID EmployeeID, amount decimal.Decimal) error {
	return s.mutateItem(employeeID, func(it *Item) error {
		if amount.IsNegative() {
			return validationf("base_amount", "must not be negative")
		}
		it.BaseAmount = amount
		return nil
	})
}

// SetCaptacionQty overwrites an item's captación micro-incentive quantity.
func (s *Session) SetCaptacionQty(employeeID EmployeeID, qty decimal.Decimal) error {
	return s.mutateItem(employeeID, func(it *Item) error {
		if qty.IsNegative() {
			return validationf("captacion_qty", "must not be negative")
		}
		it.CaptacionQty = qty
		return nil
	})
}

// SetMecanizacionQty overwrites an item's mecanización micro-incentive quantity.
func (s *Session) SetMecanizacionQty(employeeID EmployeeID, qty decimal.Decimal) error {
	return s.mutateItem(employeeID, func(it *Item) error {
		if qty.IsNegative() {
			return validationf("mecanizacion_qty", "must not be negative")
		}
		it.MecanizacionQty = qty
		return nil
	})
}

// SetResponsibilityBonus overwrites an item's responsibility bonus amount.
func (s *Session) SetResponsibilityBonus(employeeID EmployeeID, amount decimal.Decimal) error {
	return s.mutateItem(employeeID, func(it *Item) error {
		if amount.IsNegative() {
			return validationf("responsibility_bonus", "must not be negative")
		}
		it.ResponsibilityBonus = amount
		return nil
	})
}

// SetRates overwrites the report-wide rates and recomputes every item total.
func (s *Session) SetRates(rates Rates) error {
	if s.working.Status.Locked() {
		return &LockedStateError{Status: s.working.Status}
	}
	s.working.Rates = rates
	Recalculate(s.working)
	s.working.touch(s.mgr.Clock.Now())
	s.dirty = true
	return nil
}

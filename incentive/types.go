/*
Package incentive provides the core incentive-compensation engine.

PURPOSE:
  This package contains the data model and algorithms for monthly
  per-employee incentive reports in retail stores: a compensation
  calculator, an adjustment ledger, a lifecycle state machine gating
  mutability, and a bridge reconciling paid hours against the external
  hours-debt bank.

KEY CONCEPTS IN THIS FILE (types.go):
  - Month: A calendar-month key (the report's period identity)
  - Report: The monthly aggregate, keyed by (establishment, month)
  - Item: One employee's line, with a cached derived total
  - Adjustment: An ad-hoc plus or deduction entry
  - Rates: Store-wide unit rates applied by the calculator

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for every amount and quantity.
     No rounding is ever persisted; rounding is a display concern.
  2. Derived totals: Item.Total is a cache of the calculator's output,
     never an independently authored value.
  3. Type Safety: Strong typing for establishment/employee/adjustment IDs.
  4. Single aggregate: At most one report exists per (establishment, month).

USAGE:
  month := incentive.NewMonth(2026, time.July)
  report := incentive.NewReport("store-1", month, incentive.DefaultRates(), now)
  total := incentive.ComputeTotal(item, report.Rates)

SEE ALSO:
  - calculator.go: Total derivation
  - lifecycle.go:  State machine and edit sessions
  - bootstrap.go:  Draft creation from the roster
*/
package incentive

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EstablishmentID string
type EmployeeID string
type AdjustmentID string

// =============================================================================
// MONTH - Calendar-month key
// =============================================================================

// Month identifies a calendar month. It is the period half of a report's
// identity and the granularity of every lifecycle rule (bootstrap window,
// submission window).
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a "2006-01" key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month key %q (use YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

// Key returns the canonical "2006-01" form used for storage and URLs.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) String() string { return m.Key() }

// FirstDay returns midnight UTC on the first day of the month.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Next() Month     { return MonthOf(m.FirstDay().AddDate(0, 1, 0)) }
func (m Month) Previous() Month { return MonthOf(m.FirstDay().AddDate(0, -1, 0)) }

func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

func (m Month) Equal(other Month) bool { return m.Year == other.Year && m.Month == other.Month }
func (m Month) After(other Month) bool { return other.Before(m) }

// MarshalJSON renders the canonical "2006-01" key.
func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Key() + `"`), nil
}

func (m *Month) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// REPORT STATUS - Lifecycle states
// =============================================================================

type ReportStatus string

const (
	StatusDraft            ReportStatus = "draft"
	StatusPendingApproval  ReportStatus = "pending_approval"
	StatusApproved         ReportStatus = "approved"
	StatusRejected         ReportStatus = "rejected"
	StatusChangesRequested ReportStatus = "changes_requested"
)

// Locked reports that the status forbids manager mutation. Only draft and
// changes_requested are editable; every other state belongs to the approval
// side of the workflow.
func (s ReportStatus) Locked() bool {
	return s != StatusDraft && s != StatusChangesRequested
}

// Terminal reports that no further transition is owned by this engine.
func (s ReportStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected, StatusChangesRequested:
		return true
	}
	return false
}

// =============================================================================
// RATES - Store-wide unit rates
// =============================================================================

// Rates are the report-level parameters the calculator multiplies quantities
// by. ResponsibilityBonus is the default granted amount; the per-item amount
// lives on the Item.
type Rates struct {
	PerCaptacion        decimal.Decimal `json:"per_captacion"`
	PerMecanizacion     decimal.Decimal `json:"per_mecanizacion"`
	PerExtraHour        decimal.Decimal `json:"per_extra_hour"`
	ResponsibilityBonus decimal.Decimal `json:"responsibility_bonus"`
}

// DefaultRates returns the rates applied to a bootstrapped report when the
// caller supplies none.
func DefaultRates() Rates {
	return Rates{
		PerCaptacion:    decimal.NewFromInt(2),
		PerMecanizacion: decimal.NewFromInt(1),
		PerExtraHour:    decimal.NewFromInt(10),
	}
}

// =============================================================================
// ADJUSTMENT - Ad-hoc plus or deduction entry
// =============================================================================

type AdjustmentKind string

const (
	KindPlus      AdjustmentKind = "plus"
	KindDeduction AdjustmentKind = "deduction"
)

func (k AdjustmentKind) Valid() bool { return k == KindPlus || k == KindDeduction }

// Adjustment is a single bonus or deduction line. Amount is always positive;
// the sign is carried by which list the entry lives in.
type Adjustment struct {
	ID          AdjustmentID    `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// =============================================================================
// ITEM - One employee's incentive line
// =============================================================================

// Item holds one employee's inputs and the cached derived total.
// EmployeeName is a snapshot taken at bootstrap, not a live reference:
// renaming an employee later must not rewrite history.
type Item struct {
	EmployeeID   EmployeeID `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`

	BaseAmount decimal.Decimal `json:"base_amount"`
	Pluses     []Adjustment    `json:"pluses"`
	Deductions []Adjustment    `json:"deductions"`

	CaptacionQty    decimal.Decimal `json:"captacion_qty"`
	MecanizacionQty decimal.Decimal `json:"mecanizacion_qty"`
	HoursPaidQty    decimal.Decimal `json:"hours_paid_qty"`

	ResponsibilityBonus decimal.Decimal `json:"responsibility_bonus"`

	// Total is derived by the calculator after every mutation.
	// It is cached for read efficiency, never the source of truth.
	Total decimal.Decimal `json:"total"`
}

func (it *Item) clone() Item {
	out := *it
	out.Pluses = append([]Adjustment(nil), it.Pluses...)
	out.Deductions = append([]Adjustment(nil), it.Deductions...)
	return out
}

// =============================================================================
// REPORT - Monthly aggregate
// =============================================================================

// Report is the monthly incentive aggregate for one establishment.
// Items are ordered (roster order at bootstrap) and employee IDs are unique
// within a report.
type Report struct {
	EstablishmentID EstablishmentID `json:"establishment_id"`
	Month           Month           `json:"month"`
	Status          ReportStatus    `json:"status"`
	Items           []Item          `json:"items"`
	Rates           Rates           `json:"rates"`

	// SupervisorNotes is populated when the supervisor requests changes.
	SupervisorNotes string `json:"supervisor_notes,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewReport creates an empty draft report.
func NewReport(establishmentID EstablishmentID, month Month, rates Rates, now time.Time) *Report {
	return &Report{
		EstablishmentID: establishmentID,
		Month:           month,
		Status:          StatusDraft,
		Rates:           rates,
		UpdatedAt:       now,
	}
}

// Item returns a pointer to the line for the given employee, or nil.
func (r *Report) Item(employeeID EmployeeID) *Item {
	for i := range r.Items {
		if r.Items[i].EmployeeID == employeeID {
			return &r.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Edit sessions operate on clones so an abandoned
// session never leaks partial state into the committed aggregate.
func (r *Report) Clone() *Report {
	out := *r
	out.Items = make([]Item, len(r.Items))
	for i := range r.Items {
		out.Items[i] = r.Items[i].clone()
	}
	return &out
}

// touch advances UpdatedAt. The timestamp is monotonically non-decreasing
// across the report's history even if the clock steps backwards.
func (r *Report) touch(now time.Time) {
	if now.After(r.UpdatedAt) {
		r.UpdatedAt = now
	}
}

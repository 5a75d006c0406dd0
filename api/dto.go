/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Amounts and quantities are serialized as decimal strings ("161.5"),
  never floats: the engine persists exact values and leaves currency
  rounding to the presentation layer consuming this API.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/hoursbank"
	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// ReportDTO represents a report aggregate in API responses.
type ReportDTO struct {
	EstablishmentID string           `json:"establishment_id"`
	Month           string           `json:"month"`
	Status          string           `json:"status"`
	Locked          bool             `json:"locked"`
	Items           []ItemDTO        `json:"items"`
	Rates           incentive.Rates  `json:"rates"`
	SupervisorNotes string           `json:"supervisor_notes,omitempty"`
	UpdatedAt       string           `json:"updated_at"`
}

// ItemDTO represents one employee's incentive line.
type ItemDTO struct {
	EmployeeID          string                 `json:"employee_id"`
	EmployeeName        string                 `json:"employee_name"`
	BaseAmount          decimal.Decimal        `json:"base_amount"`
	Pluses              []incentive.Adjustment `json:"pluses"`
	Deductions          []incentive.Adjustment `json:"deductions"`
	CaptacionQty        decimal.Decimal        `json:"captacion_qty"`
	MecanizacionQty     decimal.Decimal        `json:"mecanizacion_qty"`
	HoursPaidQty        decimal.Decimal        `json:"hours_paid_qty"`
	ResponsibilityBonus decimal.Decimal        `json:"responsibility_bonus"`
	Total               decimal.Decimal        `json:"total"`
}

// UpdateItemRequest overwrites item fields; absent fields are untouched.
type UpdateItemRequest struct {
	BaseAmount          *decimal.Decimal `json:"base_amount,omitempty"`
	CaptacionQty        *decimal.Decimal `json:"captacion_qty,omitempty"`
	MecanizacionQty     *decimal.Decimal `json:"mecanizacion_qty,omitempty"`
	ResponsibilityBonus *decimal.Decimal `json:"responsibility_bonus,omitempty"`
}

// AddAdjustmentRequest appends a plus or deduction entry.
type AddAdjustmentRequest struct {
	Kind        string          `json:"kind"` // "plus" | "deduction"
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// AddAdjustmentResponse returns the generated entry id with the report.
type AddAdjustmentResponse struct {
	AdjustmentID string    `json:"adjustment_id"`
	Report       ReportDTO `json:"report"`
}

// DecisionRequest records the supervisor's verdict on a pending report.
type DecisionRequest struct {
	Status          string `json:"status"` // approved | rejected | changes_requested
	SupervisorNotes string `json:"supervisor_notes,omitempty"`
}

// HoursRequest carries a quantity for monetize/return/grant operations.
type HoursRequest struct {
	Qty    decimal.Decimal `json:"qty"`
	Reason string          `json:"reason,omitempty"`
}

// =============================================================================
// ROSTER TYPES
// =============================================================================

// EmployeeDTO represents a roster record in API responses.
type EmployeeDTO struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	EstablishmentID string             `json:"establishment_id"`
	Active          bool               `json:"active"`
	History         []EmployeeEventDTO `json:"history,omitempty"`
}

// EmployeeEventDTO is a dated roster history entry.
type EmployeeEventDTO struct {
	Type string `json:"type"`
	Date string `json:"date"` // YYYY-MM-DD
}

// CreateEmployeeRequest is the request to create a roster record.
type CreateEmployeeRequest struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Active  *bool              `json:"active,omitempty"` // default true
	History []EmployeeEventDTO `json:"history,omitempty"`
}

// =============================================================================
// HOURS BANK TYPES
// =============================================================================

// HoursBalanceDTO is the bank view for one employee.
type HoursBalanceDTO struct {
	EmployeeID string                `json:"employee_id"`
	Balance    decimal.Decimal       `json:"balance"`
	History    []HoursTransactionDTO `json:"history"`
}

// HoursTransactionDTO is one bank ledger entry.
type HoursTransactionDTO struct {
	ID          string          `json:"id"`
	EffectiveAt string          `json:"effective_at"`
	Hours       decimal.Decimal `json:"hours"`
	Type        string          `json:"type"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toReportDTO(r *incentive.Report) ReportDTO {
	items := make([]ItemDTO, len(r.Items))
	for i, it := range r.Items {
		items[i] = toItemDTO(it)
	}
	return ReportDTO{
		EstablishmentID: string(r.EstablishmentID),
		Month:           r.Month.Key(),
		Status:          string(r.Status),
		Locked:          r.Status.Locked(),
		Items:           items,
		Rates:           r.Rates,
		SupervisorNotes: r.SupervisorNotes,
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func toItemDTO(it incentive.Item) ItemDTO {
	pluses := it.Pluses
	if pluses == nil {
		pluses = []incentive.Adjustment{}
	}
	deductions := it.Deductions
	if deductions == nil {
		deductions = []incentive.Adjustment{}
	}
	return ItemDTO{
		EmployeeID:          string(it.EmployeeID),
		EmployeeName:        it.EmployeeName,
		BaseAmount:          it.BaseAmount,
		Pluses:              pluses,
		Deductions:          deductions,
		CaptacionQty:        it.CaptacionQty,
		MecanizacionQty:     it.MecanizacionQty,
		HoursPaidQty:        it.HoursPaidQty,
		ResponsibilityBonus: it.ResponsibilityBonus,
		Total:               it.Total,
	}
}

func toEmployeeDTO(emp incentive.Employee) EmployeeDTO {
	var history []EmployeeEventDTO
	for _, ev := range emp.History {
		history = append(history, EmployeeEventDTO{
			Type: string(ev.Type),
			Date: ev.Date.Format("2006-01-02"),
		})
	}
	return EmployeeDTO{
		ID:              string(emp.ID),
		Name:            emp.Name,
		EstablishmentID: string(emp.EstablishmentID),
		Active:          emp.Active,
		History:         history,
	}
}

func toHoursTransactionDTOs(txs []hoursbank.Transaction) []HoursTransactionDTO {
	dtos := make([]HoursTransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = HoursTransactionDTO{
			ID:          string(tx.ID),
			EffectiveAt: tx.EffectiveAt.Format(time.RFC3339Nano),
			Hours:       tx.Hours,
			Type:        string(tx.Type),
			ReferenceID: tx.ReferenceID,
			Reason:      tx.Reason,
		}
	}
	return dtos
}

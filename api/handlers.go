/*
handlers.go - HTTP API handlers for the incentive engine

PURPOSE:
  Exposes the incentive engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Reports:
    GET    /api/establishments/{id}/reports/{month}              Load (bootstraps current month)
    PUT    .../reports/{month}/rates                             Overwrite rates
    PUT    .../reports/{month}/items/{employeeID}                Overwrite item fields
    POST   .../reports/{month}/items/{employeeID}/adjustments    Add plus/deduction
    DELETE .../items/{employeeID}/adjustments/{adjustmentID}     Remove (kind in query)
    POST   .../items/{employeeID}/hours/monetize                 Bank hours -> paid hours
    POST   .../items/{employeeID}/hours/return                   Paid hours -> bank
    POST   .../reports/{month}/submit                            Manager submission
    POST   .../reports/{month}/decision                          Supervisor verdict

  Roster:
    GET    /api/establishments/{id}/employees                    List roster
    POST   /api/establishments/{id}/employees                    Create roster record

  Hours bank:
    GET    /api/employees/{id}/hours                             Balance + history
    POST   /api/employees/{id}/hours/grant                       Seed earned hours

REQUEST FLOW:
  Each mutating report endpoint runs load -> edit session -> mutate ->
  save. The state machine makes this safe without merge logic: a locked
  report rejects the mutation before anything happens.

ERROR HANDLING:
  Typed engine errors map to HTTP statuses:
  - 400: validation errors
  - 403: locked lifecycle state
  - 404: missing report/item/adjustment/employee
  - 409: submission window, insufficient bank balance
  - 502: ledger reconciliation failure (bank updated, report save failed)
  - 500: everything else

SEE ALSO:
  - dto.go:    Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/incentive-engine/hoursbank"
	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// RosterStore is the roster with its write side (the engine itself only
// ever reads the roster).
type RosterStore interface {
	incentive.RosterProvider
	SaveEmployee(ctx context.Context, emp incentive.Employee) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Manager *incentive.Manager
	Bank    *hoursbank.Service
	Roster  RosterStore
}

// NewHandler creates a new handler.
func NewHandler(manager *incentive.Manager, bank *hoursbank.Service, roster RosterStore) *Handler {
	return &Handler{Manager: manager, Bank: bank, Roster: roster}
}

func (h *Handler) reportKey(r *http.Request) (incentive.EstablishmentID, incentive.Month, error) {
	establishmentID := incentive.EstablishmentID(chi.URLParam(r, "id"))
	month, err := incentive.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		return "", incentive.Month{}, err
	}
	return establishmentID, month, nil
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport loads (or bootstraps, for the current month) a report.
// GET /api/establishments/{id}/reports/{month}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	establishmentID, month, err := h.reportKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	session, err := h.Manager.Open(r.Context(), establishmentID, month)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(session.Report()))
}

// UpdateItem overwrites item fields and saves.
// PUT /api/establishments/{id}/reports/{month}/items/{employeeID}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	employeeID := incentive.EmployeeID(chi.URLParam(r, "employeeID"))
	h.mutateAndSave(w, r, func(s *incentive.Session) error {
		if req.BaseAmount != nil {
			if err := s.SetBaseAmount(employeeID, *req.BaseAmount); err != nil {
				return err
			}
		}
		if req.CaptacionQty != nil {
			if err := s.SetCaptacionQty(employeeID, *req.CaptacionQty); err != nil {
				return err
			}
		}
		if req.MecanizacionQty != nil {
			if err := s.SetMecanizacionQty(employeeID, *req.MecanizacionQty); err != nil {
				return err
			}
		}
		if req.ResponsibilityBonus != nil {
			if err := s.SetResponsibilityBonus(employeeID, *req.ResponsibilityBonus); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateRates overwrites the report-wide rates and saves.
// PUT /api/establishments/{id}/reports/{month}/rates
func (h *Handler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	var rates incentive.Rates
	if err := json.NewDecoder(r.Body).Decode(&rates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mutateAndSave(w, r, func(s *incentive.Session) error {
		return s.SetRates(rates)
	})
}

// AddAdjustment appends a plus/deduction entry and saves.
// POST /api/establishments/{id}/reports/{month}/items/{employeeID}/adjustments
func (h *Handler) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AddAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	establishmentID, month, err := h.reportKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	employeeID := incentive.EmployeeID(chi.URLParam(r, "employeeID"))

	session, err := h.Manager.Open(r.Context(), establishmentID, month)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	id, err := session.AddAdjustment(employeeID, incentive.AdjustmentKind(req.Kind), req.Description, req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := session.Save(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AddAdjustmentResponse{
		AdjustmentID: string(id),
		Report:       toReportDTO(session.Report()),
	})
}

// RemoveAdjustment removes an entry from the list named by ?kind= and saves.
// DELETE /api/establishments/{id}/reports/{month}/items/{employeeID}/adjustments/{adjustmentID}
func (h *Handler) RemoveAdjustment(w http.ResponseWriter, r *http.Request) {
	employeeID := incentive.EmployeeID(chi.URLParam(r, "employeeID"))
	adjustmentID := incentive.AdjustmentID(chi.URLParam(r, "adjustmentID"))
	kind := incentive.AdjustmentKind(r.URL.Query().Get("kind"))

	h.mutateAndSave(w, r, func(s *incentive.Session) error {
		return s.RemoveAdjustment(employeeID, kind, adjustmentID)
	})
}

// MonetizeHours debits the bank and charges the hours onto the item.
// POST /api/establishments/{id}/reports/{month}/items/{employeeID}/hours/monetize
func (h *Handler) MonetizeHours(w http.ResponseWriter, r *http.Request) {
	h.hoursOp(w, r, func(ctx context.Context, s *incentive.Session, employeeID incentive.EmployeeID, req HoursRequest) error {
		return s.MonetizeHours(ctx, employeeID, req.Qty, req.Reason)
	})
}

// ReturnHours gives paid hours back to the employee's bank balance.
// POST /api/establishments/{id}/reports/{month}/items/{employeeID}/hours/return
func (h *Handler) ReturnHours(w http.ResponseWriter, r *http.Request) {
	h.hoursOp(w, r, func(ctx context.Context, s *incentive.Session, employeeID incentive.EmployeeID, req HoursRequest) error {
		return s.ReturnHours(ctx, employeeID, req.Qty, req.Reason)
	})
}

// SubmitReport sends an editable report to pending_approval.
// POST /api/establishments/{id}/reports/{month}/submit
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	establishmentID, month, err := h.reportKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	session, err := h.Manager.Open(r.Context(), establishmentID, month)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := session.Submit(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(session.Report()))
}

// DecideReport records the supervisor's verdict on a pending report.
// POST /api/establishments/{id}/reports/{month}/decision
func (h *Handler) DecideReport(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	establishmentID, month, err := h.reportKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	report, err := h.Manager.Decide(r.Context(), establishmentID, month,
		incentive.ReportStatus(req.Status), req.SupervisorNotes)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// mutateAndSave runs one session mutation then persists, writing the
// updated report on success.
func (h *Handler) mutateAndSave(w http.ResponseWriter, r *http.Request, fn func(*incentive.Session) error) {
	establishmentID, month, err := h.reportKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	session, err := h.Manager.Open(r.Context(), establishmentID, month)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := fn(session); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := session.Save(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(session.Report()))
}

// hoursOp runs a bridge operation; these persist themselves, so no Save.
func (h *Handler) hoursOp(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, *incentive.Session, incentive.EmployeeID, HoursRequest) error) {

	var req HoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	establishmentID, month, err := h.reportKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	employeeID := incentive.EmployeeID(chi.URLParam(r, "employeeID"))

	session, err := h.Manager.Open(r.Context(), establishmentID, month)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := fn(r.Context(), session, employeeID, req); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(session.Report()))
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// ListEmployees returns an establishment's roster.
// GET /api/establishments/{id}/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	establishmentID := incentive.EstablishmentID(chi.URLParam(r, "id"))

	employees, err := h.Roster.Employees(r.Context(), establishmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a roster record.
// POST /api/establishments/{id}/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	emp := incentive.Employee{
		ID:              incentive.EmployeeID(req.ID),
		Name:            req.Name,
		EstablishmentID: incentive.EstablishmentID(chi.URLParam(r, "id")),
		Active:          true,
	}
	if req.Active != nil {
		emp.Active = *req.Active
	}
	for _, ev := range req.History {
		date, err := time.Parse("2006-01-02", ev.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid history date (use YYYY-MM-DD)", err)
			return
		}
		emp.History = append(emp.History, incentive.EmployeeEvent{
			Type: incentive.EmployeeEventType(ev.Type),
			Date: date,
		})
	}

	if err := h.Roster.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// HOURS BANK HANDLERS
// =============================================================================

// GetHoursBalance returns an employee's bank balance and ledger.
// GET /api/employees/{id}/hours
func (h *Handler) GetHoursBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := incentive.EmployeeID(chi.URLParam(r, "id"))
	ctx := r.Context()

	balance, err := h.Bank.Balance(ctx, employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}
	history, err := h.Bank.History(ctx, employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	writeJSON(w, http.StatusOK, HoursBalanceDTO{
		EmployeeID: string(employeeID),
		Balance:    balance,
		History:    toHoursTransactionDTOs(history),
	})
}

// GrantHours adds earned hours to an employee's bank balance.
// POST /api/employees/{id}/hours/grant
func (h *Handler) GrantHours(w http.ResponseWriter, r *http.Request) {
	var req HoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !req.Qty.IsPositive() {
		writeError(w, http.StatusBadRequest, "qty must be greater than zero", nil)
		return
	}

	employeeID := incentive.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Bank.Grant(r.Context(), employeeID, req.Qty, req.Reason); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to grant hours", err)
		return
	}

	balance, err := h.Bank.Balance(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, HoursBalanceDTO{
		EmployeeID: string(employeeID),
		Balance:    balance,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps typed engine errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case incentive.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation_error"})
	case incentive.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case incentive.IsLocked(err):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "locked_state"})
	case errors.Is(err, incentive.ErrSubmissionWindow):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "submission_window"})
	case errors.Is(err, hoursbank.ErrInsufficientBalance):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "insufficient_balance"})
	case incentive.IsRetryableSave(err):
		// Bank already updated; the client retries the report save only.
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "ledger_reconciliation"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/incentive-engine/hoursbank"
	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// REPORT STORE - In-memory report aggregates
// =============================================================================

type ReportStore struct {
	mu      sync.RWMutex
	reports map[reportKey]*incentive.Report
}

type reportKey struct {
	EstablishmentID incentive.EstablishmentID
	Month           string
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[reportKey]*incentive.Report)}
}

func (s *ReportStore) Get(_ context.Context, establishmentID incentive.EstablishmentID, month incentive.Month) (*incentive.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[reportKey{EstablishmentID: establishmentID, Month: month.Key()}]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (s *ReportStore) Put(_ context.Context, report *incentive.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := reportKey{EstablishmentID: report.EstablishmentID, Month: report.Month.Key()}
	s.reports[k] = report.Clone()
	return nil
}

// =============================================================================
// ROSTER - In-memory employee records
// =============================================================================

type Roster struct {
	mu        sync.RWMutex
	employees []incentive.Employee
}

func NewRoster() *Roster {
	return &Roster{}
}

// SaveEmployee appends (or replaces by ID) an employee record.
func (r *Roster) SaveEmployee(_ context.Context, emp incentive.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.employees {
		if r.employees[i].ID == emp.ID {
			r.employees[i] = emp
			return nil
		}
	}
	r.employees = append(r.employees, emp)
	return nil
}

func (r *Roster) Employees(_ context.Context, establishmentID incentive.EstablishmentID) ([]incentive.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []incentive.Employee
	for _, emp := range r.employees {
		if emp.EstablishmentID == establishmentID {
			out = append(out, emp)
		}
	}
	return out, nil
}

// =============================================================================
// HOURS STORE - In-memory append-only bank ledger
// =============================================================================

type HoursStore struct {
	mu           sync.RWMutex
	transactions map[incentive.EmployeeID][]hoursbank.Transaction
	idempotency  map[string]bool
}

func NewHoursStore() *HoursStore {
	return &HoursStore{
		transactions: make(map[incentive.EmployeeID][]hoursbank.Transaction),
		idempotency:  make(map[string]bool),
	}
}

// Append adds a single transaction. Append-only.
func (s *HoursStore) Append(_ context.Context, tx hoursbank.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.IdempotencyKey != "" && s.idempotency[tx.IdempotencyKey] {
		return hoursbank.ErrDuplicateIdempotencyKey
	}

	txs := s.transactions[tx.EmployeeID]
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].EffectiveAt.After(tx.EffectiveAt)
	})
	txs = append(txs, hoursbank.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	s.transactions[tx.EmployeeID] = txs

	if tx.IdempotencyKey != "" {
		s.idempotency[tx.IdempotencyKey] = true
	}
	return nil
}

func (s *HoursStore) Load(_ context.Context, employeeID incentive.EmployeeID) ([]hoursbank.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]hoursbank.Transaction, len(s.transactions[employeeID]))
	copy(result, s.transactions[employeeID])
	return result, nil
}

func (s *HoursStore) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idempotency[idempotencyKey], nil
}

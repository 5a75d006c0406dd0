/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements report persistence (incentive.ReportStore), the roster
  (incentive.RosterProvider) and the hours-bank ledger (hoursbank.Store)
  using SQLite. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  reports:            One row per (establishment, month) aggregate.
                      Items and rates are stored as JSON documents: the
                      report is the unit of persistence and is always
                      written whole, never item-by-item.
  employees:          Roster records with their event history as JSON.
  hours_transactions: Append-only bank ledger. No UPDATE, no DELETE;
                      corrections are new entries. A UNIQUE constraint
                      on idempotency_key backs the retry contract.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, single writer at a time, better crash recovery.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The lifecycle state machine is
  the real concurrency control; report writes are last-write-wins.

USAGE:
  store, err := sqlite.New("./data/incentive.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - incentive/store.go: Report persistence contract
  - hoursbank/types.go: Bank store contract
  - store/memory:       In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/hoursbank"
	"github.com/warp/incentive-engine/incentive"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Reports (whole-aggregate persistence, one row per establishment+month)
	CREATE TABLE IF NOT EXISTS reports (
		establishment_id TEXT NOT NULL,
		month TEXT NOT NULL,
		status TEXT NOT NULL,
		supervisor_notes TEXT NOT NULL DEFAULT '',
		rates_json TEXT NOT NULL,
		items_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (establishment_id, month)
	);

	CREATE INDEX IF NOT EXISTS idx_reports_status
		ON reports(status);

	-- Employees (roster)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		establishment_id TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		history_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_establishment
		ON employees(establishment_id);

	-- Hours bank ledger (append-only)
	CREATE TABLE IF NOT EXISTS hours_transactions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		hours TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hours_employee_date
		ON hours_transactions(employee_id, effective_at);
	CREATE INDEX IF NOT EXISTS idx_hours_reference
		ON hours_transactions(reference_id) WHERE reference_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REPORT STORE - incentive.ReportStore
// =============================================================================

var _ incentive.ReportStore = (*Store)(nil)

// Get loads the report for (establishmentID, month). Returns (nil, nil)
// when absent.
func (s *Store) Get(ctx context.Context, establishmentID incentive.EstablishmentID, month incentive.Month) (*incentive.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT status, supervisor_notes, rates_json, items_json, updated_at
		FROM reports WHERE establishment_id = ? AND month = ?`,
		string(establishmentID), month.Key())

	var status, notes, ratesJSON, itemsJSON, updatedAt string
	if err := row.Scan(&status, &notes, &ratesJSON, &itemsJSON, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	report := &incentive.Report{
		EstablishmentID: establishmentID,
		Month:           month,
		Status:          incentive.ReportStatus(status),
		SupervisorNotes: notes,
	}
	if err := json.Unmarshal([]byte(ratesJSON), &report.Rates); err != nil {
		return nil, fmt.Errorf("failed to decode rates: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &report.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	report.UpdatedAt = ts

	return report, nil
}

// Put upserts the whole report aggregate.
func (s *Store) Put(ctx context.Context, report *incentive.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ratesJSON, err := json.Marshal(report.Rates)
	if err != nil {
		return fmt.Errorf("failed to encode rates: %w", err)
	}
	items := report.Items
	if items == nil {
		items = []incentive.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (establishment_id, month, status, supervisor_notes, rates_json, items_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(establishment_id, month) DO UPDATE SET
			status = excluded.status,
			supervisor_notes = excluded.supervisor_notes,
			rates_json = excluded.rates_json,
			items_json = excluded.items_json,
			updated_at = excluded.updated_at`,
		string(report.EstablishmentID), report.Month.Key(), string(report.Status),
		report.SupervisorNotes, string(ratesJSON), string(itemsJSON),
		report.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// =============================================================================
// ROSTER - incentive.RosterProvider
// =============================================================================

var _ incentive.RosterProvider = (*Store)(nil)

// Employees returns the roster for an establishment in insertion order.
func (s *Store) Employees(ctx context.Context, establishmentID incentive.EstablishmentID) ([]incentive.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, active, history_json
		FROM employees WHERE establishment_id = ?
		ORDER BY created_at, id`,
		string(establishmentID))
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []incentive.Employee
	for rows.Next() {
		var emp incentive.Employee
		var historyJSON string
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Active, &historyJSON); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emp.EstablishmentID = establishmentID
		if err := json.Unmarshal([]byte(historyJSON), &emp.History); err != nil {
			return nil, fmt.Errorf("failed to decode employee history: %w", err)
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// SaveEmployee upserts a roster record.
func (s *Store) SaveEmployee(ctx context.Context, emp incentive.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := emp.History
	if history == nil {
		history = []incentive.EmployeeEvent{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode employee history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, establishment_id, active, history_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			establishment_id = excluded.establishment_id,
			active = excluded.active,
			history_json = excluded.history_json`,
		string(emp.ID), emp.Name, string(emp.EstablishmentID), emp.Active,
		string(historyJSON), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// =============================================================================
// HOURS BANK - hoursbank.Store
// =============================================================================

var _ hoursbank.Store = (*Store)(nil)

// Append persists a bank transaction. Append-only: the only write path.
func (s *Store) Append(ctx context.Context, tx hoursbank.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.IdempotencyKey != "" {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM hours_transactions WHERE idempotency_key = ?`,
			tx.IdempotencyKey).Scan(&n)
		if err != nil {
			return fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if n > 0 {
			return hoursbank.ErrDuplicateIdempotencyKey
		}
	}

	var idemKey any
	if tx.IdempotencyKey != "" {
		idemKey = tx.IdempotencyKey
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hours_transactions (id, employee_id, effective_at, hours, tx_type, reference_id, reason, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tx.ID), string(tx.EmployeeID), tx.EffectiveAt.Format(time.RFC3339Nano),
		tx.Hours.String(), string(tx.Type), tx.ReferenceID, tx.Reason, idemKey,
		tx.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append hours transaction: %w", err)
	}
	return nil
}

// Load returns all bank transactions for an employee, chronologically.
func (s *Store) Load(ctx context.Context, employeeID incentive.EmployeeID) ([]hoursbank.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, effective_at, hours, tx_type, reference_id, reason, idempotency_key, created_at
		FROM hours_transactions WHERE employee_id = ?
		ORDER BY effective_at, created_at`,
		string(employeeID))
	if err != nil {
		return nil, fmt.Errorf("failed to load hours transactions: %w", err)
	}
	defer rows.Close()

	var out []hoursbank.Transaction
	for rows.Next() {
		var tx hoursbank.Transaction
		var effectiveAt, createdAt, hours string
		var reference, reason, idemKey sql.NullString
		if err := rows.Scan(&tx.ID, &effectiveAt, &hours, &tx.Type, &reference, &reason, &idemKey, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan hours transaction: %w", err)
		}
		tx.EmployeeID = employeeID
		tx.ReferenceID = reference.String
		tx.Reason = reason.String
		tx.IdempotencyKey = idemKey.String

		if tx.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("failed to parse hours %q: %w", hours, err)
		}
		if tx.EffectiveAt, err = time.Parse(time.RFC3339Nano, effectiveAt); err != nil {
			return nil, fmt.Errorf("failed to parse effective_at: %w", err)
		}
		if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Exists checks whether an idempotency key was already written.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hours_transactions WHERE idempotency_key = ?`,
		idempotencyKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return n > 0, nil
}

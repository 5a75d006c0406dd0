/*
demo.go - Demo seed data

PURPOSE:
  Seeds a small, recognizable dataset for local development: one store
  with a mixed roster (active staff plus a mid-month leaver) and some
  banked hours to monetize. Roster records are upserted by ID; bank
  grants are ledger entries, so seeding twice doubles the balances.
*/
package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/incentive"
)

// SeedDemo loads the demo roster and bank grants.
// POST /api/demo/seed
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	employees := []incentive.Employee{
		{ID: "emp-ana", Name: "Ana Garcia", EstablishmentID: "store-001", Active: true},
		{ID: "emp-luis", Name: "Luis Moreno", EstablishmentID: "store-001", Active: true},
		{ID: "emp-marta", Name: "Marta Ruiz", EstablishmentID: "store-001", Active: false,
			History: []incentive.EmployeeEvent{
				{Type: incentive.EventTermination, Date: time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, time.UTC)},
			}},
	}
	for _, emp := range employees {
		if err := h.Roster.SaveEmployee(ctx, emp); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed roster", err)
			return
		}
	}

	// Banked overtime for the active staff, ready to monetize.
	grants := map[incentive.EmployeeID]decimal.Decimal{
		"emp-ana":  decimal.NewFromInt(12),
		"emp-luis": decimal.NewFromInt(6),
	}
	for id, hours := range grants {
		if err := h.Bank.Grant(ctx, id, hours, "demo seed: accumulated overtime"); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed hours bank", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"establishment_id": "store-001",
		"employees":        len(employees),
		"bank_grants":      len(grants),
	})
}

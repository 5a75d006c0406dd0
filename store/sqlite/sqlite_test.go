package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/hoursbank"
	"github.com/warp/incentive-engine/incentive"
	"github.com/warp/incentive-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReports_RoundTrip(t *testing.T) {
	// GIVEN: A report with items, adjustments, and notes
	// WHEN:  Put then Get
	// THEN:  The aggregate survives whole, decimals intact

	store := newTestStore(t)
	ctx := context.Background()
	month := incentive.NewMonth(2026, time.July)
	now := time.Date(2026, time.August, 1, 9, 30, 0, 123456000, time.UTC)

	report := incentive.NewReport("store-1", month, incentive.DefaultRates(), now)
	report.Status = incentive.StatusChangesRequested
	report.SupervisorNotes = "missing overtime for Alice"
	report.Items = []incentive.Item{
		{
			EmployeeID:   "emp-1",
			EmployeeName: "Alice Vega",
			BaseAmount:   d("850.25"),
			Pluses: []incentive.Adjustment{
				{ID: "adj-1", Description: "weekend cover", Amount: d("20")},
			},
			Deductions: []incentive.Adjustment{
				{ID: "adj-2", Description: "register shortfall", Amount: d("5.50")},
			},
			CaptacionQty: d("3"),
			HoursPaidQty: d("4.5"),
			Total:        d("915.75"),
		},
		{EmployeeID: "emp-2", EmployeeName: "Bruno Sanz"},
	}

	require.NoError(t, store.Put(ctx, report))

	loaded, err := store.Get(ctx, "store-1", month)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, incentive.StatusChangesRequested, loaded.Status)
	assert.Equal(t, "missing overtime for Alice", loaded.SupervisorNotes)
	assert.True(t, loaded.UpdatedAt.Equal(now))
	require.Len(t, loaded.Items, 2)

	item := loaded.Item("emp-1")
	require.NotNil(t, item)
	assert.True(t, item.BaseAmount.Equal(d("850.25")))
	assert.True(t, item.Total.Equal(d("915.75")))
	require.Len(t, item.Pluses, 1)
	assert.Equal(t, "weekend cover", item.Pluses[0].Description)
	require.Len(t, item.Deductions, 1)
	assert.True(t, item.Deductions[0].Amount.Equal(d("5.50")))
	assert.Equal(t, incentive.DefaultRates(), loaded.Rates)
}

func TestReports_AbsentIsNilNil(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Get(context.Background(), "store-1", incentive.NewMonth(2026, time.July))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestReports_PutUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	month := incentive.NewMonth(2026, time.July)
	now := time.Now().UTC()

	report := incentive.NewReport("store-1", month, incentive.DefaultRates(), now)
	require.NoError(t, store.Put(ctx, report))

	report.Status = incentive.StatusPendingApproval
	report.Items = []incentive.Item{{EmployeeID: "emp-1", EmployeeName: "Alice Vega"}}
	require.NoError(t, store.Put(ctx, report))

	loaded, err := store.Get(ctx, "store-1", month)
	require.NoError(t, err)
	assert.Equal(t, incentive.StatusPendingApproval, loaded.Status)
	assert.Len(t, loaded.Items, 1)
}

func TestReports_KeyedByEstablishmentAndMonth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	july := incentive.NewMonth(2026, time.July)
	august := incentive.NewMonth(2026, time.August)

	require.NoError(t, store.Put(ctx, incentive.NewReport("store-1", july, incentive.DefaultRates(), now)))
	require.NoError(t, store.Put(ctx, incentive.NewReport("store-1", august, incentive.DefaultRates(), now)))
	require.NoError(t, store.Put(ctx, incentive.NewReport("store-2", july, incentive.DefaultRates(), now)))

	for _, key := range []struct {
		est   incentive.EstablishmentID
		month incentive.Month
	}{{"store-1", july}, {"store-1", august}, {"store-2", july}} {
		loaded, err := store.Get(ctx, key.est, key.month)
		require.NoError(t, err)
		require.NotNil(t, loaded, "missing report for %s/%s", key.est, key.month)
		assert.Equal(t, key.est, loaded.EstablishmentID)
		assert.Equal(t, key.month, loaded.Month)
	}

	loaded, err := store.Get(ctx, "store-2", august)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

// =============================================================================
// ROSTER
// =============================================================================

func TestRoster_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, incentive.Employee{
		ID: "emp-1", Name: "Alice Vega", EstablishmentID: "store-1", Active: true,
	}))
	require.NoError(t, store.SaveEmployee(ctx, incentive.Employee{
		ID: "emp-2", Name: "Bruno Sanz", EstablishmentID: "store-1", Active: false,
		History: []incentive.EmployeeEvent{
			{Type: incentive.EventTermination, Date: time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC)},
		},
	}))
	require.NoError(t, store.SaveEmployee(ctx, incentive.Employee{
		ID: "emp-9", Name: "Zoe Pratt", EstablishmentID: "store-2", Active: true,
	}))

	employees, err := store.Employees(ctx, "store-1")
	require.NoError(t, err)
	require.Len(t, employees, 2)

	assert.Equal(t, incentive.EmployeeID("emp-1"), employees[0].ID)
	assert.True(t, employees[0].Active)

	assert.Equal(t, incentive.EmployeeID("emp-2"), employees[1].ID)
	assert.False(t, employees[1].Active)
	require.Len(t, employees[1].History, 1)
	assert.Equal(t, incentive.EventTermination, employees[1].History[0].Type)
}

func TestRoster_SaveEmployeeUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, incentive.Employee{
		ID: "emp-1", Name: "Alice Vega", EstablishmentID: "store-1", Active: true,
	}))
	require.NoError(t, store.SaveEmployee(ctx, incentive.Employee{
		ID: "emp-1", Name: "Alice Vega-Puig", EstablishmentID: "store-1", Active: false,
	}))

	employees, err := store.Employees(ctx, "store-1")
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Alice Vega-Puig", employees[0].Name)
	assert.False(t, employees[0].Active)
}

func TestRoster_EmptyEstablishment(t *testing.T) {
	store := newTestStore(t)
	employees, err := store.Employees(context.Background(), "store-none")
	require.NoError(t, err)
	assert.Empty(t, employees)
}

// =============================================================================
// HOURS LEDGER
// =============================================================================

func hoursTx(id string, emp incentive.EmployeeID, at time.Time, hours string, txType hoursbank.TransactionType, idemKey string) hoursbank.Transaction {
	return hoursbank.Transaction{
		ID:             hoursbank.TransactionID(id),
		EmployeeID:     emp,
		EffectiveAt:    at,
		Hours:          d(hours),
		Type:           txType,
		IdempotencyKey: idemKey,
		CreatedAt:      at,
	}
}

func TestHours_AppendAndLoadChronological(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)

	// Appended out of order; Load must come back by EffectiveAt.
	require.NoError(t, store.Append(ctx, hoursTx("t2", "emp-1", base.Add(time.Hour), "-3", hoursbank.TxMonetization, "k2")))
	require.NoError(t, store.Append(ctx, hoursTx("t1", "emp-1", base, "8", hoursbank.TxGrant, "k1")))
	require.NoError(t, store.Append(ctx, hoursTx("t3", "emp-2", base, "5", hoursbank.TxGrant, "k3")))

	txs, err := store.Load(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, hoursbank.TransactionID("t1"), txs[0].ID)
	assert.True(t, txs[0].Hours.Equal(d("8")))
	assert.Equal(t, hoursbank.TransactionID("t2"), txs[1].ID)
	assert.True(t, txs[1].Hours.Equal(d("-3")))
	assert.Equal(t, hoursbank.TxMonetization, txs[1].Type)
}

func TestHours_DuplicateIdempotencyKeyRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, hoursTx("t1", "emp-1", now, "8", hoursbank.TxGrant, "same-key")))

	err := store.Append(ctx, hoursTx("t2", "emp-1", now, "8", hoursbank.TxGrant, "same-key"))
	assert.ErrorIs(t, err, hoursbank.ErrDuplicateIdempotencyKey)

	txs, err := store.Load(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestHours_EmptyIdempotencyKeysDoNotCollide(t *testing.T) {
	// Grants carry no key; several of them must coexist.
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, hoursTx("t1", "emp-1", now, "8", hoursbank.TxGrant, "")))
	require.NoError(t, store.Append(ctx, hoursTx("t2", "emp-1", now.Add(time.Second), "2", hoursbank.TxGrant, "")))

	txs, err := store.Load(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestHours_Exists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, hoursTx("t1", "emp-1", time.Now().UTC(), "8", hoursbank.TxGrant, "k1")))

	seen, err := store.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = store.Exists(ctx, "never-written")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestHours_RoundTripPreservesContext(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, time.August, 3, 14, 15, 16, 171819000, time.UTC)

	tx := hoursbank.Transaction{
		ID:             "t1",
		EmployeeID:     "emp-1",
		EffectiveAt:    at,
		Hours:          d("3.25"),
		Type:           hoursbank.TxReturn,
		ReferenceID:    "store-1/2026-07",
		Reason:         "schedule correction",
		IdempotencyKey: "k1",
		CreatedAt:      at,
	}
	require.NoError(t, store.Append(ctx, tx))

	txs, err := store.Load(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	got := txs[0]
	assert.Equal(t, tx.ID, got.ID)
	assert.True(t, got.Hours.Equal(d("3.25")))
	assert.Equal(t, tx.Type, got.Type)
	assert.Equal(t, tx.ReferenceID, got.ReferenceID)
	assert.Equal(t, tx.Reason, got.Reason)
	assert.Equal(t, tx.IdempotencyKey, got.IdempotencyKey)
	assert.True(t, got.EffectiveAt.Equal(at))
}

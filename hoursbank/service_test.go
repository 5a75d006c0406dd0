package hoursbank_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/hoursbank"
	"github.com/warp/incentive-engine/incentive"
	"github.com/warp/incentive-engine/store/memory"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestBank(t *testing.T) (*hoursbank.Service, *memory.HoursStore) {
	t.Helper()
	store := memory.NewHoursStore()
	svc := hoursbank.NewService(store)
	// Deterministic timestamps so ledger order is stable.
	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	return svc, store
}

func TestBalance_ReplaysLedger(t *testing.T) {
	// GIVEN: Grants, a monetization, and a return
	// THEN:  The balance is the signed sum of all entries

	svc, _ := newTestBank(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, "emp-1", d("10"), "overtime week 31"))
	require.NoError(t, svc.Grant(ctx, "emp-1", d("2.5"), "shift swap"))
	require.NoError(t, svc.Debit(ctx, incentive.HoursDebit{
		EmployeeID: "emp-1", Hours: d("4"), Reason: "monetized", IdempotencyKey: "k-debit-1",
	}))
	require.NoError(t, svc.Credit(ctx, incentive.HoursCredit{
		EmployeeID: "emp-1", Hours: d("1"), Reason: "correction", IdempotencyKey: "k-credit-1",
	}))

	balance, err := svc.Balance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("9.5")), "10 + 2.5 - 4 + 1, got %s", balance)
}

func TestBalance_EmptyLedgerIsZero(t *testing.T) {
	svc, _ := newTestBank(t)
	balance, err := svc.Balance(context.Background(), "emp-unknown")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestGrant_RejectsNonPositive(t *testing.T) {
	svc, _ := newTestBank(t)
	assert.Error(t, svc.Grant(context.Background(), "emp-1", d("0"), "nothing"))
	assert.Error(t, svc.Grant(context.Background(), "emp-1", d("-3"), "negative"))
}

func TestHistory_ChronologicalWithTypedEntries(t *testing.T) {
	svc, _ := newTestBank(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, "emp-1", d("8"), "overtime"))
	require.NoError(t, svc.Debit(ctx, incentive.HoursDebit{
		EmployeeID: "emp-1", Hours: d("3"), ReferenceID: "store-1/2026-07", IdempotencyKey: "k1",
	}))

	history, err := svc.History(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, hoursbank.TxGrant, history[0].Type)
	assert.True(t, history[0].Hours.Equal(d("8")))

	assert.Equal(t, hoursbank.TxMonetization, history[1].Type)
	assert.True(t, history[1].Hours.Equal(d("-3")), "monetization is stored signed")
	assert.Equal(t, "store-1/2026-07", history[1].ReferenceID)
	assert.True(t, history[0].EffectiveAt.Before(history[1].EffectiveAt))
}

func TestDebit_InsufficientBalance(t *testing.T) {
	svc, _ := newTestBank(t)
	ctx := context.Background()
	require.NoError(t, svc.Grant(ctx, "emp-1", d("2"), "overtime"))

	err := svc.Debit(ctx, incentive.HoursDebit{EmployeeID: "emp-1", Hours: d("5"), IdempotencyKey: "k1"})

	var balErr *hoursbank.InsufficientBalanceError
	require.ErrorAs(t, err, &balErr)
	assert.True(t, balErr.Available.Equal(d("2")))
	assert.True(t, balErr.Requested.Equal(d("5")))
	assert.ErrorIs(t, err, hoursbank.ErrInsufficientBalance)

	// The rejected debit left no entry behind.
	history, _ := svc.History(ctx, "emp-1")
	assert.Len(t, history, 1)
}

func TestDebit_ExactBalanceAllowed(t *testing.T) {
	svc, _ := newTestBank(t)
	ctx := context.Background()
	require.NoError(t, svc.Grant(ctx, "emp-1", d("4"), "overtime"))

	require.NoError(t, svc.Debit(ctx, incentive.HoursDebit{EmployeeID: "emp-1", Hours: d("4"), IdempotencyKey: "k1"}))

	balance, _ := svc.Balance(ctx, "emp-1")
	assert.True(t, balance.IsZero())
}

func TestCredit_DuplicateKeyIsSuccessWithoutSecondEntry(t *testing.T) {
	// The report bridge's retry safety: re-sending the same credit must
	// report success and leave exactly one ledger entry.

	svc, store := newTestBank(t)
	ctx := context.Background()

	credit := incentive.HoursCredit{
		EmployeeID: "emp-1", Hours: d("3"), Reason: "return", IdempotencyKey: "same-key",
	}
	require.NoError(t, svc.Credit(ctx, credit))
	require.NoError(t, svc.Credit(ctx, credit))
	require.NoError(t, svc.Credit(ctx, credit))

	balance, err := svc.Balance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("3")))

	history, _ := svc.History(ctx, "emp-1")
	assert.Len(t, history, 1)

	seen, err := store.Exists(ctx, "same-key")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDebit_DuplicateKeyIsSuccessWithoutSecondEntry(t *testing.T) {
	svc, _ := newTestBank(t)
	ctx := context.Background()
	require.NoError(t, svc.Grant(ctx, "emp-1", d("10"), "overtime"))

	debit := incentive.HoursDebit{EmployeeID: "emp-1", Hours: d("4"), IdempotencyKey: "same-key"}
	require.NoError(t, svc.Debit(ctx, debit))
	require.NoError(t, svc.Debit(ctx, debit))

	balance, _ := svc.Balance(ctx, "emp-1")
	assert.True(t, balance.Equal(d("6")), "debited once, got %s", balance)
}

func TestCredit_RejectsNonPositive(t *testing.T) {
	svc, _ := newTestBank(t)
	err := svc.Credit(context.Background(), incentive.HoursCredit{EmployeeID: "emp-1", Hours: d("0")})
	assert.Error(t, err)
}

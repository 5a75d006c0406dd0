package incentive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/incentive"
)

func TestAddAdjustment_PlusRaisesTotal(t *testing.T) {
	// GIVEN: A draft report with a base amount set
	// WHEN:  Adding a plus
	// THEN:  The entry appears with a generated id and the total grows

	e := newTestEngine(t)
	e.seedReport(t, closedMon, incentive.StatusDraft)
	session := e.open(t, closedMon)
	require.NoError(t, session.SetBaseAmount("emp-1", d("100")))

	id, err := session.AddAdjustment("emp-1", incentive.KindPlus, "weekend cover", d("25.50"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	item := session.Report().Item("emp-1")
	require.Len(t, item.Pluses, 1)
	assert.Equal(t, id, item.Pluses[0].ID)
	assert.Equal(t, "weekend cover", item.Pluses[0].Description)
	assert.True(t, item.Total.Equal(d("125.50")), "got %s", item.Total)
}

func TestAddAdjustment_DeductionLowersTotal(t *testing.T) {
	e := newTestEngine(t)
	e.seedReport(t, closedMon, incentive.StatusDraft)
	session := e.open(t, closedMon)
	require.NoError(t, session.SetBaseAmount("emp-1", d("100")))

	_, err := session.AddAdjustment("emp-1", incentive.KindDeduction, "register shortfall", d("30"))
	require.NoError(t, err)

	item := session.Report().Item("emp-1")
	require.Len(t, item.Deductions, 1)
	assert.True(t, item.Deductions[0].Amount.Equal(d("30")), "amount keeps its positive sign")
	assert.True(t, item.Total.Equal(d("70")), "got %s", item.Total)
}

func TestAddAdjustment_GeneratedIDsAreUnique(t *testing.T) {
	e := newTestEngine(t)
	e.seedReport(t, closedMon, incentive.StatusDraft)
	session := e.open(t, closedMon)

	seen := map[incentive.AdjustmentID]bool{}
	for i := 0; i < 5; i++ {
		id, err := session.AddAdjustment("emp-1", incentive.KindPlus, "extra shift", d("1"))
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate adjustment id %s", id)
		seen[id] = true
	}
}

func TestAddAdjustment_Validation(t *testing.T) {
	e := newTestEngine(t)
	e.seedReport(t, closedMon, incentive.StatusDraft)
	session := e.open(t, closedMon)

	cases := []struct {
		name string
		kind incentive.AdjustmentKind
		desc string
		amt  string
	}{
		{"invalid kind", "bonus", "something", "10"},
		{"empty description", incentive.KindPlus, "", "10"},
		{"zero amount", incentive.KindPlus, "something", "0"},
		{"negative amount", incentive.KindDeduction, "something", "-5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := session.AddAdjustment("emp-1", tc.kind, tc.desc, d(tc.amt))
			assert.ErrorIs(t, err, incentive.ErrValidation)
		})
	}

	// None of the rejects touched the item.
	item := session.Report().Item("emp-1")
	assert.Empty(t, item.Pluses)
	assert.Empty(t, item.Deductions)
	assert.False(t, session.Dirty())
}

func TestRemoveAdjustment_RoundTripRestoresState(t *testing.T) {
	// GIVEN: An item with existing entries and a known total
	// WHEN:  Adding one more entry and then removing it by id
	// THEN:  Lists and total are exactly as before

	e := newTestEngine(t)
	e.seedReport(t, closedMon, incentive.StatusDraft)
	session := e.open(t, closedMon)
	require.NoError(t, session.SetBaseAmount("emp-1", d("200")))
	_, err := session.AddAdjustment("emp-1", incentive.KindPlus, "night shift", d("40"))
	require.NoError(t, err)

	before := session.Report().Item("emp-1")
	beforeTotal := before.Total
	beforePluses := len(before.Pluses)

	id, err := session.AddAdjustment("emp-1", incentive.KindPlus, "temporary", d("13.37"))
	require.NoError(t, err)
	require.NoError(t, session.RemoveAdjustment("emp-1", incentive.KindPlus, id))

	after := session.Report().Item("emp-1")
	assert.Len(t, after.Pluses, beforePluses)
	assert.True(t, after.Total.Equal(beforeTotal), "expected %s, got %s", beforeTotal, after.Total)
}

func TestRemoveAdjustment_UnknownID_NotFound(t *testing.T) {
	e := newTestEngine(t)
	e.seedReport(t, closedMon, incentive.StatusDraft)
	session := e.open(t, closedMon)

	err := session.RemoveAdjustment("emp-1", incentive.KindPlus, "no-such-id")
	assert.ErrorIs(t, err, incentive.ErrNotFound)
}

func TestRemoveAdjustment_WrongList_NotFound(t *testing.T) {
	// An id that lives in the pluses list is not discoverable through the
	// deductions list.
	e := newTestEngine(t)
	e.seedReport(t, closedMon, incentive.StatusDraft)
	session := e.open(t, closedMon)

	id, err := session.AddAdjustment("emp-1", incentive.KindPlus, "night shift", d("10"))
	require.NoError(t, err)

	err = session.RemoveAdjustment("emp-1", incentive.KindDeduction, id)
	assert.ErrorIs(t, err, incentive.ErrNotFound)
	assert.Len(t, session.Report().Item("emp-1").Pluses, 1)
}

func TestAdjustments_LockedReport_Rejected(t *testing.T) {
	e := newTestEngine(t)
	e.seedReport(t, closedMon, incentive.StatusPendingApproval)
	session := e.open(t, closedMon)

	_, err := session.AddAdjustment("emp-1", incentive.KindPlus, "late add", d("10"))
	assert.ErrorIs(t, err, incentive.ErrLocked)

	err = session.RemoveAdjustment("emp-1", incentive.KindPlus, "whatever")
	assert.ErrorIs(t, err, incentive.ErrLocked)
}

package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendwise/internal/model"
)

func TestByMonth_Chronological(t *testing.T) {
	txns := []model.Transaction{
		expense(t, "2025-10-03", "Food", 5),
		expense(t, "2025-02-14", "Food", 7),
		expense(t, "2024-12-31", "Food", 11),
		expense(t, "2025-02-01", "Travel", 3),
		income(t, "2025-02-01", 1000),
	}

	months := ByMonth(txns)
	require.Len(t, months, 3)

	want := []model.MonthlyTotal{
		{Month: model.MonthKey{Year: 2024, Month: time.December}, Amount: 11},
		{Month: model.MonthKey{Year: 2025, Month: time.February}, Amount: 10},
		{Month: model.MonthKey{Year: 2025, Month: time.October}, Amount: 5},
	}
	for i := range want {
		assert.Equal(t, want[i].Month, months[i].Month)
		assert.InDelta(t, want[i].Amount, months[i].Amount, 1e-9)
	}
}

func TestByCategory_ExcludesIncome(t *testing.T) {
	txns := []model.Transaction{
		expense(t, "2025-01-01", "Travel", 30),
		expense(t, "2025-01-02", "Food", 10),
		expense(t, "2025-01-03", "Food", 15),
		income(t, "2025-01-04", 500),
	}

	totals := ByCategory(txns)
	require.Len(t, totals, 2)
	assert.Equal(t, "Food", totals[0].Category)
	assert.InDelta(t, 25.0, totals[0].Amount, 1e-9)
	assert.Equal(t, 2, totals[0].Count)
	assert.Equal(t, "Travel", totals[1].Category)

	assert.InDelta(t, 55.0, TotalExpense(txns), 1e-9)
	assert.InDelta(t, 500.0, TotalIncome(txns), 1e-9)
}

func TestAggregator_EmptyInput(t *testing.T) {
	assert.Empty(t, ByMonth(nil))
	assert.Empty(t, ByCategory(nil))
	assert.Empty(t, GroupByCategory(nil))
	assert.Zero(t, TotalExpense(nil))
}

func TestGroupByCategory_KeepsInputOrder(t *testing.T) {
	a := expense(t, "2025-03-01", "Food", 1)
	b := expense(t, "2025-01-01", "Food", 2)
	groups := GroupByCategory([]model.Transaction{a, b})
	require.Len(t, groups["Food"], 2)
	assert.Equal(t, a.ID, groups["Food"][0].ID)
	assert.Equal(t, b.ID, groups["Food"][1].ID)
}

func TestMonthKey_String(t *testing.T) {
	assert.Equal(t, "2025-03", model.MonthKey{Year: 2025, Month: time.March}.String())
}

package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendwise/internal/model"
)

// series builds one expense per day starting 2025-01-01.
func series(t *testing.T, category string, amounts ...float64) []model.Transaction {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Transaction, len(amounts))
	for i, a := range amounts {
		out[i] = expense(t, start.AddDate(0, 0, i).Format("2006-01-02"), category, a)
	}
	return out
}

func TestDetectAnomalies_SingleOutlier(t *testing.T) {
	txns := series(t, "Food", 10, 10, 10, 10, 100)

	got := DetectAnomalies(txns, "Food")
	require.Len(t, got, 1)

	a := got[0]
	assert.True(t, a.IsAnomaly)
	assert.InDelta(t, 100.0, a.ActualAmount, 1e-9)
	assert.Equal(t, model.SeverityLow, a.Severity)
	assert.InDelta(t, -44.0, a.ExpectedRange.Min, 1e-9)
	assert.InDelta(t, 100.0, a.ExpectedRange.Max, 1e-9)
	assert.Equal(t, txns[4].ID, a.TransactionID)
	assert.Equal(t, fmt.Sprintf("Unusual Food expense detected: $100.00 (%s)", txns[4].Title), a.Description)
}

func TestDetectAnomalies_TooFewSamples(t *testing.T) {
	txns := series(t, "Food", 1, 1, 1, 100000)
	assert.Empty(t, DetectAnomalies(txns, "Food"))
}

func TestDetectAnomalies_ZeroVariance(t *testing.T) {
	txns := series(t, "Food", 42, 42, 42, 42, 42, 42)
	assert.Empty(t, DetectAnomalies(txns, "Food"))
}

func TestDetectAnomalies_Empty(t *testing.T) {
	assert.Empty(t, DetectAnomalies(nil, "Food"))
}

func TestDetectAnomalies_Severity(t *testing.T) {
	// One outlier among n-1 equal values always scores sqrt(n-1).
	tests := []struct {
		n    int
		want model.Severity
	}{
		{5, model.SeverityLow},    // 2.00
		{7, model.SeverityLow},    // 2.45
		{9, model.SeverityMedium}, // 2.83
		{11, model.SeverityHigh},  // 3.16
		{20, model.SeverityHigh},  // 4.36
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			amounts := make([]float64, tt.n)
			for i := range amounts {
				amounts[i] = 10
			}
			amounts[tt.n-1] = 1000

			got := DetectAnomalies(series(t, "Food", amounts...), "Food")
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Severity)
		})
	}
}

func TestDetectAnomalies_ChronologicalOrder(t *testing.T) {
	var txns []model.Transaction
	for i := 0; i < 10; i++ {
		txns = append(txns, expense(t, fmt.Sprintf("2025-03-%02d", i+1), "Food", 10))
	}
	late := expense(t, "2025-05-01", "Food", 200)
	early := expense(t, "2025-02-01", "Food", 220)
	txns = append(txns, late, early)

	got := DetectAnomalies(txns, "Food")
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].TransactionID)
	assert.Equal(t, late.ID, got[1].TransactionID)
}

func TestDetectAnomalies_IgnoresIncomeAndOtherCategories(t *testing.T) {
	txns := series(t, "Food", 10, 10, 10, 10)
	txns = append(txns,
		txn(t, "2025-02-01", "Food", 5000, model.Income),
		expense(t, "2025-02-02", "Travel", 5000),
	)
	assert.Empty(t, DetectAnomalies(txns, "Food"))
}

func TestDetectAllAnomalies(t *testing.T) {
	txns := append(series(t, "Food", 10, 10, 10, 10, 100), series(t, "Travel", 5, 5, 5, 5, 5, 5, 5, 5, 90)...)

	got := DetectAllAnomalies(txns)
	require.Len(t, got, 2)
	assert.Equal(t, "Food", got[0].Category)
	assert.Equal(t, "Travel", got[1].Category)
}

func TestDetectAnomalies_Idempotent(t *testing.T) {
	txns := series(t, "Food", 10, 12, 9, 11, 100, 10)
	assert.Equal(t, DetectAnomalies(txns, "Food"), DetectAnomalies(txns, "Food"))
}

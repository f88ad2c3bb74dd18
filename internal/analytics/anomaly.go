package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/theirongolddev/spendwise/internal/model"
)

// DetectAnomalies flags expenses in category whose z-score reaches
// AnomalyZScore. Results keep chronological order. Categories with fewer than
// MinAnomalySamples expenses, or with identical amounts, yield nothing.
//
// The threshold is inclusive: with a population deviation the largest z any
// sample of n can reach is sqrt(n-1), which is exactly 2 at n = 5.
func DetectAnomalies(txns []model.Transaction, category string) []model.AnomalyDetection {
	var catTxns []model.Transaction
	for _, t := range txns {
		if t.Category == category && t.IsExpense() {
			catTxns = append(catTxns, t)
		}
	}
	if len(catTxns) < MinAnomalySamples {
		return nil
	}

	sort.SliceStable(catTxns, func(i, j int) bool {
		return catTxns[i].Date.Before(catTxns[j].Date)
	})

	amounts := make([]float64, len(catTxns))
	for i, t := range catTxns {
		amounts[i] = t.AmountFloat()
	}
	mean := Mean(amounts)
	stdDev := PopulationStdDev(amounts)
	if stdDev == 0 {
		return nil
	}

	expected := model.Range{
		Min: mean - AnomalyZScore*stdDev,
		Max: mean + AnomalyZScore*stdDev,
	}

	var anomalies []model.AnomalyDetection
	for i, t := range catTxns {
		z := math.Abs(amounts[i]-mean) / stdDev
		if z < AnomalyZScore {
			continue
		}
		anomalies = append(anomalies, model.AnomalyDetection{
			IsAnomaly:     true,
			Severity:      classifySeverity(z),
			Description:   fmt.Sprintf("Unusual %s expense detected: $%.2f (%s)", category, amounts[i], t.Title),
			ExpectedRange: expected,
			ActualAmount:  amounts[i],
			TransactionID: t.ID,
			Category:      category,
			Date:          t.Date,
			ZScore:        z,
		})
	}
	return anomalies
}

// DetectAllAnomalies runs DetectAnomalies for every expense category, in
// the order categories first appear.
func DetectAllAnomalies(txns []model.Transaction) []model.AnomalyDetection {
	var all []model.AnomalyDetection
	for _, cat := range categoryOrder(txns) {
		all = append(all, DetectAnomalies(txns, cat)...)
	}
	return all
}

func classifySeverity(z float64) model.Severity {
	switch {
	case z > HighZScore:
		return model.SeverityHigh
	case z > MediumZScore:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

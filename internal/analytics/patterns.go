package analytics

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/spendwise/internal/model"
)

const noSeasonality = "No clear pattern"

var monthAbbrev = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// AnalyzePatterns summarises every expense category: average amount,
// transactions per active month, monthly growth as a percent of the average,
// and a single-peak seasonality label. Results are ordered by average amount,
// largest first.
func AnalyzePatterns(txns []model.Transaction) []model.SpendingPattern {
	groups := GroupByCategory(txns)
	patterns := make([]model.SpendingPattern, 0, len(groups))

	for _, cat := range categoryOrder(txns) {
		catTxns := groups[cat]

		amounts := make([]float64, len(catTxns))
		for i, t := range catTxns {
			amounts[i] = t.AmountFloat()
		}
		avg := Mean(amounts)

		monthly := monthlyAmounts(catTxns)
		activeMonths := len(monthly)
		if activeMonths < 1 {
			activeMonths = 1
		}

		var trend float64
		if len(monthly) >= MinRegressionMonths && avg != 0 {
			slope, _ := LinearRegression(monthly)
			trend = slope / avg * 100
		}

		patterns = append(patterns, model.SpendingPattern{
			Category:    cat,
			AvgAmount:   avg,
			Frequency:   float64(len(catTxns)) / float64(activeMonths),
			Trend:       trend,
			Seasonality: seasonality(catTxns),
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].AvgAmount > patterns[j].AvgAmount
	})
	return patterns
}

// seasonality buckets transactions by month of year, ignoring the year.
// The earliest month wins a tie for the busiest bucket.
func seasonality(txns []model.Transaction) string {
	var counts [12]int
	for _, t := range txns {
		counts[t.Date.Month()-1]++
	}

	peak := 0
	total := 0
	for i, c := range counts {
		total += c
		if c > counts[peak] {
			peak = i
		}
	}
	mean := float64(total) / 12

	if float64(counts[peak]) > mean*SeasonalityRatio {
		return fmt.Sprintf("Peaks in %s", monthAbbrev[peak])
	}
	return noSeasonality
}

package analytics

import (
	"math"
	"sort"

	"github.com/theirongolddev/spendwise/internal/model"
)

// PredictNextPeriod forecasts next month's spend per expense category.
// An empty category predicts every category present; otherwise only that one.
// Results are ordered by predicted amount, largest first.
func PredictNextPeriod(txns []model.Transaction, category string) []model.PredictionResult {
	filtered := txns
	if category != "" {
		filtered = filterCategory(txns, category)
	}

	groups := GroupByCategory(filtered)
	predictions := make([]model.PredictionResult, 0, len(groups))
	for _, cat := range categoryOrder(filtered) {
		predictions = append(predictions, predictCategory(cat, groups[cat]))
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].PredictedAmount != predictions[j].PredictedAmount {
			return predictions[i].PredictedAmount > predictions[j].PredictedAmount
		}
		return predictions[i].Category < predictions[j].Category
	})
	return predictions
}

func predictCategory(category string, txns []model.Transaction) model.PredictionResult {
	if len(txns) < MinTrendSamples {
		return model.PredictionResult{
			Category:        category,
			PredictedAmount: mostRecentAmount(txns),
			Confidence:      SparseConfidence,
			Trend:           model.TrendStable,
		}
	}

	amounts := monthlyAmounts(txns)
	if len(amounts) < MinRegressionMonths {
		var single float64
		if len(amounts) == 1 {
			single = amounts[0]
		}
		return model.PredictionResult{
			Category:        category,
			PredictedAmount: single,
			Confidence:      SingleMonthConfidence,
			Trend:           model.TrendStable,
		}
	}

	slope, intercept := LinearRegression(amounts)
	predicted := slope*float64(len(amounts)) + intercept

	window := MovingAverageWindow
	if len(amounts) < window {
		window = len(amounts)
	}
	movingAvg := MovingAverage(amounts, window)
	deviation := math.Abs(predicted - movingAvg[len(movingAvg)-1])

	return model.PredictionResult{
		Category:        category,
		PredictedAmount: math.Max(0, predicted),
		Confidence:      confidence(deviation, Mean(amounts)),
		Trend:           classifyTrend(slope),
	}
}

// confidence scores how closely the projection tracks the recent moving
// average, relative to the series mean.
func confidence(deviation, mean float64) float64 {
	var ratio float64
	switch {
	case mean != 0:
		ratio = deviation / mean
	case deviation != 0:
		ratio = math.Inf(1)
	}
	return clamp(1-ratio, MinConfidence, MaxConfidence)
}

func classifyTrend(slope float64) model.Trend {
	switch {
	case slope > TrendSlopeThreshold:
		return model.TrendIncreasing
	case slope < -TrendSlopeThreshold:
		return model.TrendDecreasing
	default:
		return model.TrendStable
	}
}

// mostRecentAmount returns the amount of the latest-dated transaction.
// Among equal dates the earliest element in input order wins.
func mostRecentAmount(txns []model.Transaction) float64 {
	if len(txns) == 0 {
		return 0
	}
	latest := txns[0]
	for _, t := range txns[1:] {
		if t.Date.After(latest.Date) {
			latest = t
		}
	}
	return latest.AmountFloat()
}

func filterCategory(txns []model.Transaction, category string) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

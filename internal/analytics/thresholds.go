// Package analytics turns a transaction history into spend forecasts,
// anomaly flags, spending patterns and insights.
//
// Every function in this package is pure: it reads its arguments, allocates
// its result, and touches no shared state. Callers may invoke them
// concurrently over the same slice.
package analytics

// Fixed decision thresholds. They are kept as named constants so results stay
// reproducible; making them configurable is a later product decision.
const (
	// MinTrendSamples is the fewest transactions a category needs before a
	// regression is attempted.
	MinTrendSamples = 3
	// MinRegressionMonths is the fewest active months a regression needs.
	MinRegressionMonths = 2

	SparseConfidence      = 0.3
	SingleMonthConfidence = 0.5
	MinConfidence         = 0.4
	MaxConfidence         = 0.95

	// TrendSlopeThreshold is in currency units per month, not relative.
	TrendSlopeThreshold = 5.0
	MovingAverageWindow = 3

	MinAnomalySamples = 5
	AnomalyZScore     = 2.0
	MediumZScore      = 2.5
	HighZScore        = 3.0

	// SeasonalityRatio is how far the busiest month-of-year bucket must
	// exceed the mean bucket count to count as a peak.
	SeasonalityRatio = 1.5

	InsightTrendPercent       = 10.0
	InsightForecastRatio      = 1.1
	InsightConcentrationShare = 0.3
	InsightTopPatterns        = 3

	// GoalDaysPerMonth converts days left on a goal into months to save.
	GoalDaysPerMonth = 30
)

package model

import (
	"fmt"
	"time"
)

// Trend is the direction of a category's monthly spend.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Severity grades how far an anomaly sits from the mean.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// MonthKey identifies a calendar month. Keys compare chronologically.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the month key for t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Before reports whether m sorts ahead of other.
func (m MonthKey) Before(other MonthKey) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Start returns midnight UTC on the first day of the month.
func (m MonthKey) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MonthlyTotal is one point of a category's monthly spend series.
type MonthlyTotal struct {
	Month  MonthKey `json:"month"`
	Amount float64  `json:"amount"`
}

// PredictionResult is the next-period spend forecast for one category.
type PredictionResult struct {
	Category        string  `json:"category"`
	PredictedAmount float64 `json:"predicted_amount"`
	Confidence      float64 `json:"confidence"`
	Trend           Trend   `json:"trend"`
}

// Range is a closed interval of amounts.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AnomalyDetection flags one unusually large or small expense.
type AnomalyDetection struct {
	IsAnomaly     bool      `json:"is_anomaly"`
	Severity      Severity  `json:"severity"`
	Description   string    `json:"description"`
	ExpectedRange Range     `json:"expected_range"`
	ActualAmount  float64   `json:"actual_amount"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Category      string    `json:"category"`
	Date          time.Time `json:"date"`
	ZScore        float64   `json:"z_score"`
}

// SpendingPattern summarises a category's spending habits.
type SpendingPattern struct {
	Category    string  `json:"category"`
	AvgAmount   float64 `json:"avg_amount"`
	Frequency   float64 `json:"frequency"`
	Trend       float64 `json:"trend"` // percent of AvgAmount per month
	Seasonality string  `json:"seasonality"`
}

// InsightKind names the rule that produced an insight.
type InsightKind string

const (
	InsightTrend         InsightKind = "trend"
	InsightForecast      InsightKind = "forecast"
	InsightConcentration InsightKind = "concentration"
	InsightBudget        InsightKind = "budget"
	InsightGoal          InsightKind = "goal"
)

// Insight is a short human-readable observation.
type Insight struct {
	Kind     InsightKind `json:"kind"`
	Category string      `json:"category,omitempty"`
	Message  string      `json:"message"`
}

package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period is the span a budget amount covers.
type Period string

const (
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// DefaultAlertThreshold is the percent of a budget at which an alert fires.
const DefaultAlertThreshold = 80

// Budget caps spending for one category over a period.
type Budget struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	Period         Period          `json:"period"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	AlertThreshold float64         `json:"alert_threshold"`
}

// Validate checks the budget invariants.
func (b Budget) Validate() error {
	switch {
	case b.ID == "":
		return &ValidationError{Field: "id", Reason: "required"}
	case b.Category == "":
		return &ValidationError{Field: "category", Reason: "required"}
	case b.Amount.IsNegative():
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	case b.StartDate.IsZero():
		return &ValidationError{Field: "start_date", Reason: "required"}
	case b.AlertThreshold < 0 || b.AlertThreshold > 100:
		return &ValidationError{Field: "alert_threshold", Reason: "must be between 0 and 100"}
	}
	switch b.Period {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
	default:
		return &ValidationError{Field: "period", Reason: fmt.Sprintf("unknown period %q", b.Period)}
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "before start_date"}
	}
	return nil
}

// ActiveIn reports whether the budget covers any part of the given month.
func (b Budget) ActiveIn(m MonthKey) bool {
	first := m.Start()
	last := first.AddDate(0, 1, -1)
	if b.StartDate.After(last) {
		return false
	}
	if b.EndDate != nil && b.EndDate.Before(first) {
		return false
	}
	return true
}

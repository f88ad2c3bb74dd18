package pipeline

import (
	"strings"
	"time"

	"github.com/theirongolddev/spendwise/internal/model"
)

// FilterByTime returns transactions dated within [since, until). A zero bound
// is open.
func FilterByTime(txns []model.Transaction, since, until time.Time) []model.Transaction {
	if since.IsZero() && until.IsZero() {
		return txns
	}

	var result []model.Transaction
	for _, t := range txns {
		if !since.IsZero() && t.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !t.Date.Before(until) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// FilterByCategory returns transactions whose category matches exactly,
// ignoring case.
func FilterByCategory(txns []model.Transaction, category string) []model.Transaction {
	if category == "" {
		return txns
	}
	var result []model.Transaction
	for _, t := range txns {
		if strings.EqualFold(t.Category, category) {
			result = append(result, t)
		}
	}
	return result
}

// FilterByType returns transactions of the given type.
func FilterByType(txns []model.Transaction, typ model.TransactionType) []model.Transaction {
	if typ == "" {
		return txns
	}
	var result []model.Transaction
	for _, t := range txns {
		if t.Type == typ {
			result = append(result, t)
		}
	}
	return result
}

// MonthsWindow returns the start of the calendar month months-1 before now's
// month, so months=1 covers the current month only. months <= 0 yields the
// zero time (no bound).
func MonthsWindow(now time.Time, months int) time.Time {
	if months <= 0 {
		return time.Time{}
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(months - 1), 0)
}

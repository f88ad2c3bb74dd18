package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendwise/internal/model"
)

var seq int

// expense builds an expense dated YYYY-MM-DD.
func expense(t *testing.T, date, category string, amount float64) model.Transaction {
	t.Helper()
	return txn(t, date, category, amount, model.Expense)
}

func income(t *testing.T, date string, amount float64) model.Transaction {
	t.Helper()
	return txn(t, date, "Income", amount, model.Income)
}

func txn(t *testing.T, date, category string, amount float64, typ model.TransactionType) model.Transaction {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	seq++
	return model.Transaction{
		ID:       fmt.Sprintf("t%d", seq),
		UserID:   "u1",
		Title:    fmt.Sprintf("%s %s", category, date),
		Amount:   decimal.NewFromFloat(amount),
		Type:     typ,
		Category: category,
		Date:     d,
	}
}

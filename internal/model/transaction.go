// Package model defines domain types for spendwise transactions and analytics results.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType carries the sign of a transaction's monetary effect.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Frequency of a recurring transaction.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// ErrInvalidTransaction is wrapped by every ValidationError.
var ErrInvalidTransaction = errors.New("invalid transaction")

// ValidationError reports which field of a record broke its invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidTransaction }

// Transaction is one income or expense entry owned by a user.
// Amount is never negative; Type carries the direction.
type Transaction struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Title              string          `json:"title"`
	Amount             decimal.Decimal `json:"amount"`
	Type               TransactionType `json:"type"`
	Category           string          `json:"category"`
	Date               time.Time       `json:"date"`
	Notes              string          `json:"notes,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
	Recurring          bool            `json:"is_recurring,omitempty"`
	RecurringFrequency Frequency       `json:"recurring_frequency,omitempty"`
}

// IsExpense reports whether t counts toward spending.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

// AmountFloat returns the amount as a float64 for statistics.
func (t Transaction) AmountFloat() float64 {
	return t.Amount.InexactFloat64()
}

// Validate checks the invariants every stored transaction must satisfy.
func (t Transaction) Validate() error {
	switch {
	case t.ID == "":
		return &ValidationError{Field: "id", Reason: "required"}
	case t.Title == "":
		return &ValidationError{Field: "title", Reason: "required"}
	case t.Category == "":
		return &ValidationError{Field: "category", Reason: "required"}
	case t.Type != Income && t.Type != Expense:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not income or expense", t.Type)}
	case t.Amount.IsNegative():
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	case t.Date.IsZero():
		return &ValidationError{Field: "date", Reason: "required"}
	}

	switch t.RecurringFrequency {
	case "", Daily, Weekly, Monthly, Yearly:
	default:
		return &ValidationError{Field: "recurring_frequency", Reason: fmt.Sprintf("unknown frequency %q", t.RecurringFrequency)}
	}
	return nil
}

// ParseType maps a user-supplied string onto a TransactionType.
func ParseType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case Income, Expense:
		return TransactionType(s), nil
	}
	return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not income or expense", s)}
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeTags drops empty and duplicate tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

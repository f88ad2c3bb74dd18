package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Priority ranks savings goals against each other.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

// DefaultGoalCategory is used when a goal is created without a category.
const DefaultGoalCategory = "Other"

// GoalCategories are the suggested categories for savings goals.
var GoalCategories = []string{
	"Emergency Fund",
	"Vacation",
	"Home Purchase",
	"Car Purchase",
	"Education",
	"Wedding",
	"Retirement",
	"Investment",
	DefaultGoalCategory,
}

// Goal is a savings target the user contributes toward.
type Goal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	Category      string          `json:"category"`
	Priority      Priority        `json:"priority"`
	Status        GoalStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Validate checks the goal invariants.
func (g Goal) Validate() error {
	switch {
	case g.ID == "":
		return &ValidationError{Field: "id", Reason: "required"}
	case g.Title == "":
		return &ValidationError{Field: "title", Reason: "required"}
	case g.Category == "":
		return &ValidationError{Field: "category", Reason: "required"}
	case g.TargetAmount.IsNegative():
		return &ValidationError{Field: "target_amount", Reason: "must not be negative"}
	case g.CurrentAmount.IsNegative():
		return &ValidationError{Field: "current_amount", Reason: "must not be negative"}
	}
	switch g.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", g.Priority)}
	}
	switch g.Status {
	case GoalActive, GoalCompleted, GoalPaused:
	default:
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", g.Status)}
	}
	return nil
}

// Contribute adds amount to the goal and marks it completed once the target
// is reached.
func (g *Goal) Contribute(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.settle()
	return nil
}

// settle completes a goal whose saved amount meets its target.
func (g *Goal) settle() {
	if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = GoalCompleted
	}
}

// NewGoal returns an active goal with defaults applied. A goal created
// already at its target starts completed.
func NewGoal(id, userID, title string, target, current decimal.Decimal) Goal {
	g := Goal{
		ID:            id,
		UserID:        userID,
		Title:         title,
		TargetAmount:  target,
		CurrentAmount: current,
		Category:      DefaultGoalCategory,
		Priority:      PriorityMedium,
		Status:        GoalActive,
	}
	g.settle()
	return g
}

// Progress is the saved fraction of the target, capped at 1.
func (g Goal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 1
	}
	p := g.CurrentAmount.Div(g.TargetAmount).InexactFloat64()
	if p > 1 {
		return 1
	}
	return p
}

// Remaining is the amount still to save, never negative.
func (g Goal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// ParsePriority maps a user-supplied string onto a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", &ValidationError{Field: "priority", Reason: fmt.Sprintf("%q is not low, medium or high", s)}
}

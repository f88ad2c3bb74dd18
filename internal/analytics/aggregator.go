package analytics

import (
	"sort"

	"github.com/theirongolddev/spendwise/internal/model"
)

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// GroupByCategory partitions expense transactions by category, keeping input
// order inside each group. Income is dropped.
func GroupByCategory(txns []model.Transaction) map[string][]model.Transaction {
	groups := make(map[string][]model.Transaction)
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		groups[t.Category] = append(groups[t.Category], t)
	}
	return groups
}

// categoryOrder returns the expense categories in first-seen order.
func categoryOrder(txns []model.Transaction) []string {
	seen := make(map[string]struct{})
	var order []string
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		order = append(order, t.Category)
	}
	return order
}

// ByCategory sums expense amounts per category, ordered by category name.
func ByCategory(txns []model.Transaction) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		ct, ok := totals[t.Category]
		if !ok {
			ct = &CategoryTotal{Category: t.Category}
			totals[t.Category] = ct
		}
		ct.Amount += t.AmountFloat()
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out
}

// ByMonth sums expense amounts per calendar month in chronological order.
func ByMonth(txns []model.Transaction) []model.MonthlyTotal {
	monthMap := make(map[model.MonthKey]float64)
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		monthMap[model.MonthOf(t.Date)] += t.AmountFloat()
	}

	months := make([]model.MonthlyTotal, 0, len(monthMap))
	for k, amount := range monthMap {
		months = append(months, model.MonthlyTotal{Month: k, Amount: amount})
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})
	return months
}

// monthlyAmounts is ByMonth reduced to its amount series.
func monthlyAmounts(txns []model.Transaction) []float64 {
	months := ByMonth(txns)
	out := make([]float64, len(months))
	for i, m := range months {
		out[i] = m.Amount
	}
	return out
}

// TotalExpense sums every expense amount.
func TotalExpense(txns []model.Transaction) float64 {
	var total float64
	for _, t := range txns {
		if t.IsExpense() {
			total += t.AmountFloat()
		}
	}
	return total
}

// TotalIncome sums every income amount.
func TotalIncome(txns []model.Transaction) float64 {
	var total float64
	for _, t := range txns {
		if t.Type == model.Income {
			total += t.AmountFloat()
		}
	}
	return total
}

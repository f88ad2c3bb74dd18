package analytics

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/spendwise/internal/model"
)

// GenerateInsights composes patterns, predictions and category totals into
// short observations. Budgets add per-category alerts for the latest month
// that has any spending.
func GenerateInsights(txns []model.Transaction, budgets []model.Budget) []model.Insight {
	totalExpense := TotalExpense(txns)
	if totalExpense <= 0 {
		return nil
	}

	var insights []model.Insight

	patterns := AnalyzePatterns(txns)
	if len(patterns) > InsightTopPatterns {
		patterns = patterns[:InsightTopPatterns]
	}
	for _, p := range patterns {
		if p.Trend > InsightTrendPercent {
			insights = append(insights, model.Insight{
				Kind:     model.InsightTrend,
				Category: p.Category,
				Message:  fmt.Sprintf("Your %s spending is increasing by %.1f%% per month", p.Category, p.Trend),
			})
		}
	}

	var totalPredicted float64
	for _, p := range PredictNextPeriod(txns, "") {
		totalPredicted += p.PredictedAmount
	}
	if totalPredicted > totalExpense*InsightForecastRatio {
		insights = append(insights, model.Insight{
			Kind: model.InsightForecast,
			Message: fmt.Sprintf("Based on trends, next month's spending may increase by %.0f%%",
				(totalPredicted/totalExpense-1)*100),
		})
	}

	totals := ByCategory(txns)
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount > totals[j].Amount
	})
	if len(totals) > 0 && totals[0].Amount > totalExpense*InsightConcentrationShare {
		top := totals[0]
		insights = append(insights, model.Insight{
			Kind:     model.InsightConcentration,
			Category: top.Category,
			Message:  fmt.Sprintf("%s accounts for %.0f%% of your spending", top.Category, top.Amount/totalExpense*100),
		})
	}

	return append(insights, budgetInsights(txns, budgets)...)
}

// budgetInsights compares each budget, scaled to a monthly amount, with the
// category's spend in the latest month that has any expense.
func budgetInsights(txns []model.Transaction, budgets []model.Budget) []model.Insight {
	months := ByMonth(txns)
	if len(budgets) == 0 || len(months) == 0 {
		return nil
	}
	latest := months[len(months)-1].Month

	spent := make(map[string]float64)
	for _, t := range txns {
		if t.IsExpense() && model.MonthOf(t.Date) == latest {
			spent[t.Category] += t.AmountFloat()
		}
	}

	var insights []model.Insight
	for _, b := range budgets {
		if !b.ActiveIn(latest) {
			continue
		}
		limit := monthlyLimit(b)
		if limit <= 0 {
			continue
		}
		pct := spent[b.Category] / limit * 100
		threshold := b.AlertThreshold
		if threshold <= 0 {
			threshold = model.DefaultAlertThreshold
		}

		switch {
		case pct > 100:
			insights = append(insights, model.Insight{
				Kind:     model.InsightBudget,
				Category: b.Category,
				Message:  fmt.Sprintf("%s is over budget in %s: %.0f%% of $%.2f used", b.Category, latest, pct, limit),
			})
		case pct >= threshold:
			insights = append(insights, model.Insight{
				Kind:     model.InsightBudget,
				Category: b.Category,
				Message:  fmt.Sprintf("%s has used %.0f%% of its $%.2f budget in %s", b.Category, pct, limit, latest),
			})
		}
	}
	return insights
}

func monthlyLimit(b model.Budget) float64 {
	amount := b.Amount.InexactFloat64()
	switch b.Period {
	case model.PeriodQuarterly:
		return amount / 3
	case model.PeriodYearly:
		return amount / 12
	default:
		return amount
	}
}

// Messages flattens insights into their display strings.
func Messages(insights []model.Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.Message
	}
	return out
}

package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/spendwise/internal/model"
)

var priorityRank = map[model.Priority]int{
	model.PriorityHigh:   0,
	model.PriorityMedium: 1,
	model.PriorityLow:    2,
}

// GoalInsights reports progress on savings goals, highest priority first.
// Paused goals are skipped. Active goals with a target date get the monthly
// amount needed to reach it by then.
func GoalInsights(goals []model.Goal, now time.Time) []model.Insight {
	sorted := append([]model.Goal(nil), goals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityRank[sorted[i].Priority] < priorityRank[sorted[j].Priority]
	})

	today := model.DateOnly(now)
	var insights []model.Insight
	for _, g := range sorted {
		var msg string
		switch {
		case g.Status == model.GoalPaused:
			continue
		case g.Status == model.GoalCompleted:
			msg = fmt.Sprintf("You reached your %s goal of $%s", g.Title, g.TargetAmount.StringFixed(2))
		case g.TargetDate != nil && g.TargetDate.Before(today):
			msg = fmt.Sprintf("%s is past its target date with $%s still to save",
				g.Title, g.Remaining().StringFixed(2))
		case g.TargetDate != nil:
			months := monthsUntil(today, *g.TargetDate)
			perMonth := g.Remaining().InexactFloat64() / float64(months)
			msg = fmt.Sprintf("Save $%.2f a month to reach %s by %s (%.0f%% saved)",
				perMonth, g.Title, g.TargetDate.Format("Jan 2 2006"), g.Progress()*100)
		default:
			msg = fmt.Sprintf("%s is %.0f%% funded, $%s to go",
				g.Title, g.Progress()*100, g.Remaining().StringFixed(2))
		}
		insights = append(insights, model.Insight{
			Kind:     model.InsightGoal,
			Category: g.Category,
			Message:  msg,
		})
	}
	return insights
}

// monthsUntil is the number of saving months left before target, at least 1.
func monthsUntil(today, target time.Time) int {
	days := math.Ceil(model.DateOnly(target).Sub(today).Hours() / 24)
	months := int(math.Ceil(days / GoalDaysPerMonth))
	return max(months, 1)
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/analytics"
	"github.com/theirongolddev/spendwise/internal/cli"
	"github.com/theirongolddev/spendwise/internal/model"
)

var flagInsightsPlain bool

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Plain-language observations, budget alerts and goal progress",
	RunE:  runInsights,
}

func init() {
	insightsCmd.Flags().BoolVar(&flagInsightsPlain, "plain", false, "One unstyled message per line")
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txns, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		budgets, err := a.store.ListBudgets(ctx, a.userID())
		if err != nil {
			return err
		}

		goals, err := a.store.ListGoals(ctx, a.userID())
		if err != nil {
			return err
		}

		insights := analytics.GenerateInsights(txns, budgets)
		insights = append(insights, analytics.GoalInsights(goals, time.Now())...)
		switch {
		case flagJSON:
			return printJSON(nonNil(insights))
		case flagInsightsPlain:
			for _, msg := range analytics.Messages(insights) {
				fmt.Println(msg)
			}
			return nil
		}
		if len(insights) == 0 {
			fmt.Println("\n  Nothing notable in the selected range.")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("INSIGHTS  " + windowLabel(a.months())))
		fmt.Println()
		for _, in := range insights {
			msg := in.Message
			if in.Kind == model.InsightBudget {
				msg = cli.RenderWarning(msg)
			}
			fmt.Printf("  • %s\n", msg)
		}
		return nil
	})
}

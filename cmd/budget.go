package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/cli"
	"github.com/theirongolddev/spendwise/internal/model"
)

var (
	flagBudgetPeriod    string
	flagBudgetStart     string
	flagBudgetEnd       string
	flagBudgetThreshold float64
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage category budgets",
}

var budgetAddCmd = &cobra.Command{
	Use:   "add <category> <amount>",
	Short: "Create a budget for a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetAdd,
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List budgets",
	RunE:  runBudgetList,
}

var budgetRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetRm,
}

func init() {
	budgetAddCmd.Flags().StringVarP(&flagBudgetPeriod, "period", "p", string(model.PeriodMonthly), "monthly, quarterly or yearly")
	budgetAddCmd.Flags().StringVar(&flagBudgetStart, "start", "", "Start date YYYY-MM-DD (default: first of this month)")
	budgetAddCmd.Flags().StringVar(&flagBudgetEnd, "end", "", "Optional end date YYYY-MM-DD")
	budgetAddCmd.Flags().Float64Var(&flagBudgetThreshold, "alert-at", model.DefaultAlertThreshold, "Alert when this percent is used")

	budgetCmd.AddCommand(budgetAddCmd)
	budgetCmd.AddCommand(budgetListCmd)
	budgetCmd.AddCommand(budgetRmCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}

		start := model.MonthOf(time.Now()).Start()
		if flagBudgetStart != "" {
			if start, err = time.Parse("2006-01-02", flagBudgetStart); err != nil {
				return fmt.Errorf("invalid start date %q", flagBudgetStart)
			}
		}

		b := model.Budget{
			ID:             uuid.NewString(),
			UserID:         a.userID(),
			Category:       args[0],
			Amount:         amount,
			Period:         model.Period(strings.ToLower(flagBudgetPeriod)),
			StartDate:      start,
			AlertThreshold: flagBudgetThreshold,
		}
		if flagBudgetEnd != "" {
			end, err := time.Parse("2006-01-02", flagBudgetEnd)
			if err != nil {
				return fmt.Errorf("invalid end date %q", flagBudgetEnd)
			}
			b.EndDate = &end
		}

		if err := a.store.SaveBudget(ctx, b); err != nil {
			return err
		}
		if flagJSON {
			return printJSON(b)
		}
		fmt.Printf("  Budget %s %s for %s (alert at %.0f%%)\n",
			cli.FormatDecimal(b.Amount), b.Period, b.Category, b.AlertThreshold)
		fmt.Printf("  %s\n", cli.RenderMuted("id "+b.ID))
		return nil
	})
}

func runBudgetList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		budgets, err := a.store.ListBudgets(ctx, a.userID())
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(nonNil(budgets))
		}
		if len(budgets) == 0 {
			fmt.Println("\n  No budgets. Add one with `spendwise budget add <category> <amount>`.")
			return nil
		}

		rows := make([][]string, 0, len(budgets))
		for _, b := range budgets {
			end := "-"
			if b.EndDate != nil {
				end = b.EndDate.Format("2006-01-02")
			}
			rows = append(rows, []string{
				b.Category,
				cli.FormatDecimal(b.Amount),
				string(b.Period),
				b.StartDate.Format("2006-01-02"),
				end,
				fmt.Sprintf("%.0f%%", b.AlertThreshold),
				b.ID,
			})
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Budgets",
			Headers: []string{"Category", "Amount", "Period", "Start", "End", "Alert", "ID"},
			Rows:    rows,
		}))
		return nil
	})
}

func runBudgetRm(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.store.DeleteBudget(ctx, a.userID(), args[0]); err != nil {
			return err
		}
		fmt.Printf("  Deleted budget %s\n", args[0])
		return nil
	})
}

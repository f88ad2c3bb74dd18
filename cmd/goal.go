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
	flagGoalCategory string
	flagGoalPriority string
	flagGoalSaved    string
	flagGoalBy       string
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Track savings goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add <title> <target>",
	Short: "Create a savings goal",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalAdd,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List savings goals with progress",
	RunE:  runGoalList,
}

var goalContributeCmd = &cobra.Command{
	Use:   "contribute <id> <amount>",
	Short: "Add money to a goal",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalContribute,
}

var goalRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalRm,
}

func init() {
	goalAddCmd.Flags().StringVarP(&flagGoalCategory, "category", "c", model.DefaultGoalCategory,
		"Goal category ("+strings.Join(model.GoalCategories, ", ")+")")
	goalAddCmd.Flags().StringVarP(&flagGoalPriority, "priority", "p", string(model.PriorityMedium), "low, medium or high")
	goalAddCmd.Flags().StringVar(&flagGoalSaved, "saved", "0", "Amount already saved")
	goalAddCmd.Flags().StringVar(&flagGoalBy, "by", "", "Target date YYYY-MM-DD")

	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalContributeCmd)
	goalCmd.AddCommand(goalRmCmd)
	rootCmd.AddCommand(goalCmd)
}

// buildGoal turns goal add arguments and flags into a validated goal.
func buildGoal(userID, title, targetStr string, now time.Time) (model.Goal, error) {
	target, err := decimal.NewFromString(targetStr)
	if err != nil {
		return model.Goal{}, fmt.Errorf("invalid target %q", targetStr)
	}
	saved, err := decimal.NewFromString(flagGoalSaved)
	if err != nil {
		return model.Goal{}, fmt.Errorf("invalid saved amount %q", flagGoalSaved)
	}
	priority, err := model.ParsePriority(strings.ToLower(flagGoalPriority))
	if err != nil {
		return model.Goal{}, err
	}

	g := model.NewGoal(uuid.NewString(), userID, strings.TrimSpace(title), target, saved)
	g.Priority = priority
	g.CreatedAt = now
	if c := strings.TrimSpace(flagGoalCategory); c != "" {
		g.Category = c
	}
	if flagGoalBy != "" {
		by, err := time.Parse("2006-01-02", flagGoalBy)
		if err != nil {
			return model.Goal{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", flagGoalBy)
		}
		g.TargetDate = &by
	}
	return g, g.Validate()
}

func runGoalAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		g, err := buildGoal(a.userID(), args[0], args[1], time.Now())
		if err != nil {
			return err
		}
		if err := a.store.SaveGoal(ctx, g); err != nil {
			return err
		}
		if flagJSON {
			return printJSON(g)
		}
		fmt.Printf("  Goal %s: %s of %s saved\n",
			g.Title, cli.FormatDecimal(g.CurrentAmount), cli.FormatDecimal(g.TargetAmount))
		fmt.Printf("  %s\n", cli.RenderMuted("id "+g.ID))
		return nil
	})
}

func runGoalList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		goals, err := a.store.ListGoals(ctx, a.userID())
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(nonNil(goals))
		}
		if len(goals) == 0 {
			fmt.Println("\n  No goals. Add one with `spendwise goal add <title> <target>`.")
			return nil
		}

		rows := make([][]string, 0, len(goals))
		for _, g := range goals {
			by := "-"
			if g.TargetDate != nil {
				by = g.TargetDate.Format("2006-01-02")
			}
			status := string(g.Status)
			if g.Status == model.GoalCompleted {
				status = cli.RenderMuted(status)
			}
			rows = append(rows, []string{
				truncate(g.Title, 24),
				string(g.Priority),
				cli.FormatDecimal(g.CurrentAmount),
				cli.FormatDecimal(g.TargetAmount),
				cli.FormatPercent(g.Progress()) + " " + cli.RenderHorizontalBar(g.Progress(), 1, 12),
				by,
				status,
				g.ID,
			})
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Savings Goals",
			Headers: []string{"Goal", "Priority", "Saved", "Target", "Progress", "By", "Status", "ID"},
			Rows:    rows,
		}))
		return nil
	})
}

func runGoalContribute(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		g, err := a.store.ContributeGoal(ctx, a.userID(), args[0], amount)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(g)
		}
		fmt.Printf("  %s: %s of %s (%s)\n", g.Title,
			cli.FormatDecimal(g.CurrentAmount), cli.FormatDecimal(g.TargetAmount), cli.FormatPercent(g.Progress()))
		if g.Status == model.GoalCompleted {
			fmt.Println("  Goal reached!")
		}
		return nil
	})
}

func runGoalRm(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.store.DeleteGoal(ctx, a.userID(), args[0]); err != nil {
			return err
		}
		fmt.Printf("  Deleted goal %s\n", args[0])
		return nil
	})
}

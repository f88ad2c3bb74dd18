package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/analytics"
	"github.com/theirongolddev/spendwise/internal/cli"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Per-category spending habits",
	RunE:  runPatterns,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
}

func runPatterns(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txns, err := a.transactions(ctx)
		if err != nil {
			return err
		}

		patterns := analytics.AnalyzePatterns(txns)
		if flagJSON {
			return printJSON(patterns)
		}
		if len(patterns) == 0 {
			fmt.Println("\n  No expenses in the selected range.")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("SPENDING PATTERNS  " + windowLabel(a.months())))
		fmt.Println()

		rows := make([][]string, 0, len(patterns))
		for _, p := range patterns {
			rows = append(rows, []string{
				truncate(p.Category, 18),
				cli.FormatAmount(p.AvgAmount),
				fmt.Sprintf("%.1f/mo", p.Frequency),
				cli.FormatSignedPercent(p.Trend) + "/mo",
				p.Seasonality,
			})
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Category", "Avg", "Frequency", "Trend", "Seasonality"},
			Rows:    rows,
		}))
		return nil
	})
}

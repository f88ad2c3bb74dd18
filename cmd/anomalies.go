package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/analytics"
	"github.com/theirongolddev/spendwise/internal/cli"
	"github.com/theirongolddev/spendwise/internal/model"
)

var anomaliesCategory string

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "Flag unusually large or small expenses",
	RunE:  runAnomalies,
}

func init() {
	anomaliesCmd.Flags().StringVarP(&anomaliesCategory, "category", "c", "", "Only check this category")
	rootCmd.AddCommand(anomaliesCmd)
}

func runAnomalies(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txns, err := a.transactions(ctx)
		if err != nil {
			return err
		}

		var found []model.AnomalyDetection
		if anomaliesCategory != "" {
			found = analytics.DetectAnomalies(txns, anomaliesCategory)
		} else {
			found = analytics.DetectAllAnomalies(txns)
		}
		if flagJSON {
			return printJSON(nonNil(found))
		}
		if len(found) == 0 {
			fmt.Println("\n  No unusual expenses found.")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("ANOMALIES  %s (%d found)", windowLabel(a.months()), len(found))))
		fmt.Println()

		rows := make([][]string, 0, len(found))
		for _, an := range found {
			rows = append(rows, []string{
				an.Date.Format("Jan 02 2006"),
				truncate(an.Category, 18),
				cli.FormatAmount(an.ActualAmount),
				fmt.Sprintf("%s to %s", cli.FormatAmount(an.ExpectedRange.Min), cli.FormatAmount(an.ExpectedRange.Max)),
				fmt.Sprintf("%.2f", an.ZScore),
				cli.RenderSeverity(an.Severity),
			})
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Date", "Category", "Amount", "Expected", "Z", "Severity"},
			Rows:    rows,
		}))

		fmt.Println()
		for _, an := range found {
			fmt.Printf("  %s\n", cli.RenderMuted(an.Description))
		}
		return nil
	})
}

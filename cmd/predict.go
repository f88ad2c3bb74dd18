package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/analytics"
	"github.com/theirongolddev/spendwise/internal/cli"
	"github.com/theirongolddev/spendwise/internal/model"
)

var predictCategory string

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast next month's spending per category",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictCategory, "category", "c", "", "Only forecast this category")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txns, err := a.transactions(ctx)
		if err != nil {
			return err
		}

		preds := analytics.PredictNextPeriod(txns, predictCategory)
		if flagJSON {
			return printJSON(nonNil(preds))
		}
		if len(preds) == 0 {
			fmt.Println("\n  No expense history to forecast from.")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("NEXT MONTH FORECAST  " + windowLabel(a.months())))
		fmt.Println()

		history := monthlySeries(txns)
		var total float64
		rows := make([][]string, 0, len(preds)+2)
		for _, p := range preds {
			total += p.PredictedAmount
			rows = append(rows, []string{
				p.Category,
				cli.FormatAmount(p.PredictedAmount),
				cli.FormatConfidence(p.Confidence),
				cli.RenderTrend(p.Trend),
				cli.RenderSparkline(history[p.Category]),
			})
		}
		if len(preds) > 1 {
			rows = append(rows, []string{"---"})
			rows = append(rows, []string{"Total", cli.FormatAmount(total), "", "", ""})
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Category", "Predicted", "Confidence", "Trend", "History"},
			Rows:    rows,
		}))
		return nil
	})
}

// monthlySeries returns each expense category's monthly totals.
func monthlySeries(txns []model.Transaction) map[string][]float64 {
	out := make(map[string][]float64)
	for category, group := range analytics.GroupByCategory(txns) {
		for _, m := range analytics.ByMonth(group) {
			out[category] = append(out[category], m.Amount)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/analytics"
	"github.com/theirongolddev/spendwise/internal/cli"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Spending overview with category breakdown",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

type summaryReport struct {
	Months       int                       `json:"months"`
	Transactions int                       `json:"transactions"`
	IncomeUSD    float64                   `json:"income_usd"`
	ExpenseUSD   float64                   `json:"expense_usd"`
	NetUSD       float64                   `json:"net_usd"`
	Anomalies    int                       `json:"anomalies"`
	Categories   []analytics.CategoryTotal `json:"categories"`
}

func runSummary(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txns, err := a.transactions(ctx)
		if err != nil {
			return err
		}

		report := summaryReport{
			Months:       a.months(),
			Transactions: len(txns),
			IncomeUSD:    analytics.TotalIncome(txns),
			ExpenseUSD:   analytics.TotalExpense(txns),
			Anomalies:    len(analytics.DetectAllAnomalies(txns)),
			Categories:   analytics.ByCategory(txns),
		}
		report.NetUSD = report.IncomeUSD - report.ExpenseUSD

		if flagJSON {
			return printJSON(report)
		}
		if len(txns) == 0 {
			emptyNotice()
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("SPENDING  " + windowLabel(a.months())))
		fmt.Println()

		rows := [][]string{
			{"Transactions", cli.FormatNumber(int64(report.Transactions))},
			{"Income", cli.FormatAmount(report.IncomeUSD)},
			{"Expenses", cli.FormatAmount(report.ExpenseUSD)},
			{"Net", cli.FormatAmount(report.NetUSD)},
			{"---"},
		}

		monthly := analytics.ByMonth(txns)
		if n := len(monthly); n > 0 {
			last := monthly[n-1]
			lastStr := fmt.Sprintf("%s (%s)", cli.FormatAmount(last.Amount), last.Month)
			if n > 1 {
				lastStr += "  " + cli.FormatDelta(last.Amount, monthly[n-2].Amount)
			}
			rows = append(rows, []string{"Latest month", lastStr})
			rows = append(rows, []string{"Monthly avg", cli.FormatAmount(report.ExpenseUSD / float64(n))})
		}

		anomalies := cli.FormatNumber(int64(report.Anomalies))
		if report.Anomalies > 0 {
			anomalies = cli.RenderWarning(anomalies)
		}
		rows = append(rows, []string{"Anomalies", anomalies})

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Metric", "Value"},
			Rows:    rows,
		}))

		if len(monthly) > 1 {
			series := make([]float64, len(monthly))
			for i, m := range monthly {
				series[i] = m.Amount
			}
			fmt.Printf("\n  Monthly spend  %s  %s to %s\n",
				cli.RenderSparkline(series), monthly[0].Month, monthly[len(monthly)-1].Month)
		}

		if len(report.Categories) > 0 {
			fmt.Println()
			fmt.Print(renderCategoryTable(report.Categories, report.ExpenseUSD))
		}
		return nil
	})
}

// renderCategoryTable lists categories by amount with a share bar.
func renderCategoryTable(totals []analytics.CategoryTotal, expense float64) string {
	sorted := append([]analytics.CategoryTotal(nil), totals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})

	peak := sorted[0].Amount
	rows := make([][]string, 0, len(sorted))
	for _, ct := range sorted {
		share := 0.0
		if expense > 0 {
			share = ct.Amount / expense
		}
		rows = append(rows, []string{
			ct.Category,
			cli.FormatNumber(int64(ct.Count)),
			cli.FormatAmount(ct.Amount),
			cli.FormatPercent(share),
			cli.RenderHorizontalBar(ct.Amount, peak, 20),
		})
	}

	return cli.RenderTable(cli.Table{
		Title:   "By Category",
		Headers: []string{"Category", "Count", "Spent", "Share", ""},
		Rows:    rows,
	})
}

package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/cli"
	"github.com/theirongolddev/spendwise/internal/model"
	"github.com/theirongolddev/spendwise/internal/pipeline"
)

var (
	listLimit    int
	listCategory string
	listType     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Recent transactions",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 20, "Number of transactions to show")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Filter to category")
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "Filter to income or expense")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txns, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		if listCategory != "" {
			txns = pipeline.FilterByCategory(txns, listCategory)
		}
		if listType != "" {
			typ, err := model.ParseType(listType)
			if err != nil {
				return err
			}
			txns = pipeline.FilterByType(txns, typ)
		}

		// Newest first
		sort.SliceStable(txns, func(i, j int) bool {
			return txns[i].Date.After(txns[j].Date)
		})
		if listLimit > 0 && len(txns) > listLimit {
			txns = txns[:listLimit]
		}

		if flagJSON {
			return printJSON(nonNil(txns))
		}
		if len(txns) == 0 {
			emptyNotice()
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("TRANSACTIONS  %s (showing %d)", windowLabel(a.months()), len(txns))))
		fmt.Println()

		rows := make([][]string, 0, len(txns))
		for _, t := range txns {
			amount := cli.FormatDecimal(t.Amount)
			if !t.IsExpense() {
				amount = "+" + amount
			}
			rows = append(rows, []string{
				t.Date.Format("Jan 02 2006"),
				truncate(t.Title, 28),
				truncate(t.Category, 18),
				amount,
				t.ID,
			})
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Date", "Title", "Category", "Amount", "ID"},
			Rows:    rows,
		}))
		return nil
	})
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/categorize"
	"github.com/theirongolddev/spendwise/internal/cli"
	"github.com/theirongolddev/spendwise/internal/daemon"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize <title> [amount]",
	Short: "Show which category a transaction title maps to",
	Args: func(cmd *cobra.Command, args []string) error {
		if flagCategorizeList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: runCategorize,
}

var flagCategorizeList bool

func init() {
	categorizeCmd.Flags().BoolVar(&flagCategorizeList, "list", false, "List the built-in categories and their keywords")
	rootCmd.AddCommand(categorizeCmd)
}

func runCategorize(_ *cobra.Command, args []string) error {
	if flagCategorizeList {
		if flagJSON {
			return printJSON(categorize.DefaultRules())
		}
		keywords := make(map[string][]string)
		for _, r := range categorize.DefaultRules() {
			keywords[r.Category] = r.Keywords
		}
		for _, c := range categorize.Categories() {
			if kws := keywords[c]; len(kws) > 0 {
				fmt.Printf("  %-18s %s\n", c, cli.RenderMuted(strings.Join(kws, ", ")))
				continue
			}
			fmt.Printf("  %s\n", c)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return err
	}

	amount := decimal.Zero
	if len(args) == 2 {
		amount, err = decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
	}

	resp := daemon.CategorizeResponse{
		Title:    args[0],
		Amount:   amount,
		Category: classifier.Categorize(args[0], amount),
	}
	if flagJSON {
		return printJSON(resp)
	}
	fmt.Printf("  %s\n", resp.Category)
	return nil
}

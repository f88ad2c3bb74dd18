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
	flagAddType      string
	flagAddCategory  string
	flagAddDate      string
	flagAddNotes     string
	flagAddTags      []string
	flagAddFrequency string
)

var addCmd = &cobra.Command{
	Use:   "add <title> <amount>",
	Short: "Record a single transaction",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	addCmd.Flags().StringVarP(&flagAddType, "type", "t", string(model.Expense), "income or expense")
	addCmd.Flags().StringVarP(&flagAddCategory, "category", "c", "", "Category (default: derived from title)")
	addCmd.Flags().StringVarP(&flagAddDate, "date", "d", "", "Date as YYYY-MM-DD (default: today)")
	addCmd.Flags().StringVar(&flagAddNotes, "notes", "", "Free-form notes")
	addCmd.Flags().StringSliceVar(&flagAddTags, "tag", nil, "Tag (repeatable)")
	addCmd.Flags().StringVar(&flagAddFrequency, "recurring", "", "Mark recurring: daily, weekly, monthly or yearly")
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		t, err := buildTransaction(a, args[0], args[1], time.Now())
		if err != nil {
			return err
		}
		if err := a.store.SaveTransactions(ctx, []model.Transaction{t}); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(t)
		}
		fmt.Printf("  Added %s %s (%s) on %s\n",
			t.Type, cli.FormatDecimal(t.Amount), t.Category, t.Date.Format("2006-01-02"))
		fmt.Printf("  %s\n", cli.RenderMuted("id "+t.ID))
		return nil
	})
}

// buildTransaction turns add arguments and flags into a validated transaction.
func buildTransaction(a *app, title, amountStr string, now time.Time) (model.Transaction, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount %q", amountStr)
	}

	typ, err := model.ParseType(strings.ToLower(flagAddType))
	if err != nil {
		return model.Transaction{}, err
	}

	date := model.DateOnly(now)
	if flagAddDate != "" {
		if date, err = time.Parse("2006-01-02", flagAddDate); err != nil {
			return model.Transaction{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", flagAddDate)
		}
	}

	category := flagAddCategory
	if category == "" {
		category = a.classifier.Categorize(title, amount)
	}

	t := model.Transaction{
		ID:                 uuid.NewString(),
		UserID:             a.userID(),
		Title:              strings.TrimSpace(title),
		Amount:             amount,
		Type:               typ,
		Category:           category,
		Date:               date,
		Notes:              flagAddNotes,
		Tags:               model.NormalizeTags(flagAddTags),
		Recurring:          flagAddFrequency != "",
		RecurringFrequency: model.Frequency(flagAddFrequency),
	}
	return t, t.Validate()
}

func runRemove(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		t, err := a.store.GetTransaction(ctx, a.userID(), args[0])
		if err != nil {
			return err
		}
		if err := a.store.DeleteTransaction(ctx, a.userID(), t.ID); err != nil {
			return err
		}
		fmt.Printf("  Deleted %s %s on %s\n", t.Title, cli.FormatDecimal(t.Amount), t.Date.Format("2006-01-02"))
		return nil
	})
}

// Package cmd implements the spendwise CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/categorize"
	"github.com/theirongolddev/spendwise/internal/config"
	"github.com/theirongolddev/spendwise/internal/logging"
	"github.com/theirongolddev/spendwise/internal/model"
	"github.com/theirongolddev/spendwise/internal/pipeline"
	"github.com/theirongolddev/spendwise/internal/store"
)

var (
	flagDB       string
	flagUser     string
	flagMonths   int
	flagQuiet    bool
	flagJSON     bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "spendwise",
	Short:         "Personal finance analytics CLI",
	Long:          "Forecast spending, flag unusual expenses, and summarize where your money goes.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User ID (default from config)")
	rootCmd.PersistentFlags().IntVarP(&flagMonths, "months", "n", 0, "Trailing calendar months to analyze (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// app bundles the state shared by commands that read the database.
type app struct {
	cfg        config.Config
	store      *store.Store
	classifier *categorize.Classifier
	log        *logrus.Logger
}

// openApp loads config, applies flag overrides and opens the store.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	classifier, err := cfg.Classifier()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &app{
		cfg:        cfg,
		store:      st,
		classifier: classifier,
		log:        logging.New(flagLogLevel, false),
	}, nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.Store.Path = flagDB
	}
	if flagUser != "" {
		cfg.General.UserID = flagUser
	}
	if flagMonths > 0 {
		cfg.General.DefaultMonths = flagMonths
	}
	return cfg, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) userID() string {
	return a.cfg.General.UserID
}

func (a *app) months() int {
	return a.cfg.General.DefaultMonths
}

// transactions returns the user's transactions inside the months window.
func (a *app) transactions(ctx context.Context) ([]model.Transaction, error) {
	txns, err := a.store.ListTransactions(ctx, a.userID())
	if err != nil {
		return nil, err
	}
	since := pipeline.MonthsWindow(time.Now(), a.months())
	return pipeline.FilterByTime(txns, since, time.Time{}), nil
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(cmd.Context(), a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func windowLabel(months int) string {
	if months <= 0 {
		return "All time"
	}
	if months == 1 {
		return "This month"
	}
	return fmt.Sprintf("Last %d months", months)
}

func emptyNotice() {
	fmt.Println("\n  No transactions found.")
	fmt.Println("  Import some with `spendwise import <dir>` or add one with `spendwise add`.")
}

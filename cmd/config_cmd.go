package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    User ID:        %s\n", cfg.General.UserID)
	fmt.Printf("    Default months: %d\n", cfg.General.DefaultMonths)
	if cfg.General.ImportDir != "" {
		fmt.Printf("    Import dir:     %s\n", cfg.General.ImportDir)
	}
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Database: %s\n", cfg.StorePath())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval())
	fmt.Println()

	fmt.Println("  [Alerts]")
	if cfg.Alerts.AMQPURL != "" {
		fmt.Printf("    AMQP URL:    %s\n", maskURL(cfg.Alerts.AMQPURL))
		fmt.Printf("    Exchange:    %s\n", cfg.Alerts.Exchange)
		fmt.Printf("    Routing key: %s\n", cfg.Alerts.RoutingKey)
	} else {
		fmt.Println("    AMQP URL: not configured")
	}
	fmt.Println()

	fmt.Println("  [Categorize]")
	if len(cfg.Categorize.Rules) == 0 {
		fmt.Println("    Custom rules: none")
	}
	for _, r := range cfg.Categorize.Rules {
		fmt.Printf("    %s: %s\n", r.Category, strings.Join(r.Keywords, ", "))
	}
	fmt.Println()

	fmt.Println("  Run `spendwise setup` to reconfigure.")
	return nil
}

// maskURL hides the password of a URL with userinfo.
func maskURL(u string) string {
	at := strings.LastIndex(u, "@")
	scheme := strings.Index(u, "://")
	if at < 0 || scheme < 0 {
		return u
	}
	userinfo := u[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return u[:scheme+3] + userinfo[:colon] + ":****" + u[at:]
	}
	return u
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendwise/internal/cli"
	"github.com/theirongolddev/spendwise/internal/pipeline"
)

var (
	flagImportForce     bool
	flagImportMaxErrors int
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import CSV and JSON transaction files",
	Long: "Import every .csv and .json file under dir (default: import_dir from config).\n" +
		"Files whose size and modification time are unchanged since the last run are skipped.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportForce, "force", false, "Re-parse files even if unchanged")
	importCmd.Flags().IntVar(&flagImportMaxErrors, "max-errors", 10, "Row errors to print (0 for none)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		dir := a.cfg.General.ImportDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("no directory given and import_dir is not configured")
		}

		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Scanning %s...\n", dir)
		}

		result, err := pipeline.Import(ctx, dir, a.store, pipeline.ImportOptions{
			UserID:     a.userID(),
			Classifier: a.classifier,
			Force:      flagImportForce,
			Progress: func(current, total int) {
				if flagQuiet {
					return
				}
				fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
			},
		})
		if err != nil {
			return err
		}
		if !flagQuiet && result.ParsedFiles > 0 {
			fmt.Fprintln(os.Stderr)
		}

		a.log.WithFields(logrus.Fields{
			"dir":      dir,
			"files":    result.TotalFiles,
			"parsed":   result.ParsedFiles,
			"imported": result.Imported,
			"invalid":  result.Invalid,
		}).Info("import complete")

		stored, err := a.store.TransactionCount(ctx, a.userID())
		if err != nil {
			return err
		}

		if flagJSON {
			report := importReport(result)
			report.Stored = stored
			return printJSON(report)
		}

		if result.TotalFiles == 0 {
			fmt.Printf("\n  No .csv or .json files found in %s\n", dir)
			return nil
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Import", "Count"},
			Rows: [][]string{
				{"Files found", cli.FormatNumber(int64(result.TotalFiles))},
				{"Unchanged", cli.FormatNumber(int64(result.Unchanged))},
				{"Parsed", cli.FormatNumber(int64(result.ParsedFiles))},
				{"Forgotten", cli.FormatNumber(int64(result.Forgotten))},
				{"---"},
				{"Transactions saved", cli.FormatNumber(int64(result.Imported))},
				{"Invalid rows", cli.FormatNumber(int64(result.Invalid))},
				{"File errors", cli.FormatNumber(int64(result.FileErrors))},
				{"---"},
				{"Total stored", cli.FormatNumber(int64(stored))},
			},
		}))

		shown := min(len(result.Errors), flagImportMaxErrors)
		for _, e := range result.Errors[:shown] {
			fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderWarning(e.Error()))
		}
		if rest := len(result.Errors) - shown; rest > 0 {
			fmt.Fprintf(os.Stderr, "  ...and %d more\n", rest)
		}
		return nil
	})
}

type importJSON struct {
	TotalFiles  int      `json:"total_files"`
	Unchanged   int      `json:"unchanged"`
	ParsedFiles int      `json:"parsed_files"`
	FileErrors  int      `json:"file_errors"`
	Imported    int      `json:"imported"`
	Invalid     int      `json:"invalid"`
	Forgotten   int      `json:"forgotten"`
	Stored      int      `json:"stored"`
	Errors      []string `json:"errors"`
}

func importReport(r *pipeline.ImportResult) importJSON {
	out := importJSON{
		TotalFiles:  r.TotalFiles,
		Unchanged:   r.Unchanged,
		ParsedFiles: r.ParsedFiles,
		FileErrors:  r.FileErrors,
		Imported:    r.Imported,
		Invalid:     r.Invalid,
		Forgotten:   r.Forgotten,
		Errors:      make([]string, 0, len(r.Errors)),
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	return out
}

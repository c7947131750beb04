package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vcnty/config"
	"vcnty/importer"
	"vcnty/inventory"
	"vcnty/output"
	"vcnty/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importInputs    []string
	importStoreID   string
	importDryRun    bool
	importDBPath    string
	importNoHistory bool
	importReport    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Validate CSV/Excel item files and submit them to a store",
	Long: `Read item files, map their headers onto the item template, validate every row and
submit the accepted rows to the store in a single batch.

The target store is taken from --store or, when omitted, from the first config rule
whose file_template matches the input file name. A matching rule may also set the
currency used for rows without one.

Every run is recorded in the local SQLite history unless --no-history is set.
With --dry-run rows are validated and reported but nothing is submitted.`,
	Example: `
  # Import one file into a store
  vcnty import -i items.csv --store 4f1c

  # Validate only
  vcnty import -i items.xlsx --store 4f1c --dry-run

  # Route several files through config rules
  vcnty import -i corner-march.csv -i market-march.xlsx

  # Save the report as Excel
  vcnty import -i items.csv --store 4f1c --report ./report.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		if strings.TrimSpace(importReport) != "" && len(importInputs) > 1 {
			return fmt.Errorf("--report can only be used with a single --input")
		}

		logger, err := newCommandLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		client, err := newBackendClient(cfg, "vcnty-import/1.0")
		if err != nil {
			return err
		}

		var history importer.HistoryRecorder
		if !importNoHistory {
			db, err := storage.OpenSQLite(resolveDBPath(importDBPath, cfg))
			if err != nil {
				return err
			}
			defer db.Close()
			history = db
		}

		failedSubmissions := 0
		for _, input := range importInputs {
			storeID, currency, err := resolveImportTarget(*cfg, input, importStoreID)
			if err != nil {
				return err
			}

			rows, err := importer.ReadFile(input, cfg.Import.MaxFileSize)
			if err != nil {
				var tooLarge *importer.FileTooLargeError
				if errors.As(err, &tooLarge) {
					return fmt.Errorf("%s: %s", input, tooLarge.UserMessage())
				}
				return err
			}

			service, err := importer.NewService(importer.ServiceConfig{
				Client:          client,
				Logger:          logger,
				MaxFileSize:     cfg.Import.MaxFileSize,
				DefaultCurrency: currency,
				History:         history,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			store, err := client.GetStore(ctx, storeID)
			if err != nil {
				cancel()
				return fmt.Errorf("load store %s: %w", storeID, err)
			}
			report := service.ImportRows(ctx, filepath.Base(input), rows, store, importer.Options{DryRun: importDryRun})
			cancel()

			printImportReport(os.Stdout, input, store, report)
			if report.Submitted && report.Success == 0 {
				failedSubmissions++
			}

			if strings.TrimSpace(importReport) != "" {
				if err := writeReportFile(importReport, report); err != nil {
					return err
				}
				fmt.Printf("Report written: %s\n", importReport)
			}
		}

		if failedSubmissions > 0 {
			logger.Warn("batch submission failed", zap.Int("files", failedSubmissions))
			return fmt.Errorf("%d of %d file(s) could not be submitted", failedSubmissions, len(importInputs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Input file path, .csv or .xlsx (repeatable)")
	importCmd.Flags().StringVarP(&importStoreID, "store", "s", "", "Target store ID (overrides matching config rules)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and report without submitting")
	importCmd.Flags().StringVar(&importDBPath, "db", "", "Path to local SQLite database (default: storage.db_path from config)")
	importCmd.Flags().BoolVar(&importNoHistory, "no-history", false, "Do not record the run in the local history")
	importCmd.Flags().StringVar(&importReport, "report", "", "Write the import report to this .csv or .xlsx file")

	_ = importCmd.MarkFlagRequired("input")
}

// resolveImportTarget returns the store and fallback currency for an input
// file. An explicit store wins over config rules.
func resolveImportTarget(cfg config.Config, path, storeFlag string) (string, string, error) {
	currency := cfg.Import.DefaultCurrency
	if storeID := strings.TrimSpace(storeFlag); storeID != "" {
		return storeID, currency, nil
	}
	rule, ok := cfg.RuleForFile(path)
	if !ok {
		return "", "", fmt.Errorf("no store for %q: pass --store or add a rule with `vcnty config rule add`", filepath.Base(path))
	}
	if strings.TrimSpace(rule.Currency) != "" {
		currency = strings.ToUpper(strings.TrimSpace(rule.Currency))
	}
	return strings.TrimSpace(rule.StoreID), currency, nil
}

func resolveDBPath(flagValue string, cfg *config.Config) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return cfg.Storage.DBPath
}

func printImportReport(out io.Writer, input string, store inventory.Store, report importer.Report) {
	fmt.Fprintf(out, "File:  %s\n", input)
	fmt.Fprintf(out, "Store: %s (id=%s)\n", store.Name, store.ID)
	if report.DryRun {
		fmt.Fprintln(out, "Mode:  dry run, nothing submitted")
	}
	fmt.Fprintf(out, "Import completed. %s\n", report.Describe())
	if len(report.IgnoredColumns) > 0 {
		fmt.Fprintf(out, "Ignored columns: %s\n", strings.Join(report.IgnoredColumns, ", "))
	}
	if len(report.Errors) > 0 {
		fmt.Fprintln(out, "Errors:")
		for _, message := range report.Errors {
			fmt.Fprintf(out, "  - %s\n", message)
		}
	}
}

func writeReportFile(path string, report importer.Report) error {
	writer, err := output.WriterForFormat(output.FormatForPath(path))
	if err != nil {
		return err
	}
	return output.WriteFile(path, func(w io.Writer) error {
		return writer.WriteReport(w, report)
	})
}

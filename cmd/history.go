package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"vcnty/config"
	"vcnty/importer"
	"vcnty/internal/timeutil"
	"vcnty/storage"

	"github.com/spf13/cobra"
)

var (
	historyDBPath    string
	historyStoreID   string
	historySince     string
	historyLimit     int
	historyReportOut string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and clean up the local import history",
	Long: `Every import run (CLI or web UI) is stored in the local SQLite database with its
counts, row errors and ignored columns. These commands read and clean up that history.`,
	Example: `
  # Runs of the last 7 days
  vcnty history list --since 7d

  # Runs of one store since a date
  vcnty history list --store 4f1c --since 2026-03-01

  # Show one run and export its report
  vcnty history show 0b6f... --report ./report.xlsx

  # Clear the history of one store
  vcnty history clear --store 4f1c
`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := timeutil.ParseSince(historySince, time.Now())
		if err != nil {
			return err
		}
		if historyLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		store, err := openHistoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListImportRuns(storage.RunFilter{StoreID: historyStoreID, Since: since, Limit: historyLimit})
		if err != nil {
			return err
		}
		printRunList(cmd.OutOrStdout(), runs)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one import run with all row errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.GetImportRun(args[0])
		if err != nil {
			return err
		}
		printRunDetail(cmd.OutOrStdout(), run)

		if strings.TrimSpace(historyReportOut) != "" {
			if err := writeReportFile(historyReportOut, run.Report); err != nil {
				return err
			}
			fmt.Printf("Report written: %s\n", historyReportOut)
		}
		return nil
	},
}

func openHistoryStore() (*storage.SQLiteStore, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, err
	}
	return storage.OpenSQLite(resolveDBPath(historyDBPath, cfg))
}

func printRunList(out io.Writer, runs []importer.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No import runs found.")
		return
	}
	fmt.Fprintf(out, "%-36s  %-19s  %-12s  %5s  %7s  %6s  %s\n", "ID", "STARTED", "STORE", "TOTAL", "SUCCESS", "FAILED", "FILE")
	for _, run := range runs {
		file := run.FileName
		if run.Report.DryRun {
			file += " (dry run)"
		}
		fmt.Fprintf(out, "%-36s  %-19s  %-12s  %5d  %7d  %6d  %s\n",
			run.ID,
			timeutil.FormatTimestamp(run.StartedAt),
			run.StoreID,
			run.Report.Total,
			run.Report.Success,
			run.Report.Failed,
			file,
		)
	}
}

func printRunDetail(out io.Writer, run importer.Run) {
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Store:    %s\n", run.StoreID)
	fmt.Fprintf(out, "File:     %s\n", run.FileName)
	fmt.Fprintf(out, "Started:  %s\n", timeutil.FormatTimestamp(run.StartedAt))
	fmt.Fprintf(out, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	switch {
	case run.Report.DryRun:
		fmt.Fprintln(out, "Mode:     dry run")
	case run.Report.Submitted:
		fmt.Fprintln(out, "Mode:     submitted")
	default:
		fmt.Fprintln(out, "Mode:     nothing to submit")
	}
	fmt.Fprintln(out, run.Report.Describe())
	if len(run.Report.IgnoredColumns) > 0 {
		fmt.Fprintf(out, "Ignored columns: %s\n", strings.Join(run.Report.IgnoredColumns, ", "))
	}
	for _, message := range run.Report.Errors {
		fmt.Fprintf(out, "  - %s\n", message)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.PersistentFlags().StringVar(&historyDBPath, "db", "", "Path to local SQLite database (default: storage.db_path from config)")

	historyListCmd.Flags().StringVar(&historyStoreID, "store", "", "Only runs of this store")
	historyListCmd.Flags().StringVar(&historySince, "since", "", "Only runs started since YYYY-MM-DD, Nd (days) or a duration like 12h")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs (0 for all)")

	historyShowCmd.Flags().StringVar(&historyReportOut, "report", "", "Also write the run report to this .csv or .xlsx file")
}

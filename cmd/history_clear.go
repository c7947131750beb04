package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"vcnty/config"

	"github.com/spf13/cobra"
)

var historyClearStoreID string

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete recorded import runs",
	Long: `Delete import runs from the local history, for one store or all stores.

Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the history of one store
  vcnty history clear --store 4f1c

  # Delete all runs
  vcnty history clear
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "all import runs"
		if strings.TrimSpace(historyClearStoreID) != "" {
			target = fmt.Sprintf("import runs of store %s", historyClearStoreID)
		}
		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, target)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("clear aborted: confirmation was not 'Y'")
		}

		store, err := openHistoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := store.DeleteImportRuns(historyClearStoreID)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted import runs: %d\n", deleted)
		return nil
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the complete SQLite database file",
	Long: `Destructive database cleanup command.

This command deletes the complete SQLite database file.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the complete SQLite file (requires interactive confirmation)
  vcnty history purge --db ./vcnty.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		path := resolveDBPath(historyDBPath, cfg)

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, fmt.Sprintf("database file %q", path))
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if err := removeDatabaseFile(path); err != nil {
			return err
		}
		fmt.Printf("Deleted database file: %s\n", path)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyPurgeCmd)

	historyClearCmd.Flags().StringVar(&historyClearStoreID, "store", "", "Only delete runs of this store")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, target string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s? Type Y to confirm: ", target); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"vcnty/output"
	"vcnty/vcntyapi"

	"github.com/spf13/cobra"
)

const exportPageSize = 200

var (
	exportFormat  string
	exportOutput  string
	exportStoreID string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all items of a store to CSV/Excel",
	Long: `Export every item of a store in the import template column order, so the file
can be edited and imported again.

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export items to CSV
  vcnty export --store 4f1c --output ./items.csv

  # Export items to Excel
  vcnty export --store 4f1c --output ./items.xlsx

  # Force Excel format independent of extension
  vcnty export --store 4f1c --format excel --output ./items.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = output.FormatForPath(exportOutput)
		}
		writer, err := output.WriterForFormat(format)
		if err != nil {
			return err
		}

		client, err := newCommandClient("vcnty-export/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		items, err := vcntyapi.CollectStoreItems(ctx, client, exportStoreID, exportPageSize)
		if err != nil {
			return err
		}

		if err := output.WriteFile(exportOutput, func(w io.Writer) error {
			return writer.WriteItems(w, items)
		}); err != nil {
			return err
		}
		fmt.Printf("Export completed. Items: %d, Format: %s, File: %s\n", len(items), strings.TrimPrefix(writer.Extension(), "."), exportOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportStoreID, "store", "s", "", "Store ID")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")

	_ = exportCmd.MarkFlagRequired("store")
	_ = exportCmd.MarkFlagRequired("output")
}

package cmd

import (
	"fmt"
	"strings"

	"vcnty/output"

	"github.com/spf13/cobra"
)

var (
	templateFormat string
	templateOutput string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the item import template as CSV or Excel",
	Long: `Write an empty item template with the expected column headers.

Output format can be selected explicitly via --format or inferred from --output extension.
Without --output the file is written to the current directory under its download name.`,
	Example: `
  # CSV template in the current directory
  vcnty template

  # Excel template at a custom path
  vcnty template -o ./items.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, writer, err := resolveTemplateTarget(templateFormat, templateOutput)
		if err != nil {
			return err
		}
		if err := output.WriteFile(path, writer.WriteTemplate); err != nil {
			return err
		}
		fmt.Printf("Template written: %s\n", path)
		return nil
	},
}

func resolveTemplateTarget(format, path string) (string, output.Writer, error) {
	format = strings.TrimSpace(format)
	path = strings.TrimSpace(path)
	if format == "" && path != "" {
		format = output.FormatForPath(path)
	}
	writer, err := output.WriterForFormat(format)
	if err != nil {
		return "", nil, err
	}
	if path == "" {
		path = output.TemplateFileName(writer)
	}
	return path, writer, nil
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVarP(&templateFormat, "format", "f", "", "Template format: csv|excel (optional, inferred from --output when omitted)")
	templateCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "Output file path")
}

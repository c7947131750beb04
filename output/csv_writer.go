package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"vcnty/importer"
	"vcnty/inventory"
)

type CSVWriter struct{}

func (w *CSVWriter) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (w *CSVWriter) Extension() string {
	return ".csv"
}

// WriteTemplate emits only the header line.
func (w *CSVWriter) WriteTemplate(out io.Writer) error {
	return writeCSV(out, importer.TemplateHeaders, nil)
}

func (w *CSVWriter) WriteReport(out io.Writer, report importer.Report) error {
	return writeCSV(out, reportHeaders, reportRows(report))
}

func (w *CSVWriter) WriteItems(out io.Writer, items []inventory.Item) error {
	return writeCSV(out, importer.TemplateHeaders, itemRows(items))
}

func writeCSV(out io.Writer, headers []string, rows [][]string) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"vcnty/importer"
	"vcnty/inventory"
)

type ExcelWriter struct{}

func (w *ExcelWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (w *ExcelWriter) Extension() string {
	return ".xlsx"
}

func (w *ExcelWriter) WriteTemplate(out io.Writer) error {
	return writeExcel(out, "Items", importer.TemplateHeaders, nil)
}

func (w *ExcelWriter) WriteReport(out io.Writer, report importer.Report) error {
	return writeExcel(out, "Report", reportHeaders, reportRows(report))
}

func (w *ExcelWriter) WriteItems(out io.Writer, items []inventory.Item) error {
	return writeExcel(out, "Items", importer.TemplateHeaders, itemRows(items))
}

func writeExcel(out io.Writer, sheetName string, headers []string, rows [][]string) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := file.SetSheetName(sheet, sheetName); err != nil {
		return fmt.Errorf("rename excel sheet: %w", err)
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, values := range rows {
		row := i + 2
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if _, err := file.WriteTo(out); err != nil {
		return fmt.Errorf("write excel output: %w", err)
	}
	return nil
}

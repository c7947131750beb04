package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type ExcelReader struct{}

// Read parses the first worksheet; its first row holds the headers.
func (r *ExcelReader) Read(in io.Reader) ([]RawRow, error) {
	file, err := excelize.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("open excel workbook: %w", err)
	}
	defer file.Close()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("excel workbook has no sheets")
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return []RawRow{}, nil
	}

	headers := rows[0]
	out := make([]RawRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRecord(row) {
			continue
		}
		out = append(out, newRawRow(len(out)+1, headers, row))
	}

	return out, nil
}

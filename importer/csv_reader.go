package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

type CSVReader struct{}

// Read treats the first record as headers and skips records whose fields are
// all blank.
func (r *CSVReader) Read(in io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return []RawRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	rows := make([]RawRow, 0, 128)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, newRawRow(len(rows)+1, headers, record))
	}

	return rows, nil
}

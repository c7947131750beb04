package importer

import (
	"strings"
)

// RawRow is one data row as it appeared in the uploaded file. Headers keeps
// the original column names in encounter order.
type RawRow struct {
	RowNumber int
	Headers   []string
	Values    map[string]string
}

func (r RawRow) Get(header string) string {
	return r.Values[header]
}

// NormalizedRow holds raw values keyed by target field. Missing fields read
// as blank.
type NormalizedRow map[Field]string

func (r NormalizedRow) Get(field Field) string {
	return r[field]
}

// normalizeHeader lower-cases input and drops everything outside [a-z0-9].
func normalizeHeader(input string) string {
	lowered := strings.ToLower(input)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func newRawRow(rowNumber int, headers, values []string) RawRow {
	row := RawRow{
		RowNumber: rowNumber,
		Headers:   make([]string, 0, len(headers)),
		Values:    make(map[string]string, len(headers)),
	}
	for i, header := range headers {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		if _, seen := row.Values[header]; !seen {
			row.Headers = append(row.Headers, header)
		}
		row.Values[header] = value
	}
	return row
}

func isBlankRecord(values []string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

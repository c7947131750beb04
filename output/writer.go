package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"vcnty/importer"
	"vcnty/inventory"
)

// Writer renders import tables in one file format.
type Writer interface {
	WriteTemplate(w io.Writer) error
	WriteReport(w io.Writer, report importer.Report) error
	WriteItems(w io.Writer, items []inventory.Item) error
	ContentType() string
	Extension() string
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "", "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatForPath picks the format from a file extension, defaulting to CSV.
func FormatForPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return "excel"
	}
	return "csv"
}

// TemplateFileName returns the download name of the template for a writer.
func TemplateFileName(writer Writer) string {
	return strings.TrimSuffix(importer.TemplateFileName, ".csv") + writer.Extension()
}

// WriteFile creates path and renders into it with render.
func WriteFile(path string, render func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	if err := render(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output %s: %w", path, err)
	}
	return nil
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

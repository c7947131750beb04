package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the default upload limit (10 MiB).
const MaxFileSize int64 = 10 * 1024 * 1024

var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	errInvalidSizeLimit  = errors.New("size limit must be positive")
)

// FileTooLargeError is returned before any parsing happens.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

func (e *FileTooLargeError) Is(target error) bool {
	return target == ErrFileTooLarge
}

// UserMessage is the text shown to sellers.
func (e *FileTooLargeError) UserMessage() string {
	return fmt.Sprintf("File too large. Please upload less than %dMB.", e.Limit/(1024*1024))
}

type Reader interface {
	Read(r io.Reader) ([]RawRow, error)
}

func ReaderForFormat(format string) (Reader, error) {
	switch normalizeHeader(format) {
	case "csv":
		return &CSVReader{}, nil
	case "excel", "xlsx", "xlsm":
		return &ExcelReader{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// FormatForFilename infers the reader format from the file extension.
func FormatForFilename(name string) (string, error) {
	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch extension {
	case "csv":
		return "csv", nil
	case "xlsx", "xlsm":
		return "excel", nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, name)
	}
}

// Upload is a file handed over by a caller. Size may be zero when unknown;
// the limit is then enforced while reading.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// ReadUpload enforces the size limit, picks a reader by extension and parses
// the file.
func ReadUpload(upload Upload, limit int64) ([]RawRow, error) {
	if limit <= 0 {
		return nil, errInvalidSizeLimit
	}
	if upload.Size > limit {
		return nil, &FileTooLargeError{Size: upload.Size, Limit: limit}
	}

	format, err := FormatForFilename(upload.Name)
	if err != nil {
		return nil, err
	}
	reader, err := ReaderForFormat(format)
	if err != nil {
		return nil, err
	}

	content, err := io.ReadAll(io.LimitReader(upload.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", upload.Name, err)
	}
	if int64(len(content)) > limit {
		return nil, &FileTooLargeError{Size: int64(len(content)), Limit: limit}
	}

	rows, err := reader.Read(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", upload.Name, err)
	}
	return rows, nil
}

// ReadFile opens path and reads it like an upload.
func ReadFile(path string, limit int64) ([]RawRow, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return ReadUpload(Upload{Name: filepath.Base(path), Size: info.Size(), Body: file}, limit)
}

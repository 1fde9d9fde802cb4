package importer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Reader turns one source file into header-normalized records.
type Reader interface {
	Read(path string) ([]Record, error)
}

// Source formats accepted by ReaderForFormat and ReaderForPath.
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

func ReaderForFormat(format string) (Reader, error) {
	switch normalizeHeader(format) {
	case FormatCSV:
		return &CSVReader{}, nil
	case FormatExcel, "xlsx", "xlsm", "xls":
		return &ExcelReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s (supported: csv, excel)", format)
	}
}

// ReaderForPath picks the reader for path. An explicit format wins over the
// file extension.
func ReaderForPath(path, format string) (Reader, error) {
	if strings.TrimSpace(format) != "" {
		return ReaderForFormat(format)
	}

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "csv":
		return &CSVReader{}, nil
	case "xlsx", "xlsm", "xls":
		return &ExcelReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension for %s (use --format csv|excel)", filepath.Base(path))
	}
}

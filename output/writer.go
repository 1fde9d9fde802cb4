package output

import (
	"fmt"
	"strings"

	"shiftclock/timeentry"
)

// Writer exports raw time entries.
type Writer interface {
	Write(path string, entries []timeentry.Entry) error
}

// ReportWriter exports one evaluated row per day.
type ReportWriter interface {
	WriteReport(path string, rows []DailyRow) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func ReportWriterForFormat(format string) (ReportWriter, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

var entryHeaders = []string{"ID", "Date", "Kind", "Start", "End", "Minutes", "Manual", "Note"}

var reportHeaders = []string{
	"Date", "FirstStart", "LastEnd", "Entries",
	"GrossMinutes", "TakenBreakMinutes", "RequiredBreakMinutes", "DeductedBreakMinutes", "NetMinutes",
	"Net", "Compliant", "Severity",
}

package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"shiftclock/timeentry"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, entries []timeentry.Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entryValues(entry))
	}
	return writeCSV(path, entryHeaders, rows)
}

func (w *CSVWriter) WriteReport(path string, days []DailyRow) error {
	rows := make([][]string, 0, len(days))
	for _, day := range days {
		rows = append(rows, reportValues(day))
	}
	return writeCSV(path, reportHeaders, rows)
}

func writeCSV(path string, headers []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
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

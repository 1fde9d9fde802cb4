package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"shiftclock/timeentry"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, entries []timeentry.Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entryValues(entry))
	}
	return writeExcel(path, "Entries", entryHeaders, rows)
}

func (w *ExcelWriter) WriteReport(path string, days []DailyRow) error {
	rows := make([][]string, 0, len(days))
	for _, day := range days {
		rows = append(rows, reportValues(day))
	}
	return writeExcel(path, "Report", reportHeaders, rows)
}

func writeExcel(path, sheetName string, headers []string, rows [][]string) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename excel sheet: %w", err)
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, values := range rows {
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := file.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}

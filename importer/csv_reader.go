package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

type CSVReader struct{}

func (r *CSVReader) Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	firstLine, _ := buffered.Peek(4096)

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	reader.Comma = detectDelimiter(firstLine)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	headers = normalizeHeaders(headers)

	records := make([]Record, 0, 128)
	rowNumber := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNumber+1, err)
		}
		rowNumber++
		records = append(records, newRecord(rowNumber, headers, row))
	}

	return records, nil
}

// detectDelimiter picks ';' for spreadsheet exports from German locales and
// ',' otherwise.
func detectDelimiter(sample []byte) rune {
	if idx := bytes.IndexByte(sample, '\n'); idx >= 0 {
		sample = sample[:idx]
	}
	if bytes.Count(sample, []byte{';'}) > bytes.Count(sample, []byte{','}) {
		return ';'
	}
	return ','
}

package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// OpenCSV reads a comma-separated table with a header row.
func OpenCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only table.
			_ = cerr
		}
	}()
	return ReadCSV(file)
}

// ReadCSV decodes a CSV table. Rows may be shorter than the header; missing
// cells are simply absent from the row map.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header row")
		}
		return nil, err
	}
	table := &Table{Columns: make([]string, len(header))}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		table.Columns[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(rec))
		for i, v := range rec {
			if i >= len(table.Columns) {
				break
			}
			row[table.Columns[i]] = strings.TrimSpace(v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

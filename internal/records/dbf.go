// Package records loads answer sheets and answer keys from the legacy
// dBase tables, CSV exports and plain key files.
package records

import (
	"fmt"
	"os"
	"strings"

	"github.com/Valentin-Kaiser/go-dbase/dbase"
	"golang.org/x/text/encoding/charmap"
)

// Table is a decoded tabular source. Row values are keyed by upper-case
// column name and already trimmed.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// OpenDBF reads a dBase table. Character data is decoded as Latin-1 and
// deleted rows are skipped. When the header declares more records than the
// file holds, reading stops after the last complete record.
func OpenDBF(path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	dbf, err := dbase.OpenTable(&dbase.Config{
		Filename:   path,
		Converter:  dbase.NewDefaultConverter(charmap.ISO8859_1),
		TrimSpaces: true,
		ReadOnly:   true,
		Untested:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("dbf: open %s: %w", path, err)
	}
	defer func() { _ = dbf.Close() }()

	table := &Table{}
	for _, col := range dbf.Columns() {
		table.Columns = append(table.Columns, columnName(col.Name()))
	}

	rows := physicalRows(dbf.Header(), info.Size())
	for n := 0; n < rows && !dbf.EOF(); n++ {
		row, err := dbf.Next()
		if err != nil {
			return nil, fmt.Errorf("dbf: record %d: %w", n+1, err)
		}
		if row.Deleted {
			continue
		}
		values, err := row.ToMap()
		if err != nil {
			return nil, fmt.Errorf("dbf: record %d: %w", n+1, err)
		}
		rec := make(map[string]string, len(values))
		for name, v := range values {
			rec[columnName(name)] = cellString(v)
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, nil
}

// physicalRows caps the declared record count at the complete records
// present after the header.
func physicalRows(h *dbase.Header, size int64) int {
	declared := int(h.RecordsCount())
	if h.RowLength == 0 {
		return 0
	}
	data := size - int64(h.FirstRow)
	if data <= 0 {
		return 0
	}
	return min(declared, int(data/int64(h.RowLength)))
}

func columnName(name string) string {
	return strings.ToUpper(strings.TrimSpace(strings.TrimRight(name, "\x00")))
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return strings.TrimSpace(string(val))
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

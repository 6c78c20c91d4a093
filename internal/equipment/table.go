package equipment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is a raw CSV upload: a header row plus string cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ReadCSV parses a comma separated upload. The first record is the header.
// Blank lines are skipped and a leading UTF-8 BOM is ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &EmptyInputError{}
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.TrimSpace(h)
	}

	table := &Table{Columns: columns}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		if isBlank(record) {
			continue
		}
		if len(record) > len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{Err: fmt.Errorf("line %d: expected %d fields, saw %d", line, len(columns), len(record))}
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// index returns the position of a column, or -1.
func (t *Table) index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// cell returns the raw value at row/col; short rows read as empty.
func (t *Table) cell(row, col int) string {
	if col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

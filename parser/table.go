package parser

import (
	"strings"

	customerrors "fieldops-forecast/errors"
)

// Table is a raw tabular export: a header row and string cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable builds a table, trimming header names. Short rows are padded so
// every row has one cell per header column.
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{Name: name, index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.Header = append(t.Header, h)
		if _, exists := t.index[h]; !exists {
			t.index[h] = i
		}
	}
	for _, row := range rows {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Column returns the position of name or a SchemaError.
func (t *Table) Column(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, &customerrors.SchemaError{Table: t.Name, Column: name}
	}
	return i, nil
}

// Require checks that every named column exists.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if _, err := t.Column(n); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the trimmed value at row r for column position c.
func (t *Table) Cell(r, c int) string {
	row := t.Rows[r]
	if c >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[c])
}

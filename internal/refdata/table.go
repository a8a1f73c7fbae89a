package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyTable is returned when a source has no header row
var ErrEmptyTable = errors.New("table has no header row")

// Table is a header-indexed CSV document. Column lookup is by name, so
// column order and unknown extra columns do not matter.
type Table struct {
	columns map[string]int
	Rows    []Row
}

// Row is one data line of a Table
type Row struct {
	Line   int // 1-based line number in the source, header is line 1
	fields []string
	table  *Table
}

// ReadTable parses a CSV stream with a header row
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are handled per row
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{columns: make(map[string]int, len(header))}
	for i, name := range header {
		key := normalizeColumn(name)
		if key == "" {
			continue
		}
		if _, dup := t.columns[key]; !dup {
			t.columns[key] = i
		}
	}
	if len(t.columns) == 0 {
		return nil, ErrEmptyTable
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}
		t.Rows = append(t.Rows, Row{Line: line, fields: record, table: t})
	}
	return t, nil
}

// Has reports whether the table has a column
func (t *Table) Has(column string) bool {
	_, ok := t.columns[normalizeColumn(column)]
	return ok
}

// Get returns the trimmed value of a column, or "" when absent
func (r Row) Get(column string) string {
	i, ok := r.table.columns[normalizeColumn(column)]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// List splits a pipe-separated cell
func (r Row) List(column string) []string {
	v := r.Get(column)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

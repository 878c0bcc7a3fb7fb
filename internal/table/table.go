// Package table holds layer rows as an ordered set of named columns. Cell
// values are the scalars the layer reader produced (string, int64, float64,
// bool, nil) plus the Absent marker.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// AbsentValue marks a cell that was never populated, as opposed to nil which
// records a value that was attempted and came back empty.
type AbsentValue struct{}

func (AbsentValue) String() string { return "" }

// Absent is the singleton absent marker.
var Absent = AbsentValue{}

// IsAbsent reports whether v is the absent marker.
func IsAbsent(v any) bool {
	_, ok := v.(AbsentValue)
	return ok
}

// ColumnNotFoundError reports a column missing from a table's schema.
type ColumnNotFoundError struct {
	Column  string
	Columns []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("table: column %q not found (have: %s)",
		e.Column, strings.Join(e.Columns, ", "))
}

// Table is an ordered collection of rows sharing one column schema.
type Table struct {
	cols     []string
	colIndex map[string]int
	rows     [][]any
}

// New returns an empty table with the given column schema.
func New(cols []string) *Table {
	t := &Table{
		cols:     append([]string(nil), cols...),
		colIndex: make(map[string]int, len(cols)),
	}
	for i, c := range t.cols {
		t.colIndex[c] = i
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// HasColumn reports whether the schema contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIndex[name]
	return ok
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// AppendRow adds a row. The value count must match the schema.
func (t *Table) AppendRow(vals []any) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("table: row has %d values, schema has %d columns", len(vals), len(t.cols))
	}
	t.rows = append(t.rows, append([]any(nil), vals...))
	return nil
}

// Row returns the values of row i in column order. The slice is shared;
// callers must not mutate it.
func (t *Table) Row(i int) []any {
	return t.rows[i]
}

// Value returns the cell at (row, col). The second return is false when the
// column does not exist.
func (t *Table) Value(row int, col string) (any, bool) {
	idx, ok := t.colIndex[col]
	if !ok {
		return nil, false
	}
	return t.rows[row][idx], true
}

// SetValue writes the cell at (row, col).
func (t *Table) SetValue(row int, col string, v any) error {
	idx, ok := t.colIndex[col]
	if !ok {
		return &ColumnNotFoundError{Column: col, Columns: t.Columns()}
	}
	t.rows[row][idx] = v
	return nil
}

// AddColumn appends a column to the schema with every existing row set to
// fill. Adding a column that already exists is an error.
func (t *Table) AddColumn(name string, fill any) error {
	if t.HasColumn(name) {
		return fmt.Errorf("table: column %q already exists", name)
	}
	t.colIndex[name] = len(t.cols)
	t.cols = append(t.cols, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], fill)
	}
	return nil
}

// Float reads the cell at (row, col) as a float64. Returns false for missing
// columns, nil or absent cells, and values that are not numeric.
func (t *Table) Float(row int, col string) (float64, bool) {
	v, ok := t.Value(row, col)
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Filter returns a new table keeping rows whose col value is a member of
// allowed (case-sensitive string match). An empty allowed set keeps every
// row. A zero-row result is valid. The column must exist.
func (t *Table) Filter(col string, allowed []string) (*Table, error) {
	if len(allowed) == 0 {
		return t.clone(), nil
	}
	idx, ok := t.colIndex[col]
	if !ok {
		return nil, &ColumnNotFoundError{Column: col, Columns: t.Columns()}
	}

	keep := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		keep[a] = true
	}

	out := New(t.cols)
	for _, row := range t.rows {
		s, ok := row[idx].(string)
		if ok && keep[s] {
			out.rows = append(out.rows, append([]any(nil), row...))
		}
	}
	return out, nil
}

func (t *Table) clone() *Table {
	out := New(t.cols)
	out.rows = make([][]any, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append([]any(nil), row...)
	}
	return out
}

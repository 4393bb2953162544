package table

import (
	"fmt"

	"gobias/domain/core"
)

// Frame is an in-memory table of named, equal-length columns. All
// inputs to the estimators are fully materialized in a Frame before
// any computation starts.
type Frame struct {
	columns []string
	data    map[string][]Value
	n       int
}

// NewFrame creates an empty frame with the given column order.
// Duplicate column names are rejected.
func NewFrame(columns []string) (*Frame, error) {
	data := make(map[string][]Value, len(columns))
	for _, c := range columns {
		if _, dup := data[c]; dup {
			return nil, core.NewInvalidOptionError("column", c)
		}
		data[c] = nil
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Frame{columns: cols, data: data}, nil
}

// AppendRow adds one row; values must align with the column order.
func (f *Frame) AppendRow(values []Value) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(values), len(f.columns))
	}
	for i, c := range f.columns {
		f.data[c] = append(f.data[c], values[i])
	}
	f.n++
	return nil
}

// Len returns the row count.
func (f *Frame) Len() int {
	return f.n
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// HasColumn reports whether a named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Column returns the values of a named column.
func (f *Frame) Column(name string) ([]Value, error) {
	col, ok := f.data[name]
	if !ok {
		return nil, core.NewMissingColumnError("table", name)
	}
	return col, nil
}

// Value returns a single cell.
func (f *Frame) Value(name string, row int) Value {
	col, ok := f.data[name]
	if !ok || row < 0 || row >= f.n {
		return Missing()
	}
	return col[row]
}

// Select returns a new frame containing the given rows, in order.
func (f *Frame) Select(rows []int) *Frame {
	out := &Frame{
		columns: f.Columns(),
		data:    make(map[string][]Value, len(f.columns)),
		n:       len(rows),
	}
	for _, c := range f.columns {
		src := f.data[c]
		dst := make([]Value, 0, len(rows))
		for _, r := range rows {
			dst = append(dst, src[r])
		}
		out.data[c] = dst
	}
	return out
}

// WithColumn returns a copy of the frame with an extra column appended.
// The column must match the frame's row count.
func (f *Frame) WithColumn(name string, values []Value) (*Frame, error) {
	if f.HasColumn(name) {
		return nil, core.NewInvalidOptionError("column", name)
	}
	if len(values) != f.n {
		return nil, fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), f.n)
	}
	out := &Frame{
		columns: append(f.Columns(), name),
		data:    make(map[string][]Value, len(f.columns)+1),
		n:       f.n,
	}
	for _, c := range f.columns {
		out.data[c] = f.data[c]
	}
	out.data[name] = values
	return out, nil
}

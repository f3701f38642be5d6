// Package table is a small in-memory column-named table used for the bulk
// relational steps of a reconciliation run.
package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownColumn = errors.New("unknown column")

type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty table. Repeated column names are kept once.
func New(columns ...string) *Table {
	t := &Table{index: map[string]int{}}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

func (t *Table) ColumnIndex(column string) (int, error) {
	idx, ok := t.index[column]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	return idx, nil
}

// Require returns an error naming the first column the table lacks.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if _, err := t.ColumnIndex(c); err != nil {
			return err
		}
	}
	return nil
}

// AddColumn appends a column filled with absent values and returns its
// index. An existing column is left untouched.
func (t *Table) AddColumn(column string) int {
	if idx, ok := t.index[column]; ok {
		return idx
	}
	idx := len(t.columns)
	t.columns = append(t.columns, column)
	t.index[column] = idx
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], Value{})
	}
	return idx
}

// AppendRow adds a row. Missing trailing values are absent.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) > len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.columns))
	}
	row := make([]Value, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

func (t *Table) At(row, col int) Value {
	return t.rows[row][col]
}

func (t *Table) Set(row, col int, v Value) {
	t.rows[row][col] = v
}

func (t *Table) Get(row int, column string) (Value, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return Value{}, err
	}
	return t.rows[row][idx], nil
}

// Row returns a copy of the row at i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Filter returns a new table with the same schema holding the rows for which
// keep returns true, in their original order.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := New(t.columns...)
	for i := range t.rows {
		if keep(i) {
			_ = out.AppendRow(t.rows[i]...)
		}
	}
	return out
}

// Project returns a new table holding only the named columns, in the given
// order.
func (t *Table) Project(columns ...string) (*Table, error) {
	idx := make([]int, 0, len(columns))
	for _, c := range columns {
		i, err := t.ColumnIndex(c)
		if err != nil {
			return nil, err
		}
		idx = append(idx, i)
	}
	out := New(columns...)
	for _, row := range t.rows {
		values := make([]Value, len(idx))
		for j, i := range idx {
			values[j] = row[i]
		}
		_ = out.AppendRow(values...)
	}
	return out, nil
}

func (t *Table) Clone() *Table {
	return t.Filter(func(int) bool { return true })
}

// Dedup returns a new table without exact duplicate rows. The first
// occurrence of each row is kept.
func (t *Table) Dedup() *Table {
	seen := make(map[string]struct{}, len(t.rows))
	out := New(t.columns...)
	for _, row := range t.rows {
		k := rowKey(row)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		_ = out.AppendRow(row...)
	}
	return out
}

func rowKey(row []Value) string {
	var b strings.Builder
	for _, v := range row {
		b.WriteByte(byte('0' + v.Kind))
		for _, part := range []string{v.Text, v.First, v.Last} {
			b.WriteString(strconv.Itoa(len(part)))
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// Package table implements the In-Memory Table: a column-oriented,
// order-preserving table used as the common currency between CSV
// streams, aggregation, and report rendering.
package table

import (
	"fmt"
	"strconv"

	"github.com/taskmetrics/resourcetracker/pkg/rterrors"
)

// Cell is a tagged union holding either a numeric or a string value.
type Cell struct {
	IsString bool
	Num      float64
	Str      string
}

// NumCell builds a numeric cell.
func NumCell(v float64) Cell { return Cell{Num: v} }

// StrCell builds a string cell.
func StrCell(v string) Cell { return Cell{IsString: true, Str: v} }

// String renders the cell for display/CSV purposes.
func (c Cell) String() string {
	if c.IsString {
		return c.Str
	}
	return strconv.FormatFloat(c.Num, 'f', -1, 64)
}

// Row is a labelled tuple: one value per column, in the table's column
// order.
type Row map[string]Cell

// Table is a column-oriented, equal-length collection of named columns.
// Column order is preserved in first-appearance order.
type Table struct {
	order   []string
	columns map[string][]Cell
	n       int
}

// FromColumns builds a Table from a column-name -> cell-vector map. order
// gives the column order explicitly since Go maps have none; if order is
// nil, an arbitrary (but equal-length-validated) order is used.
func FromColumns(cols map[string][]Cell, order []string) (*Table, error) {
	if order == nil {
		for name := range cols {
			order = append(order, name)
		}
	}
	n := -1
	for _, name := range order {
		col, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("table: column %q in order but not in map: %w", name, rterrors.ErrColumnNotFound)
		}
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return nil, fmt.Errorf("table: column %q has length %d, want %d: %w", name, len(col), n, rterrors.ErrLengthMismatch)
		}
	}
	if n == -1 {
		n = 0
	}
	t := &Table{order: append([]string(nil), order...), columns: map[string][]Cell{}, n: n}
	for _, name := range order {
		t.columns[name] = append([]Cell(nil), cols[name]...)
	}
	return t, nil
}

// FromRows builds a Table from a list of labelled rows. Column order is
// the order columns first appear across the rows. Rows missing a column
// later seen get a zero-value Cell (numeric 0).
func FromRows(rows []Row) *Table {
	var order []string
	seen := map[string]bool{}
	for _, r := range rows {
		for name := range r {
			if !seen[name] {
				seen[name] = true
				order = append(order, name)
			}
		}
	}
	cols := make(map[string][]Cell, len(order))
	for _, name := range order {
		col := make([]Cell, len(rows))
		for i, r := range rows {
			col[i] = r[name]
		}
		cols[name] = col
	}
	t, _ := FromColumns(cols, order)
	return t
}

// Len reports the row count.
func (t *Table) Len() int { return t.n }

// ColumnNames reports the ordered column names.
func (t *Table) ColumnNames() []string { return append([]string(nil), t.order...) }

// Column projects a single column by name.
func (t *Table) Column(name string) ([]Cell, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("table: column %q: %w", name, rterrors.ErrColumnNotFound)
	}
	return append([]Cell(nil), col...), nil
}

// Columns projects a sub-table containing only the named columns, in the
// order requested ("projection ... by list of names
// (sub-table)").
func (t *Table) Columns(names []string) (*Table, error) {
	cols := map[string][]Cell{}
	for _, name := range names {
		col, ok := t.columns[name]
		if !ok {
			return nil, fmt.Errorf("table: column %q: %w", name, rterrors.ErrColumnNotFound)
		}
		cols[name] = col
	}
	return FromColumns(cols, names)
}

// Row retrieves a single row as a labelled tuple.
func (t *Table) Row(i int) (Row, error) {
	if i < 0 || i >= t.n {
		return nil, fmt.Errorf("table: row index %d out of [0,%d): %w", i, t.n, rterrors.ErrInvalidIndex)
	}
	r := make(Row, len(t.order))
	for _, name := range t.order {
		r[name] = t.columns[name][i]
	}
	return r, nil
}

// Slice returns a contiguous row range [lo, hi) as a new Table, preserving
// column order (its chaining requirement:
// t[["a","b"]][3:6]["a"] must yield column "a" from rows 3..6).
func (t *Table) Slice(lo, hi int) (*Table, error) {
	if lo < 0 || hi > t.n || lo > hi {
		return nil, fmt.Errorf("table: slice [%d:%d) out of [0,%d]: %w", lo, hi, t.n, rterrors.ErrInvalidIndex)
	}
	cols := map[string][]Cell{}
	for _, name := range t.order {
		cols[name] = append([]Cell(nil), t.columns[name][lo:hi]...)
	}
	return FromColumns(cols, t.order)
}

// Head returns the first n rows (or fewer if the table is shorter).
func (t *Table) Head(n int) (*Table, error) {
	if n > t.n {
		n = t.n
	}
	return t.Slice(0, n)
}

// Tail returns the last n rows (or fewer if the table is shorter).
func (t *Table) Tail(n int) (*Table, error) {
	if n > t.n {
		n = t.n
	}
	return t.Slice(t.n-n, t.n)
}

// SetColumn assigns or appends a column. Length must match the table's row
// count (or establish it, for an empty table); a name not already present
// is appended as the new last column.
func (t *Table) SetColumn(name string, col []Cell) error {
	if t.n != 0 && len(col) != t.n {
		return fmt.Errorf("table: set column %q length %d, want %d: %w", name, len(col), t.n, rterrors.ErrLengthMismatch)
	}
	if t.n == 0 {
		t.n = len(col)
	}
	if _, ok := t.columns[name]; !ok {
		t.order = append(t.order, name)
	}
	t.columns[name] = append([]Cell(nil), col...)
	return nil
}

// Rename changes a column's name in place, preserving its position in the
// column order.
func (t *Table) Rename(oldName, newName string) error {
	col, ok := t.columns[oldName]
	if !ok {
		return fmt.Errorf("table: rename %q: %w", oldName, rterrors.ErrColumnNotFound)
	}
	if oldName == newName {
		return nil
	}
	delete(t.columns, oldName)
	t.columns[newName] = col
	for i, name := range t.order {
		if name == oldName {
			t.order[i] = newName
			break
		}
	}
	return nil
}

package model

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Row is one record of a table.
type Row []Value

// Table is an immutable-by-convention columnar record set. Each pipeline
// stage consumes a table and produces a new one; nothing mutates a table
// after the stage that built it.
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// NewTable creates an empty table with the given column set.
func NewTable(columns []string) *Table {
	t := &Table{Columns: columns}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Col returns the position of a column, or -1 if absent.
func (t *Table) Col(name string) int {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	if !ok {
		return -1
	}
	return i
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool { return t.Col(name) >= 0 }

// Cell returns the value at (row, column name); null if the column is absent.
func (t *Table) Cell(row int, name string) Value {
	i := t.Col(name)
	if i < 0 {
		return Null()
	}
	return t.Rows[row][i]
}

// Append adds a row. The row must match the column count.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// WithColumns returns a new empty table sharing this table's shape plus
// the given extra columns.
func (t *Table) WithColumns(extra ...string) *Table {
	cols := make([]string, 0, len(t.Columns)+len(extra))
	cols = append(cols, t.Columns...)
	cols = append(cols, extra...)
	return NewTable(cols)
}

// RowKey returns a content hash of a row, used for exact-duplicate
// detection. Kind bytes are mixed in so that null, "" and 0 stay distinct.
func RowKey(r Row) [32]byte {
	h := sha256.New()
	var num [8]byte
	for _, v := range r {
		h.Write([]byte{byte(v.kind)})
		switch v.kind {
		case KindNumber:
			binary.LittleEndian.PutUint64(num[:], math.Float64bits(v.num))
			h.Write(num[:])
		case KindString:
			h.Write([]byte(v.str))
		}
		h.Write([]byte{0x1f})
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Package voltable decodes and represents the response envelope's result
// tables: column schema, rows, and the typed values within them. It sits
// on top of codec and wiretype the way the teacher's binlog package sits
// on top of its root Packet type — a focused decoder for one nested,
// self-describing format.
package voltable

import (
	"database/sql"

	"github.com/juju/errors"

	"github.com/YuRHere/voltdb/codec"
	"github.com/YuRHere/voltdb/decimal"
	"github.com/YuRHere/voltdb/wiretype"
)

// Column describes one VoltTable column: its wire type and name.
type Column struct {
	Type wiretype.Tag
	Name string
}

// Equal implements the column-equality rule used by callers: two columns
// match if they share a type and name, or if either name is empty (the
// server omits column names for some empty result sets).
func (c Column) Equal(o Column) bool {
	if c.Name == "" || o.Name == "" {
		return true
	}
	return c.Type == o.Type && c.Name == o.Name
}

// Row is one decoded tuple: one Value per column, in column order.
type Row []wiretype.Value

// Get returns the value at col, or an error if col is out of range.
func (r Row) Get(col int) (wiretype.Value, error) {
	if col < 0 || col >= len(r) {
		return nil, errors.Errorf("voltable: column index %d out of range (%d columns)", col, len(r))
	}
	return r[col], nil
}

// Int64 returns the column as an int64. ok is false if the value is NULL.
func (r Row) Int64(col int) (v int64, ok bool, err error) {
	raw, err := r.Get(col)
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, false, nil
	}
	n, ok := raw.(int64)
	if !ok {
		return 0, false, errors.Errorf("voltable: column %d is not an integer (%T)", col, raw)
	}
	return n, true, nil
}

// String returns the column as a string. ok is false if the value is NULL.
func (r Row) String(col int) (v string, ok bool, err error) {
	raw, err := r.Get(col)
	if err != nil {
		return "", false, err
	}
	if raw == nil {
		return "", false, nil
	}
	ns, isNullString := raw.(sql.NullString)
	if !isNullString {
		return "", false, errors.Errorf("voltable: column %d is not a string (%T)", col, raw)
	}
	return ns.String, ns.Valid, nil
}

// Float64 returns the column as a float64. ok is false if the value is NULL.
func (r Row) Float64(col int) (v float64, ok bool, err error) {
	raw, err := r.Get(col)
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, false, nil
	}
	f, isFloat := raw.(float64)
	if !isFloat {
		return 0, false, errors.Errorf("voltable: column %d is not a float (%T)", col, raw)
	}
	return f, true, nil
}

// Table is a self-describing result set: its column schema plus rows.
type Table struct {
	Columns []Column
	Rows    []Row
}

// Equal compares two tables under the column-equality rule of the
// protocol's Result Model, plus identical row content. Columns are only
// compared when at least one table has rows: two tables with no rows are
// equal whatever their columns.
func (t *Table) Equal(o *Table) bool {
	if len(t.Rows) > 0 || len(o.Rows) > 0 {
		if len(t.Columns) != len(o.Columns) {
			return false
		}
		for i := range t.Columns {
			if !t.Columns[i].Equal(o.Columns[i]) {
				return false
			}
		}
	}
	if len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		if len(t.Rows[i]) != len(o.Rows[i]) {
			return false
		}
		for j := range t.Rows[i] {
			if !valuesEqual(t.Rows[i][j], o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// ReadTable decodes one Table per §3: table_len, header (column count,
// types, names), row_count, then that many length-prefixed rows.
func ReadTable(r *codec.Reader) (*Table, error) {
	tableLen, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if tableLen < 0 {
		return nil, errors.Annotatef(codec.ErrMalformed, "negative table length %d", tableLen)
	}

	headerLen, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if headerLen < 0 {
		return nil, errors.Annotatef(codec.ErrMalformed, "negative header length %d", headerLen)
	}

	columnCount, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	columns := make([]Column, columnCount)
	for i := range columns {
		b, err := r.ReadI8()
		if err != nil {
			return nil, err
		}
		columns[i].Type = wiretype.Tag(b)
	}
	for i := range columns {
		ns, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		columns[i].Name = ns.String
	}

	rowCount, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if rowCount < 0 {
		return nil, errors.Annotatef(codec.ErrMalformed, "negative row count %d", rowCount)
	}

	table := &Table{Columns: columns, Rows: make([]Row, rowCount)}
	for i := range table.Rows {
		if _, err := r.ReadI32(); err != nil { // row_len, unused on decode
			return nil, err
		}
		row := make(Row, columnCount)
		for c := range row {
			v, err := wiretype.Read(columns[c].Type, r)
			if err != nil {
				return nil, err
			}
			row[c] = v
		}
		table.Rows[i] = row
	}
	return table, nil
}

// WriteTable encodes t per §3, reserving each length prefix's slot in the
// outer buffer, writing the payload, then back-patching the length — the
// idiomatic alternative to prependLength's O(n) shift called out in the
// protocol's design notes.
func WriteTable(t *Table, w *codec.Writer) error {
	tableLenPos := reserveI32(w)
	headerLenPos := reserveI32(w)

	headerStart := w.Size()
	w.WriteI16(int16(len(t.Columns)))
	for _, c := range t.Columns {
		w.WriteI8(int8(c.Type))
	}
	for _, c := range t.Columns {
		w.WriteString(nullString(c.Name))
	}
	patchI32(w, headerLenPos, w.Size()-headerStart)

	w.WriteI32(int32(len(t.Rows)))
	for _, row := range t.Rows {
		rowLenPos := reserveI32(w)
		rowStart := w.Size()
		for col, v := range row {
			if err := wiretype.Write(t.Columns[col].Type, v, w); err != nil {
				return err
			}
		}
		patchI32(w, rowLenPos, w.Size()-rowStart)
	}
	patchI32(w, tableLenPos, w.Size()-tableLenPos-4)
	return nil
}

func reserveI32(w *codec.Writer) int { return w.ReserveI32() }

func patchI32(w *codec.Writer, pos int, length int) { w.PatchI32(pos, int32(length)) }

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func valuesEqual(a, b wiretype.Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		return av == bv || (av != av && bv != bv) // NaN-tolerant equality for row comparisons
	case sql.NullString:
		bv, ok := b.(sql.NullString)
		return ok && av == bv
	case decimal.NullDecimal:
		bv, ok := b.(decimal.NullDecimal)
		if !ok || av.Valid != bv.Valid {
			return false
		}
		return !av.Valid || av.Decimal.Equal(bv.Decimal)
	default:
		return a == b
	}
}

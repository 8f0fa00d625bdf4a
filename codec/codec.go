// Package codec implements the primitive encode/decode operations for the
// DB's eight scalar wire types against an in-memory byte buffer. It knows
// nothing about wire-type tags or procedure framing; Writer only ever grows
// a byte slice and Reader only ever consumes one.
package codec

import (
	"database/sql"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/juju/errors"
)

// NullStringIndicator is the i32 length prefix that marks a NULL STRING.
const NullStringIndicator = -1

// ErrShortRead is returned when the reservoir is exhausted before a
// primitive finishes decoding. It poisons the owning Session.
var ErrShortRead = errors.New("codec: short read")

// ErrMalformed is returned when bytes violate the wire format: a negative
// length prefix outside the NULL sentinel, invalid UTF-8, or similar.
var ErrMalformed = errors.New("codec: malformed input")

// Writer accumulates bytes for a single outbound message. It mirrors the
// teacher's append-only Packet.data, but in the write direction: every
// Write* call grows buf and nothing is ever read back except via
// PrependLength/TakeBytes.
type Writer struct {
	order binary.ByteOrder
	buf   []byte
}

// NewWriter returns an empty Writer using order for multi-byte primitives.
func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{order: order, buf: make([]byte, 0, 256)}
}

// SetByteOrder changes the order used by subsequent writes.
func (w *Writer) SetByteOrder(order binary.ByteOrder) { w.order = order }

// Size returns the number of bytes currently accumulated.
func (w *Writer) Size() int { return len(w.buf) }

// WriteByte appends a single raw byte.
func (w *Writer) WriteByte(b byte) { w.buf = append(w.buf, b) }

// WriteI8 appends a signed byte.
func (w *Writer) WriteI8(v int8) { w.buf = append(w.buf, byte(v)) }

// WriteI16 appends a 2-byte signed integer.
func (w *Writer) WriteI16(v int16) {
	var tmp [2]byte
	w.order.PutUint16(tmp[:], uint16(v))
	w.buf = append(w.buf, tmp[:]...)
}

// WriteI32 appends a 4-byte signed integer.
func (w *Writer) WriteI32(v int32) {
	var tmp [4]byte
	w.order.PutUint32(tmp[:], uint32(v))
	w.buf = append(w.buf, tmp[:]...)
}

// WriteI64 appends an 8-byte signed integer.
func (w *Writer) WriteI64(v int64) {
	var tmp [8]byte
	w.order.PutUint64(tmp[:], uint64(v))
	w.buf = append(w.buf, tmp[:]...)
}

// WriteF64 appends the exact IEEE-754 bit pattern of v, including NaN
// payload and the sign of zero. Callers must never round-trip through a
// numeric comparison; compare bit patterns instead (see ReadF64).
func (w *Writer) WriteF64(v float64) {
	w.WriteI64(int64(math.Float64bits(v)))
}

// WriteRawBytes appends b unchanged, with no length prefix.
func (w *Writer) WriteRawBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteString encodes ns per the STRING wire type: a 4-byte length prefix
// (NullStringIndicator for NULL) followed by the UTF-8 bytes.
func (w *Writer) WriteString(ns sql.NullString) {
	if !ns.Valid {
		w.WriteI32(NullStringIndicator)
		return
	}
	encoded := []byte(ns.String)
	w.WriteI32(int32(len(encoded)))
	w.buf = append(w.buf, encoded...)
}

// WriteTimestamp encodes t, already given as signed microseconds since the
// Unix epoch, verbatim as an i64.
func (w *Writer) WriteTimestamp(t int64) { w.WriteI64(t) }

// WriteNull is a no-op: scalar numerics carry no in-band NULL marker. It
// exists so the dispatcher can treat every tag uniformly.
func (w *Writer) WriteNull() {}

// PrependLength inserts the current buffer size as a 4-byte i32 at offset
// 0, shifting existing content to the right, using the Writer's configured
// byte order (big-endian by default). The prefix excludes its own four
// bytes.
func (w *Writer) PrependLength() {
	length := len(w.buf)
	out := make([]byte, 4+length)
	w.order.PutUint32(out[:4], uint32(length))
	copy(out[4:], w.buf)
	w.buf = out
}

// ReserveI32 appends four placeholder bytes and returns their offset, for
// later back-patching with PatchI32 once the enclosed content's length is
// known. This avoids PrependLength's O(n) shift for nested frames (tables
// inside responses, rows inside tables, headers inside tables).
func (w *Writer) ReserveI32() int {
	pos := len(w.buf)
	w.buf = append(w.buf, 0, 0, 0, 0)
	return pos
}

// PatchI32 overwrites the 4 bytes at pos (previously returned by
// ReserveI32) with v, using the Writer's configured byte order.
func (w *Writer) PatchI32(pos int, v int32) {
	w.order.PutUint32(w.buf[pos:pos+4], uint32(v))
}

// TakeBytes returns the accumulated bytes and resets the Writer to empty.
func (w *Writer) TakeBytes() []byte {
	b := w.buf
	w.buf = make([]byte, 0, 256)
	return b
}

// Bytes returns the accumulated bytes without resetting the Writer.
func (w *Writer) Bytes() []byte { return w.buf }

// Reset discards any accumulated bytes, returning the Writer to empty
// without touching its configured byte order.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Reader consumes primitives from a fully buffered inbound message. It
// mirrors the teacher's Packet: a byte slice plus a monotonically
// advancing cursor.
type Reader struct {
	order binary.ByteOrder
	buf   []byte
	pos   int
}

// NewReader wraps buf for reading with the given byte order.
func NewReader(buf []byte, order binary.ByteOrder) *Reader {
	return &Reader{order: order, buf: buf}
}

// SetByteOrder changes the order used by subsequent reads.
func (r *Reader) SetByteOrder(order binary.ByteOrder) { r.order = order }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Skip advances the cursor by n bytes without interpreting them.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.Remaining() < n {
		return errors.Trace(ErrShortRead)
	}
	r.pos += n
	return nil
}

func (r *Reader) need(n int) error {
	if n < 0 || r.Remaining() < n {
		return errors.Trace(ErrShortRead)
	}
	return nil
}

// ReadByte consumes and returns one raw byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadI8 consumes a signed byte.
func (r *Reader) ReadI8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// ReadI16 consumes a 2-byte signed integer.
func (r *Reader) ReadI16() (int16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := int16(r.order.Uint16(r.buf[r.pos:]))
	r.pos += 2
	return v, nil
}

// ReadI32 consumes a 4-byte signed integer.
func (r *Reader) ReadI32() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := int32(r.order.Uint32(r.buf[r.pos:]))
	r.pos += 4
	return v, nil
}

// ReadI64 consumes an 8-byte signed integer.
func (r *Reader) ReadI64() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := int64(r.order.Uint64(r.buf[r.pos:]))
	r.pos += 8
	return v, nil
}

// ReadF64 consumes the exact IEEE-754 bit pattern of a double, including
// NaN payloads and the sign of zero.
func (r *Reader) ReadF64() (float64, error) {
	bits, err := r.ReadI64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

// ReadRaw consumes and returns exactly n bytes, with no interpretation.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadString consumes an i32 length prefix and, unless it is the NULL
// sentinel, that many UTF-8 bytes. It fails with ErrMalformed if the bytes
// are not valid UTF-8 or the length is negative but not the sentinel.
func (r *Reader) ReadString() (sql.NullString, error) {
	length, err := r.ReadI32()
	if err != nil {
		return sql.NullString{}, err
	}
	if length == NullStringIndicator {
		return sql.NullString{}, nil
	}
	if length < 0 {
		return sql.NullString{}, errors.Annotatef(ErrMalformed, "negative string length %d", length)
	}
	b, err := r.ReadRaw(int(length))
	if err != nil {
		return sql.NullString{}, err
	}
	if !utf8.Valid(b) {
		return sql.NullString{}, errors.Annotate(ErrMalformed, "invalid UTF-8 in string")
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// ReadTimestamp consumes an i64 microsecond-epoch value verbatim; 0 is a
// legitimate timestamp, not NULL.
func (r *Reader) ReadTimestamp() (int64, error) { return r.ReadI64() }

// array helpers: every array form is an i16 count followed by that many
// scalar elements, per spec.

// ReadI16Array consumes an i16 count, then that many 2-byte signed ints.
func (r *Reader) ReadI16Array() ([]int16, error) {
	n, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	out := make([]int16, n)
	for i := range out {
		if out[i], err = r.ReadI16(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadI8Array consumes an i16 count, then that many signed bytes.
func (r *Reader) ReadI8Array() ([]int8, error) {
	n, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	out := make([]int8, n)
	for i := range out {
		if out[i], err = r.ReadI8(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadI32Array consumes an i16 count, then that many 4-byte signed ints.
func (r *Reader) ReadI32Array() ([]int32, error) {
	n, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		if out[i], err = r.ReadI32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadI64Array consumes an i16 count, then that many 8-byte signed ints.
func (r *Reader) ReadI64Array() ([]int64, error) {
	n, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		if out[i], err = r.ReadI64(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadF64Array consumes an i16 count, then that many doubles.
func (r *Reader) ReadF64Array() ([]float64, error) {
	n, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		if out[i], err = r.ReadF64(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadStringArray consumes an i16 count, then that many STRING values.
func (r *Reader) ReadStringArray() ([]sql.NullString, error) {
	n, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	out := make([]sql.NullString, n)
	for i := range out {
		if out[i], err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadTimestampArray consumes an i16 count, then that many TIMESTAMP values.
func (r *Reader) ReadTimestampArray() ([]int64, error) {
	return r.ReadI64Array()
}

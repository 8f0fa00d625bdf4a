// Package wiretype is the Type Dispatcher: it maps a wire-type tag to the
// codec operation that reads or writes it, and implements the tagged-value
// and tagged-array framing built on top of the scalar codec.
package wiretype

import (
	"database/sql"

	"github.com/juju/errors"

	"github.com/YuRHere/voltdb/codec"
	"github.com/YuRHere/voltdb/decimal"
)

// Tag identifies a value's wire encoding (§3 of the protocol).
type Tag int8

// The closed set of wire-type tags.
const (
	Null          Tag = 1
	TinyInt       Tag = 3
	SmallInt      Tag = 4
	Integer       Tag = 5
	BigInt        Tag = 6
	Float         Tag = 8
	String        Tag = 9
	Timestamp     Tag = 11
	Money         Tag = 20
	VoltTable     Tag = 21
	Decimal       Tag = 22
	DecimalString Tag = 23

	// Array is the pseudo-tag used only in parameter framing to introduce
	// an element tag plus an i16-count-prefixed sequence.
	Array Tag = -99
)

// Observable constants re-exported verbatim per the external-interface
// contract.
const (
	NullStringIndicator = codec.NullStringIndicator
	DefaultDecimalScale = decimal.DefaultScale
)

// NullDecimalIndicator is the 16-byte DECIMAL NULL sentinel.
var NullDecimalIndicator = decimal.NullSentinel

// UnsupportedTypeError is raised when a tag outside the closed set is
// presented to the dispatcher, on either the read or write side.
type UnsupportedTypeError struct {
	Tag Tag
}

func (e UnsupportedTypeError) Error() string {
	return errors.Errorf("wiretype: unsupported wire type tag %d", int8(e.Tag)).Error()
}

// Value is a dynamically typed wire value. Concrete types used:
//   - int64            TINYINT, SMALLINT, INTEGER, BIGINT, MONEY
//   - float64          FLOAT
//   - sql.NullString   STRING, DECIMAL_STRING
//   - int64            TIMESTAMP (microseconds since epoch)
//   - decimal.NullDecimal  DECIMAL
//   - nil              NULL
type Value any

type reader func(*codec.Reader) (Value, error)
type writer func(*codec.Writer, Value) error
type arrayReader func(*codec.Reader) ([]Value, error)
type arrayWriter func(*codec.Writer, []Value) error

// readers/writers are fixed, tag-indexed dispatch tables: no closures over
// mutable state, just function pointers selected by tag at package init.
var readers [maxTag + 1]reader
var writers [maxTag + 1]writer
var arrayReaders [maxTag + 1]arrayReader
var arrayWriters [maxTag + 1]arrayWriter

const maxTag = 23

func init() {
	readers[Null] = func(r *codec.Reader) (Value, error) { return nil, nil }
	readers[TinyInt] = func(r *codec.Reader) (Value, error) {
		v, err := r.ReadI8()
		return int64(v), err
	}
	readers[SmallInt] = func(r *codec.Reader) (Value, error) {
		v, err := r.ReadI16()
		return int64(v), err
	}
	readers[Integer] = func(r *codec.Reader) (Value, error) {
		v, err := r.ReadI32()
		return int64(v), err
	}
	readers[BigInt] = func(r *codec.Reader) (Value, error) {
		v, err := r.ReadI64()
		return v, err
	}
	readers[Money] = func(r *codec.Reader) (Value, error) {
		v, err := r.ReadI64()
		return v, err
	}
	readers[Float] = func(r *codec.Reader) (Value, error) {
		v, err := r.ReadF64()
		return v, err
	}
	readers[String] = func(r *codec.Reader) (Value, error) {
		v, err := r.ReadString()
		return v, err
	}
	readers[DecimalString] = func(r *codec.Reader) (Value, error) {
		ns, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		if !ns.Valid {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.Parse(ns.String)
		if err != nil {
			return nil, err
		}
		return decimal.NullDecimal{Decimal: d, Valid: true}, nil
	}
	readers[Timestamp] = func(r *codec.Reader) (Value, error) {
		v, err := r.ReadTimestamp()
		return v, err
	}
	readers[Decimal] = func(r *codec.Reader) (Value, error) {
		raw, err := r.ReadRaw(16)
		if err != nil {
			return nil, err
		}
		var buf [16]byte
		copy(buf[:], raw)
		d, ok, err := decimal.Decode(buf)
		if err != nil {
			return nil, err
		}
		return decimal.NullDecimal{Decimal: d, Valid: ok}, nil
	}

	writers[Null] = func(w *codec.Writer, v Value) error { return nil }
	writers[TinyInt] = func(w *codec.Writer, v Value) error {
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		w.WriteI8(int8(n))
		return nil
	}
	writers[SmallInt] = func(w *codec.Writer, v Value) error {
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		w.WriteI16(int16(n))
		return nil
	}
	writers[Integer] = func(w *codec.Writer, v Value) error {
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		w.WriteI32(int32(n))
		return nil
	}
	writers[BigInt] = func(w *codec.Writer, v Value) error {
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		w.WriteI64(n)
		return nil
	}
	writers[Money] = writers[BigInt]
	writers[Float] = func(w *codec.Writer, v Value) error {
		f, err := asFloat64(v)
		if err != nil {
			return err
		}
		w.WriteF64(f)
		return nil
	}
	writers[String] = func(w *codec.Writer, v Value) error {
		ns, err := asNullString(v)
		if err != nil {
			return err
		}
		w.WriteString(ns)
		return nil
	}
	writers[DecimalString] = func(w *codec.Writer, v Value) error {
		nd, err := asNullDecimal(v)
		if err != nil {
			return err
		}
		if !nd.Valid {
			w.WriteString(sql.NullString{})
			return nil
		}
		w.WriteString(sql.NullString{String: nd.Decimal.EngineeringString(), Valid: true})
		return nil
	}
	writers[Timestamp] = func(w *codec.Writer, v Value) error {
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		w.WriteTimestamp(n)
		return nil
	}
	writers[Decimal] = func(w *codec.Writer, v Value) error {
		nd, err := asNullDecimal(v)
		if err != nil {
			return err
		}
		var buf [16]byte
		if nd.Valid {
			buf, err = nd.Decimal.Encode()
			if err != nil {
				return err
			}
		} else {
			buf = decimal.EncodeNull()
		}
		w.WriteRawBytes(buf[:])
		return nil
	}

	arrayReaders[TinyInt] = func(r *codec.Reader) ([]Value, error) {
		vals, err := r.ReadI8Array()
		return wrapInts(vals, err)
	}
	arrayReaders[SmallInt] = func(r *codec.Reader) ([]Value, error) {
		vals, err := r.ReadI16Array()
		return wrapInts(vals, err)
	}
	arrayReaders[Integer] = func(r *codec.Reader) ([]Value, error) {
		vals, err := r.ReadI32Array()
		return wrapInts(vals, err)
	}
	arrayReaders[BigInt] = func(r *codec.Reader) ([]Value, error) {
		vals, err := r.ReadI64Array()
		return wrapInts(vals, err)
	}
	arrayReaders[Money] = arrayReaders[BigInt]
	arrayReaders[Float] = func(r *codec.Reader) ([]Value, error) {
		vals, err := r.ReadF64Array()
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(vals))
		for i, v := range vals {
			out[i] = v
		}
		return out, nil
	}
	arrayReaders[String] = func(r *codec.Reader) ([]Value, error) {
		vals, err := r.ReadStringArray()
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(vals))
		for i, v := range vals {
			out[i] = v
		}
		return out, nil
	}
	arrayReaders[DecimalString] = func(r *codec.Reader) ([]Value, error) {
		count, err := r.ReadI16()
		if err != nil {
			return nil, err
		}
		out := make([]Value, count)
		for i := range out {
			v, err := readers[DecimalString](r)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	arrayReaders[Timestamp] = func(r *codec.Reader) ([]Value, error) {
		vals, err := r.ReadTimestampArray()
		return wrapInts(vals, err)
	}
	arrayReaders[Decimal] = func(r *codec.Reader) ([]Value, error) {
		count, err := r.ReadI16()
		if err != nil {
			return nil, err
		}
		out := make([]Value, count)
		for i := range out {
			v, err := readers[Decimal](r)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	arrayWriters[TinyInt] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, TinyInt, vs)
	}
	arrayWriters[SmallInt] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, SmallInt, vs)
	}
	arrayWriters[Integer] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, Integer, vs)
	}
	arrayWriters[BigInt] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, BigInt, vs)
	}
	arrayWriters[Money] = arrayWriters[BigInt]
	arrayWriters[Float] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, Float, vs)
	}
	arrayWriters[String] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, String, vs)
	}
	arrayWriters[DecimalString] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, DecimalString, vs)
	}
	arrayWriters[Timestamp] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, Timestamp, vs)
	}
	arrayWriters[Decimal] = func(w *codec.Writer, vs []Value) error {
		return writeArrayElems(w, Decimal, vs)
	}
}

func wrapInts[T ~int8 | ~int16 | ~int32 | ~int64](vals []T, err error) ([]Value, error) {
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return out, nil
}

func asInt64(v Value) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, errors.Errorf("wiretype: expected integer value, got %T", v)
	}
}

func asFloat64(v Value) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, errors.Errorf("wiretype: expected float64 value, got %T", v)
	}
	return f, nil
}

func asNullString(v Value) (sql.NullString, error) {
	switch s := v.(type) {
	case sql.NullString:
		return s, nil
	case string:
		return sql.NullString{String: s, Valid: true}, nil
	case nil:
		return sql.NullString{}, nil
	default:
		return sql.NullString{}, errors.Errorf("wiretype: expected string value, got %T", v)
	}
}

func asNullDecimal(v Value) (decimal.NullDecimal, error) {
	switch d := v.(type) {
	case decimal.NullDecimal:
		return d, nil
	case decimal.Decimal:
		return decimal.NullDecimal{Decimal: d, Valid: true}, nil
	case nil:
		return decimal.NullDecimal{}, nil
	default:
		return decimal.NullDecimal{}, errors.Errorf("wiretype: expected decimal value, got %T", v)
	}
}

// Read invokes the reader registered for tag.
func Read(tag Tag, r *codec.Reader) (Value, error) {
	fn, err := lookupReader(tag)
	if err != nil {
		return nil, err
	}
	return fn(r)
}

// Write invokes the writer registered for tag, with a dynamic type check.
func Write(tag Tag, v Value, w *codec.Writer) error {
	fn, err := lookupWriter(tag)
	if err != nil {
		return err
	}
	return fn(w, v)
}

// ReadTagged reads a leading tag byte, then dispatches on it.
func ReadTagged(r *codec.Reader) (Tag, Value, error) {
	b, err := r.ReadI8()
	if err != nil {
		return 0, nil, err
	}
	tag := Tag(b)
	v, err := Read(tag, r)
	return tag, v, err
}

// WriteTagged writes the tag byte, then the value.
func WriteTagged(tag Tag, v Value, w *codec.Writer) error {
	w.WriteI8(int8(tag))
	return Write(tag, v, w)
}

// WriteArray writes an i16 count followed by each element via the scalar
// writer for tag. A nil slice writes nothing at all (the "unset"
// behavior inherited from the source serializer); a non-nil, possibly
// empty slice writes an i16 count of 0. See DESIGN.md Open Question
// Decisions.
func WriteArray(tag Tag, values []Value, w *codec.Writer) error {
	if values == nil {
		return nil
	}
	fn, err := lookupArrayWriter(tag)
	if err != nil {
		return err
	}
	return fn(w, values)
}

func writeArrayElems(w *codec.Writer, tag Tag, values []Value) error {
	w.WriteI16(int16(len(values)))
	fn, err := lookupWriter(tag)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := fn(w, v); err != nil {
			return err
		}
	}
	return nil
}

// WriteTaggedArray writes the ARRAY marker byte, the element tag byte,
// then the array per WriteArray.
func WriteTaggedArray(tag Tag, values []Value, w *codec.Writer) error {
	w.WriteI8(int8(Array))
	w.WriteI8(int8(tag))
	return WriteArray(tag, values, w)
}

// ReadArray reads an i16-count-prefixed array of tag-typed scalars.
func ReadArray(tag Tag, r *codec.Reader) ([]Value, error) {
	fn, err := lookupArrayReader(tag)
	if err != nil {
		return nil, err
	}
	return fn(r)
}

func lookupReader(tag Tag) (reader, error) {
	if tag < 0 || int(tag) > maxTag || readers[tag] == nil {
		return nil, UnsupportedTypeError{Tag: tag}
	}
	return readers[tag], nil
}

func lookupWriter(tag Tag) (writer, error) {
	if tag < 0 || int(tag) > maxTag || writers[tag] == nil {
		return nil, UnsupportedTypeError{Tag: tag}
	}
	return writers[tag], nil
}

func lookupArrayReader(tag Tag) (arrayReader, error) {
	if tag < 0 || int(tag) > maxTag || arrayReaders[tag] == nil {
		return nil, UnsupportedTypeError{Tag: tag}
	}
	return arrayReaders[tag], nil
}

func lookupArrayWriter(tag Tag) (arrayWriter, error) {
	if tag < 0 || int(tag) > maxTag || arrayWriters[tag] == nil {
		return nil, UnsupportedTypeError{Tag: tag}
	}
	return arrayWriters[tag], nil
}

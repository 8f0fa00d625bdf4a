package codec

import (
	"database/sql"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteStringEmpty(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	w.WriteString(sql.NullString{String: "", Valid: true})
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, w.Bytes())
}

func TestWriteStringNull(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	w.WriteString(sql.NullString{})
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, w.Bytes())
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "hello", "héllo wörld", "日本語"}
	for _, s := range cases {
		w := NewWriter(binary.BigEndian)
		w.WriteString(sql.NullString{String: s, Valid: true})
		r := NewReader(w.Bytes(), binary.BigEndian)
		got, err := r.ReadString()
		require.NoError(t, err)
		require.True(t, got.Valid)
		require.Equal(t, s, got.String)
	}
}

func TestStringRoundTripNull(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	w.WriteString(sql.NullString{})
	r := NewReader(w.Bytes(), binary.BigEndian)
	got, err := r.ReadString()
	require.NoError(t, err)
	require.False(t, got.Valid)
}

func TestReadStringInvalidUTF8(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	w.WriteI32(2)
	w.WriteRawBytes([]byte{0xff, 0xfe})
	r := NewReader(w.Bytes(), binary.BigEndian)
	_, err := r.ReadString()
	require.Error(t, err)
}

func TestScalarRoundTrip(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	w.WriteI8(-12)
	w.WriteI16(-1234)
	w.WriteI32(-123456789)
	w.WriteI64(-1234567890123)
	w.WriteTimestamp(1700000000000000)

	r := NewReader(w.Bytes(), binary.BigEndian)
	i8, err := r.ReadI8()
	require.NoError(t, err)
	require.EqualValues(t, -12, i8)

	i16, err := r.ReadI16()
	require.NoError(t, err)
	require.EqualValues(t, -1234, i16)

	i32, err := r.ReadI32()
	require.NoError(t, err)
	require.EqualValues(t, -123456789, i32)

	i64, err := r.ReadI64()
	require.NoError(t, err)
	require.EqualValues(t, -1234567890123, i64)

	ts, err := r.ReadTimestamp()
	require.NoError(t, err)
	require.EqualValues(t, 1700000000000000, ts)
}

func TestF64NaNPreservation(t *testing.T) {
	bitPatterns := []uint64{
		math.Float64bits(math.NaN()),
		0x7ff8000000000001, // a distinct quiet NaN payload
		0xfff0000000000000, // negative infinity
		0x8000000000000000, // negative zero
	}
	for _, bits := range bitPatterns {
		v := math.Float64frombits(bits)
		w := NewWriter(binary.BigEndian)
		w.WriteF64(v)
		require.Equal(t, bits, binary.BigEndian.Uint64(w.Bytes()))

		r := NewReader(w.Bytes(), binary.BigEndian)
		got, err := r.ReadF64()
		require.NoError(t, err)
		require.Equal(t, bits, math.Float64bits(got))
	}
}

func TestFramingPrependLength(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	payload := []byte{1, 2, 3, 4, 5}
	w.WriteRawBytes(payload)
	w.PrependLength()

	got := w.Bytes()
	require.Len(t, got, 4+len(payload))
	require.Equal(t, uint32(len(payload)), binary.BigEndian.Uint32(got[:4]))
	require.Equal(t, payload, got[4:])
}

func TestNestedLengthReservation(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	pos := w.ReserveI32()
	w.WriteRawBytes([]byte{9, 9, 9})
	w.PatchI32(pos, int32(w.Size()-pos-4))

	r := NewReader(w.Bytes(), binary.BigEndian)
	n, err := r.ReadI32()
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestShortRead(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01}, binary.BigEndian)
	_, err := r.ReadI32()
	require.Error(t, err)
}

func TestArrayRoundTrip(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	w.WriteI16(3)
	w.WriteI32(1)
	w.WriteI32(2)
	w.WriteI32(3)

	r := NewReader(w.Bytes(), binary.BigEndian)
	got, err := r.ReadI32Array()
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, got)
}

func TestLittleEndianByteOrder(t *testing.T) {
	w := NewWriter(binary.LittleEndian)
	w.WriteI32(42)
	r := NewReader(w.Bytes(), binary.LittleEndian)
	v, err := r.ReadI32()
	require.NoError(t, err)
	require.EqualValues(t, 42, v)
	require.Equal(t, []byte{42, 0, 0, 0}, w.Bytes())
}

package decimal

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	cases := map[string]string{
		"1.5":        "1.500000000000",
		"-12.34":     "-12.340000000000",
		"0":          "0.000000000000",
		"0.000000000001": "0.000000000001",
		"1.5E+3":     "1500.000000000000",
	}
	for in, want := range cases {
		d, err := Parse(in)
		require.NoError(t, err, in)
		require.Equal(t, want, d.String(), in)
	}
}

func TestParseRejectsExcessScale(t *testing.T) {
	_, err := Parse("1.1234567890123")
	require.Error(t, err)
}

func TestParseRejectsExcessPrecision(t *testing.T) {
	_, err := Parse("123456789012345678901234567.5")
	require.Error(t, err)
}

// Scenario S3: decimal 1.5 encodes to unscaled 1500000000000 (scale 12) in
// 16 big-endian sign-magnitude bytes.
func TestEncodeOnePointFive(t *testing.T) {
	d, err := Parse("1.5")
	require.NoError(t, err)
	buf, err := d.Encode()
	require.NoError(t, err)

	want, err := hex.DecodeString("00000000000000000000015d3ef79800")
	require.NoError(t, err)
	require.Equal(t, want, buf[:])
}

// Scenario S4: NULL DECIMAL encodes as the minimum signed 128-bit integer.
func TestEncodeNullSentinel(t *testing.T) {
	got := EncodeNull()
	want := [16]byte{0x80}
	require.Equal(t, want, got)
}

func TestDecodeNullSentinelRoundTrip(t *testing.T) {
	buf := EncodeNull()
	d, ok, err := Decode(buf)
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, d.Equal(Zero))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	values := []string{"1.5", "-1.5", "0", "99999999999999999999999999.999999999999", "-0.000000000001"}
	for _, s := range values {
		d, err := Parse(s)
		require.NoError(t, err, s)
		buf, err := d.Encode()
		require.NoError(t, err, s)
		got, ok, err := Decode(buf)
		require.NoError(t, err, s)
		require.True(t, ok, s)
		require.True(t, d.Equal(got), s)
	}
}

func TestDecodeClearsSignBitRatherThanMasking(t *testing.T) {
	// byte0 = 0x81 -> negative flag set, magnitude low 7 bits = 0x01
	var buf [16]byte
	buf[0] = 0x81
	buf[15] = 0x01
	d, ok, err := Decode(buf)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, d.Negative())
	require.False(t, d.Equal(Zero))
}

func TestNegativeZeroCanonicalizesNonNegative(t *testing.T) {
	d, err := Parse("-0")
	require.NoError(t, err)
	require.False(t, d.Negative())
	buf, err := d.Encode()
	require.NoError(t, err)
	require.NotEqual(t, NullSentinel, buf)
	require.Equal(t, byte(0), buf[0]&0x80)
}

func TestEncodeDomainErrorOnOverflow(t *testing.T) {
	d, err := Parse("99999999999999999999999999.999999999999")
	require.NoError(t, err)
	_, err = d.Encode()
	require.NoError(t, err) // fits in 127 bits (26 int digits + 12 scale)

	_, err = Parse("999999999999999999999999999.999999999999")
	require.Error(t, err) // 27 integer digits exceeds maxIntegerDigits
}

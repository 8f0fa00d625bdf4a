package voltdb

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/require"

	"github.com/YuRHere/voltdb/decimal"
	"github.com/YuRHere/voltdb/internal/scramble"
	"github.com/YuRHere/voltdb/voltable"
	"github.com/YuRHere/voltdb/wiretype"
)

func buildLoginResponse(status byte) []byte {
	var body bytes.Buffer
	body.WriteByte(3) // server version
	body.WriteByte(status)
	var i32 [4]byte
	binary.BigEndian.PutUint32(i32[:], 7) // host id
	body.Write(i32[:])
	var i64 [8]byte
	binary.BigEndian.PutUint64(i64[:], 123) // connection id
	body.Write(i64[:])
	binary.BigEndian.PutUint64(i64[:], 456) // cluster start time
	body.Write(i64[:])
	binary.BigEndian.PutUint32(i32[:], 0) // leader address
	body.Write(i32[:])
	binary.BigEndian.PutUint32(i32[:], 0) // build string length
	body.Write(i32[:])

	var framed bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(body.Len()))
	framed.Write(lenBuf[:])
	framed.Write(body.Bytes())
	return framed.Bytes()
}

func TestLoginSuccess(t *testing.T) {
	conn := newFakeConn(buildLoginResponse(0))
	s := NewSession(conn, Config{Username: "alice", Password: "swordfish"})
	require.NoError(t, s.Login())
	require.EqualValues(t, 3, s.Server.Version)
	require.EqualValues(t, 7, s.Server.HostID)
	require.EqualValues(t, 123, s.Server.ConnectionID)
	require.EqualValues(t, 456, s.Server.ClusterStartTime)

	out := conn.outbox.Bytes()
	lenPrefix := binary.BigEndian.Uint32(out[:4])
	require.EqualValues(t, len(out)-4, lenPrefix)
	require.Equal(t, byte(0), out[4]) // protocol version
	unameLen := binary.BigEndian.Uint32(out[5:9])
	require.EqualValues(t, len("alice"), unameLen)
	require.Equal(t, "alice", string(out[9:9+unameLen]))
	digest := scramble.Digest("swordfish")
	require.Equal(t, digest[:], out[9+unameLen:])
}

func TestLoginAuthFailureDoesNotPoison(t *testing.T) {
	conn := newFakeConn(buildLoginResponse(1))
	s := NewSession(conn, Config{Username: "bob", Password: "wrong"})
	err := s.Login()
	require.ErrorIs(t, err, ErrAuthFailed)
	require.NoError(t, s.checkPoisoned())
}

func TestLoginShortReadPoisons(t *testing.T) {
	conn := newFakeConn([]byte{0x00, 0x00})
	s := NewSession(conn, Config{Username: "x", Password: "y"})
	err := s.Login()
	require.Error(t, err)
	require.Error(t, s.checkPoisoned())

	err2 := s.Login()
	require.Error(t, err2)
}

// Scenario S5 (corrected length prefix): a call to "Foo" with handle 1 and
// one INTEGER parameter 42 frames as version, string, handle, param count,
// tag, value.
func TestCallFramingMatchesWireLayout(t *testing.T) {
	conn := newFakeConn(nil)
	s := NewSession(conn, Config{})
	_, err := s.Call("Foo", 1, []Param{{Type: wiretype.Integer, Value: int64(42)}}, false, time.Time{})
	require.NoError(t, err)

	out := conn.outbox.Bytes()
	expected, decodeErr := hex.DecodeString("00000017" + "00" + "00000003" + "466f6f" + "0000000000000001" + "0001" + "05" + "0000002a")
	require.NoError(t, decodeErr)
	require.Equal(t, expected, out)
}

func TestCallWithResponse(t *testing.T) {
	var body bytes.Buffer
	body.WriteByte(0) // version
	body.WriteByte(byte(int8(voltable.StatusOK)))
	var i32 [4]byte
	binary.BigEndian.PutUint32(i32[:], 3)
	body.Write(i32[:]) // roundtrip
	var i16 [2]byte
	binary.BigEndian.PutUint16(i16[:], 0)
	body.Write(i16[:]) // empty exception
	body.Write(i16[:]) // zero tables
	body.Write([]byte{0x00, 0x00, 0x00, 0x00})
	var i64 [8]byte
	binary.BigEndian.PutUint64(i64[:], 1)
	body.Write(i64[:]) // client handle

	var framed bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(body.Len()))
	framed.Write(lenBuf[:])
	framed.Write(body.Bytes())

	conn := newFakeConn(framed.Bytes())
	s := NewSession(conn, Config{})
	resp, err := s.Call("Foo", 1, nil, true, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, voltable.StatusOK, resp.Status)
	require.EqualValues(t, 1, resp.ClientHandle)
}

func TestNextHandleMonotonic(t *testing.T) {
	a := NextHandle()
	b := NextHandle()
	require.Greater(t, b, a)
}

// A mid-parameter-loop encode failure must discard the partially written
// accumulator, not leave it to corrupt the next flushed message.
func TestCallParamEncodeFailureDiscardsAccumulator(t *testing.T) {
	conn := newFakeConn(nil)
	s := NewSession(conn, Config{})

	_, err := s.Call("Bad", 1, []Param{{Type: wiretype.Tag(99), Value: int64(1)}}, false, time.Time{})
	require.Error(t, err)
	require.NoError(t, s.checkPoisoned()) // caller-visible, non-poisoning
	require.Zero(t, s.transport.Writer().Size())

	// A subsequent, valid call must not carry over any leftover bytes.
	_, err = s.Call("Foo", 1, []Param{{Type: wiretype.Integer, Value: int64(42)}}, false, time.Time{})
	require.NoError(t, err)

	expected, decodeErr := hex.DecodeString("00000017" + "00" + "00000003" + "466f6f" + "0000000000000001" + "0001" + "05" + "0000002a")
	require.NoError(t, decodeErr)
	require.Equal(t, expected, conn.outbox.Bytes())
}

func TestWrapParamErrorTranslatesDecimalDomainError(t *testing.T) {
	cause := errors.Annotate(decimal.ErrDomain, "scale 13 exceeds max 12")
	wrapped := wrapParamError(cause)
	var domErr DomainError
	require.ErrorAs(t, wrapped, &domErr)
}

func TestWrapParamErrorPassesThroughOtherErrors(t *testing.T) {
	orig := wiretype.UnsupportedTypeError{Tag: 99}
	wrapped := wrapParamError(orig)
	require.Equal(t, orig, wrapped)
}

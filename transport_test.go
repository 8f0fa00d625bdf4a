package voltdb

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory Conn: writes land in outbox, reads are served
// from a fixed inbox buffer. It never times out.
type fakeConn struct {
	inbox  *bytes.Reader
	outbox bytes.Buffer
	closed bool
}

func newFakeConn(inbox []byte) *fakeConn {
	return &fakeConn{inbox: bytes.NewReader(inbox)}
}

func (c *fakeConn) Read(p []byte) (int, error)             { return c.inbox.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error)             { return c.outbox.Write(p) }
func (c *fakeConn) SetReadDeadline(t time.Time) error       { return nil }
func (c *fakeConn) Close() error                            { c.closed = true; return nil }

func TestTransportFlushPrependsLength(t *testing.T) {
	conn := newFakeConn(nil)
	tr := NewTransport(conn, BigEndian)
	tr.Writer().WriteI32(42)
	require.NoError(t, tr.Flush())

	out := conn.outbox.Bytes()
	require.Len(t, out, 8)
	require.EqualValues(t, 4, binary.BigEndian.Uint32(out[:4]))
	require.EqualValues(t, 42, binary.BigEndian.Uint32(out[4:]))
}

func TestTransportBufferForReadOneMessage(t *testing.T) {
	body := []byte{1, 2, 3, 4}
	var framed bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	framed.Write(lenBuf[:])
	framed.Write(body)

	conn := newFakeConn(framed.Bytes())
	tr := NewTransport(conn, BigEndian)
	require.NoError(t, tr.BufferForRead(time.Time{}))
	require.Equal(t, 4, tr.Reader().Remaining())
}

func TestTransportBufferForReadShortInputIsDisconnected(t *testing.T) {
	conn := newFakeConn([]byte{0x00, 0x00})
	tr := NewTransport(conn, BigEndian)
	err := tr.BufferForRead(time.Time{})
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestTransportOfflineModeFailsFlush(t *testing.T) {
	tr := NewTransport(nil, BigEndian)
	tr.Writer().WriteI32(1)
	err := tr.Flush()
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestTransportSetInputByteOrderAffectsSubsequentWrites(t *testing.T) {
	conn := newFakeConn(nil)
	tr := NewTransport(conn, BigEndian)
	tr.SetInputByteOrder(1) // little-endian
	tr.Writer().WriteI32(1)
	require.NoError(t, tr.Flush())

	out := conn.outbox.Bytes()
	require.EqualValues(t, 4, binary.LittleEndian.Uint32(out[:4]))
	require.EqualValues(t, 1, binary.LittleEndian.Uint32(out[4:]))
}

var _ io.Reader = (*fakeConn)(nil)

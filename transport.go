package voltdb

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/juju/errors"
	"github.com/op/go-logging"

	"github.com/YuRHere/voltdb/codec"
)

var log = logging.MustGetLogger("voltdb")

// Conn is the byte-stream transport this engine requires: blocking
// read/write plus a deadline setter. TCP with TCP_NODELAY is the intended
// substrate, but socket creation, DNS, and TLS are all external
// collaborators — Transport only ever sees an already-established Conn.
type Conn interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
	Close() error
}

// Transport owns the byte stream plus the accumulator/reservoir pair: a
// growable write-side buffer built up by the codec and flushed as one
// write, and a read-side reservoir sized for exactly one fully buffered
// inbound message. It mirrors the teacher's readPacket/writePacket pair,
// generalized from a 3-byte little-endian MySQL packet length to this
// protocol's 4-byte length prefix (default big-endian, overridable once
// per connection via SetInputByteOrder).
type Transport struct {
	conn  Conn
	order binary.ByteOrder

	accumulator *codec.Writer
	reservoir   *codec.Reader
}

// NewTransport wraps conn (nil for offline codec-only mode) with empty
// accumulator/reservoir buffers using order for the wire's default byte
// order.
func NewTransport(conn Conn, order ByteOrderMode) *Transport {
	bo := byteOrderOf(order)
	return &Transport{
		conn:        conn,
		order:       bo,
		accumulator: codec.NewWriter(bo),
		reservoir:   codec.NewReader(nil, bo),
	}
}

func byteOrderOf(mode ByteOrderMode) binary.ByteOrder {
	if mode == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// SetInputByteOrder is the one-shot per-connection byte-order override:
// value 1 selects little-endian, anything else selects big-endian. It
// applies to all subsequent reads and writes on this Transport. Setting
// the same mode twice leaves all codec output bit-identical.
func (t *Transport) SetInputByteOrder(mode int) {
	var order ByteOrderMode
	if mode == 1 {
		order = LittleEndian
	} else {
		order = BigEndian
	}
	bo := byteOrderOf(order)
	t.order = bo
	t.accumulator.SetByteOrder(bo)
	t.reservoir.SetByteOrder(bo)
}

// Writer returns the write-side accumulator for the caller to encode into.
func (t *Transport) Writer() *codec.Writer { return t.accumulator }

// DiscardWrite drops any bytes the accumulator holds, for callers that
// abandon a partially encoded message after a caller-visible, non-poisoning
// error (DomainError, UnsupportedTypeError) — the Session itself stays
// usable but the half-written request must never reach Flush.
func (t *Transport) DiscardWrite() { t.accumulator.Reset() }

// Reader returns the read-side reservoir, valid after a successful call to
// BufferForRead.
func (t *Transport) Reader() *codec.Reader { return t.reservoir }

// Flush prepends the accumulator's length and sends it as a single
// contiguous write, then resets the accumulator to empty. It fails with
// ErrDisconnected if the socket errors or was never established.
func (t *Transport) Flush() error {
	if t.conn == nil {
		return errors.Trace(ErrDisconnected)
	}
	t.accumulator.PrependLength()
	payload := t.accumulator.TakeBytes()
	if _, err := t.conn.Write(payload); err != nil {
		return errors.Annotate(ErrDisconnected, err.Error())
	}
	return nil
}

// BufferForRead reads exactly four bytes for the inbound length prefix,
// then reads exactly that many further bytes into the reservoir. Both
// phases loop until the requested byte count is accumulated; a read that
// returns zero bytes before completion is ErrDisconnected. After this call
// the reservoir holds one complete message, positioned at offset 0.
func (t *Transport) BufferForRead(deadline time.Time) error {
	if t.conn == nil {
		return errors.Trace(ErrDisconnected)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return errors.Annotate(ErrDisconnected, err.Error())
	}

	lengthBuf := make([]byte, 4)
	if err := t.readFull(lengthBuf); err != nil {
		return err
	}
	length := t.order.Uint32(lengthBuf)

	body := make([]byte, length)
	if err := t.readFull(body); err != nil {
		return err
	}

	t.reservoir = codec.NewReader(body, t.order)
	return nil
}

// readFull loops read() until buf is completely filled, translating a
// timeout into ErrTimeout and any other short read into ErrDisconnected.
func (t *Transport) readFull(buf []byte) error {
	filled := 0
	for filled < len(buf) {
		n, err := t.conn.Read(buf[filled:])
		if n == 0 && err == nil {
			return errors.Trace(ErrDisconnected)
		}
		filled += n
		if err != nil {
			if isTimeout(err) {
				return errors.Trace(ErrTimeout)
			}
			if err == io.EOF && filled < len(buf) {
				return errors.Trace(ErrDisconnected)
			}
			if err != io.EOF {
				return errors.Annotate(ErrDisconnected, err.Error())
			}
		}
	}
	return nil
}

func isTimeout(err error) bool {
	type timeoutErr interface{ Timeout() bool }
	te, ok := err.(timeoutErr)
	return ok && te.Timeout()
}

// Close releases the underlying connection, if any.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

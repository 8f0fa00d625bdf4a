package voltdb

import (
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/juju/errors"

	"github.com/YuRHere/voltdb/decimal"
	"github.com/YuRHere/voltdb/internal/scramble"
	"github.com/YuRHere/voltdb/voltable"
	"github.com/YuRHere/voltdb/wiretype"
)

// handleSeq is a process-wide monotonic counter backing Session.NextHandle
// for callers who don't want to track client handles themselves. It is
// process-wide (not per-Session) so multiple single-threaded Sessions
// sharing a process never collide.
var handleSeq int64

// ServerInfo is the fixed set of fields the server returns as part of the
// login handshake, beyond the bare pass/fail status.
type ServerInfo struct {
	Version            uint8
	HostID             int32
	ConnectionID       int64
	ClusterStartTime   int64
	LeaderAddress      int32
}

// Session performs the login handshake, manages the procedure-call request
// format, and drives the Transport. A Session is single-threaded and
// synchronous: it holds exclusive ownership of its Transport, write
// accumulator, and read reservoir, and is not safe for concurrent use.
// Disconnected, ShortRead, Malformed, and Timeout poison the Session —
// every subsequent operation fails fast once poisoned.
type Session struct {
	transport *Transport
	config    Config

	poisoned  bool
	poisonErr error

	Server ServerInfo
}

// NewSession constructs a Session around a Transport built from cfg. It
// does not perform the handshake; call Login to authenticate.
func NewSession(conn Conn, cfg Config) *Session {
	return &Session{
		transport: NewTransport(conn, cfg.InputByteOrder),
		config:    cfg,
	}
}

// NextHandle returns a process-wide monotonically increasing client
// handle, a convenience for callers who don't want to allocate their own.
func NextHandle() int64 { return atomic.AddInt64(&handleSeq, 1) }

func (s *Session) fail(cause error) error {
	s.poisoned = true
	s.poisonErr = cause
	return cause
}

func (s *Session) checkPoisoned() error {
	if s.poisoned {
		return errors.Annotate(s.poisonErr, "voltdb: session is poisoned")
	}
	return nil
}

// Login performs the authentication handshake: protocol version, username,
// and a raw SHA-1 password digest outbound; server version, auth status,
// host id, connection id, cluster start time, leader address, and a
// discarded build-description byte array inbound. A non-zero auth status
// fails with ErrAuthFailed and does not poison the Session (the caller may
// still Close it cleanly).
func (s *Session) Login() error {
	if err := s.checkPoisoned(); err != nil {
		return err
	}
	log.Debugf("voltdb: beginning login handshake as %q", s.config.Username)

	w := s.transport.Writer()
	w.WriteByte(0) // protocol version
	w.WriteString(sql.NullString{String: s.config.Username, Valid: true})
	digest := scramble.Digest(s.config.Password)
	w.WriteRawBytes(digest[:])

	if err := s.transport.Flush(); err != nil {
		return s.fail(err)
	}

	if err := s.transport.BufferForRead(s.responseDeadline()); err != nil {
		return s.fail(err)
	}
	r := s.transport.Reader()

	serverVersion, err := r.ReadByte()
	if err != nil {
		return s.fail(err)
	}
	status, err := r.ReadByte()
	if err != nil {
		return s.fail(err)
	}
	if status != 0 {
		log.Warningf("voltdb: login rejected for %q", s.config.Username)
		return errors.Trace(ErrAuthFailed)
	}

	hostID, err := r.ReadI32()
	if err != nil {
		return s.fail(err)
	}
	connID, err := r.ReadI64()
	if err != nil {
		return s.fail(err)
	}
	clusterStart, err := r.ReadI64()
	if err != nil {
		return s.fail(err)
	}
	leaderAddr, err := r.ReadI32()
	if err != nil {
		return s.fail(err)
	}
	buildLen, err := r.ReadI32()
	if err != nil {
		return s.fail(err)
	}
	if buildLen > 0 {
		if _, err := r.ReadRaw(int(buildLen)); err != nil {
			return s.fail(err)
		}
	}

	s.Server = ServerInfo{
		Version:          serverVersion,
		HostID:           hostID,
		ConnectionID:     connID,
		ClusterStartTime: clusterStart,
		LeaderAddress:    leaderAddr,
	}
	log.Debugf("voltdb: login succeeded, connection id %d", connID)
	return nil
}

// Param is one positional argument to a procedure call: a scalar Value
// (strings always scalar, never treated as a sequence of characters) or a
// slice of Values to be sent as a tagged array.
type Param struct {
	Type  wiretype.Tag
	Value wiretype.Value // a scalar, or []wiretype.Value for an array parameter
}

// Call invokes a stored procedure. If waitForResponse is true, Call drives
// a BufferForRead and decodes a Response; otherwise it returns (nil, nil)
// once the request is flushed. deadline bounds the response read only —
// cancellation never interrupts an in-flight Flush.
func (s *Session) Call(name string, handle int64, params []Param, waitForResponse bool, deadline time.Time) (*Response, error) {
	if err := s.checkPoisoned(); err != nil {
		return nil, err
	}

	w := s.transport.Writer()
	w.WriteByte(0) // version
	w.WriteString(sql.NullString{String: name, Valid: true})
	w.WriteI64(handle)
	w.WriteI16(int16(len(params)))

	for _, p := range params {
		if values, isArray := p.Value.([]wiretype.Value); isArray {
			if err := wiretype.WriteTaggedArray(p.Type, values, w); err != nil {
				s.transport.DiscardWrite()
				return nil, wrapParamError(err)
			}
			continue
		}
		if err := wiretype.WriteTagged(p.Type, p.Value, w); err != nil {
			s.transport.DiscardWrite()
			return nil, wrapParamError(err)
		}
	}

	if err := s.transport.Flush(); err != nil {
		return nil, s.fail(err)
	}

	if !waitForResponse {
		return nil, nil
	}

	if err := s.transport.BufferForRead(deadline); err != nil {
		return nil, s.fail(err)
	}
	resp, err := voltable.ReadResponse(s.transport.Reader())
	if err != nil {
		return nil, s.fail(err)
	}
	log.Debugf("voltdb: call %q (handle %d) returned status %d, %d table(s)", name, handle, resp.Status, len(resp.Tables))
	return resp, nil
}

// wrapParamError translates a decimal scale/precision violation surfacing
// from the Type Dispatcher into the caller-visible DomainError the
// parameter-encoding contract promises; every other dispatcher error
// (UnsupportedTypeError, a Go-side type mismatch) passes through unchanged.
func wrapParamError(err error) error {
	if errors.Cause(err) == decimal.ErrDomain {
		return DomainError{Reason: err.Error()}
	}
	return err
}

func (s *Session) responseDeadline() time.Time {
	if s.config.ResponseTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.config.ResponseTimeout)
}

// Close releases the underlying Transport's connection.
func (s *Session) Close() error {
	return s.transport.Close()
}

package voltable

import (
	"database/sql"

	"github.com/juju/errors"

	"github.com/YuRHere/voltdb/codec"
)

// Exception kinds carried in the response envelope's exception block.
const (
	ExceptionNone             = 0
	ExceptionEE               = 1
	ExceptionSQL              = 2
	ExceptionConstraintFailed = 3
	ExceptionGeneric          = 4
)

// ServerException is the decoded server-side exception block. It is data
// attached to a Response, never returned as the procedure call's error —
// the wire format treats it as a normal, successfully-decoded field.
type ServerException struct {
	Kind    int
	Message string

	// EE exception (kind 1)
	ErrorCode int32

	// SQL exception / constraint failure (kind 2, 3)
	SQLState string

	// Constraint failure only (kind 3)
	ConstraintType int32
	TableID        int32
	Tuple          []byte
}

// Empty reports whether the exception block carried no exception.
func (e *ServerException) Empty() bool { return e == nil || e.Kind == ExceptionNone }

// readException decodes the exception block: an i16 total length, and if
// non-zero a u8 kind followed by a kind-specific payload. The embedded
// message uses an i16 length prefix here — a deliberate deviation from the
// general i32-prefixed STRING encoding, preserved exactly.
func readException(r *codec.Reader) (*ServerException, error) {
	length, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}

	kindByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	exc := &ServerException{Kind: int(kindByte)}
	if exc.Kind == ExceptionNone {
		return exc, nil
	}

	readMessage := func() (string, int, error) {
		msgLen, err := r.ReadI16()
		if err != nil {
			return "", 0, err
		}
		b, err := r.ReadRaw(int(msgLen))
		if err != nil {
			return "", 0, err
		}
		return string(b), int(msgLen), nil
	}

	switch exc.Kind {
	case ExceptionGeneric:
		msg, _, err := readMessage()
		if err != nil {
			return nil, err
		}
		exc.Message = msg
	case ExceptionEE:
		msg, _, err := readMessage()
		if err != nil {
			return nil, err
		}
		exc.Message = msg
		code, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		exc.ErrorCode = code
	case ExceptionSQL, ExceptionConstraintFailed:
		msg, _, err := readMessage()
		if err != nil {
			return nil, err
		}
		exc.Message = msg
		sqlState, err := r.ReadRaw(5)
		if err != nil {
			return nil, err
		}
		exc.SQLState = string(sqlState)
		if exc.Kind == ExceptionConstraintFailed {
			if exc.ConstraintType, err = r.ReadI32(); err != nil {
				return nil, err
			}
			if exc.TableID, err = r.ReadI32(); err != nil {
				return nil, err
			}
			bufSize, err := r.ReadI32()
			if err != nil {
				return nil, err
			}
			tuple, err := r.ReadRaw(int(bufSize))
			if err != nil {
				return nil, err
			}
			exc.Tuple = tuple
		}
	default:
		_, msgLen, err := readMessage()
		if err != nil {
			// The unrecognized kind's message length is itself unreliable;
			// fall back to skipping what the outer length claims is left.
			remaining := int(length) - 3 - 2
			if remaining > 0 {
				_, _ = r.ReadRaw(remaining)
			}
			return exc, nil
		}
		remaining := int(length) - 3 - 2 - msgLen
		if remaining > 0 {
			if _, err := r.ReadRaw(remaining); err != nil {
				return nil, err
			}
		}
	}
	return exc, nil
}

// Response is the fully decoded response envelope: status, round-trip
// time, server exception (if any), result tables, status text, and the
// echoed client handle.
type Response struct {
	Version        uint8
	Status         int8
	RoundTripMillis int32
	Exception      *ServerException
	Tables         []*Table
	Info           string
	ClientHandle   int64
}

// StatusOK is the status byte value meaning the call succeeded.
const StatusOK = 0

// ReadResponse decodes a full response envelope from a fully buffered
// inbound message, in the fixed order: version, status, round-trip time,
// exception block, result tables, info string, client handle.
func ReadResponse(r *codec.Reader) (*Response, error) {
	version, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	status, err := r.ReadI8()
	if err != nil {
		return nil, err
	}
	roundTrip, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	exc, err := readException(r)
	if err != nil {
		return nil, err
	}

	tableCount, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	if tableCount < 0 {
		return nil, errors.Annotatef(codec.ErrMalformed, "negative table count %d", tableCount)
	}
	tables := make([]*Table, tableCount)
	for i := range tables {
		t, err := ReadTable(r)
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}

	info, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	handle, err := r.ReadI64()
	if err != nil {
		return nil, err
	}

	return &Response{
		Version:         version,
		Status:          status,
		RoundTripMillis: roundTrip,
		Exception:       exc,
		Tables:          tables,
		Info:            nullStringValue(info),
		ClientHandle:    handle,
	}, nil
}

func nullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// ExpectTables checks that the response carries exactly n result tables,
// a convenience sanity check some callers rely on (not part of the wire
// format itself).
func (resp *Response) ExpectTables(n int) error {
	if len(resp.Tables) != n {
		return errors.Errorf("voltable: expected %d result tables, got %d", n, len(resp.Tables))
	}
	return nil
}

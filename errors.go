package voltdb

import (
	"github.com/juju/errors"

	"github.com/YuRHere/voltdb/codec"
	"github.com/YuRHere/voltdb/voltable"
	"github.com/YuRHere/voltdb/wiretype"
)

// Sentinel errors. Disconnected, ShortRead, Malformed, and Timeout poison
// the Session that produced them — every subsequent operation on that
// Session fails fast with the same poisoning error.
var (
	ErrDisconnected = errors.New("voltdb: disconnected")
	ErrShortRead    = codec.ErrShortRead
	ErrMalformed    = codec.ErrMalformed
	ErrAuthFailed   = errors.New("voltdb: authentication failed")
	ErrTimeout      = errors.New("voltdb: timeout")
)

// UnsupportedTypeError reports a wire-type tag outside the closed set.
// Raised while encoding a call's parameters it is caller-visible and does
// not poison the Session; raised while decoding a response it poisons the
// Session like any other decode failure.
type UnsupportedTypeError = wiretype.UnsupportedTypeError

// DomainError reports a syntactically valid value that is semantically out
// of range (decimal precision/scale limits). Caller-visible; does not
// poison the Session, but the partial write accumulator must be discarded
// before the Session is used again.
type DomainError struct {
	Reason string
}

func (e DomainError) Error() string { return "voltdb: domain error: " + e.Reason }

// ServerException re-exports voltable.ServerException so callers do not
// need to import the sub-package just to inspect Response.Exception.
type ServerException = voltable.ServerException

// Response re-exports voltable.Response for the same reason.
type Response = voltable.Response

// Table re-exports voltable.Table.
type Table = voltable.Table

// Column re-exports voltable.Column.
type Column = voltable.Column

// Row re-exports voltable.Row.
type Row = voltable.Row

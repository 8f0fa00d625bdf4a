package voltdb

import "time"

// ByteOrderMode selects the wire byte order a Session's Transport uses for
// subsequent reads and writes. Big-endian is the protocol default; the
// server may declare little-endian on stream entry via
// Transport.SetInputByteOrder.
type ByteOrderMode int

const (
	// BigEndian is the protocol default.
	BigEndian ByteOrderMode = 0
	// LittleEndian is selected when the server sends byte-order mode 1.
	LittleEndian ByteOrderMode = 1
)

// Config carries everything needed to construct a Session. Host and Port
// are optional and NewSession does not consult them: offline "codec mode",
// where Flush fails with ErrDisconnected without touching the network, is
// selected by passing a nil Conn, whatever Host and Port hold. Offline only
// reports whether they are unset. Socket creation, DNS, TLS, and reconnection policy are the
// caller's responsibility — this engine only consumes an established byte
// stream.
type Config struct {
	Host string
	Port int

	Username string
	Password string

	InputByteOrder ByteOrderMode

	DialTimeout     time.Duration
	ResponseTimeout time.Duration
}

// Offline reports whether this Config describes a connection-less, codec-
// only session (Host or Port left unset).
func (c Config) Offline() bool { return c.Host == "" || c.Port == 0 }

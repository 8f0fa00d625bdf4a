// Package scramble computes the SHA-1 password digest sent during the
// login handshake. It mirrors the teacher's own internal/column.go
// convention of a small internal helper package kept separate from the
// public API.
package scramble

import "crypto/sha1"

// Digest returns the 20-byte SHA-1 digest of the UTF-8 encoded password,
// sent raw (no length prefix) as the final field of the login handshake.
func Digest(password string) [sha1.Size]byte {
	return sha1.Sum([]byte(password))
}

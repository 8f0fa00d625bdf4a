package scramble

import (
	"crypto/sha1"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestMatchesSHA1(t *testing.T) {
	want := sha1.Sum([]byte("swordfish"))
	require.Equal(t, want, Digest("swordfish"))
}

func TestDigestEmptyPassword(t *testing.T) {
	got := Digest("")
	require.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", hex.EncodeToString(got[:]))
}

func TestDigestLength(t *testing.T) {
	got := Digest("anything")
	require.Len(t, got, sha1.Size)
}

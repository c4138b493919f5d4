package device

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum_AllZeroIsNotValid(t *testing.T) {
	buf := make([]byte, 24)
	require.NotEqual(t, uint64(0), Checksum(buf), "all-zero block must not checksum to zero")
}

func TestChecksum_RoundTrip(t *testing.T) {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[8:], 42)
	binary.LittleEndian.PutUint32(buf[12:], 7)

	sum := Checksum(buf)
	binary.LittleEndian.PutUint64(buf[:8], sum)

	require.Equal(t, sum, Checksum(buf), "checksum excludes the first word, so writing it in place must not change the result")
}

func TestChecksum_IgnoresFirstWord(t *testing.T) {
	a := make([]byte, 4096)
	b := make([]byte, 4096)
	binary.LittleEndian.PutUint64(a[:8], 0xAAAA)
	binary.LittleEndian.PutUint64(b[:8], 0xBBBB)

	require.Equal(t, Checksum(a), Checksum(b))
}

package durability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuperblock_EncodeDecodeRoundTrip(t *testing.T) {
	sb := Superblock{Generation: 3, LogStart: SuperblockSize, LogSize: DefaultLogSize}

	buf := encodeSuperblock(sb)
	require.Len(t, buf, SuperblockSize)
	require.True(t, validateSuperblock(buf))

	got := decodeSuperblock(buf)
	got.Checksum = 0
	sb.Checksum = 0
	require.Equal(t, sb, got)
}

func TestSuperblock_CorruptionDetected(t *testing.T) {
	buf := encodeSuperblock(Superblock{Generation: 1, LogStart: SuperblockSize, LogSize: DefaultLogSize})
	buf[8] ^= 0xFF

	require.False(t, validateSuperblock(buf))
}

func TestLogBlock_HeaderChecksumRoundTrip(t *testing.T) {
	buf := make([]byte, LogBlockSize)
	encodeLogHeaderFields(buf, logBlockHeader{Generation: 5, NEntries: 2})
	writeLogChecksum(buf)

	require.True(t, validateLogBlock(buf))

	hdr := decodeLogHeader(buf)
	require.Equal(t, uint32(5), hdr.Generation)
	require.Equal(t, uint32(2), hdr.NEntries)
}

func TestLogBlock_StaleErasureInvalidatesChecksumWithoutRewritingIt(t *testing.T) {
	buf := make([]byte, LogBlockSize)
	encodeLogHeaderFields(buf, logBlockHeader{Generation: 1, NEntries: 10})
	writeLogChecksum(buf)
	require.True(t, validateLogBlock(buf))

	// Simulate eraseStaleBlock: rewrite header fields without recomputing
	// the checksum.
	encodeLogHeaderFields(buf, logBlockHeader{Generation: 0, NEntries: 0})

	require.False(t, validateLogBlock(buf), "changing n_entries without updating the checksum must invalidate the block")
}

func TestLogEntry_EncodeDecodeRoundTrip(t *testing.T) {
	buf := make([]byte, LogEntrySize)
	e := LogEntry{NodeA: 11, NodeB: 22, Opcode: OpAddEdge}

	encodeEntry(buf, e)
	require.Equal(t, e, decodeEntry(buf))
}

func TestLayout_Offsets(t *testing.T) {
	l := DefaultLayout()

	require.Equal(t, int64(SuperblockSize), l.LogOffset())
	require.Equal(t, int64(SuperblockSize)+int64(l.LogSize), l.CheckpointOffset())
	require.Equal(t, uint32(DefaultMaxBlocks), l.MaxBlocks())
	require.Equal(t, l.LogOffset()+LogBlockSize, l.BlockOffset(1))
}

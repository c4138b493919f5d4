package durability

import (
	"encoding/binary"

	"github.com/calvinalkan/graphd/internal/device"
)

// Superblock field offsets (bytes from the start of the 24-byte record).
const (
	offSBChecksum   = 0x00 // uint64
	offSBGeneration = 0x08 // uint32
	offSBLogStart   = 0x0C // uint32
	offSBLogSize    = 0x10 // uint32
	// 0x14-0x17: padding to the 8-byte-aligned 24-byte size.
)

// Superblock is the 24-byte record at device offset 0.
type Superblock struct {
	Checksum   uint64
	Generation uint32
	// LogStart is the byte offset of the start of the log region. It is
	// always SuperblockSize; stored explicitly rather than assumed so the
	// on-disk record is self-describing.
	LogStart uint32
	LogSize  uint32
}

// encodeSuperblock serializes sb to a 24-byte slice, recomputing the
// checksum over the bytes written.
func encodeSuperblock(sb Superblock) []byte {
	buf := make([]byte, SuperblockSize)

	binary.LittleEndian.PutUint32(buf[offSBGeneration:], sb.Generation)
	binary.LittleEndian.PutUint32(buf[offSBLogStart:], sb.LogStart)
	binary.LittleEndian.PutUint32(buf[offSBLogSize:], sb.LogSize)

	binary.LittleEndian.PutUint64(buf[offSBChecksum:], device.Checksum(buf))

	return buf
}

// decodeSuperblock deserializes a 24-byte slice without validating its
// checksum; callers validate separately with [validateSuperblock].
func decodeSuperblock(buf []byte) Superblock {
	return Superblock{
		Checksum:   binary.LittleEndian.Uint64(buf[offSBChecksum:]),
		Generation: binary.LittleEndian.Uint32(buf[offSBGeneration:]),
		LogStart:   binary.LittleEndian.Uint32(buf[offSBLogStart:]),
		LogSize:    binary.LittleEndian.Uint32(buf[offSBLogSize:]),
	}
}

// validateSuperblock reports whether buf's stored checksum matches the
// checksum computed over the rest of the record.
func validateSuperblock(buf []byte) bool {
	stored := binary.LittleEndian.Uint64(buf[offSBChecksum:])
	return stored == device.Checksum(buf)
}

// Log block header field offsets (bytes from the start of the block).
const (
	offLBChecksum   = 0x00 // uint64
	offLBGeneration = 0x08 // uint32
	offLBNEntries   = 0x0C // uint32
)

// logBlockHeader is the 16-byte header of a log block.
type logBlockHeader struct {
	Checksum   uint64
	Generation uint32
	NEntries   uint32
}

// encodeLogHeaderFields serializes h into the first LogHeaderSize bytes of buf
// (which must be at least LogHeaderSize long) without touching the
// checksum field — callers recompute and write the checksum separately
// once the full block (header + entries) is in its final state.
func encodeLogHeaderFields(buf []byte, h logBlockHeader) {
	binary.LittleEndian.PutUint32(buf[offLBGeneration:], h.Generation)
	binary.LittleEndian.PutUint32(buf[offLBNEntries:], h.NEntries)
}

func decodeLogHeader(buf []byte) logBlockHeader {
	return logBlockHeader{
		Checksum:   binary.LittleEndian.Uint64(buf[offLBChecksum:]),
		Generation: binary.LittleEndian.Uint32(buf[offLBGeneration:]),
		NEntries:   binary.LittleEndian.Uint32(buf[offLBNEntries:]),
	}
}

func validateLogBlock(buf []byte) bool {
	stored := binary.LittleEndian.Uint64(buf[offLBChecksum:])
	return stored == device.Checksum(buf)
}

func writeLogChecksum(buf []byte) {
	binary.LittleEndian.PutUint64(buf[offLBChecksum:], device.Checksum(buf))
}

// Log entry field offsets (bytes from the start of the entry).
const (
	offEntryNodeA  = 0x00 // uint64
	offEntryNodeB  = 0x08 // uint64
	offEntryOpcode = 0x10 // uint32
	// 0x14-0x17: padding to the 8-byte-aligned 24-byte size.
)

// LogEntry is one recorded mutation: (node_a, node_b, opcode). node_b is
// ignored for node-only opcodes.
type LogEntry struct {
	NodeA  uint64
	NodeB  uint64
	Opcode Opcode
}

func entryOffset(i int) int {
	return LogHeaderSize + i*LogEntrySize
}

func encodeEntry(buf []byte, e LogEntry) {
	binary.LittleEndian.PutUint64(buf[offEntryNodeA:], e.NodeA)
	binary.LittleEndian.PutUint64(buf[offEntryNodeB:], e.NodeB)
	binary.LittleEndian.PutUint32(buf[offEntryOpcode:], uint32(e.Opcode))
}

func decodeEntry(buf []byte) LogEntry {
	return LogEntry{
		NodeA:  binary.LittleEndian.Uint64(buf[offEntryNodeA:]),
		NodeB:  binary.LittleEndian.Uint64(buf[offEntryNodeB:]),
		Opcode: Opcode(binary.LittleEndian.Uint32(buf[offEntryOpcode:])),
	}
}

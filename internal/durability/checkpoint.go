package durability

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/calvinalkan/graphd/internal/device"
)

// GraphSnapshotter produces and consumes the full-graph image that
// [Durability.DoCheckpoint] and [Durability.LoadCheckpoint] move to and
// from the checkpoint region. Snapshot must emit each undirected edge
// exactly once (§4.5 step 2: only when the far endpoint is unvisited).
type GraphSnapshotter interface {
	Snapshot() (nodes []uint64, edges [][2]uint64)
}

// Checkpoint is the decoded in-memory form of a checkpoint image.
type Checkpoint struct {
	Nodes []uint64
	Edges [][2]uint64
}

// encodeCheckpoint serializes a checkpoint image: (nsize, esize), node
// ids, then edge pairs, all little-endian, per §3.
func encodeCheckpoint(nodes []uint64, edges [][2]uint64) []byte {
	size := checkpointHeaderSize + len(nodes)*8 + len(edges)*16
	buf := make([]byte, size)

	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(nodes)))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(edges)))

	off := checkpointHeaderSize
	for _, id := range nodes {
		binary.LittleEndian.PutUint64(buf[off:off+8], id)
		off += 8
	}

	for _, e := range edges {
		binary.LittleEndian.PutUint64(buf[off:off+8], e[0])
		binary.LittleEndian.PutUint64(buf[off+8:off+16], e[1])
		off += 16
	}

	return buf
}

// decodeCheckpoint parses a checkpoint image, validating that it is long
// enough for its own declared nsize/esize. A short buffer (including one
// too short even for the header) yields [ErrCheckpointCorrupt].
func decodeCheckpoint(buf []byte) (Checkpoint, error) {
	if len(buf) < checkpointHeaderSize {
		return Checkpoint{}, fmt.Errorf("%w: short header", ErrCheckpointCorrupt)
	}

	nsize := binary.LittleEndian.Uint64(buf[0:8])
	esize := binary.LittleEndian.Uint64(buf[8:16])

	want := checkpointHeaderSize + int(nsize)*8 + int(esize)*16
	if len(buf) < want {
		return Checkpoint{}, fmt.Errorf("%w: declared nsize/esize exceeds image", ErrCheckpointCorrupt)
	}

	cp := Checkpoint{
		Nodes: make([]uint64, nsize),
		Edges: make([][2]uint64, esize),
	}

	off := checkpointHeaderSize

	for i := range cp.Nodes {
		cp.Nodes[i] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}

	for i := range cp.Edges {
		cp.Edges[i][0] = binary.LittleEndian.Uint64(buf[off : off+8])
		cp.Edges[i][1] = binary.LittleEndian.Uint64(buf[off+8 : off+16])
		off += 16
	}

	return cp, nil
}

// WriteCheckpoint positioned-writes a checkpoint image built from nodes
// and edges to the checkpoint region, without bumping the generation. It
// is exposed separately from [Durability.DoCheckpoint] so recovery tests
// can construct a checkpoint region directly.
func (d *Durability) WriteCheckpoint(nodes []uint64, edges [][2]uint64) error {
	buf := encodeCheckpoint(nodes, edges)

	if int64(len(buf)) > d.layout.CheckpointSize {
		return fmt.Errorf("write checkpoint: %w", ErrCheckpointTooLarge)
	}

	if err := d.dev.WriteAt(buf, d.layout.CheckpointOffset()); err != nil {
		return fmt.Errorf("write checkpoint: %w: %w", ErrIO, err)
	}

	return d.dev.Sync()
}

// LoadCheckpoint reads only as much of the checkpoint region as the
// region's own declared nsize/esize call for: the header first, then
// exactly nsize*8+esize*16 more bytes. Per §4.5, any short read — a
// fresh or undersized device whose checkpoint region lies past EOF, or
// one that has never been written — surfaces as [ErrCheckpointCorrupt],
// not [ErrIO]; the caller (recovery) treats that as "no checkpoint" and
// starts from an empty graph. It never demands the full CheckpointSize
// region be physically present on disk.
func (d *Durability) LoadCheckpoint() (Checkpoint, error) {
	header := make([]byte, checkpointHeaderSize)

	if err := d.dev.ReadAt(header, d.layout.CheckpointOffset()); err != nil {
		if errors.Is(err, device.ErrShortIO) {
			return Checkpoint{}, fmt.Errorf("load checkpoint: %w: short header", ErrCheckpointCorrupt)
		}

		return Checkpoint{}, fmt.Errorf("load checkpoint: %w: %w", ErrIO, err)
	}

	nsize := binary.LittleEndian.Uint64(header[0:8])
	esize := binary.LittleEndian.Uint64(header[8:16])

	bodySize := int64(nsize)*8 + int64(esize)*16
	if checkpointHeaderSize+bodySize > d.layout.CheckpointSize {
		return Checkpoint{}, fmt.Errorf("%w: declared nsize/esize exceeds checkpoint region", ErrCheckpointCorrupt)
	}

	buf := make([]byte, checkpointHeaderSize+bodySize)
	copy(buf, header)

	if bodySize > 0 {
		if err := d.dev.ReadAt(buf[checkpointHeaderSize:], d.layout.CheckpointOffset()+checkpointHeaderSize); err != nil {
			if errors.Is(err, device.ErrShortIO) {
				return Checkpoint{}, fmt.Errorf("load checkpoint: %w: short body", ErrCheckpointCorrupt)
			}

			return Checkpoint{}, fmt.Errorf("load checkpoint: %w: %w", ErrIO, err)
		}
	}

	return decodeCheckpoint(buf)
}

// DoCheckpoint performs the two-step commit protocol of §4.5: write the
// checkpoint image taken from snap, then bump the superblock generation.
// A crash between the two steps leaves the previous checkpoint and log
// recoverable; a crash mid-write of step 1 is the documented open failure
// mode (no checksum on the checkpoint region, §9).
func (d *Durability) DoCheckpoint(snap GraphSnapshotter) error {
	nodes, edges := snap.Snapshot()

	if err := d.WriteCheckpoint(nodes, edges); err != nil {
		return err
	}

	return d.BumpGeneration()
}

package durability

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/graphd/internal/device"
)

// GraphApplier receives replayed log entries during recovery. The durability
// package never imports the graph package directly — [github.com/calvinalkan/graphd/internal/graph.Graph]
// satisfies this interface structurally, the same way the graph store
// never imports durability to append to the log (log.go's caller wires
// both together).
type GraphApplier interface {
	AddVertex(id uint64) bool
	RemoveVertex(id uint64) bool
	AddEdge(a, b uint64) bool
	RemoveEdge(a, b uint64) bool
}

// apply dispatches one entry to g per its opcode, per §4.3's replay table.
func apply(g GraphApplier, e LogEntry) {
	switch e.Opcode {
	case OpAddNode:
		g.AddVertex(e.NodeA)
	case OpAddEdge:
		g.AddEdge(e.NodeA, e.NodeB)
	case OpRemoveNode:
		g.RemoveVertex(e.NodeA)
	case OpRemoveEdge:
		g.RemoveEdge(e.NodeA, e.NodeB)
	}
}

// readBlock reads log block i in full (header + entry area). A block that
// lies wholly or partly past the end of the device has never been written;
// it is returned as all zeros, which never passes checksum validation.
func (d *Durability) readBlock(i uint32) ([]byte, error) {
	buf := make([]byte, LogBlockSize)
	if err := d.dev.ReadAt(buf, d.layout.BlockOffset(i)); err != nil {
		if errors.Is(err, device.ErrShortIO) {
			return make([]byte, LogBlockSize), nil
		}

		return nil, fmt.Errorf("read log block %d: %w: %w", i, ErrIO, err)
	}

	return buf, nil
}

func (d *Durability) writeBlock(i uint32, buf []byte) error {
	if err := d.dev.WriteAt(buf, d.layout.BlockOffset(i)); err != nil {
		return fmt.Errorf("write log block %d: %w: %w", i, ErrIO, err)
	}

	return d.dev.Sync()
}

// eraseStaleBlock overwrites a stale-generation block's header fields
// (generation, n_entries) without recomputing the checksum field, so the
// stored checksum — computed when the block belonged to a prior
// generation — no longer matches. This is the §9 open question resolved:
// any value that guarantees a checksum mismatch is acceptable, so n_entries
// is simply zeroed.
func (d *Durability) eraseStaleBlock(i uint32, buf []byte) error {
	encodeLogHeaderFields(buf, logBlockHeader{Generation: 0, NEntries: 0})

	if err := d.dev.WriteAt(buf[:LogHeaderSize], d.layout.BlockOffset(i)); err != nil {
		return fmt.Errorf("erase stale log block %d: %w: %w", i, ErrIO, err)
	}

	return d.dev.Sync()
}

// FindTail walks the log from block 0, replaying every valid
// current-generation entry into applier, and establishes the in-memory
// tail per §4.3's find_tail algorithm. It must be called once, after the
// superblock and checkpoint have been loaded and before any AddToLog call.
func (d *Durability) FindTail(applier GraphApplier) error {
	maxBlocks := d.layout.MaxBlocks()

	for i := uint32(0); i < maxBlocks; i++ {
		buf, err := d.readBlock(i)
		if err != nil {
			return err
		}

		if !validateLogBlock(buf) {
			d.tail = i
			return nil
		}

		hdr := decodeLogHeader(buf)

		if hdr.Generation != d.generation {
			if err := d.eraseStaleBlock(i, buf); err != nil {
				return err
			}

			d.tail = i

			return nil
		}

		for e := uint32(0); e < hdr.NEntries; e++ {
			off := entryOffset(int(e))
			apply(applier, decodeEntry(buf[off:off+LogEntrySize]))
		}

		if hdr.NEntries < EntriesPerBlock {
			d.tail = i
			return nil
		}

		if i+1 == maxBlocks {
			d.tail = maxBlocks
			return nil
		}
	}

	d.tail = maxBlocks

	return nil
}

// AddToLog appends one mutation record to the log and returns only once it
// is durable on device, per §4.3's append algorithm and the log-then-apply
// ordering decided in §9: callers must call AddToLog before mutating the
// in-memory graph, so that an [ErrLogFull] or [ErrIO] here means the
// mutation never happened.
func (d *Durability) AddToLog(opcode Opcode, a, b uint64) error {
	if d.LogFull() {
		return fmt.Errorf("add to log: %w", ErrLogFull)
	}

	buf, err := d.readBlock(d.tail)
	if err != nil {
		return err
	}

	var hdr logBlockHeader

	fresh := !validateLogBlock(buf) || decodeLogHeader(buf).Generation != d.generation
	if fresh {
		buf = make([]byte, LogBlockSize)
		hdr = logBlockHeader{Generation: d.generation, NEntries: 1}
	} else {
		hdr = decodeLogHeader(buf)
		hdr.NEntries++
	}

	encodeLogHeaderFields(buf, hdr)

	off := entryOffset(int(hdr.NEntries - 1))
	encodeEntry(buf[off:off+LogEntrySize], LogEntry{NodeA: a, NodeB: b, Opcode: opcode})

	writeLogChecksum(buf)

	if err := d.writeBlock(d.tail, buf); err != nil {
		return err
	}

	if hdr.NEntries == EntriesPerBlock {
		d.tail++
	}

	return nil
}

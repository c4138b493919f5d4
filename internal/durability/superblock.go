package durability

import (
	"fmt"

	"github.com/calvinalkan/graphd/internal/device"
)

// Durability is the single owning value for all durability state: the
// device handle, the fixed region layout, and the in-memory generation and
// tail that recovery establishes at startup. It is constructed once in
// main and passed to the request handler — there is no package-level
// mutable state (original spec §9's "global mutable durability state"
// design note).
type Durability struct {
	dev        *device.Device
	layout     Layout
	generation uint32
	tail       uint32
}

// New wraps dev for durability operations using the given layout. It does
// not read or write anything; call [Durability.Format] or
// [Durability.Startup] first.
func New(dev *device.Device, layout Layout) *Durability {
	return &Durability{dev: dev, layout: layout}
}

// Layout returns the region layout this instance was constructed with.
func (d *Durability) Layout() Layout { return d.layout }

// Generation returns the last known good generation.
func (d *Durability) Generation() uint32 { return d.generation }

// Tail returns the index of the next log block to write into. Tail ==
// MaxBlocks means the log is full.
func (d *Durability) Tail() uint32 { return d.tail }

// LogFull reports whether the log has no room for another append.
func (d *Durability) LogFull() bool { return d.tail == d.layout.MaxBlocks() }

// Close releases the underlying device handle.
func (d *Durability) Close() error { return d.dev.Close() }

// ReadSuperblock reads and decodes the 24-byte superblock at device offset
// 0. It returns [ErrIO] (wrapped) on a short read; it does not validate
// the checksum.
func (d *Durability) ReadSuperblock() (Superblock, error) {
	buf := make([]byte, SuperblockSize)

	if err := d.dev.ReadAt(buf, 0); err != nil {
		return Superblock{}, fmt.Errorf("read superblock: %w: %w", ErrIO, err)
	}

	return decodeSuperblock(buf), nil
}

// readSuperblockRaw is like ReadSuperblock but also returns the raw bytes,
// so callers can validate the checksum without re-encoding.
func (d *Durability) readSuperblockRaw() ([]byte, error) {
	buf := make([]byte, SuperblockSize)
	if err := d.dev.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read superblock: %w: %w", ErrIO, err)
	}

	return buf, nil
}

// Validate reports whether sb's checksum is correct.
func (d *Durability) Validate(sb Superblock) bool {
	return sb.Checksum == device.Checksum(encodeSuperblock(Superblock{
		Generation: sb.Generation,
		LogStart:   sb.LogStart,
		LogSize:    sb.LogSize,
	}))
}

// WriteSuperblock recomputes sb's checksum and writes it to device offset
// 0.
func (d *Durability) WriteSuperblock(sb Superblock) error {
	buf := encodeSuperblock(sb)
	if err := d.dev.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write superblock: %w: %w", ErrIO, err)
	}

	if err := d.dev.Sync(); err != nil {
		return fmt.Errorf("write superblock: %w", err)
	}

	return nil
}

// Format initializes or re-initializes the superblock: if a valid
// superblock already exists its generation is incremented (bumping the
// generation invalidates every existing log block, since validity is
// gated on generation equality); otherwise a fresh superblock is written
// with generation 0 and this instance's layout. Either way, the in-memory
// tail resets to 0.
func (d *Durability) Format() error {
	raw, err := d.readSuperblockRaw()

	var sb Superblock

	switch {
	case err != nil:
		// Fresh/empty device: treat as first-time initialization.
		sb = Superblock{Generation: 0, LogStart: SuperblockSize, LogSize: d.layout.LogSize}
	case d.Validate(decodeSuperblock(raw)):
		existing := decodeSuperblock(raw)
		sb = Superblock{Generation: existing.Generation + 1, LogStart: SuperblockSize, LogSize: d.layout.LogSize}
	default:
		sb = Superblock{Generation: 0, LogStart: SuperblockSize, LogSize: d.layout.LogSize}
	}

	d.tail = 0

	if err := d.WriteSuperblock(sb); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	d.generation = sb.Generation
	d.layout.LogSize = sb.LogSize

	return nil
}

// BumpGeneration increments the on-disk generation and resets the
// in-memory tail to 0. Called at checkpoint commit: bumping the
// generation logically truncates the log, since every existing log
// block's generation now mismatches the superblock's.
func (d *Durability) BumpGeneration() error {
	sb, err := d.ReadSuperblock()
	if err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}

	if !d.Validate(sb) {
		return fmt.Errorf("bump generation: %w", ErrCorruptSuperblock)
	}

	sb.Generation++

	if err := d.WriteSuperblock(sb); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}

	d.generation = sb.Generation
	d.tail = 0

	return nil
}

// loadSuperblockForStartup reads and validates the superblock for normal
// (non-format) startup, returning [ErrCorruptSuperblock] if it fails
// validation. On success, it also adopts the on-disk LogSize into this
// instance's layout, so a device formatted with a different log size than
// the caller's default is still recovered correctly.
func (d *Durability) loadSuperblockForStartup() error {
	raw, err := d.readSuperblockRaw()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSuperblock, err)
	}

	sb := decodeSuperblock(raw)
	if !d.Validate(sb) {
		return fmt.Errorf("%w", ErrCorruptSuperblock)
	}

	d.generation = sb.Generation
	d.layout.LogSize = sb.LogSize

	return nil
}

package durability

import "errors"

// IsLogFull reports whether err is or wraps [ErrLogFull] — the condition
// the HTTP adapter maps to a 507 response (§6).
func IsLogFull(err error) bool {
	return errors.Is(err, ErrLogFull)
}

// ErrIO reports a short or failed positioned read/write on the device.
// Callers should use errors.Is(err, ErrIO).
var ErrIO = errors.New("durability: io error")

// ErrCorruptSuperblock reports a superblock that fails checksum
// validation. Normal startup must abort; [Format] treats it as
// first-time initialization.
// Callers should use errors.Is(err, ErrCorruptSuperblock).
var ErrCorruptSuperblock = errors.New("durability: corrupt superblock")

// ErrLogFull reports that the log has no room for another block. The
// caller must not apply the mutation that triggered this error: logging
// happens before the in-memory apply (see [github.com/calvinalkan/graphd/internal/store]).
// Callers should use errors.Is(err, ErrLogFull).
var ErrLogFull = errors.New("durability: log full")

// ErrCheckpointTooLarge reports that a checkpoint image would not fit in
// the configured checkpoint region.
// Callers should use errors.Is(err, ErrCheckpointTooLarge).
var ErrCheckpointTooLarge = errors.New("durability: checkpoint too large")

// ErrCheckpointCorrupt reports a checkpoint image whose node/edge counts
// don't match its declared header, or that is too short to read.
// Callers should use errors.Is(err, ErrCheckpointCorrupt).
var ErrCheckpointCorrupt = errors.New("durability: corrupt checkpoint")

package durability

import (
	"errors"
	"fmt"
)

// Mode selects the startup path: [ModeFormat] initializes or
// re-initializes the superblock before recovering; [ModeNormal] requires
// an already-valid superblock.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFormat
)

// GraphRebuilder is both a [GraphSnapshotter] (for checkpointing) and a
// [GraphApplier] (for log replay) — the full surface [Startup] needs from
// the in-memory graph to reconstruct it from the checkpoint and log.
type GraphRebuilder interface {
	GraphSnapshotter
	GraphApplier
}

// Startup coordinates §4.6's recovery protocol: validate (or format) the
// superblock, load the checkpoint into g, then replay the log tail. On
// return, [Durability.Generation] and [Durability.Tail] reflect the
// recovered state and g holds the reconstructed graph.
func (d *Durability) Startup(mode Mode, g GraphRebuilder) error {
	switch mode {
	case ModeFormat:
		if err := d.Format(); err != nil {
			return fmt.Errorf("startup: %w", err)
		}
	case ModeNormal:
		if err := d.loadSuperblockForStartup(); err != nil {
			return fmt.Errorf("startup: %w", err)
		}
	default:
		return fmt.Errorf("startup: unknown mode %d", mode)
	}

	cp, err := d.LoadCheckpoint()
	if err != nil && !errors.Is(err, ErrCheckpointCorrupt) {
		return fmt.Errorf("startup: %w", err)
	}

	if err == nil {
		nAdded := 0
		for _, id := range cp.Nodes {
			if g.AddVertex(id) {
				nAdded++
			}
		}

		eAdded := 0
		for _, e := range cp.Edges {
			if g.AddEdge(e[0], e[1]) {
				eAdded++
			}
		}

		// §4.5: the post-load vertex/edge counts must equal the on-disk
		// nsize/esize, else the load is rejected. A mismatch means the
		// checkpoint image named more nodes/edges than the graph actually
		// accepted (duplicate ids, self-loops, edges to missing endpoints).
		if nAdded != len(cp.Nodes) || eAdded != len(cp.Edges) {
			return fmt.Errorf("startup: %w: post-load counts (%d nodes, %d edges) do not match declared (%d nodes, %d edges)",
				ErrCheckpointCorrupt, nAdded, eAdded, len(cp.Nodes), len(cp.Edges))
		}
	}

	if err := d.FindTail(g); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	return nil
}

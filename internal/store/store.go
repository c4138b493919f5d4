// Package store wires the durability subsystem and the in-memory graph
// into the single owning value described in §9 ("Global mutable
// durability state"): one [Store], constructed once in main, holding the
// device, the durability state, and the graph, with every operation
// serialized behind one mutex per §5's single-threaded request model.
package store

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/calvinalkan/graphd/internal/device"
	"github.com/calvinalkan/graphd/internal/durability"
	"github.com/calvinalkan/graphd/internal/graph"
)

// Result mirrors the adapter-facing outcome of a mutation: OK (200),
// NoOp (204, semantically redundant), or BadRequest (400).
type Result = graph.Result

const (
	ResultOK         = graph.ResultOK
	ResultNoOp       = graph.ResultNoOp
	ResultBadRequest = graph.ResultBadRequest
)

// Store is the process-wide owner of the graph and its durability state.
// All exported methods lock internally; callers never need their own
// synchronization, matching §5's "single serial executor" design note.
type Store struct {
	mu sync.Mutex

	dur     *durability.Durability
	g       *graph.Graph
	log     *slog.Logger
	devPath string

	// autoCheckpointEvery, if > 0, triggers an automatic [Store.Checkpoint]
	// after this many applied mutations — an operational convenience on
	// top of §4.5's explicit checkpoint operation, bounding how much log
	// a crash can force a replay through.
	autoCheckpointEvery int
	sinceCheckpoint     int
}

// Options configures behavior [Open] doesn't need a dedicated parameter
// for. The zero value disables auto-checkpointing.
type Options struct {
	AutoCheckpointEvery int
}

// Open opens devPath through fsys, then runs startup recovery: format (if
// mode is [durability.ModeFormat]) or validate the existing superblock,
// load the checkpoint, and replay the log tail (§4.6). logger may be nil,
// in which case [slog.Default] is used.
func Open(fsys device.FS, devPath string, mode durability.Mode, layout durability.Layout, logger *slog.Logger) (*Store, error) {
	return OpenWithOptions(fsys, devPath, mode, layout, logger, Options{})
}

// OpenWithOptions is [Open] plus operational options such as
// auto-checkpointing.
func OpenWithOptions(fsys device.FS, devPath string, mode durability.Mode, layout durability.Layout, logger *slog.Logger, opts Options) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dev, err := device.Open(fsys, devPath)
	if err != nil {
		return nil, fmt.Errorf("store: open device: %w", err)
	}

	g := graph.New()
	dur := durability.New(dev, layout)

	if err := dur.Startup(mode, replayAdapter{g}); err != nil {
		dev.Close()
		return nil, fmt.Errorf("store: startup: %w", err)
	}

	logger.Info("store opened",
		"path", devPath,
		"mode", mode,
		"generation", dur.Generation(),
		"tail", dur.Tail(),
		"nodes", g.NSize(),
		"edges", g.ESize(),
	)

	return &Store{
		dur:                 dur,
		g:                   g,
		log:                 logger,
		devPath:             devPath,
		autoCheckpointEvery: opts.AutoCheckpointEvery,
	}, nil
}

// Close releases the underlying device handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dur.Close()
}

// AddNode inserts id. NoOp if already present; never BadRequest.
func (s *Store) AddNode(id uint64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.g.GetNode(id) {
		return ResultNoOp, nil
	}

	if err := s.dur.AddToLog(durability.OpAddNode, id, 0); err != nil {
		return 0, err
	}

	s.g.AddVertex(id)
	s.onMutationApplied()

	return ResultOK, nil
}

// RemoveNode removes id and every edge incident to it. NoOp if absent.
func (s *Store) RemoveNode(id uint64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.g.GetNode(id) {
		return ResultNoOp, nil
	}

	if err := s.dur.AddToLog(durability.OpRemoveNode, id, 0); err != nil {
		return 0, err
	}

	s.g.RemoveVertex(id)
	s.onMutationApplied()

	return ResultOK, nil
}

// GetNode reports whether id is present.
func (s *Store) GetNode(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.g.GetNode(id)
}

// GetNeighbors returns a copy of id's adjacency list.
func (s *Store) GetNeighbors(id uint64) ([]uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.g.GetNeighbors(id)
}

// AddEdge inserts the undirected edge (a,b). BadRequest on a self-loop or
// a missing endpoint; NoOp if the edge already exists; otherwise the
// mutation is logged before it is applied (§9 log-then-apply) and OK is
// returned.
func (s *Store) AddEdge(a, b uint64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a == b || !s.g.GetNode(a) || !s.g.GetNode(b) {
		return ResultBadRequest, nil
	}

	if s.g.GetEdge(a, b) {
		return ResultNoOp, nil
	}

	if err := s.dur.AddToLog(durability.OpAddEdge, a, b); err != nil {
		return 0, err
	}

	s.g.AddEdge(a, b)
	s.onMutationApplied()

	return ResultOK, nil
}

// RemoveEdge removes the undirected edge (a,b). BadRequest only when
// neither endpoint exists; NoOp if the edge is absent.
func (s *Store) RemoveEdge(a, b uint64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.g.GetNode(a) && !s.g.GetNode(b) {
		return ResultBadRequest, nil
	}

	if !s.g.GetEdge(a, b) && !s.g.GetEdge(b, a) {
		return ResultNoOp, nil
	}

	if err := s.dur.AddToLog(durability.OpRemoveEdge, a, b); err != nil {
		return 0, err
	}

	s.g.RemoveEdge(a, b)
	s.onMutationApplied()

	return ResultOK, nil
}

// GetEdge reports whether the undirected edge (a,b) is present.
func (s *Store) GetEdge(a, b uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.g.GetEdge(a, b)
}

// ShortestPath returns the BFS hop distance from a to b, -1 if
// unreachable. ok is false if either endpoint does not exist.
func (s *Store) ShortestPath(a, b uint64) (distance int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.g.ShortestPath(a, b)
}

// Checkpoint snapshots the graph to the checkpoint region and bumps the
// generation, logically truncating the log (§4.5).
func (s *Store) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.checkpointLocked()
}

// onMutationApplied is called after every successful log-then-apply
// mutation. It is an operational convenience on top of §4.5: once
// autoCheckpointEvery mutations have accumulated since the last
// checkpoint, it commits one automatically so a crash never has to
// replay more than autoCheckpointEvery log entries. A failed automatic
// checkpoint is logged and otherwise ignored — the mutation that
// triggered it already succeeded and remains durable via the log.
func (s *Store) onMutationApplied() {
	if s.autoCheckpointEvery <= 0 {
		return
	}

	s.sinceCheckpoint++
	if s.sinceCheckpoint < s.autoCheckpointEvery {
		return
	}

	if err := s.checkpointLocked(); err != nil {
		s.log.Warn("automatic checkpoint failed", "err", err)
	}
}

func (s *Store) checkpointLocked() error {
	if err := s.dur.DoCheckpoint(replayAdapter{s.g}); err != nil {
		return fmt.Errorf("store: checkpoint: %w", err)
	}

	s.sinceCheckpoint = 0

	s.log.Info("checkpoint committed", "generation", s.dur.Generation(), "nodes", s.g.NSize(), "edges", s.g.ESize())

	if err := s.dur.WriteStateFile(s.devPath); err != nil {
		s.log.Warn("failed to write diagnostic state file", "err", err)
	}

	return nil
}

// Stats reports point-in-time counters for the /healthz and
// /api/v1/stats endpoints.
type Stats struct {
	Nodes      int
	Edges      int
	Generation uint32
	Tail       uint32
	LogFull    bool
}

// Stats returns a snapshot of the current counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Nodes:      s.g.NSize(),
		Edges:      s.g.ESize(),
		Generation: s.dur.Generation(),
		Tail:       s.dur.Tail(),
		LogFull:    s.dur.LogFull(),
	}
}

// replayAdapter bridges [*graph.Graph]'s spec-shaped method signatures
// (AddEdge returns a [graph.Result], not a bool) to the narrower
// [durability.GraphRebuilder] interface that log replay and checkpoint
// snapshotting need.
type replayAdapter struct{ g *graph.Graph }

func (r replayAdapter) AddVertex(id uint64) bool    { return r.g.AddVertex(id) }
func (r replayAdapter) RemoveVertex(id uint64) bool { return r.g.RemoveVertex(id) }
func (r replayAdapter) AddEdge(a, b uint64) bool    { return r.g.AddEdge(a, b) != graph.ResultBadRequest }
func (r replayAdapter) RemoveEdge(a, b uint64) bool { return r.g.RemoveEdge(a, b) }

func (r replayAdapter) Snapshot() ([]uint64, [][2]uint64) { return r.g.Snapshot() }

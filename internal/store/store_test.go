package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/graphd/internal/device"
	"github.com/calvinalkan/graphd/internal/durability"
)

func testLayout() durability.Layout {
	return durability.Layout{LogSize: durability.LogBlockSize * 4, CheckpointSize: 8192}
}

func openFormatted(t *testing.T, fsys device.FS) *Store {
	t.Helper()

	s, err := Open(fsys, "/dev/fake0", durability.ModeFormat, testLayout(), nil)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return s
}

func TestStore_AddNode_NoOpWhenPresent(t *testing.T) {
	s := openFormatted(t, device.NewFake())

	res, err := s.AddNode(1)
	require.NoError(t, err)
	require.Equal(t, ResultOK, res)

	res, err = s.AddNode(1)
	require.NoError(t, err)
	require.Equal(t, ResultNoOp, res)
}

func TestStore_AddEdge_Scenarios(t *testing.T) {
	s := openFormatted(t, device.NewFake())

	_, _ = s.AddNode(1)
	_, _ = s.AddNode(2)

	res, err := s.AddEdge(1, 1)
	require.NoError(t, err)
	require.Equal(t, ResultBadRequest, res)

	res, err = s.AddEdge(1, 2)
	require.NoError(t, err)
	require.Equal(t, ResultOK, res)

	res, err = s.AddEdge(1, 2)
	require.NoError(t, err)
	require.Equal(t, ResultNoOp, res)

	require.True(t, s.GetEdge(1, 2))
	require.True(t, s.GetEdge(2, 1))
}

func TestStore_RemoveNode_CascadesEdges(t *testing.T) {
	s := openFormatted(t, device.NewFake())

	_, _ = s.AddNode(1)
	_, _ = s.AddNode(2)
	_, _ = s.AddEdge(1, 2)

	res, err := s.RemoveNode(1)
	require.NoError(t, err)
	require.Equal(t, ResultOK, res)

	require.False(t, s.GetEdge(1, 2))

	neighbors, ok := s.GetNeighbors(2)
	require.True(t, ok)
	require.Empty(t, neighbors)
}

func TestStore_ShortestPath(t *testing.T) {
	s := openFormatted(t, device.NewFake())

	for i := uint64(1); i <= 4; i++ {
		_, _ = s.AddNode(i)
	}

	for i := uint64(1); i < 4; i++ {
		_, _ = s.AddEdge(i, i+1)
	}

	dist, ok := s.ShortestPath(1, 4)
	require.True(t, ok)
	require.Equal(t, 3, dist)
}

func TestStore_LogFullMutationNotApplied(t *testing.T) {
	s := openFormatted(t, device.NewFake())

	var lastErr error

	for i := uint64(0); i < durability.EntriesPerBlock*4+1; i++ {
		_, err := s.AddNode(i)
		if err != nil {
			lastErr = err
			break
		}
	}

	require.Error(t, lastErr)
	require.True(t, errors.Is(lastErr, durability.ErrLogFull))

	// The mutation that failed to log must not be visible.
	stats := s.Stats()
	require.Less(t, stats.Nodes, int(durability.EntriesPerBlock*4+1))
}

func TestStore_RestartRecoversMutations(t *testing.T) {
	fsys := device.NewFake()

	s1 := openFormatted(t, fsys)
	_, err := s1.AddNode(7)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(fsys, "/dev/fake0", durability.ModeNormal, testLayout(), nil)
	require.NoError(t, err)

	defer s2.Close()

	require.True(t, s2.GetNode(7))
}

func TestStore_AutoCheckpointBumpsGeneration(t *testing.T) {
	fsys := device.NewFake()

	s, err := OpenWithOptions(fsys, "/dev/fake0", durability.ModeFormat, testLayout(), nil, Options{AutoCheckpointEvery: 3})
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	for i := uint64(1); i <= 3; i++ {
		_, err := s.AddNode(i)
		require.NoError(t, err)
	}

	require.Equal(t, uint32(1), s.Stats().Generation, "the third mutation must have triggered an automatic checkpoint")
}

func TestStore_CheckpointThenRestart(t *testing.T) {
	fsys := device.NewFake()

	s1 := openFormatted(t, fsys)
	_, _ = s1.AddNode(1)
	_, _ = s1.AddNode(2)
	_, _ = s1.AddEdge(1, 2)

	require.NoError(t, s1.Checkpoint())
	require.NoError(t, s1.Close())

	s2, err := Open(fsys, "/dev/fake0", durability.ModeNormal, testLayout(), nil)
	require.NoError(t, err)

	defer s2.Close()

	require.True(t, s2.GetNode(1))
	require.True(t, s2.GetEdge(1, 2))
}

package durability

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_EncodeDecodeRoundTrip(t *testing.T) {
	nodes := []uint64{1, 2, 3}
	edges := [][2]uint64{{1, 2}, {2, 3}}

	buf := encodeCheckpoint(nodes, edges)

	got, err := decodeCheckpoint(buf)
	require.NoError(t, err)

	want := Checkpoint{Nodes: nodes, Edges: edges}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("checkpoint round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckpoint_DecodeRejectsShortBuffer(t *testing.T) {
	_, err := decodeCheckpoint([]byte{1, 2, 3})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCheckpointCorrupt))
}

func TestCheckpoint_DecodeRejectsDeclaredSizeLargerThanImage(t *testing.T) {
	buf := encodeCheckpoint([]uint64{1, 2, 3}, nil)
	truncated := buf[:len(buf)-8]

	_, err := decodeCheckpoint(truncated)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCheckpointCorrupt))
}

func TestDoCheckpoint_WritesImageAndBumpsGeneration(t *testing.T) {
	d, _ := newTestDurability(t)
	d.layout.CheckpointSize = 4096
	require.NoError(t, d.Format())

	snap := &fakeGraph{nodes: []uint64{1, 2}, edges: [][2]uint64{{1, 2}}}

	require.NoError(t, d.DoCheckpoint(snap))
	require.Equal(t, uint32(1), d.Generation())

	cp, err := d.LoadCheckpoint()
	require.NoError(t, err)
	require.Equal(t, snap.nodes, cp.Nodes)
	require.Equal(t, snap.edges, cp.Edges)
}

func TestWriteCheckpoint_TooLargeForRegion(t *testing.T) {
	d, _ := newTestDurability(t)
	d.layout.CheckpointSize = checkpointHeaderSize + 8 // room for exactly one node id
	require.NoError(t, d.Format())

	err := d.WriteCheckpoint([]uint64{1, 2}, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCheckpointTooLarge))
}

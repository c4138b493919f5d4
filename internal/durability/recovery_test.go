package durability

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/graphd/internal/device"
)

func TestStartup_FormatThenMutateThenNormalRestart(t *testing.T) {
	fsys := device.NewFake()

	d1 := New(mustOpen(t, fsys), smallLayout())
	g1 := &fakeGraph{}
	require.NoError(t, d1.Startup(ModeFormat, g1))

	require.NoError(t, d1.AddToLog(OpAddNode, 7, 0))
	g1.AddVertex(7)
	require.NoError(t, d1.Close())

	d2 := New(mustOpen(t, fsys), smallLayout())
	g2 := &fakeGraph{}
	require.NoError(t, d2.Startup(ModeNormal, g2))

	require.Equal(t, []uint64{7}, g2.nodes)
}

func TestStartup_NormalLoadsCheckpointThenReplaysTail(t *testing.T) {
	fsys := device.NewFake()

	d1 := New(mustOpen(t, fsys), smallLayout())
	g1 := &fakeGraph{}
	require.NoError(t, d1.Startup(ModeFormat, g1))

	g1.AddVertex(1)
	g1.AddVertex(2)
	g1.AddEdge(1, 2)
	require.NoError(t, d1.DoCheckpoint(g1))

	require.NoError(t, d1.AddToLog(OpAddNode, 3, 0))
	g1.AddVertex(3)
	require.NoError(t, d1.Close())

	d2 := New(mustOpen(t, fsys), smallLayout())
	g2 := &fakeGraph{}
	require.NoError(t, d2.Startup(ModeNormal, g2))

	require.ElementsMatch(t, []uint64{1, 2, 3}, g2.nodes)
	require.ElementsMatch(t, [][2]uint64{{1, 2}}, g2.edges)
}

func TestStartup_NormalAbortsOnCorruptSuperblock(t *testing.T) {
	fsys := device.NewFake()

	d := New(mustOpen(t, fsys), smallLayout())
	g := &fakeGraph{}
	err := d.Startup(ModeNormal, g)
	require.Error(t, err)
}

func smallLayout() Layout {
	return Layout{LogSize: LogBlockSize * 4, CheckpointSize: 8192}
}

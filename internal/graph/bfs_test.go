package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pathGraph(t *testing.T, n int) *Graph {
	t.Helper()

	g := New()
	for i := 1; i <= n; i++ {
		g.AddVertex(uint64(i))
	}

	for i := 1; i < n; i++ {
		require.Equal(t, ResultOK, g.AddEdge(uint64(i), uint64(i+1)))
	}

	return g
}

func TestShortestPath_PathGraph(t *testing.T) {
	g := pathGraph(t, 4)

	dist, ok := g.ShortestPath(1, 4)
	require.True(t, ok)
	require.Equal(t, 3, dist)
}

func TestShortestPath_SameNodeIsZero(t *testing.T) {
	g := pathGraph(t, 4)

	dist, ok := g.ShortestPath(1, 1)
	require.True(t, ok)
	require.Equal(t, 0, dist)
}

func TestShortestPath_DisconnectedIsNegativeOne(t *testing.T) {
	g := New()
	g.AddVertex(1)
	g.AddVertex(2)

	dist, ok := g.ShortestPath(1, 2)
	require.True(t, ok)
	require.Equal(t, -1, dist)
}

func TestShortestPath_MissingEndpointNotOK(t *testing.T) {
	g := New()
	g.AddVertex(1)

	_, ok := g.ShortestPath(1, 99)
	require.False(t, ok)
}

func TestShortestPath_ScratchStateResetsBetweenCalls(t *testing.T) {
	g := pathGraph(t, 4)

	_, _ = g.ShortestPath(1, 4)

	dist, ok := g.ShortestPath(2, 3)
	require.True(t, ok)
	require.Equal(t, 1, dist)
}

// Package graph implements the in-memory undirected graph: a vertex hash
// table with bucket chaining and owned-id adjacency lists, per §3/§4.4.
package graph

// bucketCount is the fixed number of hash buckets (§3 SIZE=100000).
// Bucket chaining is an implementation choice, not a contract: an
// open-addressed table would satisfy the same invariants.
const bucketCount = 100000

// Vertex is one graph node. Adj holds neighbor ids directly — never
// pointers to other vertices — so the graph serializes trivially and has
// no cross-node pointer structure to walk during teardown (§9 "Adjacency
// as owned list").
//
// path and visited are BFS scratch state, owned by the containing Graph
// and cleared after every [Graph.ShortestPath] call (§9 "BFS scratch
// state").
type Vertex struct {
	ID      uint64
	Adj     []uint64
	path    int32
	visited bool
	next    *Vertex
}

// Result is the outcome of a mutation that can be semantically redundant
// or invalid, mapped by the HTTP adapter to 200/204/400 per §6.
type Result int

const (
	ResultOK Result = iota
	ResultNoOp
	ResultBadRequest
)

// Graph is the single in-memory owner of every vertex and edge. The zero
// value is not usable; construct with [New].
type Graph struct {
	buckets [bucketCount]*Vertex
	nsize   int
	esize   int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// NSize returns the number of vertices.
func (g *Graph) NSize() int { return g.nsize }

// ESize returns the number of undirected edges.
func (g *Graph) ESize() int { return g.esize }

func bucketOf(id uint64) uint64 { return id % bucketCount }

func (g *Graph) lookup(id uint64) *Vertex {
	for v := g.buckets[bucketOf(id)]; v != nil; v = v.next {
		if v.ID == id {
			return v
		}
	}

	return nil
}

// AddVertex inserts id if absent. Reports whether it was inserted.
func (g *Graph) AddVertex(id uint64) bool {
	if g.lookup(id) != nil {
		return false
	}

	b := bucketOf(id)
	g.buckets[b] = &Vertex{ID: id, path: -1, next: g.buckets[b]}
	g.nsize++

	return true
}

// RemoveVertex removes id and deletes every edge incident to it from its
// neighbors' adjacency lists. Reports whether a vertex was removed.
func (g *Graph) RemoveVertex(id uint64) bool {
	b := bucketOf(id)

	var prev *Vertex

	cur := g.buckets[b]
	for cur != nil && cur.ID != id {
		prev = cur
		cur = cur.next
	}

	if cur == nil {
		return false
	}

	for _, nid := range cur.Adj {
		if n := g.lookup(nid); n != nil {
			n.Adj = removeID(n.Adj, id)
			g.esize--
		}
	}

	if prev == nil {
		g.buckets[b] = cur.next
	} else {
		prev.next = cur.next
	}

	g.nsize--

	return true
}

// AddEdge inserts the undirected edge (a,b). Per §4.4: a self-loop or a
// missing endpoint is [ResultBadRequest]; an already-present edge is
// [ResultNoOp]; otherwise the edge is inserted symmetrically and the
// result is [ResultOK].
func (g *Graph) AddEdge(a, b uint64) Result {
	if a == b {
		return ResultBadRequest
	}

	va, vb := g.lookup(a), g.lookup(b)
	if va == nil || vb == nil {
		return ResultBadRequest
	}

	if containsID(va.Adj, b) {
		return ResultNoOp
	}

	va.Adj = append(va.Adj, b)
	vb.Adj = append(vb.Adj, a)
	g.esize++

	return ResultOK
}

// RemoveEdge removes the undirected edge (a,b) from both adjacency lists.
// It fails only when neither endpoint exists.
func (g *Graph) RemoveEdge(a, b uint64) bool {
	va, vb := g.lookup(a), g.lookup(b)
	if va == nil && vb == nil {
		return false
	}

	removed := false

	if va != nil {
		before := len(va.Adj)
		va.Adj = removeID(va.Adj, b)
		removed = removed || len(va.Adj) != before
	}

	if vb != nil {
		before := len(vb.Adj)
		vb.Adj = removeID(vb.Adj, a)
		removed = removed || len(vb.Adj) != before
	}

	if removed {
		g.esize--
	}

	return true
}

// GetNode reports whether id is present.
func (g *Graph) GetNode(id uint64) bool {
	return g.lookup(id) != nil
}

// GetEdge reports whether the undirected edge (a,b) is present.
func (g *Graph) GetEdge(a, b uint64) bool {
	va := g.lookup(a)
	if va == nil {
		return false
	}

	return containsID(va.Adj, b)
}

// GetNeighbors returns a copy of id's adjacency list. ok is false if id
// does not exist.
func (g *Graph) GetNeighbors(id uint64) (neighbors []uint64, ok bool) {
	v := g.lookup(id)
	if v == nil {
		return nil, false
	}

	out := make([]uint64, len(v.Adj))
	copy(out, v.Adj)

	return out, true
}

// Snapshot walks every bucket and emits the node ids and, per §4.5, each
// undirected edge exactly once (only when the far endpoint is unvisited).
// It satisfies [github.com/calvinalkan/graphd/internal/durability.GraphSnapshotter].
func (g *Graph) Snapshot() (nodes []uint64, edges [][2]uint64) {
	nodes = make([]uint64, 0, g.nsize)
	edges = make([][2]uint64, 0, g.esize)

	for _, head := range g.buckets {
		for v := head; v != nil; v = v.next {
			nodes = append(nodes, v.ID)

			for _, nid := range v.Adj {
				if n := g.lookup(nid); n != nil && !n.visited {
					edges = append(edges, [2]uint64{v.ID, nid})
				}
			}

			v.visited = true
		}
	}

	for _, head := range g.buckets {
		for v := head; v != nil; v = v.next {
			v.visited = false
		}
	}

	return nodes, edges
}

func containsID(ids []uint64, id uint64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}

	return false
}

func removeID(ids []uint64, id uint64) []uint64 {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}

	return ids
}

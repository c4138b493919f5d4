package graph

// ShortestPath runs a single-source, unweighted BFS from a and returns the
// hop distance to b, or -1 if b is unreachable. ok is false if either
// endpoint does not exist. Uses two queues — the BFS frontier and a
// record of every touched vertex — so path/visited scratch state can be
// reset without a per-call allocation of a visited set (§4.4/§9 "BFS
// scratch state").
func (g *Graph) ShortestPath(a, b uint64) (distance int, ok bool) {
	start := g.lookup(a)
	if start == nil || g.lookup(b) == nil {
		return 0, false
	}

	touched := make([]*Vertex, 0, g.nsize)

	reset := func() {
		for _, v := range touched {
			v.path = -1
			v.visited = false
		}
	}

	start.path = 0
	start.visited = true
	touched = append(touched, start)

	frontier := []*Vertex{start}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		if cur.ID == b {
			break
		}

		for _, nid := range cur.Adj {
			n := g.lookup(nid)
			if n == nil || n.visited {
				continue
			}

			n.visited = true
			n.path = cur.path + 1
			touched = append(touched, n)
			frontier = append(frontier, n)
		}
	}

	result := int(g.lookup(b).path)

	reset()

	if result < 0 {
		return -1, true
	}

	return result, true
}

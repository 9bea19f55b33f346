package grid

import "container/heap"

// Unreachable is the hop distance reported when no route exists.
const Unreachable = -1

type frontierItem struct {
	pos  Position
	dist int
	seq  int
}

// frontier is a min-heap on distance. Equal distances pop in push order so
// the fixed neighbor expansion order decides ties and results stay
// deterministic for a given topology.
type frontier []*frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].seq < f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(*frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return it
}

// ShortestPath runs a Dijkstra search over unit-weight edges from start to
// end, honoring blocked edges and transit restrictions. Restriction
// eligibility depends on the (start,end) pair, so every query searches from
// scratch; results are not reusable as a distance table.
//
// Returns the full cell sequence including both endpoints, [start] when
// start equals end, or nil when no route exists. Callers must never treat
// an empty result as a zero-cost route.
func (g *Graph) ShortestPath(start, end Position) []Position {
	if !g.InBounds(start) || !g.InBounds(end) {
		return nil
	}
	if start == end {
		return []Position{start}
	}

	dist := map[Position]int{start: 0}
	prev := make(map[Position]Position)
	visited := make(map[Position]struct{})

	f := &frontier{{pos: start}}
	heap.Init(f)
	seq := 0

	for f.Len() > 0 {
		cur := heap.Pop(f).(*frontierItem)
		if _, done := visited[cur.pos]; done {
			continue
		}
		visited[cur.pos] = struct{}{}

		if cur.pos == end {
			path := []Position{cur.pos}
			at := cur.pos
			for at != start {
				at = prev[at]
				path = append(path, at)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, nb := range g.Neighbors(cur.pos) {
			if _, done := visited[nb]; done {
				continue
			}
			if g.EdgeBlocked(cur.pos, nb) {
				continue
			}
			if g.RestrictedForTransit(nb, start, end) {
				continue
			}
			d := cur.dist + 1
			if old, seen := dist[nb]; !seen || d < old {
				dist[nb] = d
				prev[nb] = cur.pos
				seq++
				heap.Push(f, &frontierItem{pos: nb, dist: d, seq: seq})
			}
		}
	}
	return nil
}

// HopDistance returns the number of unit steps on the shortest route from
// start to end, or Unreachable when no route exists.
func (g *Graph) HopDistance(start, end Position) int {
	path := g.ShortestPath(start, end)
	if len(path) == 0 {
		return Unreachable
	}
	return len(path) - 1
}

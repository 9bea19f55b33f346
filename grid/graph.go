package grid

import "fmt"

type edgeKey struct {
	from Position
	to   Position
}

// Graph is an immutable snapshot of the grid topology: bounds, blocked
// edges, transit-restricted cells, and station locations. Topology edits
// require building a fresh Graph; a live instance is never mutated.
type Graph struct {
	size       int
	cells      map[Position]Cell
	blocked    map[edgeKey]struct{}
	restricted map[Position]struct{}
	stations   []Position
}

// New builds a Graph from annotated cells and blocked-edge pairs given as
// 1-based linear node ids (id = y*size + x + 1). Both directions of each
// blocked edge are recorded. Non-adjacent pairs are kept as-is: lookups are
// exact-pair membership and neighbor expansion only ever asks about adjacent
// cells, so such entries are inert. Externally supplied topology data
// contains them.
func New(size int, cells []Cell, blockedIDs [][2]int) (*Graph, error) {
	if size <= 0 {
		return nil, fmt.Errorf("grid: invalid size %d", size)
	}
	g := &Graph{
		size:       size,
		cells:      make(map[Position]Cell, len(cells)),
		blocked:    make(map[edgeKey]struct{}, len(blockedIDs)*2),
		restricted: make(map[Position]struct{}),
	}
	for _, c := range cells {
		if !g.InBounds(c.Pos) {
			return nil, fmt.Errorf("grid: cell %s out of bounds for size %d", c.Pos, size)
		}
		g.cells[c.Pos] = c
		if c.Class.RestrictsTransit() {
			g.restricted[c.Pos] = struct{}{}
		}
		if c.Class == ClassStation {
			g.stations = append(g.stations, c.Pos)
		}
	}
	maxID := size * size
	for _, pair := range blockedIDs {
		if pair[0] < 1 || pair[0] > maxID || pair[1] < 1 || pair[1] > maxID {
			return nil, fmt.Errorf("grid: blocked edge ids %v out of range", pair)
		}
		a := PositionFromLinearID(pair[0], size)
		b := PositionFromLinearID(pair[1], size)
		g.blocked[edgeKey{a, b}] = struct{}{}
		g.blocked[edgeKey{b, a}] = struct{}{}
	}
	return g, nil
}

func (g *Graph) Size() int { return g.size }

func (g *Graph) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.size && p.Y >= 0 && p.Y < g.size
}

// Neighbors returns the in-bounds cells adjacent to p in fixed
// right, down, left, up order. The order is load-bearing: path search
// tie-breaking depends on it.
func (g *Graph) Neighbors(p Position) []Position {
	dirs := [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	out := make([]Position, 0, 4)
	for _, d := range dirs {
		n := Position{X: p.X + d[0], Y: p.Y + d[1]}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// EdgeBlocked reports whether traversal between a and b is forbidden.
// Blocked edges are symmetric.
func (g *Graph) EdgeBlocked(a, b Position) bool {
	_, ok := g.blocked[edgeKey{a, b}]
	return ok
}

// RestrictedForTransit reports whether pos may not be passed through on a
// route from start to end. Arrival and departure are always allowed: pos is
// never restricted when it equals either endpoint.
func (g *Graph) RestrictedForTransit(pos, start, end Position) bool {
	if pos == start || pos == end {
		return false
	}
	_, ok := g.restricted[pos]
	return ok
}

// Cell returns the annotation for p, if any.
func (g *Graph) Cell(p Position) (Cell, bool) {
	c, ok := g.cells[p]
	return c, ok
}

// Stations returns station positions in discovery order.
func (g *Graph) Stations() []Position {
	return g.stations
}

// IsStation reports whether p is a bot station cell.
func (g *Graph) IsStation(p Position) bool {
	c, ok := g.cells[p]
	return ok && c.Class == ClassStation
}

// BlockedEdgeCount returns the number of blocked edges (undirected).
func (g *Graph) BlockedEdgeCount() int {
	return len(g.blocked) / 2
}

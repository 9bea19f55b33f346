package grid

import "testing"

func mustGraph(t *testing.T, size int, cells []Cell, blocked [][2]int) *Graph {
	t.Helper()
	g, err := New(size, cells, blocked)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func assertWalkable(t *testing.T, g *Graph, path []Position) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		if !path[i-1].Adjacent(path[i]) {
			t.Errorf("step %d: %s -> %s not adjacent", i, path[i-1], path[i])
		}
		if g.EdgeBlocked(path[i-1], path[i]) {
			t.Errorf("step %d: %s -> %s crosses blocked edge", i, path[i-1], path[i])
		}
	}
}

func TestShortestPathSameCell(t *testing.T) {
	g := mustGraph(t, 9, nil, nil)
	p := Position{X: 3, Y: 3}
	path := g.ShortestPath(p, p)
	if len(path) != 1 || path[0] != p {
		t.Errorf("path = %v, want [%s]", path, p)
	}
	if d := g.HopDistance(p, p); d != 0 {
		t.Errorf("distance = %d, want 0", d)
	}
}

func TestShortestPathOpenGrid(t *testing.T) {
	g := mustGraph(t, 3, nil, nil)
	start := Position{X: 0, Y: 0}
	end := Position{X: 2, Y: 2}
	path := g.ShortestPath(start, end)
	if len(path) != 5 {
		t.Fatalf("path length = %d, want 5 (%v)", len(path), path)
	}
	if path[0] != start || path[len(path)-1] != end {
		t.Errorf("endpoints wrong: %v", path)
	}
	assertWalkable(t, g, path)
	if d := g.HopDistance(start, end); d != 4 {
		t.Errorf("distance = %d, want 4", d)
	}
}

func TestShortestPathDetoursAroundBlockedEdge(t *testing.T) {
	// Block (0,3)-(1,3): ids with size 9 are 3*9+0+1=28 and 3*9+1+1=29.
	g := mustGraph(t, 9, nil, [][2]int{{28, 29}})
	start := Position{X: 0, Y: 3}
	end := Position{X: 1, Y: 3}
	path := g.ShortestPath(start, end)
	if len(path) == 0 {
		t.Fatal("no path found")
	}
	assertWalkable(t, g, path)
	if d := g.HopDistance(start, end); d != 3 {
		t.Errorf("distance = %d, want 3 detour", d)
	}
}

func TestShortestPathSkipsRestrictedCells(t *testing.T) {
	// Wall of restaurants across column 1 except a gap at (1,4). Routes from
	// column 0 to column 2 must funnel through the gap.
	var cells []Cell
	for y := 0; y < 9; y++ {
		if y == 4 {
			continue
		}
		cells = append(cells, Cell{Pos: Position{X: 1, Y: y}, Class: ClassRestaurant})
	}
	g := mustGraph(t, 9, cells, nil)

	start := Position{X: 0, Y: 0}
	end := Position{X: 2, Y: 0}
	path := g.ShortestPath(start, end)
	if len(path) == 0 {
		t.Fatal("no path found")
	}
	assertWalkable(t, g, path)
	for _, p := range path[1 : len(path)-1] {
		if g.RestrictedForTransit(p, start, end) {
			t.Errorf("path transits restricted cell %s", p)
		}
	}
	// Around via (1,4): 4 down + 1 right + 4 up = 10 hops.
	if d := g.HopDistance(start, end); d != 10 {
		t.Errorf("distance = %d, want 10", d)
	}
}

func TestShortestPathReachesRestrictedDestination(t *testing.T) {
	cells := []Cell{{Pos: Position{X: 2, Y: 2}, Class: ClassHouse}}
	g := mustGraph(t, 9, cells, nil)
	start := Position{X: 0, Y: 2}
	end := Position{X: 2, Y: 2}
	if d := g.HopDistance(start, end); d != 2 {
		t.Errorf("distance = %d, want 2", d)
	}
}

func TestShortestPathDepartsRestrictedStart(t *testing.T) {
	cells := []Cell{{Pos: Position{X: 5, Y: 5}, Class: ClassRestaurant}}
	g := mustGraph(t, 9, cells, nil)
	start := Position{X: 5, Y: 5}
	end := Position{X: 5, Y: 7}
	if d := g.HopDistance(start, end); d != 2 {
		t.Errorf("distance = %d, want 2", d)
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	// Seal off (0,0) by blocking both of its edges: ids 1-2 and 1-10.
	g := mustGraph(t, 9, nil, [][2]int{{1, 2}, {1, 10}})
	start := Position{X: 0, Y: 0}
	end := Position{X: 8, Y: 8}
	if path := g.ShortestPath(start, end); path != nil {
		t.Errorf("path = %v, want nil", path)
	}
	if d := g.HopDistance(start, end); d != Unreachable {
		t.Errorf("distance = %d, want %d", d, Unreachable)
	}
}

func TestShortestPathOutOfBounds(t *testing.T) {
	g := mustGraph(t, 9, nil, nil)
	if path := g.ShortestPath(Position{X: -1, Y: 0}, Position{X: 0, Y: 0}); path != nil {
		t.Errorf("path = %v, want nil", path)
	}
	if path := g.ShortestPath(Position{X: 0, Y: 0}, Position{X: 9, Y: 0}); path != nil {
		t.Errorf("path = %v, want nil", path)
	}
}

func TestShortestPathDeterministic(t *testing.T) {
	g := mustGraph(t, 9, nil, nil)
	start := Position{X: 1, Y: 1}
	end := Position{X: 6, Y: 4}
	first := g.ShortestPath(start, end)
	for i := 0; i < 10; i++ {
		again := g.ShortestPath(start, end)
		if len(again) != len(first) {
			t.Fatalf("run %d: length %d, want %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: step %d = %s, want %s", i, j, again[j], first[j])
			}
		}
	}
}

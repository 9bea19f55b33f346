package grid

import "fmt"

// Position is a cell on the city grid. Valid coordinates satisfy
// 0 <= X,Y < size for the graph they are used with.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Adjacent reports whether q is exactly one grid step from p.
func (p Position) Adjacent(q Position) bool {
	dx := p.X - q.X
	dy := p.Y - q.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}

// NodeClass categorizes a grid cell. Restaurants and houses are
// transit-restricted: a bot may start or end a route there but may not pass
// through on the way to somewhere else. Stations and plain cells are always
// passable.
type NodeClass string

const (
	ClassPlain      NodeClass = "PLAIN"
	ClassHouse      NodeClass = "HOUSE"
	ClassRestaurant NodeClass = "RESTAURANT"
	ClassStation    NodeClass = "BOT_STATION"
)

func (c NodeClass) RestrictsTransit() bool {
	return c == ClassRestaurant || c == ClassHouse
}

// Cell is one annotated grid position.
type Cell struct {
	Pos   Position
	Class NodeClass
	Kind  string // restaurant kind, empty otherwise
	Name  string
}

// LinearID converts a position to the 1-based row-major node id used by
// externally supplied topology data: id = y*size + x + 1.
func LinearID(p Position, size int) int {
	return p.Y*size + p.X + 1
}

// PositionFromLinearID is the inverse of LinearID.
func PositionFromLinearID(id, size int) Position {
	return Position{X: (id - 1) % size, Y: (id - 1) / size}
}

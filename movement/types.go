// Package movement drives bots one cell per tick toward pickups, deliveries,
// and home stations.
package movement

import (
	"gridcourier/grid"
)

type WaypointKind string

const (
	WaypointPickup   WaypointKind = "pickup"
	WaypointDelivery WaypointKind = "delivery"
)

// Waypoint is one planned stop. The struct is comparable and doubles as the
// idempotent completion key: a waypoint marked done stays done across full
// replans, independent of the order's persisted status.
type Waypoint struct {
	Kind    WaypointKind  `json:"kind"`
	OrderID int64         `json:"order_id"`
	Pos     grid.Position `json:"position"`
}

// botState is the controller-owned per-bot memory. Created lazily on the
// first tick touching a bot, discarded when the controller stops.
type botState struct {
	path      []grid.Position
	cursor    int
	plan      []Waypoint
	completed map[Waypoint]struct{}
	returning bool
	station   grid.Position
}

func newBotState() *botState {
	return &botState{completed: make(map[Waypoint]struct{})}
}

func (s *botState) complete(w Waypoint) {
	s.completed[w] = struct{}{}
}

func (s *botState) isCompleted(w Waypoint) bool {
	_, ok := s.completed[w]
	return ok
}

func (s *botState) clearRoute() {
	s.path = nil
	s.cursor = 0
}

// Package route composes the grid graph and path finder into multi-stop
// delivery itineraries and ad-hoc distance queries.
package route

import (
	"log"

	"gridcourier/grid"
)

// Order is the slice of order state the optimizer needs: where to pick up,
// where to deliver, and whether pickup already happened.
type Order struct {
	ID       string
	Pickup   grid.Position
	Delivery grid.Position
	PickedUp bool
}

// Leg is one stop in an itinerary. Hops is grid.Unreachable when no route
// to the stop exists from the preceding position.
type Leg struct {
	OrderID string        `json:"order_id"`
	Kind    string        `json:"kind"` // "pickup" or "delivery"
	To      grid.Position `json:"to"`
	Hops    int           `json:"hops"`
}

// Itinerary is the full planned run: the concatenated cell path, the per-stop
// legs, and the total hop count over reachable legs only. HasUnreachable is
// the explicit marker callers must check — TotalHops alone never encodes a
// failed leg.
type Itinerary struct {
	Path           []grid.Position `json:"path"`
	Legs           []Leg           `json:"legs"`
	TotalHops      int             `json:"total_hops"`
	HasUnreachable bool            `json:"has_unreachable"`
}

type Optimizer struct {
	graph *grid.Graph
}

// NewOptimizer wraps a topology snapshot. The graph is immutable; topology
// edits require a fresh Optimizer over a fresh graph.
func NewOptimizer(g *grid.Graph) *Optimizer {
	return &Optimizer{graph: g}
}

func (o *Optimizer) Graph() *grid.Graph { return o.graph }

// OptimizeRoute builds one itinerary over the given orders in their given
// order (FIFO): an order not yet picked up routes through pickup then
// delivery; an order already picked up routes straight to delivery. An
// unreachable leg is logged and skipped rather than aborting the itinerary.
func (o *Optimizer) OptimizeRoute(start grid.Position, orders []Order) *Itinerary {
	it := &Itinerary{Path: []grid.Position{start}}
	cur := start
	for _, ord := range orders {
		if !ord.PickedUp {
			cur = o.appendLeg(it, cur, ord.ID, "pickup", ord.Pickup)
		}
		cur = o.appendLeg(it, cur, ord.ID, "delivery", ord.Delivery)
	}
	return it
}

// appendLeg routes from cur to the stop, extends the itinerary, and returns
// the new current position. On an unreachable stop the current position is
// unchanged and the leg is recorded with Hops = grid.Unreachable.
func (o *Optimizer) appendLeg(it *Itinerary, cur grid.Position, orderID, kind string, to grid.Position) grid.Position {
	path := o.graph.ShortestPath(cur, to)
	if len(path) == 0 {
		log.Printf("route: order %s %s stop %s unreachable from %s", orderID, kind, to, cur)
		it.Legs = append(it.Legs, Leg{OrderID: orderID, Kind: kind, To: to, Hops: grid.Unreachable})
		it.HasUnreachable = true
		return cur
	}
	// Drop the joint position: path[0] is already the tail of it.Path.
	it.Path = append(it.Path, path[1:]...)
	hops := len(path) - 1
	it.Legs = append(it.Legs, Leg{OrderID: orderID, Kind: kind, To: to, Hops: hops})
	it.TotalHops += hops
	return to
}

// Distance is the two-point hop distance query used by assignment. Returns
// grid.Unreachable when no route exists.
func (o *Optimizer) Distance(a, b grid.Position) int {
	return o.graph.HopDistance(a, b)
}

package movement

import (
	"gridcourier/grid"
	"gridcourier/store"
)

// planWaypoints rebuilds the bot's full stop plan from scratch. Last tick's
// plan is never trusted: new orders may have landed since. Phase 1 schedules
// the remaining pickups nearest-first from the evolving position; phase 2
// schedules the remaining deliveries the same way. The completed set keeps
// finished stops out of the fresh plan.
func (c *Controller) planWaypoints(pos grid.Position, orders []*store.Order, st *botState) []Waypoint {
	var plan []Waypoint
	cur := pos

	var pickups []*store.Order
	for _, o := range orders {
		if o.Status != store.OrderAssigned {
			continue
		}
		if st.isCompleted(Waypoint{Kind: WaypointPickup, OrderID: o.ID, Pos: o.Pickup()}) {
			continue
		}
		pickups = append(pickups, o)
	}
	for len(pickups) > 0 {
		i := c.nearestOrder(cur, pickups, func(o *store.Order) grid.Position { return o.Pickup() })
		if i < 0 {
			break
		}
		o := pickups[i]
		plan = append(plan, Waypoint{Kind: WaypointPickup, OrderID: o.ID, Pos: o.Pickup()})
		cur = o.Pickup()
		pickups = append(pickups[:i], pickups[i+1:]...)
	}

	var deliveries []*store.Order
	for _, o := range orders {
		needsDelivery := o.Status == store.OrderPickedUp ||
			(o.Status == store.OrderAssigned && st.isCompleted(Waypoint{Kind: WaypointPickup, OrderID: o.ID, Pos: o.Pickup()}))
		if !needsDelivery {
			continue
		}
		if st.isCompleted(Waypoint{Kind: WaypointDelivery, OrderID: o.ID, Pos: o.Delivery()}) {
			continue
		}
		deliveries = append(deliveries, o)
	}
	for len(deliveries) > 0 {
		i := c.nearestOrder(cur, deliveries, func(o *store.Order) grid.Position { return o.Delivery() })
		if i < 0 {
			break
		}
		o := deliveries[i]
		plan = append(plan, Waypoint{Kind: WaypointDelivery, OrderID: o.ID, Pos: o.Delivery()})
		cur = o.Delivery()
		deliveries = append(deliveries[:i], deliveries[i+1:]...)
	}

	return plan
}

// nearestOrder returns the index of the order whose stop is fewest hops from
// pos, ties kept on the earlier entry, or -1 when every stop is unreachable.
func (c *Controller) nearestOrder(pos grid.Position, orders []*store.Order, stop func(*store.Order) grid.Position) int {
	best := -1
	bestDist := 0
	for i, o := range orders {
		d := c.opt.Distance(pos, stop(o))
		if d == grid.Unreachable {
			continue
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// nextWaypoint picks this tick's destination: the first planned stop that is
// not completed and, for a delivery, whose order is actually carryable —
// persisted PICKED_UP status is authoritative, the completed pickup key is
// the fallback.
func nextWaypoint(plan []Waypoint, orders []*store.Order, st *botState) (Waypoint, bool) {
	byID := make(map[int64]*store.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	for _, w := range plan {
		if st.isCompleted(w) {
			continue
		}
		if w.Kind == WaypointDelivery {
			o := byID[w.OrderID]
			if o == nil {
				continue
			}
			if o.Status != store.OrderPickedUp &&
				!st.isCompleted(Waypoint{Kind: WaypointPickup, OrderID: o.ID, Pos: o.Pickup()}) {
				continue
			}
		}
		return w, true
	}
	return Waypoint{}, false
}

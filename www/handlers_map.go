package www

import (
	"net/http"

	"gridcourier/grid"
	"gridcourier/store"
)

func (h *Handlers) apiMapSnapshot(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	nodes, err := db.ListNodes()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	bots, err := db.ListBots()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	orders, err := db.ListActiveOrders()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{
		"size":          h.engine.Graph().Size(),
		"nodes":         nodes,
		"bots":          bots,
		"active_orders": orders,
	})
}

func (h *Handlers) apiMapNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.engine.DB().ListNodes()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"nodes": nodes, "count": len(nodes)})
}

func (h *Handlers) apiMapRestaurants(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.engine.DB().ListNodesByType(grid.ClassRestaurant)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"restaurants": nodes, "count": len(nodes)})
}

func (h *Handlers) apiMapDeliveryPoints(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.engine.DB().ListNodesByType(grid.ClassHouse)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"delivery_points": nodes, "count": len(nodes)})
}

// blockedEdgeView annotates a blocked pair with positions and a direction
// label for map rendering. Pairs that are not grid-adjacent never affect
// routing; they are surfaced as "none" so operators can spot them.
type blockedEdgeView struct {
	ID        int64         `json:"id"`
	NodeA     int           `json:"node_a"`
	NodeB     int           `json:"node_b"`
	PosA      grid.Position `json:"pos_a"`
	PosB      grid.Position `json:"pos_b"`
	Direction string        `json:"direction"`
}

func (h *Handlers) apiMapBlocked(w http.ResponseWriter, r *http.Request) {
	edges, err := h.engine.DB().ListBlockedEdges()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	size := h.engine.Graph().Size()
	views := make([]blockedEdgeView, 0, len(edges))
	for _, e := range edges {
		a := grid.PositionFromLinearID(e.NodeA, size)
		b := grid.PositionFromLinearID(e.NodeB, size)
		views = append(views, blockedEdgeView{
			ID:        e.ID,
			NodeA:     e.NodeA,
			NodeB:     e.NodeB,
			PosA:      a,
			PosB:      b,
			Direction: directionLabel(a, b),
		})
	}
	h.jsonOK(w, map[string]any{"blocked_edges": views, "count": len(views)})
}

func directionLabel(a, b grid.Position) string {
	switch {
	case a.Y == b.Y && b.X == a.X+1:
		return "right"
	case a.Y == b.Y && b.X == a.X-1:
		return "left"
	case a.X == b.X && b.Y == a.Y+1:
		return "down"
	case a.X == b.X && b.Y == a.Y-1:
		return "up"
	default:
		return "none"
	}
}

func (h *Handlers) apiMapStats(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	nodes, err := db.ListNodes()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	bots, err := db.ListBots()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	orders, err := db.ListActiveOrders()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	nodesByType := make(map[string]int)
	for _, n := range nodes {
		nodesByType[string(n.NodeType)]++
	}
	botsByStatus := make(map[string]int)
	for _, b := range bots {
		botsByStatus[string(b.Status)]++
	}
	ordersByStatus := make(map[string]int)
	for _, o := range orders {
		ordersByStatus[string(o.Status)]++
	}

	h.jsonOK(w, map[string]any{
		"grid_size":        h.engine.Graph().Size(),
		"nodes_by_type":    nodesByType,
		"bots_by_status":   botsByStatus,
		"orders_by_status": ordersByStatus,
		"blocked_edges":    h.engine.Graph().BlockedEdgeCount(),
		"pending_orders":   ordersByStatus[string(store.OrderPending)],
	})
}

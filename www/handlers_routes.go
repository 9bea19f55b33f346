package www

import (
	"net/http"

	"gridcourier/grid"
)

func (h *Handlers) apiOptimizeAll(w http.ResponseWriter, r *http.Request) {
	itineraries, err := h.engine.OptimizeAll()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"itineraries": itineraries, "count": len(itineraries)})
}

func (h *Handlers) apiDistance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, k := range []string{"from_x", "from_y", "to_x", "to_y"} {
		if q.Get(k) == "" {
			h.jsonError(w, "from_x, from_y, to_x, to_y are required", http.StatusBadRequest)
			return
		}
	}
	from := grid.Position{X: queryInt(r, "from_x", 0), Y: queryInt(r, "from_y", 0)}
	to := grid.Position{X: queryInt(r, "to_x", 0), Y: queryInt(r, "to_y", 0)}

	d := h.engine.Distance(from, to)
	h.jsonOK(w, map[string]any{
		"from":      from,
		"to":        to,
		"distance":  d,
		"reachable": d != grid.Unreachable,
	})
}

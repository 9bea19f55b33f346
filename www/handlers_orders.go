package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridcourier/engine"
	"gridcourier/store"
)

func (h *Handlers) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateOrderParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}

	order, err := h.engine.CreateOrder(req)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrTooManyOrders):
			h.jsonError(w, err.Error(), http.StatusTooManyRequests)
		case errors.Is(err, engine.ErrInvalidPickup), errors.Is(err, engine.ErrInvalidDelivery):
			h.jsonError(w, err.Error(), http.StatusBadRequest)
		default:
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	status := store.OrderStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 100)

	orders, err := h.engine.DB().ListOrders(status, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"orders": orders, "count": len(orders)})
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.engine.DB().GetOrderByPublicID(chi.URLParam(r, "publicID"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "order not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, order)
}

func (h *Handlers) apiOrderHistory(w http.ResponseWriter, r *http.Request) {
	order, err := h.engine.DB().GetOrderByPublicID(chi.URLParam(r, "publicID"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "order not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	history, err := h.engine.DB().ListOrderHistory(order.ID)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"order": order, "history": history})
}

func (h *Handlers) apiRebalanceOrders(w http.ResponseWriter, r *http.Request) {
	assigned, err := h.engine.Assigner().Rebalance()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"assigned": assigned})
}

func (h *Handlers) apiCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional for cancellation.
	json.NewDecoder(r.Body).Decode(&req)

	order, err := h.engine.CancelOrder(chi.URLParam(r, "publicID"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.jsonError(w, "order not found", http.StatusNotFound)
		case errors.Is(err, engine.ErrOrderTerminal):
			h.jsonError(w, err.Error(), http.StatusConflict)
		default:
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	h.jsonOK(w, order)
}

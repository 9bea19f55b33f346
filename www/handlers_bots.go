package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gridcourier/store"
)

func botID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handlers) apiListBots(w http.ResponseWriter, r *http.Request) {
	// Prefer the live redis snapshots when fleet state is wired.
	if fs := h.engine.FleetState(); fs != nil && r.URL.Query().Get("live") == "true" {
		states, err := fs.GetAllBotStates()
		if err == nil {
			h.jsonOK(w, map[string]any{"bots": states, "live": true})
			return
		}
	}

	bots, err := h.engine.DB().ListBots()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"bots": bots, "count": len(bots)})
}

func (h *Handlers) apiGetBot(w http.ResponseWriter, r *http.Request) {
	id, err := botID(r)
	if err != nil {
		h.jsonError(w, "invalid bot id", http.StatusBadRequest)
		return
	}
	bot, err := h.engine.DB().GetBot(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "bot not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, bot)
}

func (h *Handlers) apiCreateBot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		X        int    `json:"x"`
		Y        int    `json:"y"`
		Capacity int    `json:"capacity"`
		Battery  int    `json:"battery"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Capacity <= 0 {
		req.Capacity = 3
	}
	if req.Battery <= 0 || req.Battery > 100 {
		req.Battery = 100
	}

	bot := &store.Bot{
		Name:     req.Name,
		X:        req.X,
		Y:        req.Y,
		Capacity: req.Capacity,
		Battery:  req.Battery,
	}
	if err := h.engine.DB().CreateBot(bot); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(bot)
}

func (h *Handlers) apiUpdateBot(w http.ResponseWriter, r *http.Request) {
	id, err := botID(r)
	if err != nil {
		h.jsonError(w, "invalid bot id", http.StatusBadRequest)
		return
	}
	bot, err := h.engine.DB().GetBot(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "bot not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Status   *string `json:"status"`
		Capacity *int    `json:"capacity"`
		Battery  *int    `json:"battery"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Name != nil {
		bot.Name = *req.Name
	}
	if req.Status != nil {
		switch store.BotStatus(*req.Status) {
		case store.BotIdle, store.BotBusy, store.BotMaintenance:
			bot.Status = store.BotStatus(*req.Status)
		default:
			h.jsonError(w, "invalid status", http.StatusBadRequest)
			return
		}
	}
	if req.Capacity != nil && *req.Capacity > 0 {
		bot.Capacity = *req.Capacity
	}
	if req.Battery != nil && *req.Battery >= 1 && *req.Battery <= 100 {
		bot.Battery = *req.Battery
	}

	if err := h.engine.DB().UpdateBot(bot); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, bot)
}

func (h *Handlers) apiDeleteBot(w http.ResponseWriter, r *http.Request) {
	id, err := botID(r)
	if err != nil {
		h.jsonError(w, "invalid bot id", http.StatusBadRequest)
		return
	}
	active, err := h.engine.DB().ListActiveOrdersForBot(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(active) > 0 {
		h.jsonError(w, "bot has active orders", http.StatusConflict)
		return
	}
	if err := h.engine.DB().DeleteBot(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if fs := h.engine.FleetState(); fs != nil {
		fs.RemoveBot(id)
	}
	h.jsonOK(w, map[string]string{"status": "deleted"})
}

func (h *Handlers) apiBotEfficiency(w http.ResponseWriter, r *http.Request) {
	id, err := botID(r)
	if err != nil {
		h.jsonError(w, "invalid bot id", http.StatusBadRequest)
		return
	}
	eff, err := h.engine.BotEfficiency(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "bot not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, eff)
}

func (h *Handlers) apiBotProgress(w http.ResponseWriter, r *http.Request) {
	id, err := botID(r)
	if err != nil {
		h.jsonError(w, "invalid bot id", http.StatusBadRequest)
		return
	}
	progress, err := h.engine.Controller().BotProgress(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "bot not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, progress)
}

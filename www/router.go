// Package www is the JSON API surface: orders, bots, map, routes, and
// autopilot control, plus the SSE event stream.
package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"gridcourier/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	eventHub *EventHub
}

func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: hub,
	}

	h.ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE
	r.Get("/events", hub.SSEHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealth)

		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)

		// Orders
		r.Post("/orders", h.apiCreateOrder)
		r.Get("/orders", h.apiListOrders)
		r.Get("/orders/{publicID}", h.apiGetOrder)
		r.Get("/orders/{publicID}/history", h.apiOrderHistory)
		r.Post("/orders/{publicID}/cancel", h.apiCancelOrder)

		// Bots
		r.Get("/bots", h.apiListBots)
		r.Get("/bots/{id}", h.apiGetBot)
		r.Get("/bots/{id}/efficiency", h.apiBotEfficiency)
		r.Get("/bots/{id}/progress", h.apiBotProgress)

		// Map
		r.Get("/map", h.apiMapSnapshot)
		r.Get("/map/nodes", h.apiMapNodes)
		r.Get("/map/restaurants", h.apiMapRestaurants)
		r.Get("/map/delivery-points", h.apiMapDeliveryPoints)
		r.Get("/map/blocked", h.apiMapBlocked)
		r.Get("/map/stats", h.apiMapStats)

		// Routes
		r.Get("/routes/optimize", h.apiOptimizeAll)
		r.Get("/routes/distance", h.apiDistance)

		// Autopilot status is open; control is protected below.
		r.Get("/autopilot/status", h.apiAutopilotStatus)
		r.Get("/autopilot/system-status", h.apiSystemStatus)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/orders/rebalance", h.apiRebalanceOrders)
			r.Post("/bots", h.apiCreateBot)
			r.Put("/bots/{id}", h.apiUpdateBot)
			r.Delete("/bots/{id}", h.apiDeleteBot)
			r.Post("/autopilot/start", h.apiAutopilotStart)
			r.Post("/autopilot/stop", h.apiAutopilotStop)
			r.Get("/settings", h.apiGetSettings)
			r.Post("/settings/messaging", h.apiUpdateMessagingSettings)
		})
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	msgConnected := false
	if c := h.engine.MsgClient(); c != nil {
		msgConnected = c.IsConnected()
	}
	h.jsonOK(w, map[string]any{
		"status":      "ok",
		"autopilot":   h.engine.Controller().Status().Running,
		"messaging":   msgConnected,
		"sse_clients": h.eventHub.ClientCount(),
	})
}

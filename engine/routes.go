package engine

import (
	"gridcourier/grid"
	"gridcourier/route"
	"gridcourier/store"
)

// BotItinerary pairs a bot with its planned multi-stop run.
type BotItinerary struct {
	BotID     int64            `json:"bot_id"`
	BotName   string           `json:"bot_name"`
	Position  grid.Position    `json:"position"`
	Itinerary *route.Itinerary `json:"itinerary"`
}

// BotEfficiency is the per-bot delivery report.
type BotEfficiency struct {
	BotID           int64   `json:"bot_id"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	Battery         int     `json:"battery"`
	CurrentLoad     int     `json:"current_load"`
	Capacity        int     `json:"capacity"`
	TotalOrders     int     `json:"total_orders"`
	DeliveredOrders int     `json:"delivered_orders"`
	ActiveOrders    int     `json:"active_orders"`
	ItineraryHops   int     `json:"itinerary_hops"`
	DeliveryRate    float64 `json:"delivery_rate"`
}

// OptimizeAll builds a fresh FIFO itinerary for every bot carrying active
// orders.
func (e *Engine) OptimizeAll() ([]*BotItinerary, error) {
	bots, err := e.db.ListBots()
	if err != nil {
		return nil, err
	}
	var out []*BotItinerary
	for _, b := range bots {
		orders, err := e.db.ListActiveOrdersForBot(b.ID)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			continue
		}
		out = append(out, &BotItinerary{
			BotID:     b.ID,
			BotName:   b.Name,
			Position:  b.Position(),
			Itinerary: e.optimizer.OptimizeRoute(b.Position(), toRouteOrders(orders)),
		})
	}
	return out, nil
}

// Distance is the two-point hop query, grid.Unreachable when no route exists.
func (e *Engine) Distance(a, b grid.Position) int {
	return e.optimizer.Distance(a, b)
}

// BotEfficiency reports lifetime and in-flight figures for one bot.
func (e *Engine) BotEfficiency(botID int64) (*BotEfficiency, error) {
	bot, err := e.db.GetBot(botID)
	if err != nil {
		return nil, err
	}
	total, delivered, err := e.db.CountOrdersForBot(botID)
	if err != nil {
		return nil, err
	}
	orders, err := e.db.ListActiveOrdersForBot(botID)
	if err != nil {
		return nil, err
	}

	eff := &BotEfficiency{
		BotID:           bot.ID,
		Name:            bot.Name,
		Status:          string(bot.Status),
		Battery:         bot.Battery,
		CurrentLoad:     bot.CurrentLoad,
		Capacity:        bot.Capacity,
		TotalOrders:     total,
		DeliveredOrders: delivered,
		ActiveOrders:    len(orders),
	}
	if len(orders) > 0 {
		it := e.optimizer.OptimizeRoute(bot.Position(), toRouteOrders(orders))
		eff.ItineraryHops = it.TotalHops
	}
	if total > 0 {
		eff.DeliveryRate = float64(delivered) / float64(total)
	}
	return eff, nil
}

func toRouteOrders(orders []*store.Order) []route.Order {
	out := make([]route.Order, len(orders))
	for i, o := range orders {
		out[i] = route.Order{
			ID:       o.PublicID,
			Pickup:   o.Pickup(),
			Delivery: o.Delivery(),
			PickedUp: o.Status == store.OrderPickedUp,
		}
	}
	return out
}

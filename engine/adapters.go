package engine

import (
	"gridcourier/store"
)

// dispatchEmitter bridges the dispatch package's emitter interface to the EventBus.
type dispatchEmitter struct {
	bus *EventBus
}

func (e *dispatchEmitter) OrderAssigned(order *store.Order, bot *store.Bot, cost int) {
	e.bus.Emit(Event{Type: EventOrderAssigned, Payload: OrderAssignedEvent{
		OrderID:  order.ID,
		PublicID: order.PublicID,
		BotID:    bot.ID,
		BotName:  bot.Name,
		Cost:     cost,
	}})
}

func (e *dispatchEmitter) OrderDeferred(order *store.Order, reason string) {
	e.bus.Emit(Event{Type: EventOrderDeferred, Payload: OrderDeferredEvent{
		OrderID:  order.ID,
		PublicID: order.PublicID,
		Reason:   reason,
	}})
}

// movementEmitter bridges the movement controller's post-commit callbacks to the EventBus.
type movementEmitter struct {
	bus *EventBus
}

func (e *movementEmitter) BotMoved(bot *store.Bot) {
	e.bus.Emit(Event{Type: EventBotMoved, Payload: BotMovedEvent{
		BotID:       bot.ID,
		Name:        bot.Name,
		Position:    bot.Position(),
		Status:      string(bot.Status),
		Battery:     bot.Battery,
		CurrentLoad: bot.CurrentLoad,
	}})
}

func (e *movementEmitter) BotDocked(bot *store.Bot) {
	e.bus.Emit(Event{Type: EventBotDocked, Payload: BotDockedEvent{
		BotID:    bot.ID,
		Name:     bot.Name,
		Position: bot.Position(),
		Battery:  bot.Battery,
	}})
}

func (e *movementEmitter) OrderPickedUp(order *store.Order, bot *store.Bot) {
	e.bus.Emit(Event{Type: EventOrderPickedUp, Payload: OrderPickedUpEvent{
		OrderID:  order.ID,
		PublicID: order.PublicID,
		BotID:    bot.ID,
		Position: bot.Position(),
	}})
}

func (e *movementEmitter) OrderDelivered(order *store.Order, bot *store.Bot) {
	e.bus.Emit(Event{Type: EventOrderDelivered, Payload: OrderDeliveredEvent{
		OrderID:  order.ID,
		PublicID: order.PublicID,
		BotID:    bot.ID,
		Position: bot.Position(),
		Battery:  bot.Battery,
	}})
}

package engine

import (
	"gridcourier/fleetstate"
	"gridcourier/messaging"
)

func (e *Engine) wireEventHandlers() {
	// Lifecycle events go to the kafka outbox for downstream consumers.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderCreatedEvent)
		e.logFn("engine: order %d created: %s %s -> %s", ev.OrderID, ev.Kind, ev.Pickup, ev.Delivery)
		e.enqueueEvent(messaging.MsgOrderCreated, messaging.OrderCreatedMsg{
			OrderUUID: ev.PublicID,
			Kind:      ev.Kind,
			PickupX:   ev.Pickup.X,
			PickupY:   ev.Pickup.Y,
			DeliveryX: ev.Delivery.X,
			DeliveryY: ev.Delivery.Y,
		})
	}, EventOrderCreated)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderAssignedEvent)
		e.enqueueEvent(messaging.MsgOrderAssigned, messaging.OrderAssignedMsg{
			OrderUUID: ev.PublicID,
			BotID:     ev.BotID,
			BotName:   ev.BotName,
			Cost:      ev.Cost,
		})
	}, EventOrderAssigned)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderDeferredEvent)
		e.logFn("engine: order %d deferred: %s", ev.OrderID, ev.Reason)
	}, EventOrderDeferred)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderPickedUpEvent)
		e.enqueueEvent(messaging.MsgOrderPickedUp, messaging.OrderPickedUpMsg{
			OrderUUID: ev.PublicID,
			BotID:     ev.BotID,
			X:         ev.Position.X,
			Y:         ev.Position.Y,
		})
	}, EventOrderPickedUp)

	// A delivery frees carrying capacity: replay pending orders right away
	// instead of waiting for the next order to arrive.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderDeliveredEvent)
		e.logFn("engine: order %d delivered by bot %d at %s", ev.OrderID, ev.BotID, ev.Position)
		e.enqueueEvent(messaging.MsgOrderDelivered, messaging.OrderDeliveredMsg{
			OrderUUID: ev.PublicID,
			BotID:     ev.BotID,
			X:         ev.Position.X,
			Y:         ev.Position.Y,
			Battery:   ev.Battery,
		})
		if _, err := e.assigner.Rebalance(); err != nil {
			e.logFn("engine: rebalance after delivery: %v", err)
		}
	}, EventOrderDelivered)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderCancelledEvent)
		e.logFn("engine: order %d cancelled: %s", ev.OrderID, ev.Reason)
		e.enqueueEvent(messaging.MsgOrderCancelled, messaging.OrderCancelledMsg{
			OrderUUID: ev.PublicID,
			Reason:    ev.Reason,
		})
		if _, err := e.assigner.Rebalance(); err != nil {
			e.logFn("engine: rebalance after cancel: %v", err)
		}
	}, EventOrderCancelled)

	// Bot telemetry mirrors into the redis fleet state.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(BotMovedEvent)
		e.mirrorBot(ev.BotID, ev.Name, ev.Status, ev.Position.X, ev.Position.Y, ev.Battery, ev.CurrentLoad)
	}, EventBotMoved)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(BotDockedEvent)
		e.logFn("engine: bot %d docked at %s, battery %d", ev.BotID, ev.Position, ev.Battery)
		e.mirrorBot(ev.BotID, ev.Name, "IDLE", ev.Position.X, ev.Position.Y, ev.Battery, 0)
		e.enqueueEvent(messaging.MsgBotDocked, messaging.BotDockedMsg{
			BotID:   ev.BotID,
			Name:    ev.Name,
			X:       ev.Position.X,
			Y:       ev.Position.Y,
			Battery: ev.Battery,
		})
	}, EventBotDocked)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(AutopilotEvent)
		e.logFn("engine: autopilot running=%v", ev.Running)
	}, EventAutopilotStarted, EventAutopilotStopped)
}

// enqueueEvent wraps a payload in an envelope and parks it in the outbox; the
// drainer publishes it when kafka is reachable.
func (e *Engine) enqueueEvent(msgType string, payload any) {
	env := messaging.NewEnvelope(msgType, e.cfg.Messaging.Source, payload)
	data, err := env.Encode()
	if err != nil {
		e.logFn("engine: encode %s event: %v", msgType, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.cfg.Messaging.EventsTopic, data, msgType); err != nil {
		e.logFn("engine: enqueue %s event: %v", msgType, err)
	}
}

func (e *Engine) mirrorBot(botID int64, name, status string, x, y, battery, load int) {
	if e.fleet == nil {
		return
	}
	returning := false
	if p, err := e.controller.BotProgress(botID); err == nil {
		returning = p.ReturningToStation
	}
	if err := e.fleet.Update(&fleetstate.BotSnapshot{
		BotID:       botID,
		Name:        name,
		Status:      status,
		X:           x,
		Y:           y,
		Battery:     battery,
		CurrentLoad: load,
		Returning:   returning,
	}); err != nil {
		e.logFn("engine: fleet state update bot %d: %v", botID, err)
	}
}

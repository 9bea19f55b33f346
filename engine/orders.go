package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gridcourier/grid"
	"gridcourier/store"
)

var (
	ErrInvalidPickup   = errors.New("pickup is not a restaurant serving the requested kind")
	ErrInvalidDelivery = errors.New("delivery is not a house")
	ErrTooManyOrders   = errors.New("restaurant is at its order limit, try again shortly")
	ErrOrderTerminal   = errors.New("order already completed or cancelled")
)

type CreateOrderParams struct {
	PickupX   int    `json:"pickup_x"`
	PickupY   int    `json:"pickup_y"`
	DeliveryX int    `json:"delivery_x"`
	DeliveryY int    `json:"delivery_y"`
	Kind      string `json:"restaurant_kind"`
}

// CreateOrder validates the endpoints against the city layout, applies the
// restaurant intake throttle, persists the order, and attempts an immediate
// assignment. A deferred assignment leaves the order PENDING, not failed.
func (e *Engine) CreateOrder(p CreateOrderParams) (*store.Order, error) {
	kind := strings.ToUpper(strings.TrimSpace(p.Kind))

	pickup := grid.Position{X: p.PickupX, Y: p.PickupY}
	delivery := grid.Position{X: p.DeliveryX, Y: p.DeliveryY}
	if !e.graph.InBounds(pickup) || !e.graph.InBounds(delivery) {
		return nil, fmt.Errorf("%w: position out of bounds", ErrInvalidPickup)
	}

	pickupNode, err := e.db.GetNodeAt(p.PickupX, p.PickupY)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no node at %s", ErrInvalidPickup, pickup)
		}
		return nil, err
	}
	if pickupNode.NodeType != grid.ClassRestaurant || !strings.EqualFold(pickupNode.Kind, kind) {
		return nil, fmt.Errorf("%w: %s at %s", ErrInvalidPickup, pickupNode.NodeType, pickup)
	}

	deliveryNode, err := e.db.GetNodeAt(p.DeliveryX, p.DeliveryY)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no node at %s", ErrInvalidDelivery, delivery)
		}
		return nil, err
	}
	if deliveryNode.NodeType != grid.ClassHouse {
		return nil, fmt.Errorf("%w: %s at %s", ErrInvalidDelivery, deliveryNode.NodeType, delivery)
	}

	if limit := e.cfg.Grid.RestaurantOrderLimit; limit > 0 {
		count, err := e.db.CountRecentActiveOrdersAtPickup(p.PickupX, p.PickupY, e.cfg.Grid.RestaurantWindow)
		if err != nil {
			return nil, fmt.Errorf("order intake count: %w", err)
		}
		if count >= limit {
			return nil, fmt.Errorf("%w: %d active at %s", ErrTooManyOrders, count, pickup)
		}
	}

	order := &store.Order{
		PublicID:       uuid.New().String(),
		PickupX:        p.PickupX,
		PickupY:        p.PickupY,
		DeliveryX:      p.DeliveryX,
		DeliveryY:      p.DeliveryY,
		RestaurantKind: kind,
	}
	if err := e.db.CreateOrder(order); err != nil {
		return nil, err
	}

	e.Events.Emit(Event{Type: EventOrderCreated, Payload: OrderCreatedEvent{
		OrderID:  order.ID,
		PublicID: order.PublicID,
		Kind:     kind,
		Pickup:   pickup,
		Delivery: delivery,
	}})

	if _, err := e.assigner.Assign(order); err != nil {
		e.logFn("engine: assign order %d: %v", order.ID, err)
	}
	return order, nil
}

// CancelOrder moves a non-terminal order to CANCELLED and releases the
// assigned bot's load, if any. A busy bot with no active work left goes
// straight back to IDLE so the next rebalance pass can pick it up.
func (e *Engine) CancelOrder(publicID, reason string) (*store.Order, error) {
	order, err := e.db.GetOrderByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderTerminal, publicID, order.Status)
	}
	if reason == "" {
		reason = "cancelled by caller"
	}

	if err := e.db.UpdateOrderStatus(order.ID, store.OrderCancelled, reason); err != nil {
		return nil, err
	}
	order.Status = store.OrderCancelled

	if order.BotID != nil {
		bot, err := e.db.GetBot(*order.BotID)
		if err == nil {
			if bot.CurrentLoad > 0 {
				bot.CurrentLoad--
			}
			if bot.Status == store.BotBusy && bot.CurrentLoad < bot.Capacity {
				remaining, err := e.db.ListActiveOrdersForBot(bot.ID)
				if err == nil && len(remaining) == 0 {
					bot.Status = store.BotIdle
				}
			}
			if err := e.db.UpdateBot(bot); err != nil {
				e.logFn("engine: release bot %d after cancel: %v", bot.ID, err)
			}
		}
	}

	e.Events.Emit(Event{Type: EventOrderCancelled, Payload: OrderCancelledEvent{
		OrderID:  order.ID,
		PublicID: order.PublicID,
		Reason:   reason,
	}})
	return order, nil
}

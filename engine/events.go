package engine

import "gridcourier/grid"

const (
	EventOrderCreated EventType = iota + 1
	EventOrderAssigned
	EventOrderDeferred
	EventOrderPickedUp
	EventOrderDelivered
	EventOrderCancelled
	EventBotMoved
	EventBotDocked
	EventAutopilotStarted
	EventAutopilotStopped
	EventMessagingConnected
	EventMessagingDisconnected
)

// --- Event payloads ---

type OrderCreatedEvent struct {
	OrderID  int64
	PublicID string
	Kind     string
	Pickup   grid.Position
	Delivery grid.Position
}

type OrderAssignedEvent struct {
	OrderID  int64
	PublicID string
	BotID    int64
	BotName  string
	Cost     int
}

type OrderDeferredEvent struct {
	OrderID  int64
	PublicID string
	Reason   string
}

type OrderPickedUpEvent struct {
	OrderID  int64
	PublicID string
	BotID    int64
	Position grid.Position
}

type OrderDeliveredEvent struct {
	OrderID  int64
	PublicID string
	BotID    int64
	Position grid.Position
	Battery  int
}

type OrderCancelledEvent struct {
	OrderID  int64
	PublicID string
	Reason   string
}

type BotMovedEvent struct {
	BotID       int64
	Name        string
	Position    grid.Position
	Status      string
	Battery     int
	CurrentLoad int
}

type BotDockedEvent struct {
	BotID    int64
	Name     string
	Position grid.Position
	Battery  int
}

type AutopilotEvent struct {
	Running bool
}

type ConnectionEvent struct {
	Detail string
}

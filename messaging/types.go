package messaging

import "time"

// Envelope is the typed wrapper for every message gridcourier publishes.
type Envelope struct {
	MsgType   string    `json:"msg_type"`
	MsgID     string    `json:"msg_id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Message types carried on the events topic.
const (
	MsgOrderCreated   = "order.created"
	MsgOrderAssigned  = "order.assigned"
	MsgOrderPickedUp  = "order.picked_up"
	MsgOrderDelivered = "order.delivered"
	MsgOrderCancelled = "order.cancelled"
	MsgBotDocked      = "bot.docked"
)

// --- Event payloads ---

type OrderCreatedMsg struct {
	OrderUUID string `json:"order_uuid"`
	Kind      string `json:"restaurant_kind"`
	PickupX   int    `json:"pickup_x"`
	PickupY   int    `json:"pickup_y"`
	DeliveryX int    `json:"delivery_x"`
	DeliveryY int    `json:"delivery_y"`
}

type OrderAssignedMsg struct {
	OrderUUID string `json:"order_uuid"`
	BotID     int64  `json:"bot_id"`
	BotName   string `json:"bot_name"`
	Cost      int    `json:"cost"`
}

type OrderPickedUpMsg struct {
	OrderUUID string `json:"order_uuid"`
	BotID     int64  `json:"bot_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

type OrderDeliveredMsg struct {
	OrderUUID string `json:"order_uuid"`
	BotID     int64  `json:"bot_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Battery   int    `json:"battery"`
}

type OrderCancelledMsg struct {
	OrderUUID string `json:"order_uuid"`
	Reason    string `json:"reason"`
}

type BotDockedMsg struct {
	BotID   int64  `json:"bot_id"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Battery int    `json:"battery"`
}

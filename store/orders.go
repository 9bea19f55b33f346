package store

import (
	"database/sql"
	"fmt"
	"time"

	"gridcourier/grid"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderAssigned  OrderStatus = "ASSIGNED"
	OrderPickedUp  OrderStatus = "PICKED_UP"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Active reports whether the order is assigned work in progress.
func (s OrderStatus) Active() bool {
	return s == OrderAssigned || s == OrderPickedUp
}

type Order struct {
	ID             int64       `json:"id"`
	PublicID       string      `json:"public_id"`
	PickupX        int         `json:"pickup_x"`
	PickupY        int         `json:"pickup_y"`
	DeliveryX      int         `json:"delivery_x"`
	DeliveryY      int         `json:"delivery_y"`
	RestaurantKind string      `json:"restaurant_kind"`
	Status         OrderStatus `json:"status"`
	BotID          *int64      `json:"bot_id,omitempty"`
	EstDistance    int         `json:"est_distance"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
}

func (o *Order) Pickup() grid.Position   { return grid.Position{X: o.PickupX, Y: o.PickupY} }
func (o *Order) Delivery() grid.Position { return grid.Position{X: o.DeliveryX, Y: o.DeliveryY} }

type OrderHistory struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const orderSelectCols = `id, public_id, pickup_x, pickup_y, delivery_x, delivery_y, restaurant_kind, status, bot_id, est_distance, created_at, updated_at, completed_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var botID sql.NullInt64
	var createdAt, updatedAt, completedAt any

	err := row.Scan(&o.ID, &o.PublicID, &o.PickupX, &o.PickupY, &o.DeliveryX, &o.DeliveryY,
		&o.RestaurantKind, &o.Status, &botID, &o.EstDistance, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if botID.Valid {
		o.BotID = &botID.Int64
	}
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	o.CompletedAt = parseTimePtr(completedAt)
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (db *DB) CreateOrder(o *Order) error {
	if o.Status == "" {
		o.Status = OrderPending
	}
	result, err := db.Exec(db.Q(`INSERT INTO orders (public_id, pickup_x, pickup_y, delivery_x, delivery_y, restaurant_kind, status) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		o.PublicID, o.PickupX, o.PickupY, o.DeliveryX, o.DeliveryY, o.RestaurantKind, o.Status)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create order last id: %w", err)
	}
	o.ID = id
	_, err = db.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, 'order created')`),
		o.ID, o.Status)
	return err
}

func (db *DB) GetOrder(id int64) (*Order, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE id=?`, orderSelectCols)), id)
	return scanOrder(row)
}

func (db *DB) GetOrderByPublicID(publicID string) (*Order, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE public_id=?`, orderSelectCols)), publicID)
	return scanOrder(row)
}

func (db *DB) UpdateOrderStatus(id int64, status OrderStatus, detail string) error {
	var err error
	if status.Terminal() {
		_, err = db.Exec(db.Q(`UPDATE orders SET status=?, completed_at=datetime('now','localtime'), updated_at=datetime('now','localtime') WHERE id=?`),
			status, id)
	} else {
		_, err = db.Exec(db.Q(`UPDATE orders SET status=?, updated_at=datetime('now','localtime') WHERE id=?`),
			status, id)
	}
	if err != nil {
		return err
	}
	_, err = db.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
		id, status, detail)
	return err
}

// AssignOrder binds a bot to a pending order and records the assignment cost.
func (db *DB) AssignOrder(id, botID int64, estDistance int) error {
	_, err := db.Exec(db.Q(`UPDATE orders SET status=?, bot_id=?, est_distance=?, updated_at=datetime('now','localtime') WHERE id=?`),
		OrderAssigned, botID, estDistance, id)
	if err != nil {
		return err
	}
	_, err = db.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
		id, OrderAssigned, fmt.Sprintf("assigned to bot %d at cost %d", botID, estDistance))
	return err
}

func (db *DB) ListOrders(status OrderStatus, limit int) ([]*Order, error) {
	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE status=? ORDER BY id DESC LIMIT ?`, orderSelectCols)), status, limit)
	} else {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders ORDER BY id DESC LIMIT ?`, orderSelectCols)), limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListPendingOrders returns unassigned orders in creation order, the order
// rebalancing walks them in.
func (db *DB) ListPendingOrders() ([]*Order, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE status=? ORDER BY id`, orderSelectCols)), OrderPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListActiveOrdersForBot returns the bot's ASSIGNED and PICKED_UP orders in
// creation order.
func (db *DB) ListActiveOrdersForBot(botID int64) ([]*Order, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE bot_id=? AND status IN (?, ?) ORDER BY id`, orderSelectCols)),
		botID, OrderAssigned, OrderPickedUp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) ListActiveOrders() ([]*Order, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE status IN (?, ?, ?) ORDER BY id`, orderSelectCols)),
		OrderPending, OrderAssigned, OrderPickedUp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// CountRecentActiveOrdersAtPickup counts non-terminal orders picking up at
// (x,y) created within the trailing window. Used to throttle restaurant
// order intake.
func (db *DB) CountRecentActiveOrdersAtPickup(x, y int, window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window)
	var cutoffArg any = cutoff
	if db.driver == "sqlite" {
		// created_at is a localtime text column; the format compares
		// lexicographically.
		cutoffArg = cutoff.Format("2006-01-02 15:04:05")
	}
	var count int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM orders WHERE pickup_x=? AND pickup_y=? AND status IN (?, ?, ?) AND created_at >= ?`),
		x, y, OrderPending, OrderAssigned, OrderPickedUp, cutoffArg).Scan(&count)
	return count, err
}

// CountOrdersForBot returns the bot's lifetime order total and how many of
// those were delivered.
func (db *DB) CountOrdersForBot(botID int64) (total, delivered int, err error) {
	err = db.QueryRow(db.Q(`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status=? THEN 1 ELSE 0 END), 0) FROM orders WHERE bot_id=?`),
		OrderDelivered, botID).Scan(&total, &delivered)
	return total, delivered, err
}

func (db *DB) ListOrderHistory(orderID int64) ([]*OrderHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, order_id, status, detail, created_at FROM order_history WHERE order_id=? ORDER BY id`), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []*OrderHistory
	for rows.Next() {
		var h OrderHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		history = append(history, &h)
	}
	return history, rows.Err()
}

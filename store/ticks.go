package store

import (
	"database/sql"
	"fmt"
)

// TickTx scopes one movement-loop tick to a single transaction: all bot and
// order reads happen against a consistent snapshot and every mutation lands
// atomically at Commit.
type TickTx struct {
	tx *sql.Tx
	db *DB
}

func (db *DB) BeginTick() (*TickTx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tick: %w", err)
	}
	return &TickTx{tx: tx, db: db}, nil
}

func (t *TickTx) Commit() error   { return t.tx.Commit() }
func (t *TickTx) Rollback() error { return t.tx.Rollback() }

func (t *TickTx) ListBots() ([]*Bot, error) {
	rows, err := t.tx.Query(fmt.Sprintf(`SELECT %s FROM bots ORDER BY id`, botSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bots []*Bot
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, err
		}
		bots = append(bots, b)
	}
	return bots, rows.Err()
}

func (t *TickTx) ListActiveOrdersForBot(botID int64) ([]*Order, error) {
	rows, err := t.tx.Query(t.db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE bot_id=? AND status IN (?, ?) ORDER BY id`, orderSelectCols)),
		botID, OrderAssigned, OrderPickedUp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// SaveBot writes the fields the movement loop mutates.
func (t *TickTx) SaveBot(b *Bot) error {
	_, err := t.tx.Exec(t.db.Q(`UPDATE bots SET x=?, y=?, status=?, current_load=?, battery=?, updated_at=datetime('now','localtime') WHERE id=?`),
		b.X, b.Y, b.Status, b.CurrentLoad, b.Battery, b.ID)
	return err
}

func (t *TickTx) SetOrderStatus(id int64, status OrderStatus, detail string) error {
	var err error
	if status.Terminal() {
		_, err = t.tx.Exec(t.db.Q(`UPDATE orders SET status=?, completed_at=datetime('now','localtime'), updated_at=datetime('now','localtime') WHERE id=?`),
			status, id)
	} else {
		_, err = t.tx.Exec(t.db.Q(`UPDATE orders SET status=?, updated_at=datetime('now','localtime') WHERE id=?`),
			status, id)
	}
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
		id, status, detail)
	return err
}

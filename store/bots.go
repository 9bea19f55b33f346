package store

import (
	"fmt"
	"time"

	"gridcourier/grid"
)

type BotStatus string

const (
	BotIdle        BotStatus = "IDLE"
	BotBusy        BotStatus = "BUSY"
	BotMaintenance BotStatus = "MAINTENANCE"
)

type Bot struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Status      BotStatus `json:"status"`
	Capacity    int       `json:"capacity"`
	CurrentLoad int       `json:"current_load"`
	Battery     int       `json:"battery"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b *Bot) Position() grid.Position { return grid.Position{X: b.X, Y: b.Y} }

func (b *Bot) SetPosition(p grid.Position) {
	b.X = p.X
	b.Y = p.Y
}

const botSelectCols = `id, name, x, y, status, capacity, current_load, battery, created_at, updated_at`

func scanBot(row interface{ Scan(...any) error }) (*Bot, error) {
	var b Bot
	var createdAt, updatedAt any
	err := row.Scan(&b.ID, &b.Name, &b.X, &b.Y, &b.Status, &b.Capacity, &b.CurrentLoad, &b.Battery, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func (db *DB) CreateBot(b *Bot) error {
	if b.Status == "" {
		b.Status = BotIdle
	}
	result, err := db.Exec(db.Q(`INSERT INTO bots (name, x, y, status, capacity, current_load, battery) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		b.Name, b.X, b.Y, b.Status, b.Capacity, b.CurrentLoad, b.Battery)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create bot last id: %w", err)
	}
	b.ID = id
	return nil
}

func (db *DB) GetBot(id int64) (*Bot, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM bots WHERE id=?`, botSelectCols)), id)
	return scanBot(row)
}

func (db *DB) ListBots() ([]*Bot, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM bots ORDER BY id`, botSelectCols))
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

func (db *DB) UpdateBot(b *Bot) error {
	_, err := db.Exec(db.Q(`UPDATE bots SET name=?, x=?, y=?, status=?, capacity=?, current_load=?, battery=?, updated_at=datetime('now','localtime') WHERE id=?`),
		b.Name, b.X, b.Y, b.Status, b.Capacity, b.CurrentLoad, b.Battery, b.ID)
	return err
}

// UpdateBotTick writes only the fields the movement loop mutates.
func (db *DB) UpdateBotTick(b *Bot) error {
	_, err := db.Exec(db.Q(`UPDATE bots SET x=?, y=?, status=?, current_load=?, battery=?, updated_at=datetime('now','localtime') WHERE id=?`),
		b.X, b.Y, b.Status, b.CurrentLoad, b.Battery, b.ID)
	return err
}

func (db *DB) DeleteBot(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM bots WHERE id=?`), id)
	return err
}

package fleetstate

import "time"

// BotSnapshot is the live view of one bot, refreshed on every movement event.
type BotSnapshot struct {
	BotID       int64     `json:"bot_id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Battery     int       `json:"battery"`
	CurrentLoad int       `json:"current_load"`
	Returning   bool      `json:"returning"`
	UpdatedAt   time.Time `json:"updated_at"`
}

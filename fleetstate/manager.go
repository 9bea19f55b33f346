// Package fleetstate mirrors live bot telemetry into redis so dashboards can
// poll it without touching the SQL store. SQL stays authoritative.
package fleetstate

import (
	"context"
	"log"
	"time"

	"gridcourier/store"
)

type Manager struct {
	db    *store.DB
	redis *RedisStore
}

func NewManager(db *store.DB, redis *RedisStore) *Manager {
	return &Manager{db: db, redis: redis}
}

// Update writes one bot snapshot through to redis.
func (m *Manager) Update(snap *BotSnapshot) error {
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now()
	}
	return m.redis.SetBotState(context.Background(), snap)
}

// GetBotState reads a bot snapshot from redis, falling back to SQL.
func (m *Manager) GetBotState(botID int64) (*BotSnapshot, error) {
	ctx := context.Background()

	snap, err := m.redis.GetBotState(ctx, botID)
	if err == nil && snap != nil {
		return snap, nil
	}
	return m.getBotStateFromSQL(botID)
}

// GetAllBotStates reads every bot snapshot, preferring redis.
func (m *Manager) GetAllBotStates() (map[int64]*BotSnapshot, error) {
	ctx := context.Background()
	states := make(map[int64]*BotSnapshot)

	ids, err := m.redis.GetAllBotIDs(ctx)
	if err == nil && len(ids) > 0 {
		for _, id := range ids {
			snap, err := m.GetBotState(id)
			if err == nil {
				states[id] = snap
			}
		}
		return states, nil
	}

	// Fall back to SQL
	bots, err := m.db.ListBots()
	if err != nil {
		return nil, err
	}
	for _, b := range bots {
		states[b.ID] = snapshotFromBot(b)
	}
	return states, nil
}

// SyncRedisFromSQL rebuilds all redis state from SQL. Called on startup.
func (m *Manager) SyncRedisFromSQL() error {
	ctx := context.Background()
	m.redis.FlushAll(ctx)

	bots, err := m.db.ListBots()
	if err != nil {
		return err
	}
	for _, b := range bots {
		if err := m.redis.SetBotState(ctx, snapshotFromBot(b)); err != nil {
			log.Printf("fleetstate: sync bot %d: %v", b.ID, err)
		}
	}

	log.Printf("fleetstate: synced %d bots to redis", len(bots))
	return nil
}

// RemoveBot drops a deleted bot's snapshot from redis.
func (m *Manager) RemoveBot(botID int64) {
	if err := m.redis.RemoveBot(context.Background(), botID); err != nil {
		log.Printf("fleetstate: remove bot %d: %v", botID, err)
	}
}

func (m *Manager) getBotStateFromSQL(botID int64) (*BotSnapshot, error) {
	bot, err := m.db.GetBot(botID)
	if err != nil {
		return nil, err
	}
	return snapshotFromBot(bot), nil
}

func snapshotFromBot(b *store.Bot) *BotSnapshot {
	return &BotSnapshot{
		BotID:       b.ID,
		Name:        b.Name,
		Status:      string(b.Status),
		X:           b.X,
		Y:           b.Y,
		Battery:     b.Battery,
		CurrentLoad: b.CurrentLoad,
		UpdatedAt:   b.UpdatedAt,
	}
}

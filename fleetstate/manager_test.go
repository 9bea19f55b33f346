package fleetstate

import (
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"

	"gridcourier/config"
	"gridcourier/store"
)

// testManager backs the manager with a temp sqlite store and a redis client
// pointed at a closed port, so every read exercises the SQL fallback path.
func testManager(t *testing.T) (*Manager, *store.DB) {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return NewManager(db, NewRedisStore(client)), db
}

func TestGetBotStateFallsBackToSQL(t *testing.T) {
	m, db := testManager(t)

	bot := &store.Bot{Name: "Bot-Alpha", X: 4, Y: 4, Capacity: 3, Battery: 80}
	if err := db.CreateBot(bot); err != nil {
		t.Fatalf("create bot: %v", err)
	}

	snap, err := m.GetBotState(bot.ID)
	if err != nil {
		t.Fatalf("get bot state: %v", err)
	}
	if snap.BotID != bot.ID || snap.Name != "Bot-Alpha" {
		t.Errorf("snapshot identity = %d/%q, want %d/Bot-Alpha", snap.BotID, snap.Name, bot.ID)
	}
	if snap.X != 4 || snap.Y != 4 || snap.Battery != 80 {
		t.Errorf("snapshot telemetry = (%d,%d) battery %d, want (4,4) battery 80", snap.X, snap.Y, snap.Battery)
	}
	if snap.Status != string(store.BotIdle) {
		t.Errorf("snapshot status = %q, want %q", snap.Status, store.BotIdle)
	}
}

func TestGetBotStateMissingBot(t *testing.T) {
	m, _ := testManager(t)

	if _, err := m.GetBotState(42); err == nil {
		t.Error("expected error for unknown bot")
	}
}

func TestGetAllBotStatesFallsBackToSQL(t *testing.T) {
	m, db := testManager(t)

	for _, name := range []string{"Bot-Alpha", "Bot-Beta"} {
		if err := db.CreateBot(&store.Bot{Name: name, Capacity: 3, Battery: 100}); err != nil {
			t.Fatalf("create bot %s: %v", name, err)
		}
	}

	states, err := m.GetAllBotStates()
	if err != nil {
		t.Fatalf("get all bot states: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("len(states) = %d, want 2", len(states))
	}
	for id, snap := range states {
		if snap.BotID != id {
			t.Errorf("snapshot %d keyed under %d", snap.BotID, id)
		}
	}
}

func TestSyncRedisFromSQLToleratesRedisOutage(t *testing.T) {
	m, db := testManager(t)

	if err := db.CreateBot(&store.Bot{Name: "Bot-Alpha", Capacity: 3, Battery: 100}); err != nil {
		t.Fatalf("create bot: %v", err)
	}
	if err := m.SyncRedisFromSQL(); err != nil {
		t.Errorf("sync: %v, want nil with redis down", err)
	}
}

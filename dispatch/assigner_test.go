package dispatch

import (
	"path/filepath"
	"testing"

	"gridcourier/config"
	"gridcourier/grid"
	"gridcourier/route"
	"gridcourier/store"
)

type mockEmitter struct {
	assigned []int64
	deferred []int64
}

func (m *mockEmitter) OrderAssigned(order *store.Order, bot *store.Bot, cost int) {
	m.assigned = append(m.assigned, order.ID)
}

func (m *mockEmitter) OrderDeferred(order *store.Order, reason string) {
	m.deferred = append(m.deferred, order.ID)
}

func testAssigner(t *testing.T) (*Assigner, *store.DB, *mockEmitter) {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	g, err := grid.New(9, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	em := &mockEmitter{}
	return NewAssigner(db, route.NewOptimizer(g), em, 2), db, em
}

func TestAssignPicksNearestIdleBot(t *testing.T) {
	a, db, em := testAssigner(t)

	near := &store.Bot{Name: "near", X: 5, Y: 2, Capacity: 3, Battery: 100}
	far := &store.Bot{Name: "far", X: 0, Y: 8, Capacity: 3, Battery: 100}
	db.CreateBot(near)
	db.CreateBot(far)

	o := &store.Order{PublicID: "u1", PickupX: 6, PickupY: 2, DeliveryX: 0, DeliveryY: 0}
	db.CreateOrder(o)

	res, err := a.Assign(o)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !res.Assigned {
		t.Fatal("expected assignment")
	}
	if res.BotID != near.ID {
		t.Errorf("bot = %d, want %d", res.BotID, near.ID)
	}
	if res.Cost != 1 {
		t.Errorf("cost = %d, want 1", res.Cost)
	}

	gotBot, _ := db.GetBot(near.ID)
	if gotBot.Status != store.BotBusy {
		t.Errorf("bot status = %q, want %q", gotBot.Status, store.BotBusy)
	}
	if gotBot.CurrentLoad != 1 {
		t.Errorf("load = %d, want 1", gotBot.CurrentLoad)
	}
	gotOrder, _ := db.GetOrder(o.ID)
	if gotOrder.Status != store.OrderAssigned {
		t.Errorf("order status = %q, want %q", gotOrder.Status, store.OrderAssigned)
	}
	if gotOrder.EstDistance != 1 {
		t.Errorf("est distance = %d, want 1", gotOrder.EstDistance)
	}
	if len(em.assigned) != 1 || em.assigned[0] != o.ID {
		t.Errorf("emitter assigned = %v", em.assigned)
	}
}

func TestAssignBusyPenalty(t *testing.T) {
	a, db, _ := testAssigner(t)

	// Busy bot at distance 2 costs 4; idle bot at distance 3 costs 3 and wins.
	busy := &store.Bot{Name: "busy", X: 4, Y: 0, Status: store.BotBusy, Capacity: 3, CurrentLoad: 1, Battery: 100}
	idle := &store.Bot{Name: "idle", X: 3, Y: 0, Capacity: 3, Battery: 100}
	db.CreateBot(busy)
	db.CreateBot(idle)

	o := &store.Order{PublicID: "u1", PickupX: 6, PickupY: 0}
	db.CreateOrder(o)

	res, err := a.Assign(o)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.BotID != idle.ID {
		t.Errorf("bot = %d, want idle bot %d", res.BotID, idle.ID)
	}
	if res.Cost != 3 {
		t.Errorf("cost = %d, want 3", res.Cost)
	}
}

func TestAssignTieKeepsFirstSeen(t *testing.T) {
	a, db, _ := testAssigner(t)

	first := &store.Bot{Name: "first", X: 2, Y: 0, Capacity: 3, Battery: 100}
	second := &store.Bot{Name: "second", X: 4, Y: 0, Capacity: 3, Battery: 100}
	db.CreateBot(first)
	db.CreateBot(second)

	// Pickup equidistant from both.
	o := &store.Order{PublicID: "u1", PickupX: 3, PickupY: 0}
	db.CreateOrder(o)

	res, _ := a.Assign(o)
	if res.BotID != first.ID {
		t.Errorf("bot = %d, want first-seen %d", res.BotID, first.ID)
	}
}

func TestAssignSkipsFullAndMaintenanceBots(t *testing.T) {
	a, db, em := testAssigner(t)

	full := &store.Bot{Name: "full", X: 1, Y: 0, Status: store.BotBusy, Capacity: 2, CurrentLoad: 2, Battery: 100}
	down := &store.Bot{Name: "down", X: 2, Y: 0, Status: store.BotMaintenance, Capacity: 3, Battery: 100}
	db.CreateBot(full)
	db.CreateBot(down)

	o := &store.Order{PublicID: "u1", PickupX: 0, PickupY: 0}
	db.CreateOrder(o)

	res, err := a.Assign(o)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Assigned {
		t.Error("expected deferral")
	}
	gotOrder, _ := db.GetOrder(o.ID)
	if gotOrder.Status != store.OrderPending {
		t.Errorf("order status = %q, want %q", gotOrder.Status, store.OrderPending)
	}
	if len(em.deferred) != 1 {
		t.Errorf("emitter deferred = %v", em.deferred)
	}
}

func TestRebalanceSeesEarlierLoadChanges(t *testing.T) {
	a, db, _ := testAssigner(t)

	bot := &store.Bot{Name: "solo", X: 0, Y: 0, Capacity: 2, Battery: 100}
	db.CreateBot(bot)

	o1 := &store.Order{PublicID: "u1", PickupX: 1, PickupY: 0}
	o2 := &store.Order{PublicID: "u2", PickupX: 2, PickupY: 0}
	o3 := &store.Order{PublicID: "u3", PickupX: 3, PickupY: 0}
	db.CreateOrder(o1)
	db.CreateOrder(o2)
	db.CreateOrder(o3)

	assigned, err := a.Rebalance()
	if err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	// Capacity 2: first two orders fill the bot, third stays pending.
	if assigned != 2 {
		t.Errorf("assigned = %d, want 2", assigned)
	}
	gotBot, _ := db.GetBot(bot.ID)
	if gotBot.CurrentLoad != 2 {
		t.Errorf("load = %d, want 2", gotBot.CurrentLoad)
	}
	got3, _ := db.GetOrder(o3.ID)
	if got3.Status != store.OrderPending {
		t.Errorf("third order = %q, want %q", got3.Status, store.OrderPending)
	}
}

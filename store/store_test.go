package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gridcourier/config"
	"gridcourier/grid"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

// --- Node tests ---

func TestNodeCRUD(t *testing.T) {
	db := testDB(t)

	n := &Node{X: 2, Y: 3, NodeType: grid.ClassRestaurant, Kind: "RAMEN", Name: "Ramen Ichiban"}
	if err := db.CreateNode(n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.ID == 0 {
		t.Fatal("ID should be assigned")
	}

	got, err := db.GetNode(n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ramen Ichiban" {
		t.Errorf("Name = %q, want %q", got.Name, "Ramen Ichiban")
	}
	if got.NodeType != grid.ClassRestaurant {
		t.Errorf("NodeType = %q, want %q", got.NodeType, grid.ClassRestaurant)
	}
	if got.Kind != "RAMEN" {
		t.Errorf("Kind = %q, want %q", got.Kind, "RAMEN")
	}

	// GetNodeAt
	got2, err := db.GetNodeAt(2, 3)
	if err != nil {
		t.Fatalf("getNodeAt: %v", err)
	}
	if got2.ID != n.ID {
		t.Errorf("getNodeAt ID = %d, want %d", got2.ID, n.ID)
	}

	// List + ListByType
	db.CreateNode(&Node{X: 4, Y: 4, NodeType: grid.ClassStation, Name: "Central Station"})
	nodes, err := db.ListNodes()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("len = %d, want 2", len(nodes))
	}
	stations, _ := db.ListNodesByType(grid.ClassStation)
	if len(stations) != 1 {
		t.Errorf("station count = %d, want 1", len(stations))
	}

	// Delete
	if err := db.DeleteNode(n.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetNode(n.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestBlockedEdges(t *testing.T) {
	db := testDB(t)

	if err := db.CreateBlockedEdge(4, 12); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.CreateBlockedEdge(6, 14)

	edges, err := db.ListBlockedEdges()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("len = %d, want 2", len(edges))
	}
	if edges[0].NodeA != 4 || edges[0].NodeB != 12 {
		t.Errorf("edge 0 = %d-%d, want 4-12", edges[0].NodeA, edges[0].NodeB)
	}

	db.DeleteBlockedEdge(edges[0].ID)
	edges2, _ := db.ListBlockedEdges()
	if len(edges2) != 1 {
		t.Errorf("len after delete = %d, want 1", len(edges2))
	}
}

func TestLoadGraph(t *testing.T) {
	db := testDB(t)
	if err := db.SeedDemoCity(9); err != nil {
		t.Fatalf("seed: %v", err)
	}

	g, err := db.LoadGraph(9)
	if err != nil {
		t.Fatalf("load graph: %v", err)
	}
	if g.BlockedEdgeCount() != 19 {
		t.Errorf("blocked edges = %d, want 19", g.BlockedEdgeCount())
	}
	if !g.IsStation(grid.Position{X: 4, Y: 4}) {
		t.Error("station (4,4) missing")
	}
	a := grid.PositionFromLinearID(4, 9)
	b := grid.PositionFromLinearID(12, 9)
	if !g.EdgeBlocked(a, b) {
		t.Errorf("edge %s-%s should be blocked", a, b)
	}
}

// --- Bot tests ---

func TestBotCRUD(t *testing.T) {
	db := testDB(t)

	b := &Bot{Name: "Bot-Alpha", X: 4, Y: 4, Capacity: 3, Battery: 100}
	if err := db.CreateBot(b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("ID should be assigned")
	}

	got, err := db.GetBot(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != BotIdle {
		t.Errorf("Status = %q, want %q", got.Status, BotIdle)
	}
	if got.Position() != (grid.Position{X: 4, Y: 4}) {
		t.Errorf("Position = %s", got.Position())
	}

	// Tick update touches only movement fields.
	got.SetPosition(grid.Position{X: 4, Y: 5})
	got.Status = BotBusy
	got.CurrentLoad = 1
	got.Battery = 95
	if err := db.UpdateBotTick(got); err != nil {
		t.Fatalf("tick update: %v", err)
	}
	got2, _ := db.GetBot(b.ID)
	if got2.X != 4 || got2.Y != 5 {
		t.Errorf("position = (%d,%d), want (4,5)", got2.X, got2.Y)
	}
	if got2.Status != BotBusy {
		t.Errorf("Status = %q, want %q", got2.Status, BotBusy)
	}
	if got2.Battery != 95 {
		t.Errorf("Battery = %d, want 95", got2.Battery)
	}

	db.CreateBot(&Bot{Name: "Bot-Beta", X: 0, Y: 8, Capacity: 3, Battery: 100})
	bots, _ := db.ListBots()
	if len(bots) != 2 {
		t.Errorf("len = %d, want 2", len(bots))
	}

	db.DeleteBot(b.ID)
	if _, err := db.GetBot(b.ID); err == nil {
		t.Error("expected error after delete")
	}
}

// --- Order tests ---

func TestOrderLifecycle(t *testing.T) {
	db := testDB(t)

	bot := &Bot{Name: "Bot-Alpha", Capacity: 3, Battery: 100}
	db.CreateBot(bot)

	o := &Order{
		PublicID:       "ord-1",
		PickupX:        6, PickupY: 2,
		DeliveryX:      0, DeliveryY: 0,
		RestaurantKind: "PIZZA",
	}
	if err := db.CreateOrder(o); err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.ID == 0 {
		t.Fatal("ID should be assigned")
	}
	if o.Status != OrderPending {
		t.Errorf("Status = %q, want %q", o.Status, OrderPending)
	}

	got, err := db.GetOrderByPublicID("ord-1")
	if err != nil {
		t.Fatalf("getByPublicID: %v", err)
	}
	if got.ID != o.ID {
		t.Errorf("getByPublicID ID = %d, want %d", got.ID, o.ID)
	}
	if got.Pickup() != (grid.Position{X: 6, Y: 2}) {
		t.Errorf("Pickup = %s", got.Pickup())
	}

	// Assign
	if err := db.AssignOrder(o.ID, bot.ID, 7); err != nil {
		t.Fatalf("assign: %v", err)
	}
	got2, _ := db.GetOrder(o.ID)
	if got2.Status != OrderAssigned {
		t.Errorf("Status = %q, want %q", got2.Status, OrderAssigned)
	}
	if got2.BotID == nil || *got2.BotID != bot.ID {
		t.Errorf("BotID = %v, want %d", got2.BotID, bot.ID)
	}
	if got2.EstDistance != 7 {
		t.Errorf("EstDistance = %d, want 7", got2.EstDistance)
	}

	// Picked up, then delivered sets completed_at.
	db.UpdateOrderStatus(o.ID, OrderPickedUp, "picked up at (6,2)")
	db.UpdateOrderStatus(o.ID, OrderDelivered, "delivered at (0,0)")
	got3, _ := db.GetOrder(o.ID)
	if got3.Status != OrderDelivered {
		t.Errorf("Status = %q, want %q", got3.Status, OrderDelivered)
	}
	if got3.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}

	history, _ := db.ListOrderHistory(o.ID)
	if len(history) != 4 {
		t.Errorf("history len = %d, want 4", len(history))
	}
}

func TestListOrderFilters(t *testing.T) {
	db := testDB(t)

	bot := &Bot{Name: "Bot-Alpha", Capacity: 3, Battery: 100}
	db.CreateBot(bot)

	o1 := &Order{PublicID: "u1"}
	o2 := &Order{PublicID: "u2"}
	o3 := &Order{PublicID: "u3"}
	db.CreateOrder(o1)
	db.CreateOrder(o2)
	db.CreateOrder(o3)
	db.AssignOrder(o2.ID, bot.ID, 4)
	db.UpdateOrderStatus(o3.ID, OrderCancelled, "customer cancelled")

	pending, _ := db.ListPendingOrders()
	if len(pending) != 1 || pending[0].ID != o1.ID {
		t.Errorf("pending = %d orders, want just %d", len(pending), o1.ID)
	}

	active, _ := db.ListActiveOrders()
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}

	forBot, _ := db.ListActiveOrdersForBot(bot.ID)
	if len(forBot) != 1 || forBot[0].ID != o2.ID {
		t.Errorf("forBot = %d orders", len(forBot))
	}

	all, _ := db.ListOrders("", 10)
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
	cancelled, _ := db.ListOrders(OrderCancelled, 10)
	if len(cancelled) != 1 {
		t.Errorf("cancelled = %d, want 1", len(cancelled))
	}
}

func TestCountRecentActiveOrdersAtPickup(t *testing.T) {
	db := testDB(t)

	for i, pid := range []string{"u1", "u2", "u3"} {
		o := &Order{PublicID: pid, PickupX: 6, PickupY: 2}
		if err := db.CreateOrder(o); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	// Delivered orders don't count.
	done := &Order{PublicID: "u4", PickupX: 6, PickupY: 2}
	db.CreateOrder(done)
	db.UpdateOrderStatus(done.ID, OrderCancelled, "")
	// Different pickup doesn't count.
	db.CreateOrder(&Order{PublicID: "u5", PickupX: 1, PickupY: 5})

	count, err := db.CountRecentActiveOrdersAtPickup(6, 2, 30*time.Second)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	// Zero window excludes everything already written.
	count2, _ := db.CountRecentActiveOrdersAtPickup(6, 2, -time.Hour)
	if count2 != 0 {
		t.Errorf("count with past cutoff = %d, want 0", count2)
	}
}

// --- Tick transaction tests ---

func TestTickTx(t *testing.T) {
	db := testDB(t)

	bot := &Bot{Name: "Bot-Alpha", X: 4, Y: 4, Capacity: 3, Battery: 100}
	db.CreateBot(bot)
	o := &Order{PublicID: "u1", PickupX: 6, PickupY: 2}
	db.CreateOrder(o)
	db.AssignOrder(o.ID, bot.ID, 4)

	tick, err := db.BeginTick()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	bots, err := tick.ListBots()
	if err != nil {
		t.Fatalf("list bots: %v", err)
	}
	if len(bots) != 1 {
		t.Fatalf("bots = %d, want 1", len(bots))
	}
	orders, err := tick.ListActiveOrdersForBot(bot.ID)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}

	b := bots[0]
	b.SetPosition(grid.Position{X: 5, Y: 4})
	b.Status = BotBusy
	if err := tick.SaveBot(b); err != nil {
		t.Fatalf("save bot: %v", err)
	}
	if err := tick.SetOrderStatus(o.ID, OrderPickedUp, "picked up"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := tick.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, _ := db.GetBot(bot.ID)
	if got.X != 5 {
		t.Errorf("X = %d, want 5", got.X)
	}
	gotOrder, _ := db.GetOrder(o.ID)
	if gotOrder.Status != OrderPickedUp {
		t.Errorf("order status = %q, want %q", gotOrder.Status, OrderPickedUp)
	}
}

func TestTickTxRollback(t *testing.T) {
	db := testDB(t)

	bot := &Bot{Name: "Bot-Alpha", X: 4, Y: 4, Capacity: 3, Battery: 100}
	db.CreateBot(bot)

	tick, _ := db.BeginTick()
	bots, _ := tick.ListBots()
	bots[0].SetPosition(grid.Position{X: 8, Y: 8})
	tick.SaveBot(bots[0])
	tick.Rollback()

	got, _ := db.GetBot(bot.ID)
	if got.X != 4 || got.Y != 4 {
		t.Errorf("position = (%d,%d), want (4,4) after rollback", got.X, got.Y)
	}
}

// --- Outbox tests ---

func TestOutboxCRUD(t *testing.T) {
	db := testDB(t)

	if err := db.EnqueueOutbox("gridcourier.events", []byte(`{"test":true}`), "order.created"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	db.EnqueueOutbox("gridcourier.events", []byte(`{"test":2}`), "bot.moved")

	msgs, err := db.ListPendingOutbox(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].MsgType != "order.created" {
		t.Errorf("msg_type = %q, want %q", msgs[0].MsgType, "order.created")
	}

	db.AckOutbox(msgs[0].ID)
	msgs2, _ := db.ListPendingOutbox(10)
	if len(msgs2) != 1 {
		t.Errorf("pending after ack = %d, want 1", len(msgs2))
	}

	db.IncrementOutboxRetries(msgs2[0].ID)
	msgs3, _ := db.ListPendingOutbox(10)
	if msgs3[0].Retries != 1 {
		t.Errorf("retries = %d, want 1", msgs3[0].Retries)
	}
}

// --- Admin user tests ---

func TestAdminUsers(t *testing.T) {
	db := testDB(t)

	exists, err := db.AdminUserExists()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("no users expected yet")
	}

	if err := db.CreateAdminUser("admin", "hash123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	u, err := db.GetAdminUser("admin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.PasswordHash != "hash123" {
		t.Errorf("hash = %q, want %q", u.PasswordHash, "hash123")
	}
	exists2, _ := db.AdminUserExists()
	if !exists2 {
		t.Error("user should exist")
	}
}

// --- Seed tests ---

func TestSeedDemoCityIdempotent(t *testing.T) {
	db := testDB(t)

	if err := db.SeedDemoCity(9); err != nil {
		t.Fatalf("seed: %v", err)
	}
	nodes, _ := db.ListNodes()
	if len(nodes) != 81 {
		t.Errorf("nodes = %d, want 81", len(nodes))
	}
	restaurants, _ := db.ListNodesByType(grid.ClassRestaurant)
	if len(restaurants) != 5 {
		t.Errorf("restaurants = %d, want 5", len(restaurants))
	}
	houses, _ := db.ListNodesByType(grid.ClassHouse)
	if len(houses) != 7 {
		t.Errorf("houses = %d, want 7", len(houses))
	}
	bots, _ := db.ListBots()
	if len(bots) != 3 {
		t.Errorf("bots = %d, want 3", len(bots))
	}

	// Second run is a no-op.
	if err := db.SeedDemoCity(9); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	nodes2, _ := db.ListNodes()
	if len(nodes2) != 81 {
		t.Errorf("nodes after reseed = %d, want 81", len(nodes2))
	}
}

// --- Dialect tests ---

func TestRebind(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"SELECT * FROM t WHERE a=? AND b=?", "SELECT * FROM t WHERE a=$1 AND b=$2"},
		{"INSERT INTO t (a) VALUES (?)", "INSERT INTO t (a) VALUES ($1)"},
		{"SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		got := Rebind(tt.input)
		if got != tt.want {
			t.Errorf("Rebind(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

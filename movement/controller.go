package movement

import (
	"fmt"
	"log"
	"sync"
	"time"

	"gridcourier/config"
	"gridcourier/grid"
	"gridcourier/route"
	"gridcourier/store"
)

const maxBattery = 100

// Emitter receives movement outcomes after the tick's transaction commits.
// Implementations must not block.
type Emitter interface {
	BotMoved(bot *store.Bot)
	BotDocked(bot *store.Bot)
	OrderPickedUp(order *store.Order, bot *store.Bot)
	OrderDelivered(order *store.Order, bot *store.Bot)
}

// Controller owns the tick loop and all per-bot in-memory route state. One
// instance per process; no other component touches its maps.
type Controller struct {
	db           *store.DB
	opt          *route.Optimizer
	emitter      Emitter
	interval     time.Duration
	backoff      time.Duration
	batteryDebit int
	chargeBonus  int

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	bots     map[int64]*botState
}

func NewController(db *store.DB, opt *route.Optimizer, emitter Emitter, cfg config.GridConfig) *Controller {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	debit := cfg.DeliveryBatteryDebit
	if debit <= 0 {
		debit = 5
	}
	bonus := cfg.StationChargeBonus
	if bonus <= 0 {
		bonus = 20
	}
	return &Controller{
		db:           db,
		opt:          opt,
		emitter:      emitter,
		interval:     interval,
		backoff:      interval / 4,
		batteryDebit: debit,
		chargeBonus:  bonus,
		bots:         make(map[int64]*botState),
	}
}

// Start begins ticking. A second call while running is a no-op.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		log.Printf("movement: start ignored, already running")
		return
	}
	c.running = true
	c.stopChan = make(chan struct{})
	c.bots = make(map[int64]*botState)
	go c.run(c.stopChan)
	log.Printf("movement: started, tick interval %s", c.interval)
}

// Stop requests loop termination. The in-flight tick finishes and commits;
// the loop exits at its next sleep boundary. All per-bot in-memory state is
// discarded; persisted rows stay as last committed.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stopChan)
	c.bots = make(map[int64]*botState)
	log.Printf("movement: stopped")
}

func (c *Controller) run(stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		c.safeTick()
		select {
		case <-stop:
			return
		case <-time.After(c.interval):
		}
	}
}

// safeTick absorbs anything a tick throws: the loop is only ever stopped by
// Stop.
func (c *Controller) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("movement: tick panic: %v", r)
			time.Sleep(c.backoff)
		}
	}()
	if err := c.tick(); err != nil {
		log.Printf("movement: tick: %v", err)
		time.Sleep(c.backoff)
	}
}

// tick processes every bot once inside a single transaction. Emits are
// collected during the batch and delivered only after a successful commit.
func (c *Controller) tick() error {
	c.mu.Lock()

	tx, err := c.db.BeginTick()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	bots, err := tx.ListBots()
	if err != nil {
		tx.Rollback()
		c.mu.Unlock()
		return err
	}

	var emits []func()
	for _, b := range bots {
		if b.Status == store.BotMaintenance {
			continue
		}
		if err := c.stepBot(tx, b, &emits); err != nil {
			// Per-bot faults are absorbed; the bot is retried next tick.
			log.Printf("movement: bot %d: %v", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("commit tick: %w", err)
	}
	c.mu.Unlock()

	if c.emitter != nil {
		for _, fn := range emits {
			fn()
		}
	}
	return nil
}

func (c *Controller) state(botID int64) *botState {
	st := c.bots[botID]
	if st == nil {
		st = newBotState()
		c.bots[botID] = st
	}
	return st
}

func (c *Controller) stepBot(tx *store.TickTx, bot *store.Bot, emits *[]func()) error {
	st := c.state(bot.ID)

	orders, err := tx.ListActiveOrdersForBot(bot.ID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return c.stepReturn(tx, bot, st, emits)
	}

	st.returning = false
	st.plan = c.planWaypoints(bot.Position(), orders, st)
	target, ok := nextWaypoint(st.plan, orders, st)
	if !ok {
		return nil
	}

	if !routeValid(st, bot.Position(), target.Pos) {
		path := c.opt.Graph().ShortestPath(bot.Position(), target.Pos)
		if len(path) == 0 {
			log.Printf("movement: bot %d has no route to %s, retrying next tick", bot.ID, target.Pos)
			st.clearRoute()
			return nil
		}
		st.path = path
		st.cursor = 0
	}

	moved := false
	if st.cursor+1 < len(st.path) {
		bot.SetPosition(st.path[st.cursor+1])
		st.cursor++
		moved = true
	}

	// Arrival events: first matching order only, one event per tick.
	for _, o := range orders {
		if o.Status == store.OrderAssigned && bot.Position() == o.Pickup() {
			w := Waypoint{Kind: WaypointPickup, OrderID: o.ID, Pos: o.Pickup()}
			if st.isCompleted(w) {
				continue
			}
			if err := tx.SetOrderStatus(o.ID, store.OrderPickedUp, fmt.Sprintf("picked up at %s", o.Pickup())); err != nil {
				return err
			}
			o.Status = store.OrderPickedUp
			st.complete(w)
			st.clearRoute()
			ord, b := *o, *bot
			*emits = append(*emits, func() { c.emitter.OrderPickedUp(&ord, &b) })
			break
		}
		if o.Status == store.OrderPickedUp && bot.Position() == o.Delivery() {
			w := Waypoint{Kind: WaypointDelivery, OrderID: o.ID, Pos: o.Delivery()}
			if st.isCompleted(w) {
				continue
			}
			if err := tx.SetOrderStatus(o.ID, store.OrderDelivered, fmt.Sprintf("delivered at %s", o.Delivery())); err != nil {
				return err
			}
			o.Status = store.OrderDelivered
			if bot.CurrentLoad > 0 {
				bot.CurrentLoad--
			}
			bot.Battery -= c.batteryDebit
			if bot.Battery < 1 {
				bot.Battery = 1
			}
			st.complete(w)
			st.clearRoute()
			ord, b := *o, *bot
			*emits = append(*emits, func() { c.emitter.OrderDelivered(&ord, &b) })
			break
		}
	}

	remaining := 0
	for _, o := range orders {
		if o.Status.Active() {
			remaining++
		}
	}
	if remaining == 0 {
		bot.Status = store.BotIdle
		st.plan = nil
		st.clearRoute()
	}

	if err := tx.SaveBot(bot); err != nil {
		return err
	}
	if moved {
		b := *bot
		*emits = append(*emits, func() { c.emitter.BotMoved(&b) })
	}
	return nil
}

// stepReturn handles a bot with no active orders: idle in place on a station
// tile, otherwise walk home to the nearest one.
func (c *Controller) stepReturn(tx *store.TickTx, bot *store.Bot, st *botState, emits *[]func()) error {
	st.plan = nil
	st.completed = make(map[Waypoint]struct{})

	g := c.opt.Graph()
	if g.IsStation(bot.Position()) {
		arrived := st.returning
		st.returning = false
		st.clearRoute()
		changed := false
		if bot.Status != store.BotIdle {
			bot.Status = store.BotIdle
			changed = true
		}
		if arrived {
			bot.Battery = chargeUp(bot.Battery, c.chargeBonus)
			changed = true
			b := *bot
			*emits = append(*emits, func() { c.emitter.BotDocked(&b) })
		}
		if changed {
			return tx.SaveBot(bot)
		}
		return nil
	}

	if !st.returning {
		station, ok := c.nearestStation(bot.Position())
		if !ok {
			return nil
		}
		st.returning = true
		st.station = station
		st.clearRoute()
	}

	if !routeValid(st, bot.Position(), st.station) {
		path := g.ShortestPath(bot.Position(), st.station)
		if len(path) == 0 {
			log.Printf("movement: bot %d has no route home to %s, retrying next tick", bot.ID, st.station)
			st.clearRoute()
			return nil
		}
		st.path = path
		st.cursor = 0
	}

	if st.cursor+1 >= len(st.path) {
		return nil
	}
	bot.SetPosition(st.path[st.cursor+1])
	st.cursor++

	if g.IsStation(bot.Position()) {
		st.returning = false
		st.clearRoute()
		bot.Status = store.BotIdle
		bot.Battery = chargeUp(bot.Battery, c.chargeBonus)
		b := *bot
		*emits = append(*emits, func() { c.emitter.BotDocked(&b) })
	} else {
		b := *bot
		*emits = append(*emits, func() { c.emitter.BotMoved(&b) })
	}
	return tx.SaveBot(bot)
}

// nearestStation latches the closest station by hop count, ties resolved by
// station discovery order.
func (c *Controller) nearestStation(pos grid.Position) (grid.Position, bool) {
	best := grid.Position{}
	bestDist := 0
	found := false
	for _, s := range c.opt.Graph().Stations() {
		d := c.opt.Distance(pos, s)
		if d == grid.Unreachable {
			continue
		}
		if !found || d < bestDist {
			best = s
			bestDist = d
			found = true
		}
	}
	return best, found
}

// routeValid reports whether the cached path can still be followed: it must
// end at the destination, the cursor must sit on the bot's actual position,
// and there must be at least one step left.
func routeValid(st *botState, pos, dest grid.Position) bool {
	if len(st.path) == 0 {
		return false
	}
	if st.path[len(st.path)-1] != dest {
		return false
	}
	if st.cursor >= len(st.path) {
		return false
	}
	return st.path[st.cursor] == pos
}

func chargeUp(battery, bonus int) int {
	battery += bonus
	if battery > maxBattery {
		battery = maxBattery
	}
	return battery
}

// Package dispatch picks the least-cost bot for each pending order.
package dispatch

import (
	"fmt"
	"log"

	"gridcourier/grid"
	"gridcourier/route"
	"gridcourier/store"
)

// Emitter receives assignment outcomes. Implementations must not block.
type Emitter interface {
	OrderAssigned(order *store.Order, bot *store.Bot, cost int)
	OrderDeferred(order *store.Order, reason string)
}

// Result is the caller-visible outcome of one assignment attempt.
type Result struct {
	Assigned bool   `json:"assigned"`
	BotID    int64  `json:"bot_id,omitempty"`
	BotName  string `json:"bot_name,omitempty"`
	Cost     int    `json:"cost,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type Assigner struct {
	db          *store.DB
	opt         *route.Optimizer
	emitter     Emitter
	busyPenalty int
}

func NewAssigner(db *store.DB, opt *route.Optimizer, emitter Emitter, busyPenalty int) *Assigner {
	return &Assigner{db: db, opt: opt, emitter: emitter, busyPenalty: busyPenalty}
}

// Assign picks the cheapest eligible bot for a pending order. Cost is the
// hop distance from the bot to the pickup, plus the busy penalty for a bot
// already carrying work. Ties keep the first candidate seen. When no bot
// qualifies the order stays PENDING; the caller decides when to retry.
func (a *Assigner) Assign(order *store.Order) (*Result, error) {
	if order.Status != store.OrderPending {
		return nil, fmt.Errorf("dispatch: order %d is %s, not %s", order.ID, order.Status, store.OrderPending)
	}

	bots, err := a.db.ListBots()
	if err != nil {
		return nil, fmt.Errorf("dispatch: list bots: %w", err)
	}

	var best *store.Bot
	bestCost := 0
	for _, b := range bots {
		if b.Status != store.BotIdle && b.Status != store.BotBusy {
			continue
		}
		if b.CurrentLoad >= b.Capacity {
			continue
		}
		d := a.opt.Distance(b.Position(), order.Pickup())
		if d == grid.Unreachable {
			continue
		}
		cost := d
		if b.Status == store.BotBusy {
			cost += a.busyPenalty
		}
		if best == nil || cost < bestCost {
			best = b
			bestCost = cost
		}
	}

	if best == nil {
		reason := "no bot available"
		log.Printf("dispatch: order %d deferred: %s", order.ID, reason)
		if a.emitter != nil {
			a.emitter.OrderDeferred(order, reason)
		}
		return &Result{Assigned: false, Reason: reason}, nil
	}

	best.CurrentLoad++
	best.Status = store.BotBusy
	if err := a.db.UpdateBot(best); err != nil {
		return nil, fmt.Errorf("dispatch: update bot %d: %w", best.ID, err)
	}
	if err := a.db.AssignOrder(order.ID, best.ID, bestCost); err != nil {
		return nil, fmt.Errorf("dispatch: assign order %d: %w", order.ID, err)
	}
	order.Status = store.OrderAssigned
	order.BotID = &best.ID
	order.EstDistance = bestCost

	log.Printf("dispatch: order %d assigned to bot %s (cost %d)", order.ID, best.Name, bestCost)
	if a.emitter != nil {
		a.emitter.OrderAssigned(order, best, bestCost)
	}
	return &Result{Assigned: true, BotID: best.ID, BotName: best.Name, Cost: bestCost}, nil
}

// Rebalance replays single-order assignment over all pending orders in
// creation order. Later orders see the load changes earlier ones made.
// Returns the number of orders that found a bot.
func (a *Assigner) Rebalance() (int, error) {
	pending, err := a.db.ListPendingOrders()
	if err != nil {
		return 0, fmt.Errorf("dispatch: list pending: %w", err)
	}
	assigned := 0
	for _, o := range pending {
		res, err := a.Assign(o)
		if err != nil {
			log.Printf("dispatch: rebalance order %d: %v", o.ID, err)
			continue
		}
		if res.Assigned {
			assigned++
		}
	}
	if len(pending) > 0 {
		log.Printf("dispatch: rebalance assigned %d of %d pending orders", assigned, len(pending))
	}
	return assigned, nil
}

package movement

import (
	"gridcourier/grid"
	"gridcourier/store"
)

type Status struct {
	Running          bool    `json:"running"`
	IntervalSeconds  float64 `json:"interval_seconds"`
	ActiveRouteCount int     `json:"active_route_count"`
}

type WaypointProgress struct {
	Waypoint
	Completed bool `json:"completed"`
}

// BotProgress is a best-effort snapshot of one bot's activity. Route fields
// are present only when the bot has a cached route; plan fields only when it
// has planned waypoints.
type BotProgress struct {
	BotID              int64              `json:"bot_id"`
	Name               string             `json:"name"`
	Status             store.BotStatus    `json:"status"`
	Battery            int                `json:"battery"`
	CurrentLoad        int                `json:"current_load"`
	ReturningToStation bool               `json:"returning_to_station"`
	CurrentPosition    grid.Position      `json:"current_position"`
	PlannedWaypoints   []WaypointProgress `json:"planned_waypoints,omitempty"`
	TotalWaypoints     int                `json:"total_waypoints,omitempty"`
	CompletedCount     int                `json:"completed_count,omitempty"`
	CurrentRoute       []grid.Position    `json:"current_route,omitempty"`
	Cursor             int                `json:"cursor,omitempty"`
	TotalSteps         int                `json:"total_steps,omitempty"`
	ProgressPercent    float64            `json:"progress_percent,omitempty"`
	Destination        *grid.Position     `json:"destination,omitempty"`
}

type SystemStatus struct {
	Running   bool           `json:"running"`
	Idle      int            `json:"idle"`
	Busy      int            `json:"busy"`
	Returning int            `json:"returning"`
	AtStation int            `json:"at_station"`
	Bots      []*BotProgress `json:"bots"`
}

// Status reports the loop state and how many bots hold a route with steps
// remaining.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, st := range c.bots {
		if len(st.path) > 0 && st.cursor < len(st.path)-1 {
			count++
		}
	}
	return Status{
		Running:          c.running,
		IntervalSeconds:  c.interval.Seconds(),
		ActiveRouteCount: count,
	}
}

// BotProgress snapshots one bot. Unknown ids surface the store's not-found
// error.
func (c *Controller) BotProgress(botID int64) (*BotProgress, error) {
	bot, err := c.db.GetBot(botID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressFor(bot), nil
}

// SystemStatus aggregates fleet counts plus a per-bot detail snapshot.
func (c *Controller) SystemStatus() (*SystemStatus, error) {
	bots, err := c.db.ListBots()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out := &SystemStatus{Running: c.running}
	g := c.opt.Graph()
	for _, b := range bots {
		p := c.progressFor(b)
		out.Bots = append(out.Bots, p)
		switch b.Status {
		case store.BotIdle:
			out.Idle++
		case store.BotBusy:
			out.Busy++
		}
		if p.ReturningToStation {
			out.Returning++
		}
		if g.IsStation(b.Position()) {
			out.AtStation++
		}
	}
	return out, nil
}

// progressFor builds a snapshot from the persisted bot plus the in-memory
// route state, if any. Caller holds c.mu.
func (c *Controller) progressFor(bot *store.Bot) *BotProgress {
	p := &BotProgress{
		BotID:           bot.ID,
		Name:            bot.Name,
		Status:          bot.Status,
		Battery:         bot.Battery,
		CurrentLoad:     bot.CurrentLoad,
		CurrentPosition: bot.Position(),
	}
	st := c.bots[bot.ID]
	if st == nil {
		return p
	}
	p.ReturningToStation = st.returning
	if len(st.plan) > 0 {
		p.TotalWaypoints = len(st.plan)
		for _, w := range st.plan {
			done := st.isCompleted(w)
			if done {
				p.CompletedCount++
			}
			p.PlannedWaypoints = append(p.PlannedWaypoints, WaypointProgress{Waypoint: w, Completed: done})
		}
	}
	if len(st.path) > 0 {
		p.CurrentRoute = append([]grid.Position(nil), st.path...)
		p.Cursor = st.cursor
		p.TotalSteps = len(st.path) - 1
		if p.TotalSteps > 0 {
			p.ProgressPercent = float64(st.cursor) / float64(p.TotalSteps) * 100
		}
		dest := st.path[len(st.path)-1]
		p.Destination = &dest
	}
	return p
}

// Package engine wires the grid, dispatcher, and movement controller together
// behind a single event bus.
package engine

import (
	"log"
	"time"

	"gridcourier/config"
	"gridcourier/dispatch"
	"gridcourier/fleetstate"
	"gridcourier/grid"
	"gridcourier/messaging"
	"gridcourier/movement"
	"gridcourier/route"
	"gridcourier/store"
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Graph      *grid.Graph
	FleetState *fleetstate.Manager
	MsgClient  *messaging.Client
	LogFunc    LogFunc
}

type Engine struct {
	cfg          *config.Config
	configPath   string
	db           *store.DB
	graph        *grid.Graph
	optimizer    *route.Optimizer
	assigner     *dispatch.Assigner
	controller   *movement.Controller
	fleet        *fleetstate.Manager
	msgClient    *messaging.Client
	Events       *EventBus
	logFn        LogFunc
	stopChan     chan struct{}
	msgConnected bool
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	return &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		graph:      c.Graph,
		optimizer:  route.NewOptimizer(c.Graph),
		fleet:      c.FleetState,
		msgClient:  c.MsgClient,
		Events:     NewEventBus(),
		logFn:      logFn,
		stopChan:   make(chan struct{}),
	}
}

func (e *Engine) Start() {
	de := &dispatchEmitter{bus: e.Events}
	me := &movementEmitter{bus: e.Events}

	e.assigner = dispatch.NewAssigner(e.db, e.optimizer, de, e.cfg.Grid.BusyPenalty)
	e.controller = movement.NewController(e.db, e.optimizer, me, e.cfg.Grid)

	e.wireEventHandlers()

	if e.fleet != nil {
		if err := e.fleet.SyncRedisFromSQL(); err != nil {
			e.logFn("engine: fleet state sync: %v", err)
		}
	}

	if e.cfg.Grid.AutopilotOnBoot {
		e.StartAutopilot()
	}

	e.checkConnectionStatus()
	go e.connectionHealthLoop()

	e.logFn("engine: started")
}

func (e *Engine) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
	if e.controller != nil {
		e.controller.Stop()
	}
	e.logFn("engine: stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                    { return e.db }
func (e *Engine) AppConfig() *config.Config        { return e.cfg }
func (e *Engine) ConfigPath() string               { return e.configPath }
func (e *Engine) Graph() *grid.Graph               { return e.graph }
func (e *Engine) Optimizer() *route.Optimizer      { return e.optimizer }
func (e *Engine) Assigner() *dispatch.Assigner     { return e.assigner }
func (e *Engine) Controller() *movement.Controller { return e.controller }
func (e *Engine) FleetState() *fleetstate.Manager  { return e.fleet }
func (e *Engine) MsgClient() *messaging.Client     { return e.msgClient }

// StartAutopilot starts the movement loop. Safe to call while running.
func (e *Engine) StartAutopilot() {
	if e.controller.Status().Running {
		return
	}
	e.controller.Start()
	e.Events.Emit(Event{Type: EventAutopilotStarted, Payload: AutopilotEvent{Running: true}})
}

// StopAutopilot halts the movement loop. Safe to call while stopped.
func (e *Engine) StopAutopilot() {
	if !e.controller.Status().Running {
		return
	}
	e.controller.Stop()
	e.Events.Emit(Event{Type: EventAutopilotStopped, Payload: AutopilotEvent{Running: false}})
}

func (e *Engine) checkConnectionStatus() {
	if e.msgClient == nil {
		return
	}
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
		}
	} else {
		if e.msgConnected {
			e.msgConnected = false
			e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}

// ReconfigureMessaging reconnects the kafka client with current config.
func (e *Engine) ReconfigureMessaging() {
	if e.msgClient == nil {
		return
	}
	if err := e.msgClient.Reconfigure(&e.cfg.Messaging); err != nil {
		e.logFn("engine: messaging reconfigure error: %v", err)
	} else {
		e.logFn("engine: messaging reconfigured")
	}
	e.checkConnectionStatus()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"gridcourier/config"
	"gridcourier/engine"
	"gridcourier/fleetstate"
	"gridcourier/messaging"
	"gridcourier/store"
	"gridcourier/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "gridcourier.yaml", "path to config file")
	seed := flag.Bool("seed", false, "seed the demo city if the database is empty")
	flag.Parse()

	if *showVersion {
		fmt.Println("gridcourier", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("gridcourier: database open (%s)", cfg.Database.Driver)

	if *seed {
		if err := db.SeedDemoCity(cfg.Grid.Size); err != nil {
			log.Fatalf("seed demo city: %v", err)
		}
	}

	graph, err := db.LoadGraph(cfg.Grid.Size)
	if err != nil {
		log.Fatalf("load grid: %v", err)
	}
	log.Printf("gridcourier: grid loaded (%dx%d, %d blocked edges)", graph.Size(), graph.Size(), graph.BlockedEdgeCount())

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("gridcourier: redis not available (%v), running without live fleet state", err)
	} else {
		log.Printf("gridcourier: redis connected (%s)", cfg.Redis.Address)
	}
	cancel()
	defer redisClient.Close()

	fleetMgr := fleetstate.NewManager(db, fleetstate.NewRedisStore(redisClient))

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("gridcourier: messaging connect failed (%v)", err)
	} else {
		log.Printf("gridcourier: messaging connected (kafka)")
	}
	defer msgClient.Close()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Graph:      graph,
		FleetState: fleetMgr,
		MsgClient:  msgClient,
	})
	eng.Start()
	defer eng.Stop()

	// Outbox drainer (lifecycle events to kafka)
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
	drainer.Start()
	defer drainer.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("gridcourier: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("gridcourier: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("gridcourier: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("gridcourier: stopped")
}

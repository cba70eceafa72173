package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	app "github.com/MuneerAhmed03/parchi/internal/app"
	httpx "github.com/MuneerAhmed03/parchi/internal/http"
	store "github.com/MuneerAhmed03/parchi/internal/store"
	ws "github.com/MuneerAhmed03/parchi/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Redis connection, shared by the room store and the fanout bus
	rdb, err := store.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("redis connect", "err", err)
		log.Fatal(err)
	}
	defer func() { _ = rdb.Close() }()

	// serverID tags rooms created here (affinity) and filters bus echoes
	serverID := uuid.NewString()
	rooms := store.NewRooms(rdb, logger, cfg.RoomTTL, serverID)
	alloc := store.NewAllocator(rooms, cfg.RoomIDLen)

	// Connection registry + heartbeat sweep
	reg := ws.NewRegistry(logger, cfg.Heartbeat)
	go reg.Run(ctx)

	// Cross-instance fanout
	bus := ws.NewBus(rdb, logger, serverID)
	go bus.Run(ctx, reg)

	bc := ws.NewBroadcaster(reg, rooms, bus, logger)
	co := ws.NewCoordinator(rooms, reg, bc, logger, cfg.StartDelay, alloc.Release)
	reg.OnDisconnect = co.HandleDisconnect

	hub := ws.NewHub(logger, reg, co)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, logger, hub, rooms, alloc)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr, "server_id", serverID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nidhogg/agentsim/internal/api"
	"github.com/nidhogg/agentsim/internal/behavior"
	"github.com/nidhogg/agentsim/internal/bridge"
	"github.com/nidhogg/agentsim/internal/config"
	"github.com/nidhogg/agentsim/internal/event"
	"github.com/nidhogg/agentsim/internal/fsm"
	"github.com/nidhogg/agentsim/internal/sim"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting agentsim...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/simd.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Event bus and engines
	bus := event.NewBus(logger)
	trees := behavior.NewEngine(bus, logger)
	machines := fsm.NewEngine(bus, logger)
	fsm.RegisterReferenceHandlers(machines)

	scheduler := sim.NewScheduler(cfg.Sim.Options(), trees, machines, bus, logger)

	// Optional Redis event bridge
	var redisBridge *bridge.RedisBridge
	if cfg.Bridge.Redis.Enabled && cfg.Bridge.Redis.URL != "" {
		rb, brErr := bridge.NewRedisBridge(cfg.Bridge.Redis.URL, cfg.Bridge.Redis.Stream, logger)
		if brErr != nil {
			logger.Warn("Redis unavailable, running without event bridge", zap.Error(brErr))
		} else {
			bus.Subscribe(rb)
			redisBridge = rb
			logger.Info("Redis event bridge connected", zap.String("stream", rb.Stream()))
		}
	}

	scheduler.Start()
	logger.Info("Simulation started")

	// Build HTTP handler
	handler := api.NewHandler(scheduler, trees, machines, logger)

	// Start server
	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("agentsim listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down agentsim...")
	scheduler.Stop()
	srv.Shutdown(context.Background())
	bus.Flush()
	if redisBridge != nil {
		redisBridge.Close()
	}
}

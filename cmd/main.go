/*
Package main is the entry point for the position relay.

It is responsible for loading configuration, initializing the global logging system,
starting the relay hub and its liveness monitor, serving HTTP and WebSocket traffic,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM).
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"cursorrelay/internal/app/relay"
	"cursorrelay/internal/configs"
	"cursorrelay/internal/handler"
	"cursorrelay/internal/pkg/limiter"
	"cursorrelay/internal/pkg/logx"
)

func main() {
	// Load configuration from .env and environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("heartbeat_interval", cfg.HeartbeatInterval).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := relay.NewHub(relay.Options{
		HeartbeatInterval: cfg.HeartbeatInterval,
		Conn: relay.ConnOptions{
			SendQueueSize:  cfg.SendQueueSize,
			MaxMessageSize: cfg.MaxMessageSize,
			MessageRate:    cfg.MessageRate,
			MessageBurst:   cfg.MessageBurst,
		},
	})
	hub.Start(ctx)

	var connectLimiter *limiter.IPRateLimiter
	if cfg.ConnectRate > 0 {
		connectLimiter = limiter.NewIPRateLimiter(rate.Limit(cfg.ConnectRate), cfg.ConnectBurst, limiter.DefaultCleanupInterval)
		defer connectLimiter.Stop()
	}

	router := handler.Router(&handler.AppDeps{
		Hub:            hub,
		Config:         cfg,
		ConnectLimiter: connectLimiter,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info("Relay server starting", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked WebSocket connections are not covered by server.Shutdown.
	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scoregaps/internal/api"
	"scoregaps/internal/config"
	"scoregaps/internal/container"

	"github.com/joho/godotenv"
)

// Standalone JSON API server
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer c.Shutdown(context.Background())

	if err := c.Service.Load(ctx); err != nil {
		c.Logger.Error("Initial fact table load failed: %v", err)
	}
	go c.Maintain(ctx, cfg.Data.RetryDelay)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.APIPort,
		Handler:           api.NewHandler(c.Service, c.Logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting API server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}

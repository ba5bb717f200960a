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
	"scoregaps/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded, using environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer c.Shutdown(context.Background())

	// A failed load is not fatal: pages answer 503 until a retry succeeds
	if err := c.Service.Load(ctx); err != nil {
		c.Logger.Error("Initial fact table load failed: %v", err)
	}

	server, err := ui.NewServer(c.Service, c.Sessions,
		ui.WithMetricsHandler(c.MetricsHandler()),
		ui.WithLogger(c.Logger),
	)
	if err != nil {
		log.Fatalf("Failed to create UI server: %v", err)
	}
	apiServer := &http.Server{
		Addr:              ":" + cfg.Server.APIPort,
		Handler:           api.NewHandler(c.Service, c.Logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, ":"+cfg.Server.Port)
	})
	g.Go(func() error {
		c.Logger.Info("JSON API listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		c.Maintain(gctx, cfg.Data.RetryDelay)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Printf("Shut down cleanly")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/dgallion1/listingest/internal/api"
	"github.com/dgallion1/listingest/internal/app"
	"github.com/dgallion1/listingest/internal/config"
	"github.com/dgallion1/listingest/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	log := app.NewLogger(cfg, os.Stdout)
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize completion provider.
	c, err := app.NewCompletion(cfg, log)
	if err != nil {
		log.Error("completion provider", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, app.NewPipeline(cfg, c, log), log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, c.Stats(), c.Model, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		c.Close()
	}()

	log.Info("starting listingest", "port", cfg.Port, "provider", cfg.Provider, "model", c.Model)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

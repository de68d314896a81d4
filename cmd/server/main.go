package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/app"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/config"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/router"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger().Fatal("Failed to load config", "error", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()
	log.Info("Starting Skybound Journeys", "version", cfg.AppVersion)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start", "error", err)
	}

	deps := a.Deps()
	deps.AccessLog = os.Stdout
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewHTTPHandler(deps),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Monitor.Run(gctx)
	})
	g.Go(func() error {
		return a.Sweeper.Run(gctx)
	})
	g.Go(func() error {
		return a.Subscriber.Run(gctx)
	})
	g.Go(func() error {
		if err := a.Airports.EnsurePopulated(gctx); err != nil {
			log.Warn("Airport cache not populated", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error", "error", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Close(closeCtx)

	log.Info("Skybound Journeys stopped")
}

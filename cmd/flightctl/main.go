package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/internal/app"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/config"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	output   string
	logLevel string
)

// withApp wires the app, probes connectivity once and runs fn
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Level: logLevel, Format: logger.FormatConsole})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()

	if !a.Monitor.Probe(ctx) {
		fmt.Fprintln(os.Stderr, "Backend unreachable, using local data")
	}
	return fn(ctx, a)
}

func printJson(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	var rootCmd = &cobra.Command{
		Use:           "flightctl",
		Short:         "Search flights, manage bookings and follow live flight status",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newAirportsCommand())
	rootCmd.AddCommand(newBookingsCommand())
	rootCmd.AddCommand(newTrackCommand())
	rootCmd.AddCommand(newCacheCommand())

	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "The output format to use (one of json or text)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

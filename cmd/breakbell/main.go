/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/breakbell/internal/audio"
	"github.com/friendsincode/breakbell/internal/clock"
	"github.com/friendsincode/breakbell/internal/config"
	"github.com/friendsincode/breakbell/internal/daemon"
	"github.com/friendsincode/breakbell/internal/db"
	"github.com/friendsincode/breakbell/internal/events"
	"github.com/friendsincode/breakbell/internal/logging"
	"github.com/friendsincode/breakbell/internal/relay"
	"github.com/friendsincode/breakbell/internal/store"
	"github.com/friendsincode/breakbell/internal/telemetry"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "breakbell",
	Short: "Breakbell - scheduled break audio playout for embedded appliances",
	Long:  "Breakbell drives timed audio playback (school break bells and the like) on a small appliance: schedule evaluation, command queue, playback backends, and relay power control, all over a shared database.",
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the playback daemon loop",
	RunE:  runDaemon,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current player status row",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(enqueueCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it).
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logging.Setup(cfg.Environment)
	return nil
}

func openStore() (*store.Store, func(), error) {
	database, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	cleanup := func() {
		if err := db.Close(database); err != nil {
			logger.Warn().Err(err).Msg("database close failed")
		}
	}
	return store.New(database, logger), cleanup, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("breakbell starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "breakbell",
		ServiceVersion: "0.2.0",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	database, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Warn().Err(err).Msg("database close failed")
		}
	}()
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	st := store.New(database, logger)

	backend, err := audio.Select(cfg, logger)
	if err != nil {
		return fmt.Errorf("select playback backend: %w", err)
	}

	relayCtrl := relay.New(cfg, logger)
	bus := events.NewBus()
	metrics := telemetry.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(ctx, cfg, st, backend, relayCtrl, clock.Real{}, bus, metrics, logger)
	if err != nil {
		return fmt.Errorf("initialize daemon: %w", err)
	}

	go func() {
		logger.Info().Str("addr", cfg.MetricsBind).Msg("metrics listening")
		if err := http.ListenAndServe(cfg.MetricsBind, telemetry.Router()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	state, err := st.State(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("status:      %s\n", state.Status)
	fmt.Printf("power:       %v\n", state.PowerOn)
	fmt.Printf("volume:      %d\n", state.Volume)
	if state.PlaylistID != nil {
		fmt.Printf("playlist:    %d\n", *state.PlaylistID)
	}
	if state.CurrentTrackID != nil {
		fmt.Printf("track:       %d\n", *state.CurrentTrackID)
	}
	if state.SessionEndAt != nil {
		fmt.Printf("session end: %s\n", state.SessionEndAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("heartbeat:   %s\n", state.HeartbeatAt.Format("2006-01-02 15:04:05"))
	return nil
}

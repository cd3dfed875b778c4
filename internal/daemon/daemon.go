/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package daemon owns the poll loop: schedule evaluation, command
// consumption, session housekeeping, and the status publish, strictly in
// that order, once per tick. The daemon is the exclusive writer of the
// status row and of command terminal states.
package daemon

import (
	"context"
	"time"

	"github.com/friendsincode/breakbell/internal/audio"
	"github.com/friendsincode/breakbell/internal/clock"
	"github.com/friendsincode/breakbell/internal/config"
	"github.com/friendsincode/breakbell/internal/events"
	"github.com/friendsincode/breakbell/internal/models"
	"github.com/friendsincode/breakbell/internal/player"
	"github.com/friendsincode/breakbell/internal/relay"
	"github.com/friendsincode/breakbell/internal/scheduler"
	"github.com/friendsincode/breakbell/internal/store"
	"github.com/friendsincode/breakbell/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Daemon wires the loop components together.
type Daemon struct {
	cfg     *config.Config
	store   *store.Store
	backend audio.Backend
	relay   relay.Controller
	clk     clock.Clock
	bus     *events.Bus
	metrics *telemetry.Metrics
	logger  zerolog.Logger

	instanceID string
	session    *player.Session
	evaluator  *scheduler.Evaluator
}

// New bootstraps the daemon: ensures the singleton status row exists
// (idle, power off on first run) and applies bootstrap schedules
// idempotently.
func New(ctx context.Context, cfg *config.Config, st *store.Store, backend audio.Backend, rc relay.Controller, clk clock.Clock, bus *events.Bus, metrics *telemetry.Metrics, logger zerolog.Logger) (*Daemon, error) {
	instanceID := uuid.NewString()

	state, err := st.EnsureState(ctx, instanceID, cfg.VolumeDefault)
	if err != nil {
		return nil, err
	}

	// A playing row from a previous run has no backing playback process
	// anymore; reset it so collaborators never see a silent "playing".
	if state.Status == models.StatusPlaying {
		logger.Warn().Msg("stale playing status from previous run, resetting to idle")
		state.Status = models.StatusIdle
		state.PlaylistID = nil
		state.CurrentTrackID = nil
		state.SessionEndAt = nil
		if err := st.SaveState(ctx, state); err != nil {
			return nil, err
		}
	}

	d := &Daemon{
		cfg:        cfg,
		store:      st,
		backend:    backend,
		relay:      rc,
		clk:        clk,
		bus:        bus,
		metrics:    metrics,
		logger:     logger,
		instanceID: instanceID,
	}

	d.session = player.NewSession(st, backend, rc, clk, bus, state, player.Options{
		MusicDir:       cfg.MusicDir,
		AutoPowerOff:   cfg.AutoPowerOff,
		DefaultMinutes: cfg.SessionDefaultMinutes,
	}, logger)
	d.evaluator = scheduler.New(st, bus, cfg.ScheduleTolerance, logger)

	if want := primaryBackend(cfg.Playback); want != "" && backend.Name() != want {
		bus.Publish(events.EventBackendFallback, events.Payload{
			"requested": want,
			"selected":  backend.Name(),
		})
	}

	if err := d.applyBootstrapSchedules(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// primaryBackend names the variant the configuration asked for, the head
// of the fallback chain.
func primaryBackend(p config.PlaybackBackend) string {
	switch p {
	case config.BackendAuto, config.BackendGst:
		return "gst"
	case config.BackendMpv:
		return "mpv"
	case config.BackendDummy:
		return "dummy"
	}
	return ""
}

// Session exposes the state machine, used by tests and the CLI.
func (d *Daemon) Session() *player.Session { return d.session }

// applyBootstrapSchedules upserts configured schedules by name. Invalid
// entries are logged and skipped rather than aborting startup; the
// config loader already rejected structurally broken files.
func (d *Daemon) applyBootstrapSchedules(ctx context.Context) error {
	for _, spec := range d.cfg.BootstrapSchedules {
		playlist, err := d.store.ResolvePlaylist(ctx, spec.Playlist)
		if err != nil {
			d.logger.Warn().Err(err).Str("schedule", spec.Name).Msg("bootstrap schedule playlist not found")
			continue
		}
		days, err := models.NormalizeDays(spec.Days)
		if err != nil {
			d.logger.Warn().Err(err).Str("schedule", spec.Name).Msg("bootstrap schedule has invalid days")
			continue
		}
		minutes := spec.Minutes
		if minutes <= 0 {
			minutes = d.cfg.SessionDefaultMinutes
		}
		enabled := true
		if spec.Enabled != nil {
			enabled = *spec.Enabled
		}
		schedule := models.Schedule{
			Name:           spec.Name,
			PlaylistID:     playlist.ID,
			Days:           days,
			StartTime:      spec.Time,
			SessionMinutes: minutes,
			Enabled:        enabled,
		}
		if err := d.store.UpsertSchedule(ctx, schedule); err != nil {
			return err
		}
		d.logger.Info().
			Str("schedule", spec.Name).
			Uint("playlist", playlist.ID).
			Str("time", spec.Time).
			Str("days", days).
			Msg("bootstrap schedule applied")
	}
	return nil
}

// Run drives the loop until context cancellation.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info().
		Str("instance", d.instanceID).
		Dur("tick", d.cfg.TickInterval).
		Msg("daemon started")

	go d.recordEvents(ctx)

	ticker := time.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return ctx.Err()
		case <-ticker.C:
			if err := d.Step(ctx); err != nil {
				d.logger.Error().Err(err).Msg("tick skipped")
				d.metrics.TicksSkipped.Inc()
			}
		}
	}
}

// Step executes one tick: evaluator, consumer, session housekeeping,
// status publish. Component calls are strictly sequential; an error
// skips the remainder of the tick and is retried on the next one.
func (d *Daemon) Step(ctx context.Context) error {
	ctx, span := telemetry.Tracer("breakbell/daemon").Start(ctx, "tick")
	defer span.End()

	started := time.Now()
	now := d.clk.Now()

	triggered, err := d.evaluator.Tick(ctx, now)
	if err != nil {
		return err
	}
	d.metrics.ScheduleTriggers.Add(float64(triggered))

	if err := d.consumeCommands(ctx); err != nil {
		return err
	}

	d.session.TickPreview(ctx, now)
	d.session.TickAdvance(ctx)
	d.session.TickTimeout(ctx, now)

	if err := d.publishStatus(ctx, now); err != nil {
		return err
	}

	d.metrics.Ticks.Inc()
	d.metrics.TickDuration.Observe(time.Since(started).Seconds())
	if d.session.State().Status == models.StatusPlaying {
		d.metrics.SessionActive.Set(1)
	} else {
		d.metrics.SessionActive.Set(0)
	}
	if d.relay.Degraded() {
		d.metrics.RelayDegraded.Set(1)
	} else {
		d.metrics.RelayDegraded.Set(0)
	}
	return nil
}

// publishStatus writes the full snapshot and stamps the heartbeat. Sole
// write path for the status row.
func (d *Daemon) publishStatus(ctx context.Context, now time.Time) error {
	state := d.session.State()
	state.HeartbeatAt = now
	state.InstanceID = d.instanceID
	return d.store.SaveState(ctx, state)
}

func (d *Daemon) shutdown() {
	d.logger.Info().Msg("daemon stopping")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d.session.Shutdown(ctx)
	if err := d.backend.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("backend close failed")
	}
	if err := d.relay.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("relay close failed")
	}
	if err := d.publishStatus(ctx, d.clk.Now()); err != nil {
		d.logger.Warn().Err(err).Msg("final status write failed")
	}
	d.logger.Info().Msg("daemon stopped")
}

// recordEvents mirrors bus traffic into the event log table so
// collaborators can inspect what the daemon did.
func (d *Daemon) recordEvents(ctx context.Context) {
	warnEvents := map[events.EventType]bool{
		events.EventCommandFailed:   true,
		events.EventRelayDegraded:   true,
		events.EventBackendFallback: true,
	}
	types := []events.EventType{
		events.EventSessionStart,
		events.EventSessionStop,
		events.EventSessionTimeout,
		events.EventTrackChange,
		events.EventScheduleTrigger,
		events.EventCommandFailed,
		events.EventPowerChange,
		events.EventRelayDegraded,
		events.EventBackendFallback,
	}
	for _, eventType := range types {
		sub := d.bus.Subscribe(eventType)
		level := "info"
		if warnEvents[eventType] {
			level = "warning"
		}
		go func(eventType events.EventType, level string, sub events.Subscriber) {
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-sub:
					if !ok {
						return
					}
					d.store.LogEvent(ctx, level, string(eventType), payload)
				}
			}
		}(eventType, level, sub)
	}
}

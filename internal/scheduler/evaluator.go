/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler matches wall-clock time against recurring schedules
// and synthesizes play commands for the consumer to apply.
package scheduler

import (
	"context"
	"time"

	"github.com/friendsincode/breakbell/internal/events"
	"github.com/friendsincode/breakbell/internal/models"
	"github.com/friendsincode/breakbell/internal/store"
	"github.com/rs/zerolog"
)

// Evaluator decides which schedules are due on each tick.
type Evaluator struct {
	store     *store.Store
	bus       *events.Bus
	tolerance time.Duration
	logger    zerolog.Logger
}

// New creates an evaluator. tolerance bridges the poll interval so a
// schedule cannot fall between two ticks.
func New(st *store.Store, bus *events.Bus, tolerance time.Duration, logger zerolog.Logger) *Evaluator {
	return &Evaluator{store: st, bus: bus, tolerance: tolerance, logger: logger}
}

// due reports whether the schedule should fire at now.
func (e *Evaluator) due(schedule models.Schedule, now time.Time) bool {
	if !schedule.Enabled {
		return false
	}
	if !schedule.DayMatches(now.Weekday()) {
		return false
	}
	if schedule.LastTriggeredOn != nil && sameDay(*schedule.LastTriggeredOn, now) {
		return false
	}
	start, err := schedule.StartAt(now)
	if err != nil {
		e.logger.Warn().Err(err).Uint("schedule", schedule.ID).Msg("unparseable schedule start time")
		return false
	}
	return !now.Before(start) && now.Before(start.Add(e.tolerance))
}

// Tick evaluates all enabled schedules at now and enqueues a play command
// for each due one, in ascending id order (last processed wins when
// several are due at once). The re-entry guard is persisted before the
// command is queued: a crash in between misses the trigger instead of
// doubling it. Returns the number of synthesized commands.
func (e *Evaluator) Tick(ctx context.Context, now time.Time) (int, error) {
	schedules, err := e.store.EnabledSchedules(ctx)
	if err != nil {
		return 0, err
	}

	triggered := 0
	for _, schedule := range schedules {
		if !e.due(schedule, now) {
			continue
		}
		if err := e.store.MarkScheduleTriggered(ctx, schedule.ID, now); err != nil {
			e.logger.Error().Err(err).Uint("schedule", schedule.ID).Msg("persist trigger guard failed, skipping")
			continue
		}
		minutes := schedule.SessionMinutes
		payload := models.PlayPayload{PlaylistID: schedule.PlaylistID, Minutes: minutes}
		if _, err := e.store.EnqueueCommand(ctx, models.CommandPlay, payload); err != nil {
			// The guard is already set; this trigger is lost for today
			// rather than risking a duplicate bell.
			e.logger.Error().Err(err).Uint("schedule", schedule.ID).Msg("enqueue schedule command failed")
			continue
		}
		triggered++
		e.logger.Info().
			Uint("schedule", schedule.ID).
			Str("name", schedule.Name).
			Uint("playlist", schedule.PlaylistID).
			Int("minutes", minutes).
			Msg("schedule triggered")
		e.bus.Publish(events.EventScheduleTrigger, events.Payload{
			"schedule_id": schedule.ID,
			"name":        schedule.Name,
			"playlist_id": schedule.PlaylistID,
			"minutes":     minutes,
		})
	}
	return triggered, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

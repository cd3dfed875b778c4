/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package player owns the playback session state machine. The session is
// either idle or playing one playlist bounded by a wall-clock end time.
// All mutations go through an explicit PlayerState object that the daemon
// persists once per tick; nothing here writes the store directly.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/friendsincode/breakbell/internal/audio"
	"github.com/friendsincode/breakbell/internal/clock"
	"github.com/friendsincode/breakbell/internal/events"
	"github.com/friendsincode/breakbell/internal/models"
	"github.com/friendsincode/breakbell/internal/relay"
	"github.com/friendsincode/breakbell/internal/store"
	"github.com/rs/zerolog"
)

var (
	// ErrNoSession indicates an operation that needs an active session.
	ErrNoSession = errors.New("no active session")

	// ErrEmptyPlaylist indicates a play request against a playlist with
	// no tracks.
	ErrEmptyPlaylist = errors.New("playlist has no tracks")
)

// Options configures session behavior.
type Options struct {
	MusicDir       string
	AutoPowerOff   bool
	DefaultMinutes int
}

type previewRun struct {
	trackID uint
	until   time.Time
}

// Session is the single current-session state machine.
type Session struct {
	store   *store.Store
	backend audio.Backend
	relay   relay.Controller
	clk     clock.Clock
	bus     *events.Bus
	logger  zerolog.Logger
	opts    Options

	state    *models.PlayerState
	tracks   []models.Track
	trackIdx int
	preview  *previewRun
}

// NewSession creates the state machine around the bootstrapped state row.
func NewSession(st *store.Store, backend audio.Backend, rc relay.Controller, clk clock.Clock, bus *events.Bus, state *models.PlayerState, opts Options, logger zerolog.Logger) *Session {
	return &Session{
		store:   st,
		backend: backend,
		relay:   rc,
		clk:     clk,
		bus:     bus,
		logger:  logger,
		opts:    opts,
		state:   state,
	}
}

// State returns the mutable status snapshot the daemon persists each tick.
func (s *Session) State() *models.PlayerState { return s.state }

func (s *Session) trackPath(track models.Track) string {
	return filepath.Join(s.opts.MusicDir, track.StoredFilename)
}

func (s *Session) playTrack(ctx context.Context, track models.Track) error {
	path := s.trackPath(track)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("track file %s: %w", track.StoredFilename, err)
	}
	if err := s.backend.Play(ctx, path); err != nil {
		return fmt.Errorf("backend play: %w", err)
	}
	return nil
}

// Start begins (or re-enters) a playing session. Re-entrant play fully
// replaces the previous session parameters, last wins.
func (s *Session) Start(ctx context.Context, playlistID uint, minutes int) error {
	if minutes <= 0 {
		minutes = s.opts.DefaultMinutes
	}

	tracks, err := s.store.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: playlist %d", ErrEmptyPlaylist, playlistID)
	}

	if err := s.backend.SetVolume(s.state.Volume); err != nil {
		s.logger.Warn().Err(err).Msg("volume apply failed")
	}
	if err := s.playTrack(ctx, tracks[0]); err != nil {
		// Never leave a partial session visible: fall back to a clean
		// idle state before surfacing the failure.
		s.toIdle()
		return err
	}

	now := s.clk.Now()
	end := now.Add(time.Duration(minutes) * time.Minute)
	pid := playlistID
	tid := tracks[0].ID

	s.tracks = tracks
	s.trackIdx = 0
	s.preview = nil
	s.state.Status = models.StatusPlaying
	s.state.PlaylistID = &pid
	s.state.CurrentTrackID = &tid
	s.state.SessionEndAt = &end

	if !s.state.PowerOn {
		s.applyPower(true)
	}

	s.logger.Info().Uint("playlist", playlistID).Int("minutes", minutes).Msg("session started")
	s.bus.Publish(events.EventSessionStart, events.Payload{
		"playlist_id": playlistID,
		"minutes":     minutes,
		"ends_at":     end,
	})
	return nil
}

// Stop ends the session and returns to idle. Safe when already idle.
func (s *Session) Stop(ctx context.Context, reason string) error {
	if s.state.Status != models.StatusPlaying {
		// stop must stay a no-op on an idle machine
		_ = s.backend.Stop()
		return nil
	}
	s.toIdle()
	if s.opts.AutoPowerOff && s.state.PowerOn {
		s.applyPower(false)
	}
	s.logger.Info().Str("reason", reason).Msg("session stopped")
	s.bus.Publish(events.EventSessionStop, events.Payload{"reason": reason})
	return nil
}

func (s *Session) toIdle() {
	_ = s.backend.Stop()
	s.tracks = nil
	s.trackIdx = 0
	s.preview = nil
	s.state.Status = models.StatusIdle
	s.state.PlaylistID = nil
	s.state.CurrentTrackID = nil
	s.state.SessionEndAt = nil
}

// Skip advances to the next track, wrapping at the playlist end. The
// session end time is untouched. The pointer moves only once the next
// track actually starts, so a failed skip leaves the session where it was.
func (s *Session) Skip(ctx context.Context) error {
	if s.state.Status != models.StatusPlaying || len(s.tracks) == 0 {
		return ErrNoSession
	}
	next := (s.trackIdx + 1) % len(s.tracks)
	track := s.tracks[next]
	if err := s.playTrack(ctx, track); err != nil {
		return err
	}
	s.trackIdx = next
	tid := track.ID
	s.state.CurrentTrackID = &tid
	s.bus.Publish(events.EventTrackChange, events.Payload{"track_id": track.ID, "cause": "skip"})
	return nil
}

// SetVolume clamps and applies the volume.
func (s *Session) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if err := s.backend.SetVolume(percent); err != nil {
		return fmt.Errorf("backend volume: %w", err)
	}
	s.state.Volume = percent
	return nil
}

// SetPower drives the relay. Power off unconditionally ends the session,
// even mid-playback. Relay degradation is reported but never fails the
// operation; playback is independent of relay health.
func (s *Session) SetPower(ctx context.Context, on bool) error {
	s.applyPower(on)
	if !on && s.state.Status == models.StatusPlaying {
		if err := s.Stop(ctx, "power off"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) applyPower(on bool) {
	if err := s.relay.SetPower(on); err != nil {
		s.bus.Publish(events.EventRelayDegraded, events.Payload{"error": err.Error()})
	}
	s.state.PowerOn = on
	s.bus.Publish(events.EventPowerChange, events.Payload{"on": on})
}

// Preview plays a single track one-off, time-boxed to its duration
// (min 30s). It never touches the session end time or playlist pointer
// and is independent of relay state; the interrupted playlist track
// resumes when the preview window closes.
func (s *Session) Preview(ctx context.Context, trackID uint) error {
	track, err := s.store.TrackByID(ctx, trackID)
	if err != nil {
		return err
	}
	if err := s.playTrack(ctx, *track); err != nil {
		// Resume the session track; the preview attempt must not wedge
		// an active session.
		if s.state.Status == models.StatusPlaying && len(s.tracks) > 0 {
			_ = s.playTrack(ctx, s.tracks[s.trackIdx])
		}
		return err
	}
	seconds := 30
	if track.DurationSec != nil && *track.DurationSec > seconds {
		seconds = *track.DurationSec
	}
	s.preview = &previewRun{
		trackID: trackID,
		until:   s.clk.Now().Add(time.Duration(seconds) * time.Second),
	}
	s.logger.Info().Uint("track", trackID).Int("seconds", seconds).Msg("preview started")
	return nil
}

// PreviewActive reports whether a preview is in flight.
func (s *Session) PreviewActive() bool { return s.preview != nil }

// TickPreview closes an elapsed or finished preview and resumes the
// interrupted session track, if any.
func (s *Session) TickPreview(ctx context.Context, now time.Time) {
	if s.preview == nil {
		return
	}
	if now.Before(s.preview.until) && s.backend.Active() {
		return
	}
	s.preview = nil
	if s.state.Status == models.StatusPlaying && len(s.tracks) > 0 {
		if err := s.playTrack(ctx, s.tracks[s.trackIdx]); err != nil {
			s.logger.Warn().Err(err).Msg("resume after preview failed")
		}
		return
	}
	_ = s.backend.Stop()
}

// TickAdvance moves to the next track when the backend finished the
// current one, wrapping at the playlist end.
func (s *Session) TickAdvance(ctx context.Context) {
	if s.state.Status != models.StatusPlaying || s.preview != nil || len(s.tracks) == 0 {
		return
	}
	if s.backend.Active() {
		return
	}
	next := (s.trackIdx + 1) % len(s.tracks)
	track := s.tracks[next]
	if err := s.playTrack(ctx, track); err != nil {
		// Pointer stays put; the same track is retried next tick.
		s.logger.Warn().Err(err).Uint("track", track.ID).Msg("track advance failed")
		return
	}
	s.trackIdx = next
	tid := track.ID
	s.state.CurrentTrackID = &tid
	s.bus.Publish(events.EventTrackChange, events.Payload{"track_id": track.ID, "cause": "advance"})
}

// TickTimeout ends the session once the end time has passed.
func (s *Session) TickTimeout(ctx context.Context, now time.Time) {
	if s.state.Status != models.StatusPlaying || s.state.SessionEndAt == nil {
		return
	}
	if now.Before(*s.state.SessionEndAt) {
		return
	}
	end := *s.state.SessionEndAt
	if err := s.Stop(ctx, "session timeout"); err != nil {
		s.logger.Error().Err(err).Msg("timeout stop failed")
		return
	}
	s.bus.Publish(events.EventSessionTimeout, events.Payload{"ended_at": end})
}

// Shutdown stops playback and optionally powers the relay off on daemon
// exit.
func (s *Session) Shutdown(ctx context.Context) {
	_ = s.backend.Stop()
	if s.opts.AutoPowerOff && s.state.PowerOn {
		s.applyPower(false)
	}
}

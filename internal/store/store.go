/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/friendsincode/breakbell/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	// ErrCommandClaimed indicates another pass already claimed the command.
	ErrCommandClaimed = errors.New("command already claimed")

	// ErrPlaylistNotFound indicates a playlist reference did not resolve.
	ErrPlaylistNotFound = errors.New("playlist not found")
)

const stateRowID = 1

// Store wraps all daemon persistence. Transient write failures are retried
// with a short constant backoff; exhaustion surfaces the error so the
// owning tick can be skipped and retried whole.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a store over an established gorm connection.
func New(database *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{db: database, logger: logger}
}

// DB exposes the underlying connection for migration wiring.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) retry(op func() error) error {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(200*time.Millisecond), 2)
	return backoff.Retry(op, policy)
}

// EnabledSchedules returns enabled schedules in ascending id order.
func (s *Store) EnabledSchedules(ctx context.Context) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("load enabled schedules: %w", err)
	}
	return schedules, nil
}

// MarkScheduleTriggered persists the per-day re-entry guard. It runs before
// the synthesized command executes, so a crash trades a missed trigger for
// a guaranteed non-duplicate one.
func (s *Store) MarkScheduleTriggered(ctx context.Context, scheduleID uint, day time.Time) error {
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.retry(func() error {
		return s.db.WithContext(ctx).
			Model(&models.Schedule{}).
			Where("id = ?", scheduleID).
			Update("last_triggered_on", date).Error
	})
}

// PendingCommands returns up to limit pending commands in FIFO order.
// Ties on created_at break by ascending id (insertion order).
func (s *Store) PendingCommands(ctx context.Context, limit int) ([]models.Command, error) {
	var commands []models.Command
	err := s.db.WithContext(ctx).
		Where("status = ?", models.CommandPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&commands).Error
	if err != nil {
		return nil, fmt.Errorf("load pending commands: %w", err)
	}
	return commands, nil
}

// ClaimCommand transitions pending -> processing. The conditional update
// guarantees a command is claimed by exactly one consumer pass.
func (s *Store) ClaimCommand(ctx context.Context, commandID uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Command{}).
		Where("id = ? AND status = ?", commandID, models.CommandPending).
		Update("status", models.CommandProcessing)
	if res.Error != nil {
		return fmt.Errorf("claim command %d: %w", commandID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCommandClaimed
	}
	return nil
}

// CompleteCommand marks a claimed command done.
func (s *Store) CompleteCommand(ctx context.Context, commandID uint) error {
	return s.retry(func() error {
		return s.db.WithContext(ctx).
			Model(&models.Command{}).
			Where("id = ?", commandID).
			Updates(map[string]any{"status": models.CommandDone, "error": nil}).Error
	})
}

// FailCommand marks a claimed command failed with the captured message.
func (s *Store) FailCommand(ctx context.Context, commandID uint, message string) error {
	return s.retry(func() error {
		return s.db.WithContext(ctx).
			Model(&models.Command{}).
			Where("id = ?", commandID).
			Updates(map[string]any{"status": models.CommandFailed, "error": message}).Error
	})
}

// EnqueueCommand inserts a new pending command. Used by the schedule
// evaluator and by the CLI helper.
func (s *Store) EnqueueCommand(ctx context.Context, cmdType models.CommandType, payload any) (*models.Command, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode command payload: %w", err)
	}
	command := &models.Command{
		Type:      cmdType,
		Payload:   string(raw),
		Status:    models.CommandPending,
		CreatedAt: time.Now(),
	}
	if err := s.retry(func() error {
		return s.db.WithContext(ctx).Create(command).Error
	}); err != nil {
		return nil, fmt.Errorf("enqueue %s command: %w", cmdType, err)
	}
	return command, nil
}

// PlaylistTracks returns the playlist's tracks in position order.
func (s *Store) PlaylistTracks(ctx context.Context, playlistID uint) ([]models.Track, error) {
	var tracks []models.Track
	err := s.db.WithContext(ctx).
		Model(&models.Track{}).
		Joins("JOIN playlist_tracks ON playlist_tracks.track_id = tracks.id").
		Where("playlist_tracks.playlist_id = ?", playlistID).
		Order("playlist_tracks.position ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("load playlist %d tracks: %w", playlistID, err)
	}
	return tracks, nil
}

// TrackByID fetches a single track.
func (s *Store) TrackByID(ctx context.Context, trackID uint) (*models.Track, error) {
	var track models.Track
	err := s.db.WithContext(ctx).First(&track, trackID).Error
	if err != nil {
		return nil, fmt.Errorf("load track %d: %w", trackID, err)
	}
	return &track, nil
}

// ResolvePlaylist resolves a playlist by numeric id or exact name.
func (s *Store) ResolvePlaylist(ctx context.Context, ref string) (*models.Playlist, error) {
	var playlist models.Playlist
	err := s.db.WithContext(ctx).
		Where("id = ? OR name = ?", ref, ref).
		First(&playlist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrPlaylistNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve playlist %q: %w", ref, err)
	}
	return &playlist, nil
}

// EnsureState loads the singleton status row, creating it idle/power-off
// on first run.
func (s *Store) EnsureState(ctx context.Context, instanceID string, defaultVolume int) (*models.PlayerState, error) {
	var state models.PlayerState
	err := s.db.WithContext(ctx).First(&state, stateRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = models.PlayerState{
			ID:          stateRowID,
			Status:      models.StatusIdle,
			PowerOn:     false,
			Volume:      defaultVolume,
			HeartbeatAt: time.Now(),
			InstanceID:  instanceID,
			UpdatedAt:   time.Now(),
		}
		if err := s.retry(func() error {
			return s.db.WithContext(ctx).Create(&state).Error
		}); err != nil {
			return nil, fmt.Errorf("create state row: %w", err)
		}
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state row: %w", err)
	}
	state.InstanceID = instanceID
	return &state, nil
}

// SaveState writes the full status snapshot in one update. This is the
// sole write path for the row.
func (s *Store) SaveState(ctx context.Context, state *models.PlayerState) error {
	state.ID = stateRowID
	state.UpdatedAt = time.Now()
	return s.retry(func() error {
		return s.db.WithContext(ctx).Save(state).Error
	})
}

// State reads the current status row, for the CLI helper.
func (s *Store) State(ctx context.Context) (*models.PlayerState, error) {
	var state models.PlayerState
	if err := s.db.WithContext(ctx).First(&state, stateRowID).Error; err != nil {
		return nil, fmt.Errorf("load state row: %w", err)
	}
	return &state, nil
}

// UpsertSchedule applies one bootstrap schedule by name, idempotently.
func (s *Store) UpsertSchedule(ctx context.Context, schedule models.Schedule) error {
	return s.retry(func() error {
		var existing models.Schedule
		err := s.db.WithContext(ctx).Where("name = ?", schedule.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.db.WithContext(ctx).Create(&schedule).Error
		}
		if err != nil {
			return err
		}
		return s.db.WithContext(ctx).
			Model(&existing).
			Updates(map[string]any{
				"playlist_id":     schedule.PlaylistID,
				"days":            schedule.Days,
				"start_time":      schedule.StartTime,
				"session_minutes": schedule.SessionMinutes,
				"enabled":         schedule.Enabled,
			}).Error
	})
}

// LogEvent appends an event log row. Failures are logged and swallowed;
// the audit trail must never take the loop down.
func (s *Store) LogEvent(ctx context.Context, level, event string, meta map[string]any) {
	raw, err := json.Marshal(meta)
	if err != nil {
		raw = []byte("{}")
	}
	entry := models.EventLog{
		Timestamp: time.Now(),
		Level:     level,
		Event:     event,
		Meta:      string(raw),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("event log write failed")
	}
}

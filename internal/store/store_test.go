/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/friendsincode/breakbell/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store_test.db")
	database, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = database.AutoMigrate(
		&models.Track{},
		&models.Playlist{},
		&models.PlaylistTrack{},
		&models.Schedule{},
		&models.Command{},
		&models.PlayerState{},
		&models.EventLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(database, zerolog.Nop())
}

func TestEnsureStateBootstrap(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	state, err := st.EnsureState(ctx, "instance-a", 55)
	if err != nil {
		t.Fatalf("EnsureState: %v", err)
	}
	if state.Status != models.StatusIdle {
		t.Errorf("status = %q, want idle", state.Status)
	}
	if state.PowerOn {
		t.Error("first-run state has power on, want off")
	}
	if state.Volume != 55 {
		t.Errorf("volume = %d, want 55", state.Volume)
	}

	// A second call must reuse the row, not create another.
	again, err := st.EnsureState(ctx, "instance-b", 10)
	if err != nil {
		t.Fatalf("EnsureState (second): %v", err)
	}
	if again.ID != state.ID {
		t.Errorf("second EnsureState returned row %d, want %d", again.ID, state.ID)
	}
	if again.Volume != 55 {
		t.Errorf("second EnsureState volume = %d, want existing 55", again.Volume)
	}
	if again.InstanceID != "instance-b" {
		t.Errorf("instance id = %q, want instance-b", again.InstanceID)
	}
}

func TestSaveStateRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	state, err := st.EnsureState(ctx, "instance-a", 70)
	if err != nil {
		t.Fatalf("EnsureState: %v", err)
	}

	end := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	pid := uint(3)
	tid := uint(9)
	state.Status = models.StatusPlaying
	state.PowerOn = true
	state.PlaylistID = &pid
	state.CurrentTrackID = &tid
	state.SessionEndAt = &end

	if err := st.SaveState(ctx, state); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loaded, err := st.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if loaded.Status != models.StatusPlaying || !loaded.PowerOn {
		t.Errorf("loaded state = %+v, want playing/power-on", loaded)
	}
	if loaded.PlaylistID == nil || *loaded.PlaylistID != pid {
		t.Errorf("playlist id = %v, want %d", loaded.PlaylistID, pid)
	}
	if loaded.SessionEndAt == nil || !loaded.SessionEndAt.Equal(end) {
		t.Errorf("session end = %v, want %v", loaded.SessionEndAt, end)
	}
}

func TestEnqueueAndPendingFIFO(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	// Identical created_at stamps must fall back to insertion (id) order.
	now := time.Now().Truncate(time.Second)
	for _, typ := range []models.CommandType{models.CommandStop, models.CommandSkip, models.CommandStop} {
		cmd := models.Command{Type: typ, Payload: "{}", Status: models.CommandPending, CreatedAt: now}
		if err := st.DB().Create(&cmd).Error; err != nil {
			t.Fatal(err)
		}
	}

	pending, err := st.PendingCommands(ctx, 10)
	if err != nil {
		t.Fatalf("PendingCommands: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("got %d pending commands, want 3", len(pending))
	}
	for i := 1; i < len(pending); i++ {
		if pending[i].ID < pending[i-1].ID {
			t.Errorf("commands out of id order: %d before %d", pending[i-1].ID, pending[i].ID)
		}
	}

	limited, err := st.PendingCommands(ctx, 2)
	if err != nil {
		t.Fatalf("PendingCommands limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d commands with limit 2", len(limited))
	}
	if limited[0].ID != pending[0].ID {
		t.Errorf("limited batch starts at %d, want oldest %d", limited[0].ID, pending[0].ID)
	}
}

func TestClaimCommandOnce(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cmd, err := st.EnqueueCommand(ctx, models.CommandStop, struct{}{})
	if err != nil {
		t.Fatalf("EnqueueCommand: %v", err)
	}

	if err := st.ClaimCommand(ctx, cmd.ID); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := st.ClaimCommand(ctx, cmd.ID); !errors.Is(err, ErrCommandClaimed) {
		t.Errorf("second claim err = %v, want ErrCommandClaimed", err)
	}
}

func TestCommandTerminalStates(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	done, err := st.EnqueueCommand(ctx, models.CommandSkip, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	failed, err := st.EnqueueCommand(ctx, models.CommandPlay, models.PlayPayload{PlaylistID: 1})
	if err != nil {
		t.Fatal(err)
	}

	if err := st.ClaimCommand(ctx, done.ID); err != nil {
		t.Fatal(err)
	}
	if err := st.CompleteCommand(ctx, done.ID); err != nil {
		t.Fatalf("CompleteCommand: %v", err)
	}
	if err := st.ClaimCommand(ctx, failed.ID); err != nil {
		t.Fatal(err)
	}
	if err := st.FailCommand(ctx, failed.ID, "playlist has no tracks"); err != nil {
		t.Fatalf("FailCommand: %v", err)
	}

	var loaded models.Command
	if err := st.DB().First(&loaded, done.ID).Error; err != nil {
		t.Fatal(err)
	}
	if loaded.Status != models.CommandDone {
		t.Errorf("status = %q, want done", loaded.Status)
	}
	if err := st.DB().First(&loaded, failed.ID).Error; err != nil {
		t.Fatal(err)
	}
	if loaded.Status != models.CommandFailed {
		t.Errorf("status = %q, want failed", loaded.Status)
	}
	if loaded.Error == nil || *loaded.Error != "playlist has no tracks" {
		t.Errorf("error = %v, want captured message", loaded.Error)
	}

	// Terminal commands never reappear in the pending view.
	pending, err := st.PendingCommands(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending commands after terminal marks, want 0", len(pending))
	}
}

func TestPlaylistTracksOrder(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	playlist := models.Playlist{Name: "breaks"}
	if err := st.DB().Create(&playlist).Error; err != nil {
		t.Fatal(err)
	}
	names := []string{"c.mp3", "a.mp3", "b.mp3"}
	positions := []int{2, 0, 1}
	for i, name := range names {
		track := models.Track{OrigFilename: name, StoredFilename: name, ContentType: "audio/mpeg", UploadedAt: time.Now()}
		if err := st.DB().Create(&track).Error; err != nil {
			t.Fatal(err)
		}
		member := models.PlaylistTrack{PlaylistID: playlist.ID, TrackID: track.ID, Position: positions[i]}
		if err := st.DB().Create(&member).Error; err != nil {
			t.Fatal(err)
		}
	}

	tracks, err := st.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("PlaylistTracks: %v", err)
	}
	got := make([]string, len(tracks))
	for i, track := range tracks {
		got[i] = track.StoredFilename
	}
	want := []string{"a.mp3", "b.mp3", "c.mp3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("track order = %v, want %v", got, want)
		}
	}
}

func TestResolvePlaylist(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	playlist := models.Playlist{Name: "lunch"}
	if err := st.DB().Create(&playlist).Error; err != nil {
		t.Fatal(err)
	}

	byName, err := st.ResolvePlaylist(ctx, "lunch")
	if err != nil {
		t.Fatalf("resolve by name: %v", err)
	}
	if byName.ID != playlist.ID {
		t.Errorf("resolve by name got id %d, want %d", byName.ID, playlist.ID)
	}

	byID, err := st.ResolvePlaylist(ctx, "1")
	if err != nil {
		t.Fatalf("resolve by id: %v", err)
	}
	if byID.ID != playlist.ID {
		t.Errorf("resolve by id got id %d, want %d", byID.ID, playlist.ID)
	}

	if _, err := st.ResolvePlaylist(ctx, "nope"); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("resolve missing err = %v, want ErrPlaylistNotFound", err)
	}
}

func TestMarkScheduleTriggered(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	schedule := models.Schedule{Name: "bell", PlaylistID: 1, StartTime: "08:00", SessionMinutes: 15, Enabled: true}
	if err := st.DB().Create(&schedule).Error; err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 3, 4, 8, 0, 30, 0, time.UTC)
	if err := st.MarkScheduleTriggered(ctx, schedule.ID, now); err != nil {
		t.Fatalf("MarkScheduleTriggered: %v", err)
	}

	var loaded models.Schedule
	if err := st.DB().First(&loaded, schedule.ID).Error; err != nil {
		t.Fatal(err)
	}
	if loaded.LastTriggeredOn == nil {
		t.Fatal("LastTriggeredOn not set")
	}
	want := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if !loaded.LastTriggeredOn.Equal(want) {
		t.Errorf("LastTriggeredOn = %v, want midnight %v", loaded.LastTriggeredOn, want)
	}
}

func TestUpsertScheduleIdempotent(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first := models.Schedule{Name: "bell", PlaylistID: 1, Days: "0,1", StartTime: "08:00", SessionMinutes: 15, Enabled: true}
	if err := st.UpsertSchedule(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := models.Schedule{Name: "bell", PlaylistID: 2, Days: "0,1,2,3,4", StartTime: "09:30", SessionMinutes: 20, Enabled: false}
	if err := st.UpsertSchedule(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var all []models.Schedule
	if err := st.DB().Find(&all).Error; err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d schedules after two upserts, want 1", len(all))
	}
	got := all[0]
	if got.PlaylistID != 2 || got.StartTime != "09:30" || got.SessionMinutes != 20 || got.Enabled {
		t.Errorf("upserted schedule = %+v, want second spec applied", got)
	}
}

func TestEnabledSchedulesOrder(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for i, enabled := range []bool{true, false, true} {
		s := models.Schedule{Name: string(rune('a' + i)), PlaylistID: 1, StartTime: "08:00", SessionMinutes: 15, Enabled: enabled}
		if err := st.DB().Create(&s).Error; err != nil {
			t.Fatal(err)
		}
	}

	schedules, err := st.EnabledSchedules(ctx)
	if err != nil {
		t.Fatalf("EnabledSchedules: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("got %d enabled schedules, want 2", len(schedules))
	}
	if schedules[0].ID > schedules[1].ID {
		t.Errorf("schedules not in ascending id order: %d, %d", schedules[0].ID, schedules[1].ID)
	}
}

func TestLogEventSwallowsMetaErrors(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	st.LogEvent(ctx, "info", "session.start", map[string]any{"playlist_id": 1})

	var count int64
	if err := st.DB().Model(&models.EventLog{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("got %d event rows, want 1", count)
	}
}

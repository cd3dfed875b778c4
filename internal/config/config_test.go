/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Errorf("DBBackend = %q, want sqlite", cfg.DBBackend)
	}
	if cfg.Playback != BackendAuto {
		t.Errorf("Playback = %q, want auto", cfg.Playback)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.TickInterval)
	}
	if cfg.ScheduleTolerance != 60*time.Second {
		t.Errorf("ScheduleTolerance = %v, want 60s", cfg.ScheduleTolerance)
	}
	if cfg.MaxCommandsPerTick != 16 {
		t.Errorf("MaxCommandsPerTick = %d, want 16", cfg.MaxCommandsPerTick)
	}
	if cfg.VolumeDefault != 70 {
		t.Errorf("VolumeDefault = %d, want 70", cfg.VolumeDefault)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad database backend", key: "BREAKBELL_DB_BACKEND", val: "oracle"},
		{name: "bad playback backend", key: "BREAKBELL_PLAYBACK_BACKEND", val: "winamp"},
		{name: "zero tick interval", key: "BREAKBELL_TICK_INTERVAL_SECONDS", val: "0"},
		{name: "zero command batch", key: "BREAKBELL_MAX_COMMANDS_PER_TICK", val: "0"},
		{name: "volume out of range", key: "BREAKBELL_VOLUME_DEFAULT", val: "150"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%s, want error", tt.key, tt.val)
			}
		})
	}
}

func TestLoadToleranceFloor(t *testing.T) {
	// A wide tick interval must widen the tolerance window with it.
	t.Setenv("BREAKBELL_TICK_INTERVAL_SECONDS", "45")
	t.Setenv("BREAKBELL_SCHEDULE_TOLERANCE_SECONDS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := 90 * time.Second; cfg.ScheduleTolerance != want {
		t.Errorf("ScheduleTolerance = %v, want floor %v", cfg.ScheduleTolerance, want)
	}
}

func TestLoadBootstrapSchedules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.yaml")
	content := `
- name: morning-break
  playlist: breaks
  time: "09:45"
  days: mon-fri
  minutes: 20
- name: lunch
  playlist: "2"
  time: "12:00"
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BREAKBELL_BOOTSTRAP_SCHEDULES", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.BootstrapSchedules) != 2 {
		t.Fatalf("got %d bootstrap schedules, want 2", len(cfg.BootstrapSchedules))
	}
	first := cfg.BootstrapSchedules[0]
	if first.Name != "morning-break" || first.Time != "09:45" || first.Minutes != 20 {
		t.Errorf("unexpected first schedule: %+v", first)
	}
	second := cfg.BootstrapSchedules[1]
	if second.Enabled == nil || *second.Enabled {
		t.Errorf("second schedule enabled = %v, want explicit false", second.Enabled)
	}
}

func TestLoadBootstrapSchedulesRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing name", content: "- playlist: p\n  time: \"08:00\"\n"},
		{name: "missing playlist", content: "- name: x\n  time: \"08:00\"\n"},
		{name: "bad time", content: "- name: x\n  playlist: p\n  time: \"8am\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "schedules.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("BREAKBELL_BOOTSTRAP_SCHEDULES", path)
			if _, err := Load(); err == nil {
				t.Error("Load accepted invalid bootstrap schedule")
			}
		})
	}
}

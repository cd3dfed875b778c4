/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/breakbell/internal/config"
)

func TestDummyBackend(t *testing.T) {
	d := NewDummy()
	ctx := context.Background()

	if d.Active() {
		t.Error("fresh dummy reports active")
	}
	if err := d.Play(ctx, "/music/a.mp3"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !d.Active() {
		t.Error("dummy not active after Play")
	}
	if d.Playing() != "/music/a.mp3" {
		t.Errorf("Playing = %q", d.Playing())
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if d.Active() {
		t.Error("dummy still active after Stop")
	}

	want := []string{"play:/music/a.mp3", "stop"}
	got := d.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v, want %v", got, want)
		}
	}
}

func TestDummyVolumeClamp(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{180, 100},
	}
	d := NewDummy()
	for _, tt := range tests {
		if err := d.SetVolume(tt.in); err != nil {
			t.Fatalf("SetVolume(%d): %v", tt.in, err)
		}
		if got := d.Volume(); got != tt.want {
			t.Errorf("SetVolume(%d) stored %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewGstMissingBinary(t *testing.T) {
	if _, err := NewGst("no-such-gst-launcher-zz", zerolog.Nop()); err == nil {
		t.Error("NewGst with missing binary, want error")
	}
}

func TestNewMpvMissingBinary(t *testing.T) {
	if _, err := NewMpv("no-such-mpv-zz", zerolog.Nop()); err == nil {
		t.Error("NewMpv with missing binary, want error")
	}
}

func TestSelectFallsBackToDummy(t *testing.T) {
	// With both player binaries absent the chain must land on the dummy
	// instead of failing startup.
	cfg := &config.Config{
		Playback: config.BackendAuto,
		GstBin:   "no-such-gst-launcher-zz",
		MpvBin:   "no-such-mpv-zz",
	}
	backend, err := Select(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if backend.Name() != "dummy" {
		t.Errorf("selected backend = %q, want dummy", backend.Name())
	}
}

func TestSelectExplicitDummy(t *testing.T) {
	cfg := &config.Config{Playback: config.BackendDummy}
	backend, err := Select(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if backend.Name() != "dummy" {
		t.Errorf("selected backend = %q, want dummy", backend.Name())
	}
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"context"
	"sync"
)

// DummyBackend is a no-op variant for environments without an audio stack.
// It records calls so tests can assert the observed sequence.
type DummyBackend struct {
	mu      sync.Mutex
	playing string
	volume  int
	calls   []string
}

// NewDummy creates the no-op backend.
func NewDummy() *DummyBackend {
	return &DummyBackend{volume: 70}
}

func (d *DummyBackend) Name() string { return "dummy" }

func (d *DummyBackend) Play(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = path
	d.calls = append(d.calls, "play:"+path)
	return nil
}

func (d *DummyBackend) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = ""
	d.calls = append(d.calls, "stop")
	return nil
}

func (d *DummyBackend) SetVolume(percent int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = clampVolume(percent)
	return nil
}

func (d *DummyBackend) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing != ""
}

func (d *DummyBackend) Close() error { return nil }

// Volume reports the last applied volume.
func (d *DummyBackend) Volume() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// Playing reports the current track path, empty when idle.
func (d *DummyBackend) Playing() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// Calls returns the recorded call sequence.
func (d *DummyBackend) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

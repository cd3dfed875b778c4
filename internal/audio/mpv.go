/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
)

// MpvBackend plays files through an mpv subprocess. Secondary variant:
// slower to spawn than the gst pipeline but copes with more formats.
type MpvBackend struct {
	bin    string
	logger zerolog.Logger
	proc   proc

	mu     sync.Mutex
	volume int
}

// NewMpv probes the mpv binary and constructs the backend.
func NewMpv(bin string, logger zerolog.Logger) (*MpvBackend, error) {
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("player binary %q not found: %w", bin, err)
	}
	return &MpvBackend{
		bin:    resolved,
		logger: logger,
		proc:   proc{logger: logger},
		volume: 70,
	}, nil
}

func (m *MpvBackend) Name() string { return "mpv" }

func (m *MpvBackend) Play(ctx context.Context, path string) error {
	m.mu.Lock()
	volume := m.volume
	m.mu.Unlock()

	args := []string{
		"--no-video",
		"--really-quiet",
		"--no-terminal",
		fmt.Sprintf("--volume=%d", volume),
		path,
	}
	if err := m.proc.start(ctx, m.bin, args...); err != nil {
		return fmt.Errorf("start player process: %w", err)
	}
	return nil
}

func (m *MpvBackend) Stop() error {
	m.proc.stop()
	return nil
}

// SetVolume stores the level for the next spawned process.
func (m *MpvBackend) SetVolume(percent int) error {
	m.mu.Lock()
	m.volume = clampVolume(percent)
	m.mu.Unlock()
	return nil
}

func (m *MpvBackend) Active() bool { return m.proc.active() }

func (m *MpvBackend) Close() error { return m.Stop() }

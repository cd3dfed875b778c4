/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package audio abstracts the actual audio-rendering mechanism behind a
// small capability interface with three variants: a GStreamer pipeline,
// an external player process, and a no-op dummy.
package audio

import (
	"context"
	"errors"
)

// ErrNoBackend indicates no playback variant could be initialized.
var ErrNoBackend = errors.New("no playback backend available")

// Backend drives audio output for one track at a time.
//
// Implementations guarantee that Stop is safe to call when nothing is
// playing, and that Play on top of an active track stops it first so
// audio never overlaps.
type Backend interface {
	// Name identifies the variant ("gst", "mpv", "dummy").
	Name() string

	// Play starts the file at path, replacing any active playback.
	Play(ctx context.Context, path string) error

	// Stop halts playback. A no-op when idle.
	Stop() error

	// SetVolume sets output volume, clamped to 0..100.
	SetVolume(percent int) error

	// Active reports whether a track is currently playing.
	Active() bool

	// Close releases backend resources on daemon shutdown.
	Close() error
}

func clampVolume(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

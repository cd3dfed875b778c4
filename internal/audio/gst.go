/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// GstBackend plays files through a gst-launch playbin pipeline to the
// default audio sink. Primary variant: lowest startup latency.
type GstBackend struct {
	bin    string
	logger zerolog.Logger
	proc   proc

	mu     sync.Mutex
	volume int
}

// NewGst probes the GStreamer launcher binary and constructs the backend.
func NewGst(bin string, logger zerolog.Logger) (*GstBackend, error) {
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("gstreamer launcher %q not found: %w", bin, err)
	}
	return &GstBackend{
		bin:    resolved,
		logger: logger,
		proc:   proc{logger: logger},
		volume: 70,
	}, nil
}

func (g *GstBackend) Name() string { return "gst" }

func (g *GstBackend) Play(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve track path: %w", err)
	}

	g.mu.Lock()
	volume := float64(g.volume) / 100
	g.mu.Unlock()

	uri := url.URL{Scheme: "file", Path: abs}
	launch := fmt.Sprintf("playbin uri=%s volume=%.2f", uri.String(), volume)
	if err := g.proc.start(ctx, "sh", "-c", fmt.Sprintf("%s -q %s", g.bin, launch)); err != nil {
		return fmt.Errorf("start gst pipeline: %w", err)
	}
	return nil
}

func (g *GstBackend) Stop() error {
	g.proc.stop()
	return nil
}

// SetVolume stores the level; gst-launch cannot adjust a running pipeline,
// so the value applies from the next Play.
func (g *GstBackend) SetVolume(percent int) error {
	g.mu.Lock()
	g.volume = clampVolume(percent)
	g.mu.Unlock()
	return nil
}

func (g *GstBackend) Active() bool { return g.proc.active() }

func (g *GstBackend) Close() error { return g.Stop() }

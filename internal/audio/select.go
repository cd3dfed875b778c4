/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"github.com/friendsincode/breakbell/internal/config"
	"github.com/rs/zerolog"
)

// Select picks the playback backend once at startup. Constructors are
// tried in the configured fallback order; each initialization failure is
// logged as a degradation event and the next variant is tried. The dummy
// backend never fails, so Select only errors on an empty chain.
func Select(cfg *config.Config, logger zerolog.Logger) (Backend, error) {
	type candidate struct {
		name string
		init func() (Backend, error)
	}

	gst := candidate{"gst", func() (Backend, error) { return NewGst(cfg.GstBin, logger) }}
	mpv := candidate{"mpv", func() (Backend, error) { return NewMpv(cfg.MpvBin, logger) }}
	dummy := candidate{"dummy", func() (Backend, error) { return NewDummy(), nil }}

	var chain []candidate
	switch cfg.Playback {
	case config.BackendGst, config.BackendAuto:
		chain = []candidate{gst, mpv, dummy}
	case config.BackendMpv:
		chain = []candidate{mpv, dummy}
	case config.BackendDummy:
		chain = []candidate{dummy}
	default:
		chain = []candidate{dummy}
	}

	for i, c := range chain {
		backend, err := c.init()
		if err != nil {
			logger.Warn().Err(err).Str("backend", c.name).Msg("playback backend unavailable, falling back")
			continue
		}
		if i > 0 {
			logger.Warn().Str("backend", c.name).Msg("running on degraded playback backend")
		}
		logger.Info().Str("backend", c.name).Msg("playback backend selected")
		return backend, nil
	}
	return nil, ErrNoBackend
}

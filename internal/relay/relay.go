/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package relay toggles the power relay feeding the downstream audio
// hardware. Relay trouble is never fatal: the controller degrades and the
// daemon keeps playing.
package relay

import (
	"sync"

	"github.com/friendsincode/breakbell/internal/config"
	"github.com/rs/zerolog"
)

// Controller switches the relay. Implementations track the last requested
// state so the daemon can report power status even while degraded.
type Controller interface {
	// SetPower requests the relay state. A non-nil error means the
	// hardware write failed and the controller is degraded; the request
	// is still remembered as the desired state.
	SetPower(on bool) error

	// PowerOn reports the last requested state.
	PowerOn() bool

	// Degraded reports whether hardware writes are failing.
	Degraded() bool

	// Close releases the pin on shutdown.
	Close() error
}

// New selects the controller variant: the sysfs GPIO driver when relay
// hardware is enabled, otherwise the mock. A failed GPIO setup degrades
// to the mock rather than aborting startup.
func New(cfg *config.Config, logger zerolog.Logger) Controller {
	if !cfg.RelayEnabled {
		logger.Info().Msg("relay disabled, using mock controller")
		return NewMock()
	}
	gpio, err := NewGPIO(cfg.RelayPin, cfg.RelayActiveHigh, logger)
	if err != nil {
		logger.Warn().Err(err).Int("pin", cfg.RelayPin).Msg("relay hardware unavailable, using mock controller")
		return NewMock()
	}
	return gpio
}

// Mock always succeeds without side effects.
type Mock struct {
	mu sync.Mutex
	on bool
}

// NewMock creates the mock controller.
func NewMock() *Mock { return &Mock{} }

func (m *Mock) SetPower(on bool) error {
	m.mu.Lock()
	m.on = on
	m.mu.Unlock()
	return nil
}

func (m *Mock) PowerOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}

func (m *Mock) Degraded() bool { return false }

func (m *Mock) Close() error { return nil }

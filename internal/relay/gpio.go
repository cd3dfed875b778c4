/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultSysfsBase = "/sys/class/gpio"

// GPIO drives a relay pin through the sysfs GPIO interface. Write failures
// flip the controller into a degraded state, logged once; the desired
// power state keeps tracking requests so recovery is seamless.
type GPIO struct {
	pin        int
	activeHigh bool
	base       string
	logger     zerolog.Logger

	mu       sync.Mutex
	on       bool
	degraded bool
}

// NewGPIO exports and configures the pin.
func NewGPIO(pin int, activeHigh bool, logger zerolog.Logger) (*GPIO, error) {
	return newGPIOAt(defaultSysfsBase, pin, activeHigh, logger)
}

// newGPIOAt is the injectable-base constructor used by tests.
func newGPIOAt(base string, pin int, activeHigh bool, logger zerolog.Logger) (*GPIO, error) {
	g := &GPIO{pin: pin, activeHigh: activeHigh, base: base, logger: logger}

	pinDir := filepath.Join(base, fmt.Sprintf("gpio%d", pin))
	if _, err := os.Stat(pinDir); os.IsNotExist(err) {
		if err := os.WriteFile(filepath.Join(base, "export"), []byte(strconv.Itoa(pin)), 0o644); err != nil {
			return nil, fmt.Errorf("export gpio pin %d: %w", pin, err)
		}
		// The kernel needs a moment to create the pin directory.
		time.Sleep(50 * time.Millisecond)
	}
	if err := os.WriteFile(filepath.Join(pinDir, "direction"), []byte("out"), 0o644); err != nil {
		return nil, fmt.Errorf("set gpio pin %d direction: %w", pin, err)
	}

	// Start from a known-off state.
	if err := g.write(false); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GPIO) write(on bool) error {
	level := "0"
	if on == g.activeHigh {
		level = "1"
	}
	path := filepath.Join(g.base, fmt.Sprintf("gpio%d", g.pin), "value")
	if err := os.WriteFile(path, []byte(level), 0o644); err != nil {
		return fmt.Errorf("write gpio pin %d: %w", g.pin, err)
	}
	return nil
}

func (g *GPIO) SetPower(on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.on = on
	if err := g.write(on); err != nil {
		if !g.degraded {
			g.logger.Warn().Err(err).Int("pin", g.pin).Msg("relay write failed, controller degraded")
		}
		g.degraded = true
		return err
	}
	if g.degraded {
		g.logger.Info().Int("pin", g.pin).Msg("relay recovered")
	}
	g.degraded = false
	return nil
}

func (g *GPIO) PowerOn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}

func (g *GPIO) Degraded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.degraded
}

// Close drives the pin low and unexports it.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_ = g.write(false)
	return os.WriteFile(filepath.Join(g.base, "unexport"), []byte(strconv.Itoa(g.pin)), 0o644)
}

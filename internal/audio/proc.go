/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"context"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
)

// proc owns one player subprocess at a time. Start replaces any running
// process; the done channel closes when the process exits so Active stays
// accurate without polling.
type proc struct {
	logger zerolog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *proc) start(ctx context.Context, name string, args ...string) error {
	p.stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan struct{})
	p.cmd = cmd
	p.done = done

	go func(c *exec.Cmd, d chan struct{}) {
		err := c.Wait()
		close(d)
		if err != nil {
			p.logger.Debug().Err(err).Str("bin", name).Msg("player process exited")
		}
	}(cmd, done)

	return nil
}

func (p *proc) stop() {
	p.mu.Lock()
	cmd, done := p.cmd, p.done
	p.cmd, p.done = nil, nil
	p.mu.Unlock()

	if cmd == nil {
		return
	}

	select {
	case <-done:
		// already exited
	default:
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
	}
}

func (p *proc) active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/friendsincode/breakbell/internal/events"
	"github.com/friendsincode/breakbell/internal/models"
	"github.com/friendsincode/breakbell/internal/store"
)

// consumeCommands drains pending commands FIFO, bounded per tick so a
// queue backlog cannot stretch tick latency without limit. Each command
// is claimed, executed, and terminally marked within this tick; one
// command's failure never aborts the rest of the batch.
func (d *Daemon) consumeCommands(ctx context.Context) error {
	commands, err := d.store.PendingCommands(ctx, d.cfg.MaxCommandsPerTick)
	if err != nil {
		return err
	}

	for _, command := range commands {
		if err := d.store.ClaimCommand(ctx, command.ID); err != nil {
			if errors.Is(err, store.ErrCommandClaimed) {
				continue
			}
			return err
		}

		if execErr := d.execute(ctx, command); execErr != nil {
			d.logger.Warn().
				Err(execErr).
				Uint("command", command.ID).
				Str("type", string(command.Type)).
				Msg("command failed")
			d.bus.Publish(events.EventCommandFailed, events.Payload{
				"command_id": command.ID,
				"type":       string(command.Type),
				"error":      execErr.Error(),
			})
			d.metrics.Commands.WithLabelValues(string(command.Type), "failed").Inc()
			if err := d.store.FailCommand(ctx, command.ID, execErr.Error()); err != nil {
				return err
			}
			continue
		}

		d.metrics.Commands.WithLabelValues(string(command.Type), "done").Inc()
		if err := d.store.CompleteCommand(ctx, command.ID); err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) execute(ctx context.Context, command models.Command) error {
	switch command.Type {
	case models.CommandPlay:
		var payload models.PlayPayload
		if err := decodePayload(command, &payload); err != nil {
			return err
		}
		return d.session.Start(ctx, payload.PlaylistID, payload.Minutes)

	case models.CommandStop:
		return d.session.Stop(ctx, "command")

	case models.CommandSkip:
		return d.session.Skip(ctx)

	case models.CommandPower:
		var payload models.PowerPayload
		if err := decodePayload(command, &payload); err != nil {
			return err
		}
		return d.session.SetPower(ctx, payload.On)

	case models.CommandVolume:
		var payload models.VolumePayload
		if err := decodePayload(command, &payload); err != nil {
			return err
		}
		return d.session.SetVolume(ctx, payload.Volume)

	case models.CommandPreview:
		var payload models.PreviewPayload
		if err := decodePayload(command, &payload); err != nil {
			return err
		}
		return d.session.Preview(ctx, payload.TrackID)

	default:
		return fmt.Errorf("unknown command type %q", command.Type)
	}
}

func decodePayload(command models.Command, out any) error {
	if command.Payload == "" {
		return fmt.Errorf("command %d: empty payload", command.ID)
	}
	if err := json.Unmarshal([]byte(command.Payload), out); err != nil {
		return fmt.Errorf("command %d: decode payload: %w", command.ID, err)
	}
	return nil
}

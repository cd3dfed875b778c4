/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/breakbell/internal/models"
)

// enqueueCmd builds the command-queue helper. It writes a pending command
// row and returns; the daemon picks it up on its next tick.
func enqueueCmd() *cobra.Command {
	var (
		playlist string
		minutes  int
		trackID  uint
		volume   int
		on       bool
	)

	cmd := &cobra.Command{
		Use:       "enqueue [play|stop|skip|power|volume|preview]",
		Short:     "Queue a command for the running daemon",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"play", "stop", "skip", "power", "volume", "preview"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			st, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			var (
				cmdType models.CommandType
				payload any
			)
			switch args[0] {
			case "play":
				if playlist == "" {
					return fmt.Errorf("play requires --playlist")
				}
				pl, err := st.ResolvePlaylist(cmd.Context(), playlist)
				if err != nil {
					return err
				}
				cmdType = models.CommandPlay
				payload = models.PlayPayload{PlaylistID: pl.ID, Minutes: minutes}
			case "stop":
				cmdType = models.CommandStop
				payload = struct{}{}
			case "skip":
				cmdType = models.CommandSkip
				payload = struct{}{}
			case "power":
				cmdType = models.CommandPower
				payload = models.PowerPayload{On: on}
			case "volume":
				if volume < 0 || volume > 100 {
					return fmt.Errorf("volume must be 0-100, got %d", volume)
				}
				cmdType = models.CommandVolume
				payload = models.VolumePayload{Volume: volume}
			case "preview":
				if trackID == 0 {
					return fmt.Errorf("preview requires --track")
				}
				cmdType = models.CommandPreview
				payload = models.PreviewPayload{TrackID: trackID}
			default:
				return fmt.Errorf("unknown command %q", args[0])
			}

			command, err := st.EnqueueCommand(cmd.Context(), cmdType, payload)
			if err != nil {
				return err
			}
			fmt.Printf("queued %s command %d\n", command.Type, command.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&playlist, "playlist", "", "playlist id or name (play)")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "session length in minutes, 0 = default (play)")
	cmd.Flags().UintVar(&trackID, "track", 0, "track id (preview)")
	cmd.Flags().IntVar(&volume, "volume", 70, "volume 0-100 (volume)")
	cmd.Flags().BoolVar(&on, "on", true, "relay state (power)")
	return cmd
}

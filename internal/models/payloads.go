/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

// Command payloads. Collaborators queue these as JSON in Command.Payload.

// PlayPayload starts a session.
type PlayPayload struct {
	PlaylistID uint `json:"playlist_id"`
	Minutes    int  `json:"minutes"`
}

// PowerPayload toggles the relay.
type PowerPayload struct {
	On bool `json:"on"`
}

// VolumePayload sets playback volume.
type VolumePayload struct {
	Volume int `json:"volume"`
}

// PreviewPayload plays one track one-off.
type PreviewPayload struct {
	TrackID uint `json:"track_id"`
}

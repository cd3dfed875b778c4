/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"
)

// Track is an uploaded audio asset. The daemon only reads tracks;
// the upload side owns their lifecycle.
type Track struct {
	ID             uint   `gorm:"primaryKey"`
	OrigFilename   string `gorm:"size:255;not null"`
	StoredFilename string `gorm:"size:255;not null;uniqueIndex"`
	ContentType    string `gorm:"size:100;not null"`
	DurationSec    *int
	UploadedAt     time.Time `gorm:"not null"`
}

// Playlist names an ordered set of tracks.
type Playlist struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:120;not null;uniqueIndex"`
	CreatedAt time.Time
}

// PlaylistTrack is the ordered membership join table.
type PlaylistTrack struct {
	ID         uint `gorm:"primaryKey"`
	PlaylistID uint `gorm:"index;not null"`
	TrackID    uint `gorm:"index;not null"`
	Position   int  `gorm:"not null;default:0"`
}

// Schedule is a recurring trigger: start a session at StartTime on the
// listed days. Days is a comma separated weekday set ("0"=Monday, "6"=Sunday);
// empty means every day.
type Schedule struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:120;not null"`
	PlaylistID      uint   `gorm:"not null"`
	Days            string `gorm:"size:20"`
	StartTime       string `gorm:"size:5;not null"` // "HH:MM"
	SessionMinutes  int    `gorm:"not null;default:15"`
	Enabled         bool   `gorm:"not null;default:true"`
	LastTriggeredOn *time.Time
}

// CommandType enumerates queued user commands.
type CommandType string

const (
	CommandPlay    CommandType = "play"
	CommandStop    CommandType = "stop"
	CommandSkip    CommandType = "skip"
	CommandPower   CommandType = "power"
	CommandVolume  CommandType = "volume"
	CommandPreview CommandType = "preview"
)

// CommandStatus tracks the command lifecycle. Transitions are monotonic:
// pending -> processing -> done|failed.
type CommandStatus string

const (
	CommandPending    CommandStatus = "pending"
	CommandProcessing CommandStatus = "processing"
	CommandDone       CommandStatus = "done"
	CommandFailed     CommandStatus = "failed"
)

// Command is a single queued action. Collaborators insert pending rows;
// the daemon claims and terminally marks them.
type Command struct {
	ID        uint          `gorm:"primaryKey"`
	Type      CommandType   `gorm:"size:20;not null"`
	Payload   string        `gorm:"type:text"` // JSON, type specific
	Status    CommandStatus `gorm:"size:20;not null;default:pending;index"`
	Error     *string       `gorm:"type:text"`
	CreatedAt time.Time     `gorm:"index"`
}

// PlayerStatus is the session state exposed to collaborators.
type PlayerStatus string

const (
	StatusIdle    PlayerStatus = "idle"
	StatusPlaying PlayerStatus = "playing"
)

// PlayerState is the singleton status row (id=1). The daemon is its
// exclusive writer; collaborators only read it.
type PlayerState struct {
	ID             uint         `gorm:"primaryKey"`
	Status         PlayerStatus `gorm:"size:20;not null;default:idle"`
	PowerOn        bool         `gorm:"not null;default:false"`
	Volume         int          `gorm:"not null;default:70"`
	CurrentTrackID *uint
	PlaylistID     *uint
	SessionEndAt   *time.Time
	HeartbeatAt    time.Time `gorm:"not null"`
	InstanceID     string    `gorm:"size:36"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// EventLog records daemon-side events for collaborators to inspect.
type EventLog struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"not null;index"`
	Level     string    `gorm:"size:20;not null"`
	Event     string    `gorm:"size:500;not null"`
	Meta      string    `gorm:"type:text"`
}

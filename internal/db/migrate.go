/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"github.com/friendsincode/breakbell/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
// The REST collaborators run the same migration set; auto-migrate keeps
// both sides idempotent against an existing schema.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.Track{},
		&models.Playlist{},
		&models.PlaylistTrack{},
		&models.Schedule{},
		&models.Command{},
		&models.PlayerState{},
		&models.EventLog{},
	)
}

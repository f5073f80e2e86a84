// Package db opens and migrates the SQLite database backing the Repository
// Layer, mirroring the teacher's utils/db initialization pattern.
package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"selecta/types/models"
)

// Open opens (creating if necessary) the SQLite database at path and
// auto-migrates every model the Repository Layer persists.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: opening %q: %w", path, err)
	}

	if err := db.AutoMigrate(
		&models.Track{},
		&models.PlatformLink{},
		&models.Playlist{},
		&models.PlaylistMember{},
		&models.PlaylistPlatformBinding{},
		&models.Snapshot{},
		&models.JobRun{},
		&models.JobSchedule{},
	); err != nil {
		return nil, fmt.Errorf("db: migrating: %w", err)
	}

	return db, nil
}

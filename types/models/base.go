// Package models holds the persisted entities of the Playlist Synchronization
// Core: tracks, platform links, playlists, bindings, and snapshots.
package models

import "time"

// BaseModel defines common fields for all models.
type BaseModel struct {
	ID        uint64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

// Platform enumerates the external services the core synchronizes against.
type Platform string

const (
	PlatformSpotify   Platform = "spotify"
	PlatformRekordbox Platform = "rekordbox"
	PlatformDiscogs   Platform = "discogs"
	PlatformYoutube   Platform = "youtube"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformSpotify, PlatformRekordbox, PlatformDiscogs, PlatformYoutube:
		return true
	default:
		return false
	}
}

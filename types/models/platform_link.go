package models

import "time"

// PlatformLink bridges a local Track to its representation on one platform.
//
// Invariants (spec.md §3): (TrackID, Platform) is unique; ExternalID is
// non-empty; at most one link exists per (Platform, ExternalID) globally —
// external identity never splits across two local tracks. Both uniqueness
// constraints are enforced by the repository's unique indexes, surfaced as
// ConflictError on violation.
type PlatformLink struct {
	BaseModel
	TrackID        uint64    `json:"trackId" gorm:"not null;uniqueIndex:idx_platform_link_track"`
	Platform       Platform  `json:"platform" gorm:"not null;uniqueIndex:idx_platform_link_track;uniqueIndex:idx_platform_link_external"`
	ExternalID     string    `json:"externalId" gorm:"not null;uniqueIndex:idx_platform_link_external"`
	ExternalURI    string    `json:"externalUri,omitempty"`
	MetadataBlob   []byte    `json:"metadataBlob,omitempty" gorm:"type:blob"`
	LastSyncedAt   time.Time `json:"lastSyncedAt"`
	NeedsRefresh   bool      `json:"needsRefresh" gorm:"not null;default:false"`
	MatchConfidence float64  `json:"matchConfidence" gorm:"not null;default:0"`
}

func (PlatformLink) TableName() string { return "platform_links" }

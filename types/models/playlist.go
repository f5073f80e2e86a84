package models

import "time"

// PlaylistKind distinguishes a playlist from a folder or a read-only
// collection view (spec.md §3).
type PlaylistKind string

const (
	PlaylistKindFolder         PlaylistKind = "folder"
	PlaylistKindPlaylist       PlaylistKind = "playlist"
	PlaylistKindCollectionView PlaylistKind = "collection-view"
)

// LibraryCollectionName is the name of the one system playlist every library
// has. It is local-only and excluded from sync unless an explicit binding is
// created for it (SPEC_FULL.md Open Question #2).
const LibraryCollectionName = "Library Collection"

// Playlist is an ordered collection of tracks, or a folder containing other
// playlists.
//
// Invariants: folders never contain tracks directly, only via child
// playlists/folders; IsSystem playlists cannot be renamed or deleted; the
// ParentID chain is acyclic (enforced on write by the repository, which
// walks ancestors before committing a reparent).
type Playlist struct {
	BaseModel
	Name      string       `json:"name" gorm:"not null"`
	Kind      PlaylistKind `json:"kind" gorm:"not null"`
	ParentID  *uint64      `json:"parentId,omitempty" gorm:"index"`
	IsSystem  bool         `json:"isSystem" gorm:"not null;default:false"`
}

func (Playlist) TableName() string { return "playlists" }

// PlaylistMember is an ordered membership edge between a Playlist and a Track.
//
// Invariant: (PlaylistID, TrackID) is unique; Position values within a
// playlist form a dense, contiguous, zero-based sequence after every
// mutating operation — the repository appends inserts at the next position,
// re-packs positions inside the same transaction as a delete, and assigns
// positions 0..n-1 on a reorder.
type PlaylistMember struct {
	PlaylistID uint64    `json:"playlistId" gorm:"primaryKey;autoIncrement:false"`
	TrackID    uint64    `json:"trackId" gorm:"primaryKey;autoIncrement:false"`
	Position   int       `json:"position" gorm:"not null"`
	AddedAt    time.Time `json:"addedAt"`
}

func (PlaylistMember) TableName() string { return "playlist_members" }

// SyncMode governs which direction of change the Planner will emit for a
// binding (spec.md §4.6).
type SyncMode string

const (
	SyncModeFullBidirectional  SyncMode = "full_bidirectional"
	SyncModeAddOnly            SyncMode = "add_only"
	SyncModeMirrorFromPlatform SyncMode = "mirror_from_platform"
	SyncModeMirrorToPlatform   SyncMode = "mirror_to_platform"
	SyncModeImportOnly         SyncMode = "import_only"
)

// PlaylistPlatformBinding records that a local playlist is linked to an
// external playlist on one platform.
//
// Invariant: (PlaylistID, Platform) is unique AND (Platform,
// ExternalPlaylistID) is unique among bindings that have one. A binding may
// be created before any remote playlist exists — ExternalPlaylistID starts
// empty and the Planner/Executor fill it in via a playlist-creation `link`
// change (spec.md Scenario 1); until then the (Platform, ExternalPlaylistID)
// index does not protect against two such pending bindings on the same
// platform colliding on the empty string, which is an accepted gap for this
// core rather than a reason to make the column nullable everywhere it's read
// as a plain string.
type PlaylistPlatformBinding struct {
	BaseModel
	PlaylistID          uint64     `json:"playlistId" gorm:"not null;uniqueIndex:idx_binding_playlist"`
	Platform            Platform   `json:"platform" gorm:"not null;uniqueIndex:idx_binding_playlist;uniqueIndex:idx_binding_external"`
	ExternalPlaylistID  string     `json:"externalPlaylistId" gorm:"uniqueIndex:idx_binding_external"`
	SyncMode            SyncMode   `json:"syncMode" gorm:"not null"`
	IsPersonal          bool       `json:"isPersonal" gorm:"not null;default:true"`
	LastSyncedAt        *time.Time `json:"lastSyncedAt,omitempty"`
}

func (PlaylistPlatformBinding) TableName() string { return "playlist_platform_bindings" }

// EffectiveSyncMode applies the Safety Gate's binding-level override: any
// binding over a playlist the user does not own is always treated as
// import_only regardless of the configured mode (spec.md §4.6, §4.9).
func (b *PlaylistPlatformBinding) EffectiveSyncMode() SyncMode {
	if !b.IsPersonal {
		return SyncModeImportOnly
	}
	return b.SyncMode
}

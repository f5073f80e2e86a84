// Package platform defines the Platform Adapter Interface (L3): the one
// contract every external music/video/DJ service implements so the rest of
// the core never branches on platform identity, only on capability flags.
package platform

import "context"

// ExtTrack is a track as seen through a platform adapter — opaque wire
// format translated to the few fields Identity & Matching and the Change
// Detector need (spec.md §4.1, §4.3).
type ExtTrack struct {
	ExternalID     string
	Title          string
	Artist         string
	Album          string
	DurationMs     *int
	ISRC           string
	DiscogsRelease string
}

// ExtPlaylist is a playlist as seen through a platform adapter.
type ExtPlaylist struct {
	ExternalID string
	Name       string
	IsOwned    bool
}

// CapabilityFlags is the static capability declaration every adapter
// returns from Capabilities() (spec.md §4.3). The rest of the core branches
// on these flags, never on which platform it is talking to.
type CapabilityFlags struct {
	CanCreate           bool
	CanDelete           bool
	CanModifyShared     bool
	OwnsFilesystemPaths bool
	IsPersonalOnly      bool
	RateBudgetPerMinute int
}

// BatchResult reports per-item success for a batched add/remove call
// (spec.md §4.3 "ok/partial").
type BatchResult struct {
	Succeeded []string
	Failed    map[string]error
}

// AllSucceeded reports whether every requested item succeeded.
func (r BatchResult) AllSucceeded() bool { return len(r.Failed) == 0 }

// Adapter is the Platform Adapter Interface (L3). Every method that talks
// to the network takes a context so the caller can cancel or bound a sync
// run; Authenticated never blocks.
type Adapter interface {
	// Name identifies the adapter for logging and rate-limiter bucketing.
	Name() string

	// Authenticated is a pure read of cached credentials. Never fails.
	Authenticated() bool

	// Authenticate may block on an external OAuth flow. Fails with
	// selerr.KindAuthFailed.
	Authenticate(ctx context.Context) error

	// ListPlaylists returns every playlist visible to the authenticated
	// account, paginating internally.
	ListPlaylists(ctx context.Context) ([]ExtPlaylist, error)

	// FetchPlaylistTracks returns a playlist's tracks in platform order,
	// paginating internally.
	FetchPlaylistTracks(ctx context.Context, externalPlaylistID string) ([]ExtTrack, error)

	// CreatePlaylist returns the new playlist's external id. Fails with
	// selerr.KindNotPermitted if Capabilities().CanCreate is false.
	CreatePlaylist(ctx context.Context, name, description string, private bool) (string, error)

	// AddTracks adds tracks to an existing playlist, batched, reporting
	// per-item success.
	AddTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error)

	// RemoveTracks removes tracks from an existing playlist, batched. May
	// fail wholesale with selerr.KindNotPermitted if the remote playlist is
	// not owned by the authenticated account.
	RemoveTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error)

	// Search looks up export-time match candidates for a library track.
	Search(ctx context.Context, query string, limit int) ([]ExtTrack, error)

	// Capabilities is static for the lifetime of the adapter.
	Capabilities() CapabilityFlags
}

package platform

import (
	"context"
	"sync"

	"github.com/google/uuid"

	selerr "selecta/types/errors"
)

// DiscogsConfig holds the credentials for a Discogs collection/wantlist.
type DiscogsConfig struct {
	UserToken string
	Username  string
}

// DiscogsAdapter is the vinyl-catalog adapter: a collection is inherently
// personal (IsPersonalOnly=true) and Discogs has no API for removing items
// from another user's collection, so CanDelete is false.
type DiscogsAdapter struct {
	config DiscogsConfig

	mu        sync.Mutex
	authed    bool
	playlists map[string]*discogsFolder
}

type discogsFolder struct {
	name    string
	entries []string
}

// NewDiscogsAdapter constructs a DiscogsAdapter for one Discogs account.
func NewDiscogsAdapter(config DiscogsConfig) *DiscogsAdapter {
	return &DiscogsAdapter{config: config, playlists: make(map[string]*discogsFolder)}
}

func (a *DiscogsAdapter) Name() string { return "discogs" }

func (a *DiscogsAdapter) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed
}

func (a *DiscogsAdapter) Authenticate(ctx context.Context) error {
	if a.config.UserToken == "" {
		return selerr.New(selerr.KindAuthFailed, "discogs: no user token configured", nil)
	}
	a.mu.Lock()
	a.authed = true
	a.mu.Unlock()
	return nil
}

func (a *DiscogsAdapter) ListPlaylists(ctx context.Context) ([]ExtPlaylist, error) {
	if !a.Authenticated() {
		return nil, selerr.New(selerr.KindAuthFailed, "discogs: not authenticated", nil)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ExtPlaylist, 0, len(a.playlists))
	for id, f := range a.playlists {
		out = append(out, ExtPlaylist{ExternalID: id, Name: f.name, IsOwned: true})
	}
	return out, nil
}

func (a *DiscogsAdapter) FetchPlaylistTracks(ctx context.Context, externalPlaylistID string) ([]ExtTrack, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.playlists[externalPlaylistID]
	if !ok {
		return nil, selerr.New(selerr.KindNotFound, "discogs: folder not found", nil)
	}
	tracks := make([]ExtTrack, len(f.entries))
	for i, release := range f.entries {
		tracks[i] = ExtTrack{ExternalID: release, DiscogsRelease: release}
	}
	return tracks, nil
}

func (a *DiscogsAdapter) CreatePlaylist(ctx context.Context, name, description string, private bool) (string, error) {
	if !a.Authenticated() {
		return "", selerr.New(selerr.KindAuthFailed, "discogs: not authenticated", nil)
	}
	id := "discogs:folder:" + uuid.NewString()
	a.mu.Lock()
	a.playlists[id] = &discogsFolder{name: name}
	a.mu.Unlock()
	return id, nil
}

func (a *DiscogsAdapter) AddTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.playlists[externalPlaylistID]
	if !ok {
		return BatchResult{}, selerr.New(selerr.KindNotFound, "discogs: folder not found", nil)
	}
	f.entries = append(f.entries, externalTrackIDs...)
	return BatchResult{Succeeded: externalTrackIDs, Failed: map[string]error{}}, nil
}

// RemoveTracks always fails: Discogs exposes no API to remove entries from
// a collection folder on behalf of the owner in the way this core would
// need (CanDelete=false, spec.md §4.3).
func (a *DiscogsAdapter) RemoveTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error) {
	return BatchResult{}, selerr.New(selerr.KindNotPermitted, "discogs: adapter does not support removal", nil)
}

func (a *DiscogsAdapter) Search(ctx context.Context, query string, limit int) ([]ExtTrack, error) {
	return nil, nil
}

func (a *DiscogsAdapter) Capabilities() CapabilityFlags {
	return CapabilityFlags{
		CanCreate:           true,
		CanDelete:           false,
		CanModifyShared:     false,
		OwnsFilesystemPaths: false,
		IsPersonalOnly:      true,
		RateBudgetPerMinute: 60,
	}
}

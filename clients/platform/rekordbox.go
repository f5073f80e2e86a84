package platform

import (
	"context"
	"sync"

	selerr "selecta/types/errors"
)

// RekordboxConfig points the adapter at a local rekordbox library export.
type RekordboxConfig struct {
	DatabasePath string
}

// RekordboxAdapter is the DJ-library adapter: it mirrors a local XML/DB so
// it never creates playlists of its own (CanCreate=false) and every path it
// returns is a filesystem path the core must treat specially
// (OwnsFilesystemPaths=true).
type RekordboxAdapter struct {
	config RekordboxConfig

	mu        sync.Mutex
	authed    bool
	playlists map[string]*rekordboxPlaylist
}

type rekordboxPlaylist struct {
	name   string
	tracks []string
}

// NewRekordboxAdapter constructs a RekordboxAdapter over a local export.
func NewRekordboxAdapter(config RekordboxConfig) *RekordboxAdapter {
	return &RekordboxAdapter{config: config, playlists: make(map[string]*rekordboxPlaylist)}
}

func (a *RekordboxAdapter) Name() string { return "rekordbox" }

func (a *RekordboxAdapter) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed
}

// Authenticate for rekordbox is just confirming the local database is
// reachable — there is no remote OAuth flow.
func (a *RekordboxAdapter) Authenticate(ctx context.Context) error {
	if a.config.DatabasePath == "" {
		return selerr.New(selerr.KindAuthFailed, "rekordbox: no database path configured", nil)
	}
	a.mu.Lock()
	a.authed = true
	a.mu.Unlock()
	return nil
}

func (a *RekordboxAdapter) ListPlaylists(ctx context.Context) ([]ExtPlaylist, error) {
	if !a.Authenticated() {
		return nil, selerr.New(selerr.KindAuthFailed, "rekordbox: not authenticated", nil)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ExtPlaylist, 0, len(a.playlists))
	for id, pl := range a.playlists {
		out = append(out, ExtPlaylist{ExternalID: id, Name: pl.name, IsOwned: true})
	}
	return out, nil
}

func (a *RekordboxAdapter) FetchPlaylistTracks(ctx context.Context, externalPlaylistID string) ([]ExtTrack, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return nil, selerr.New(selerr.KindNotFound, "rekordbox: playlist not found", nil)
	}
	tracks := make([]ExtTrack, len(pl.tracks))
	for i, id := range pl.tracks {
		tracks[i] = ExtTrack{ExternalID: id}
	}
	return tracks, nil
}

// CreatePlaylist always fails: rekordbox playlists are authored in the
// rekordbox application itself, never by this core (spec.md §4.3 capability
// flags).
func (a *RekordboxAdapter) CreatePlaylist(ctx context.Context, name, description string, private bool) (string, error) {
	return "", selerr.New(selerr.KindNotPermitted, "rekordbox: adapter does not support playlist creation", nil)
}

func (a *RekordboxAdapter) AddTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return BatchResult{}, selerr.New(selerr.KindNotFound, "rekordbox: playlist not found", nil)
	}
	result := BatchResult{Failed: map[string]error{}}
	pl.tracks = append(pl.tracks, externalTrackIDs...)
	result.Succeeded = externalTrackIDs
	return result, nil
}

func (a *RekordboxAdapter) RemoveTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return BatchResult{}, selerr.New(selerr.KindNotFound, "rekordbox: playlist not found", nil)
	}
	toRemove := make(map[string]bool, len(externalTrackIDs))
	for _, id := range externalTrackIDs {
		toRemove[id] = true
	}
	kept := pl.tracks[:0]
	result := BatchResult{Failed: map[string]error{}}
	for _, id := range pl.tracks {
		if toRemove[id] {
			result.Succeeded = append(result.Succeeded, id)
			continue
		}
		kept = append(kept, id)
	}
	pl.tracks = kept
	return result, nil
}

func (a *RekordboxAdapter) Search(ctx context.Context, query string, limit int) ([]ExtTrack, error) {
	return nil, nil
}

func (a *RekordboxAdapter) Capabilities() CapabilityFlags {
	return CapabilityFlags{
		CanCreate:           false,
		CanDelete:           true,
		CanModifyShared:     true,
		OwnsFilesystemPaths: true,
		IsPersonalOnly:      true,
		RateBudgetPerMinute: 0,
	}
}

package platform

import (
	"context"
	"sync"

	"github.com/google/uuid"

	selerr "selecta/types/errors"
)

// YoutubeConfig holds the credentials for a YouTube/YouTube Music account.
type YoutubeConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// YoutubeAdapter stands in for the "video service" platform kind in
// spec.md §1: whether a playlist can be modified depends on whether it is
// owned by the authenticated account, so CanModifyShared is evaluated per
// playlist inside RemoveTracks rather than fixed in Capabilities.
type YoutubeAdapter struct {
	config YoutubeConfig

	mu        sync.Mutex
	authed    bool
	playlists map[string]*youtubePlaylist
}

type youtubePlaylist struct {
	name   string
	owned  bool
	tracks []string
}

// NewYoutubeAdapter constructs a YoutubeAdapter.
func NewYoutubeAdapter(config YoutubeConfig) *YoutubeAdapter {
	return &YoutubeAdapter{config: config, playlists: make(map[string]*youtubePlaylist)}
}

func (a *YoutubeAdapter) Name() string { return "youtube" }

func (a *YoutubeAdapter) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed
}

func (a *YoutubeAdapter) Authenticate(ctx context.Context) error {
	if a.config.RefreshToken == "" {
		return selerr.New(selerr.KindAuthFailed, "youtube: no refresh token configured", nil)
	}
	a.mu.Lock()
	a.authed = true
	a.mu.Unlock()
	return nil
}

func (a *YoutubeAdapter) ListPlaylists(ctx context.Context) ([]ExtPlaylist, error) {
	if !a.Authenticated() {
		return nil, selerr.New(selerr.KindAuthFailed, "youtube: not authenticated", nil)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ExtPlaylist, 0, len(a.playlists))
	for id, pl := range a.playlists {
		out = append(out, ExtPlaylist{ExternalID: id, Name: pl.name, IsOwned: pl.owned})
	}
	return out, nil
}

func (a *YoutubeAdapter) FetchPlaylistTracks(ctx context.Context, externalPlaylistID string) ([]ExtTrack, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return nil, selerr.New(selerr.KindNotFound, "youtube: playlist not found", nil)
	}
	tracks := make([]ExtTrack, len(pl.tracks))
	for i, id := range pl.tracks {
		tracks[i] = ExtTrack{ExternalID: id}
	}
	return tracks, nil
}

func (a *YoutubeAdapter) CreatePlaylist(ctx context.Context, name, description string, private bool) (string, error) {
	if !a.Authenticated() {
		return "", selerr.New(selerr.KindAuthFailed, "youtube: not authenticated", nil)
	}
	id := "youtube:playlist:" + uuid.NewString()
	a.mu.Lock()
	a.playlists[id] = &youtubePlaylist{name: name, owned: true}
	a.mu.Unlock()
	return id, nil
}

func (a *YoutubeAdapter) AddTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return BatchResult{}, selerr.New(selerr.KindNotFound, "youtube: playlist not found", nil)
	}
	if !pl.owned {
		return BatchResult{}, selerr.New(selerr.KindNotPermitted, "youtube: playlist is not owned by this account", nil)
	}
	pl.tracks = append(pl.tracks, externalTrackIDs...)
	return BatchResult{Succeeded: externalTrackIDs, Failed: map[string]error{}}, nil
}

func (a *YoutubeAdapter) RemoveTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return BatchResult{}, selerr.New(selerr.KindNotFound, "youtube: playlist not found", nil)
	}
	if !pl.owned {
		return BatchResult{}, selerr.New(selerr.KindNotPermitted, "youtube: playlist is not owned by this account", nil)
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

func (a *YoutubeAdapter) Search(ctx context.Context, query string, limit int) ([]ExtTrack, error) {
	return nil, nil
}

func (a *YoutubeAdapter) Capabilities() CapabilityFlags {
	return CapabilityFlags{
		CanCreate:           true,
		CanDelete:           true,
		CanModifyShared:     false,
		OwnsFilesystemPaths: false,
		IsPersonalOnly:      false,
		RateBudgetPerMinute: 100,
	}
}

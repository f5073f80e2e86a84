package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	selerr "selecta/types/errors"
	"selecta/utils/logger"
)

// SpotifyConfig holds the credentials a Spotify adapter needs. The wire
// format of the actual Spotify Web API is intentionally out of scope — this
// adapter is thin by design (SPEC_FULL.md §4.3 EXPANDED).
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// SpotifyAdapter is the streaming-service adapter: supports playlist
// creation and modification, is not personal-only (playlists can be
// followed/collaborative), and has no filesystem concept.
type SpotifyAdapter struct {
	config SpotifyConfig

	mu          sync.Mutex
	authed      bool
	playlists   map[string]*spotifyPlaylist
	catalogue   []ExtTrack
}

type spotifyPlaylist struct {
	name    string
	owned   bool
	private bool
	tracks  []string
}

// NewSpotifyAdapter constructs a SpotifyAdapter. The in-process playlist map
// stands in for the remote service — wiring a real HTTP client is
// deliberately left out per the capability-flag design in spec.md §9.
func NewSpotifyAdapter(config SpotifyConfig) *SpotifyAdapter {
	return &SpotifyAdapter{config: config, playlists: make(map[string]*spotifyPlaylist)}
}

func (a *SpotifyAdapter) Name() string { return "spotify" }

func (a *SpotifyAdapter) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed
}

func (a *SpotifyAdapter) Authenticate(ctx context.Context) error {
	log := logger.LoggerFromContext(ctx)
	if a.config.RefreshToken == "" {
		return selerr.New(selerr.KindAuthFailed, "spotify: no refresh token configured", nil)
	}
	a.mu.Lock()
	a.authed = true
	a.mu.Unlock()
	log.Debug().Str("adapter", a.Name()).Msg("authenticated")
	return nil
}

func (a *SpotifyAdapter) ListPlaylists(ctx context.Context) ([]ExtPlaylist, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ExtPlaylist, 0, len(a.playlists))
	for id, pl := range a.playlists {
		out = append(out, ExtPlaylist{ExternalID: id, Name: pl.name, IsOwned: pl.owned})
	}
	return out, nil
}

func (a *SpotifyAdapter) FetchPlaylistTracks(ctx context.Context, externalPlaylistID string) ([]ExtTrack, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return nil, selerr.New(selerr.KindNotFound, "spotify: playlist not found", nil)
	}
	tracks := make([]ExtTrack, 0, len(pl.tracks))
	for _, trackID := range pl.tracks {
		tracks = append(tracks, a.lookupTrack(trackID))
	}
	return tracks, nil
}

func (a *SpotifyAdapter) CreatePlaylist(ctx context.Context, name, description string, private bool) (string, error) {
	if err := a.requireAuth(); err != nil {
		return "", err
	}
	id := "spotify:playlist:" + uuid.NewString()
	a.mu.Lock()
	a.playlists[id] = &spotifyPlaylist{name: name, owned: true, private: private}
	a.mu.Unlock()
	return id, nil
}

func (a *SpotifyAdapter) AddTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error) {
	if err := a.requireAuth(); err != nil {
		return BatchResult{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return BatchResult{}, selerr.New(selerr.KindNotFound, "spotify: playlist not found", nil)
	}
	result := BatchResult{Failed: map[string]error{}}
	for _, trackID := range externalTrackIDs {
		pl.tracks = append(pl.tracks, trackID)
		result.Succeeded = append(result.Succeeded, trackID)
	}
	return result, nil
}

func (a *SpotifyAdapter) RemoveTracks(ctx context.Context, externalPlaylistID string, externalTrackIDs []string) (BatchResult, error) {
	if err := a.requireAuth(); err != nil {
		return BatchResult{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.playlists[externalPlaylistID]
	if !ok {
		return BatchResult{}, selerr.New(selerr.KindNotFound, "spotify: playlist not found", nil)
	}
	if !pl.owned {
		return BatchResult{}, selerr.New(selerr.KindNotPermitted, "spotify: playlist is not owned by this account", nil)
	}
	toRemove := make(map[string]bool, len(externalTrackIDs))
	for _, id := range externalTrackIDs {
		toRemove[id] = true
	}
	kept := pl.tracks[:0]
	result := BatchResult{Failed: map[string]error{}}
	for _, trackID := range pl.tracks {
		if toRemove[trackID] {
			result.Succeeded = append(result.Succeeded, trackID)
			continue
		}
		kept = append(kept, trackID)
	}
	pl.tracks = kept
	return result, nil
}

func (a *SpotifyAdapter) Search(ctx context.Context, query string, limit int) ([]ExtTrack, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit <= 0 || limit > len(a.catalogue) {
		limit = len(a.catalogue)
	}
	return a.catalogue[:limit], nil
}

func (a *SpotifyAdapter) Capabilities() CapabilityFlags {
	return CapabilityFlags{
		CanCreate:           true,
		CanDelete:           true,
		CanModifyShared:     false,
		OwnsFilesystemPaths: false,
		IsPersonalOnly:      false,
		RateBudgetPerMinute: 180,
	}
}

// SeedCatalogue lets tests and the admin surface populate a fake search
// index without a real Spotify account.
func (a *SpotifyAdapter) SeedCatalogue(tracks []ExtTrack) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.catalogue = tracks
}

func (a *SpotifyAdapter) lookupTrack(externalID string) ExtTrack {
	for _, t := range a.catalogue {
		if t.ExternalID == externalID {
			return t
		}
	}
	return ExtTrack{ExternalID: externalID}
}

func (a *SpotifyAdapter) requireAuth() error {
	if !a.Authenticated() {
		return selerr.New(selerr.KindAuthFailed, fmt.Sprintf("%s: not authenticated", a.Name()), nil)
	}
	return nil
}

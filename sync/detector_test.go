package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"selecta/clients/platform"
	"selecta/matching"
	"selecta/repository"
	"selecta/snapshot"
	"selecta/types/models"
)

// fakeAdapter is a minimal in-memory platform.Adapter stand-in, grounded on
// clients/platform's own adapters, that serves a fixed track list for one
// external playlist id.
type fakeAdapter struct {
	name          string
	tracks        map[string][]platform.ExtTrack
	searchResults []platform.ExtTrack
}

func (f *fakeAdapter) Name() string                  { return f.name }
func (f *fakeAdapter) Authenticated() bool            { return true }
func (f *fakeAdapter) Authenticate(context.Context) error { return nil }
func (f *fakeAdapter) ListPlaylists(context.Context) ([]platform.ExtPlaylist, error) {
	return nil, nil
}
func (f *fakeAdapter) FetchPlaylistTracks(_ context.Context, externalPlaylistID string) ([]platform.ExtTrack, error) {
	return f.tracks[externalPlaylistID], nil
}
func (f *fakeAdapter) CreatePlaylist(_ context.Context, name string, _ string, _ bool) (string, error) {
	return f.name + ":created:" + name, nil
}
func (f *fakeAdapter) AddTracks(_ context.Context, _ string, ids []string) (platform.BatchResult, error) {
	return platform.BatchResult{Succeeded: ids}, nil
}
func (f *fakeAdapter) RemoveTracks(_ context.Context, _ string, ids []string) (platform.BatchResult, error) {
	return platform.BatchResult{Succeeded: ids}, nil
}
func (f *fakeAdapter) Search(context.Context, string, int) ([]platform.ExtTrack, error) {
	return f.searchResults, nil
}
func (f *fakeAdapter) Capabilities() platform.CapabilityFlags {
	return platform.CapabilityFlags{CanCreate: true, CanDelete: true}
}

type detectorFixture struct {
	db        *gorm.DB
	tracks    repository.TrackRepository
	links     repository.PlatformLinkRepository
	playlists repository.PlaylistRepository
	snapshots snapshot.Store
	detector  *Detector
}

func newDetectorFixture(t *testing.T) detectorFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Track{}, &models.PlatformLink{}, &models.Playlist{},
		&models.PlaylistMember{}, &models.PlaylistPlatformBinding{}, &models.Snapshot{},
	))

	tracks := repository.NewTrackRepository(db)
	links := repository.NewPlatformLinkRepository(db)
	playlists := repository.NewPlaylistRepository(db)
	snapshots := snapshot.NewStore(repository.NewSnapshotRepository(db))
	detector := NewDetector(tracks, links, playlists, snapshots, matching.NewMatcher())

	return detectorFixture{db: db, tracks: tracks, links: links, playlists: playlists, snapshots: snapshots, detector: detector}
}

func TestDetector_FirstSyncClassifiesEveryPlatformTrackAsPlatformAdded(t *testing.T) {
	fx := newDetectorFixture(t)
	ctx := context.Background()

	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	binding := &models.PlaylistPlatformBinding{PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}

	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{
		"pl1": {{ExternalID: "ext:1", Title: "Song One", Artist: "Artist"}},
	}}

	diff, err := fx.detector.Detect(ctx, binding, adapter)
	require.NoError(t, err)
	require.Len(t, diff.Entries, 1)
	assert.Equal(t, models.CategoryPlatformAdded, diff.Entries[0].Category)
	assert.True(t, diff.Entries[0].NeedsConfirmation)
}

func TestDetector_ResolvesViaExistingPlatformLink(t *testing.T) {
	fx := newDetectorFixture(t)
	ctx := context.Background()

	durationMs := 210000
	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	track := &models.Track{Title: "Song One", PrimaryArtist: "Artist", AlbumRef: "Greatest Hits", DurationMs: &durationMs}
	require.NoError(t, fx.tracks.Create(ctx, track))
	require.NoError(t, fx.playlists.AddMember(ctx, playlist.ID, track.ID))
	require.NoError(t, fx.links.Create(ctx, &models.PlatformLink{TrackID: track.ID, Platform: models.PlatformSpotify, ExternalID: "ext:1"}))

	binding := &models.PlaylistPlatformBinding{PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}
	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{
		"pl1": {{ExternalID: "ext:1", Title: "Song One", Artist: "Artist", Album: "Greatest Hits", DurationMs: &durationMs}},
	}}

	// Seed a snapshot matching current state so this round is "unchanged".
	require.NoError(t, fx.snapshots.Replace(ctx, 1, snapshot.View{
		LibraryMembers:  []uint64{track.ID},
		PlatformMembers: []string{"ext:1"},
		LinkPairs:       map[string]uint64{"ext:1": track.ID},
	}))
	binding.ID = 1

	diff, err := fx.detector.Detect(ctx, binding, adapter)
	require.NoError(t, err)
	for _, e := range diff.Entries {
		assert.Equal(t, models.CategoryUnchanged, e.Category)
	}
}

func TestDetector_MetadataDivergenceBecomesConflict(t *testing.T) {
	fx := newDetectorFixture(t)
	ctx := context.Background()

	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	track := &models.Track{Title: "Song One", PrimaryArtist: "Artist"}
	require.NoError(t, fx.tracks.Create(ctx, track))
	require.NoError(t, fx.playlists.AddMember(ctx, playlist.ID, track.ID))
	require.NoError(t, fx.links.Create(ctx, &models.PlatformLink{TrackID: track.ID, Platform: models.PlatformSpotify, ExternalID: "ext:1"}))

	binding := &models.PlaylistPlatformBinding{ID: 1, PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}
	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{
		"pl1": {{ExternalID: "ext:1", Title: "A Completely Different Track", Artist: "Someone Else"}},
	}}

	require.NoError(t, fx.snapshots.Replace(ctx, 1, snapshot.View{
		LibraryMembers:  []uint64{track.ID},
		PlatformMembers: []string{"ext:1"},
		LinkPairs:       map[string]uint64{"ext:1": track.ID},
	}))

	diff, err := fx.detector.Detect(ctx, binding, adapter)
	require.NoError(t, err)
	require.Len(t, diff.Entries, 1)
	assert.Equal(t, models.CategoryConflict, diff.Entries[0].Category)
	assert.True(t, diff.Entries[0].NeedsConfirmation)
}

func TestDetector_LibraryAddedResolvesViaAdapterSearch(t *testing.T) {
	fx := newDetectorFixture(t)
	ctx := context.Background()

	durationMs := 210000
	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	track := &models.Track{Title: "Song One", PrimaryArtist: "Artist", AlbumRef: "Greatest Hits", DurationMs: &durationMs}
	require.NoError(t, fx.tracks.Create(ctx, track))
	require.NoError(t, fx.playlists.AddMember(ctx, playlist.ID, track.ID))

	binding := &models.PlaylistPlatformBinding{ID: 1, PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}
	adapter := &fakeAdapter{
		name:   "spotify",
		tracks: map[string][]platform.ExtTrack{"pl1": {}},
		searchResults: []platform.ExtTrack{
			{ExternalID: "ext:9", Title: "Song One", Artist: "Artist", Album: "Greatest Hits", DurationMs: &durationMs},
		},
	}

	diff, err := fx.detector.Detect(ctx, binding, adapter)
	require.NoError(t, err)

	var found bool
	for _, e := range diff.Entries {
		if e.Category == models.CategoryLibraryAdded {
			found = true
			assert.Equal(t, "ext:9", e.ExternalID)
			assert.True(t, e.NeedsLink)
		}
	}
	assert.True(t, found)
}

func TestDetector_LibraryAddedWithNoSearchHitStaysPlainPush(t *testing.T) {
	fx := newDetectorFixture(t)
	ctx := context.Background()

	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	track := &models.Track{Title: "Song One", PrimaryArtist: "Artist"}
	require.NoError(t, fx.tracks.Create(ctx, track))
	require.NoError(t, fx.playlists.AddMember(ctx, playlist.ID, track.ID))

	binding := &models.PlaylistPlatformBinding{ID: 1, PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}
	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{"pl1": {}}}

	diff, err := fx.detector.Detect(ctx, binding, adapter)
	require.NoError(t, err)

	var found bool
	for _, e := range diff.Entries {
		if e.Category == models.CategoryLibraryAdded {
			found = true
			assert.Empty(t, e.ExternalID)
			assert.False(t, e.NeedsLink)
		}
	}
	assert.True(t, found)
}

func TestDetector_PlatformRemovalSurfacesWhenSnapshotHadIt(t *testing.T) {
	fx := newDetectorFixture(t)
	ctx := context.Background()

	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	track := &models.Track{Title: "Song One", PrimaryArtist: "Artist"}
	require.NoError(t, fx.tracks.Create(ctx, track))
	require.NoError(t, fx.playlists.AddMember(ctx, playlist.ID, track.ID))

	binding := &models.PlaylistPlatformBinding{ID: 1, PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}
	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{"pl1": {}}}

	require.NoError(t, fx.snapshots.Replace(ctx, 1, snapshot.View{
		LibraryMembers:  []uint64{track.ID},
		PlatformMembers: []string{"ext:1"},
		LinkPairs:       map[string]uint64{"ext:1": track.ID},
	}))

	diff, err := fx.detector.Detect(ctx, binding, adapter)
	require.NoError(t, err)

	var found bool
	for _, e := range diff.Entries {
		if e.Category == models.CategoryPlatformRemoved {
			found = true
			assert.Equal(t, track.ID, e.TrackID)
		}
	}
	assert.True(t, found)
}

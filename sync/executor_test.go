package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"selecta/clients/platform"
	"selecta/repository"
	"selecta/snapshot"
	"selecta/types/config"
	"selecta/types/models"
)

type executorFixture struct {
	tracks    repository.TrackRepository
	playlists repository.PlaylistRepository
	links     repository.PlatformLinkRepository
	bindings  repository.BindingRepository
	snapshots snapshot.Store
	executor  *Executor
}

func newExecutorFixture(t *testing.T) executorFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Track{}, &models.PlatformLink{}, &models.Playlist{},
		&models.PlaylistMember{}, &models.PlaylistPlatformBinding{}, &models.Snapshot{},
	))

	tracks := repository.NewTrackRepository(db)
	playlists := repository.NewPlaylistRepository(db)
	links := repository.NewPlatformLinkRepository(db)
	bindings := repository.NewBindingRepository(db)
	snapshots := snapshot.NewStore(repository.NewSnapshotRepository(db))
	gate := NewSafetyGate(config.Defaults())
	executor := NewExecutor(playlists, links, bindings, snapshots, gate)

	return executorFixture{tracks: tracks, playlists: playlists, links: links, bindings: bindings, snapshots: snapshots, executor: executor}
}

func TestExecutor_AppliesPlatformAddedChangeAndRecordsSnapshot(t *testing.T) {
	fx := newExecutorFixture(t)
	ctx := context.Background()

	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	binding := &models.PlaylistPlatformBinding{ID: 1, PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}
	require.NoError(t, fx.bindings.Create(ctx, binding))

	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{"pl1": {}}}
	change := &models.SyncChange{
		ChangeID: "c1", BindingID: binding.ID, Direction: models.DirectionPlatformToLibrary,
		Kind: models.ChangeKindAdd, Category: models.CategoryPlatformAdded, TrackID: trackFixture(t, ctx, fx),
		UserSelected: true,
	}

	result, err := fx.executor.Apply(ctx, binding, playlist, adapter, []*models.SyncChange{change}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 0, result.Failed)

	members, err := fx.playlists.Members(ctx, playlist.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	updated, err := fx.bindings.GetByID(ctx, binding.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastSyncedAt)
}

func TestExecutor_SkipsUnselectedChanges(t *testing.T) {
	fx := newExecutorFixture(t)
	ctx := context.Background()

	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	binding := &models.PlaylistPlatformBinding{ID: 1, PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}
	require.NoError(t, fx.bindings.Create(ctx, binding))

	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{"pl1": {}}}
	change := &models.SyncChange{ChangeID: "c1", BindingID: binding.ID, UserSelected: false}

	result, err := fx.executor.Apply(ctx, binding, playlist, adapter, []*models.SyncChange{change}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 0, result.Failed)
}

func TestExecutor_SafetyGateRejectsRemoveOnNonPersonalBinding(t *testing.T) {
	fx := newExecutorFixture(t)
	ctx := context.Background()

	playlist := &models.Playlist{Name: "Shared Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	binding := &models.PlaylistPlatformBinding{ID: 1, PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "pl1", SyncMode: models.SyncModeFullBidirectional, IsPersonal: false}
	require.NoError(t, fx.bindings.Create(ctx, binding))

	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{"pl1": {}}}
	change := &models.SyncChange{
		ChangeID: "c1", BindingID: binding.ID, Direction: models.DirectionLibraryToPlatform,
		Kind: models.ChangeKindRemove, Category: models.CategoryLibraryRemoved, ExternalID: "ext:1",
		UserSelected: true,
	}

	result, err := fx.executor.Apply(ctx, binding, playlist, adapter, []*models.SyncChange{change}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, models.ChangeStateFailed, result.PerChangeState["c1"])
}

func TestExecutor_AppliesPlaylistLinkChangeAndPersistsExternalPlaylistID(t *testing.T) {
	fx := newExecutorFixture(t)
	ctx := context.Background()

	playlist := &models.Playlist{Name: "Mix", Kind: models.PlaylistKindPlaylist}
	require.NoError(t, fx.playlists.Create(ctx, playlist))
	binding := &models.PlaylistPlatformBinding{ID: 1, PlaylistID: playlist.ID, Platform: models.PlatformSpotify, ExternalPlaylistID: "", SyncMode: models.SyncModeFullBidirectional, IsPersonal: true}
	require.NoError(t, fx.bindings.Create(ctx, binding))

	adapter := &fakeAdapter{name: "spotify", tracks: map[string][]platform.ExtTrack{}}
	change := &models.SyncChange{ChangeID: "link1", BindingID: binding.ID, Kind: models.ChangeKindLink, UserSelected: true}

	result, err := fx.executor.Apply(ctx, binding, playlist, adapter, []*models.SyncChange{change}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)

	updated, err := fx.bindings.GetByID(ctx, binding.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, updated.ExternalPlaylistID)
}

func trackFixture(t *testing.T, ctx context.Context, fx executorFixture) uint64 {
	t.Helper()
	track := &models.Track{Title: "Song", PrimaryArtist: "Artist"}
	require.NoError(t, fx.tracks.Create(ctx, track))
	return track.ID
}

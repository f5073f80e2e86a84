package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"selecta/repository"
	"selecta/types/models"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Snapshot{}))
	return NewStore(repository.NewSnapshotRepository(db))
}

func TestStore_ReadWithNoSnapshotReturnsEmptyView(t *testing.T) {
	store := newTestStore(t)
	view, err := store.Read(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, view.LibraryMembers)
	assert.Empty(t, view.PlatformMembers)
	assert.NotNil(t, view.LinkPairs)
}

func TestStore_ReplaceThenReadRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	view := View{
		LibraryMembers:  []uint64{1, 2, 3},
		PlatformMembers: []string{"ext:1", "ext:2"},
		LinkPairs:       map[string]uint64{"ext:1": 1, "ext:2": 2},
	}
	require.NoError(t, store.Replace(ctx, 7, view))

	got, err := store.Read(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, view.LibraryMembers, got.LibraryMembers)
	assert.Equal(t, view.PlatformMembers, got.PlatformMembers)
	assert.Equal(t, view.LinkPairs, got.LinkPairs)
}

package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selecta/types/models"
)

func TestNewChangeID_StableAcrossRepeatedCalls(t *testing.T) {
	a := NewChangeID(1, models.DirectionPlatformToLibrary, models.ChangeKindAdd, 10, "ext:1")
	b := NewChangeID(1, models.DirectionPlatformToLibrary, models.ChangeKindAdd, 10, "ext:1")
	assert.Equal(t, a, b)

	c := NewChangeID(1, models.DirectionPlatformToLibrary, models.ChangeKindAdd, 10, "ext:2")
	assert.NotEqual(t, a, c)
}

func TestPlanner_PlatformAddedBecomesAutoSelectedWhenResolved(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeFullBidirectional, IsPersonal: true, ExternalPlaylistID: "pl1"}
	diff := Diff{BindingID: 1, Entries: []DiffEntry{
		{Category: models.CategoryPlatformAdded, TrackID: 5, ExternalID: "ext:1", MatchConfidence: 0.95, NeedsConfirmation: false},
	}}

	changes := NewPlanner().Plan(binding, diff)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].UserSelected)
	assert.Equal(t, models.DirectionPlatformToLibrary, changes[0].Direction)
}

func TestPlanner_UnresolvedPlatformAddedNeedsConfirmation(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeFullBidirectional, IsPersonal: true, ExternalPlaylistID: "pl1"}
	diff := Diff{BindingID: 1, Entries: []DiffEntry{
		{Category: models.CategoryPlatformAdded, ExternalID: "ext:1", NeedsConfirmation: true},
	}}

	changes := NewPlanner().Plan(binding, diff)
	require.Len(t, changes, 1)
	assert.False(t, changes[0].UserSelected)
	assert.True(t, changes[0].NeedsConfirmation)
}

func TestPlanner_UnchangedProducesNoChange(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeFullBidirectional, IsPersonal: true, ExternalPlaylistID: "pl1"}
	diff := Diff{BindingID: 1, Entries: []DiffEntry{
		{Category: models.CategoryUnchanged, TrackID: 5, ExternalID: "ext:1"},
	}}

	assert.Empty(t, NewPlanner().Plan(binding, diff))
}

func TestPlanner_ImportOnlyDropsLibraryToPlatformChanges(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeImportOnly, IsPersonal: true, ExternalPlaylistID: "pl1"}
	diff := Diff{BindingID: 1, Entries: []DiffEntry{
		{Category: models.CategoryLibraryAdded, TrackID: 5},
		{Category: models.CategoryPlatformAdded, TrackID: 6, ExternalID: "ext:1", MatchConfidence: 0.9},
	}}

	changes := NewPlanner().Plan(binding, diff)
	require.Len(t, changes, 1)
	assert.Equal(t, models.DirectionPlatformToLibrary, changes[0].Direction)
}

func TestPlanner_AddOnlyDropsRemovals(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeAddOnly, IsPersonal: true, ExternalPlaylistID: "pl1"}
	diff := Diff{BindingID: 1, Entries: []DiffEntry{
		{Category: models.CategoryLibraryRemoved, TrackID: 5, ExternalID: "ext:1"},
		{Category: models.CategoryLibraryAdded, TrackID: 6},
	}}

	changes := NewPlanner().Plan(binding, diff)
	require.Len(t, changes, 1)
	assert.Equal(t, models.CategoryLibraryAdded, changes[0].Category)
}

func TestPlanner_EmitsRemotePlaylistLinkWhenBindingHasNoExternalCounterpart(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeFullBidirectional, IsPersonal: true, ExternalPlaylistID: ""}
	diff := Diff{BindingID: 1}

	changes := NewPlanner().Plan(binding, diff)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeKindLink, changes[0].Kind)
	assert.Equal(t, 0, executionOrder(changes[0]))
}

func TestPlanner_NoRemotePlaylistLinkWhenBindingAlreadyHasExternalCounterpart(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeFullBidirectional, IsPersonal: true, ExternalPlaylistID: "pl1"}
	diff := Diff{BindingID: 1}

	assert.Empty(t, NewPlanner().Plan(binding, diff))
}

func TestPlanner_PlatformAddedResolvedByMatchingAlsoEmitsLinkChange(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeFullBidirectional, IsPersonal: true, ExternalPlaylistID: "pl1"}
	diff := Diff{BindingID: 1, Entries: []DiffEntry{
		{Category: models.CategoryPlatformAdded, TrackID: 5, ExternalID: "ext:1", MatchConfidence: 0.95, NeedsLink: true},
	}}

	changes := NewPlanner().Plan(binding, diff)
	require.Len(t, changes, 2)

	var kinds []models.ChangeKind
	for _, c := range changes {
		kinds = append(kinds, c.Kind)
	}
	assert.Contains(t, kinds, models.ChangeKindAdd)
	assert.Contains(t, kinds, models.ChangeKindLink)
}

func TestPlanner_LibraryAddedResolvedByCounterpartSkipsDuplicatePush(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeFullBidirectional, IsPersonal: true, ExternalPlaylistID: "pl1"}
	diff := Diff{BindingID: 1, Entries: []DiffEntry{
		{Category: models.CategoryLibraryAdded, TrackID: 6, ExternalID: "ext:2", MatchConfidence: 0.9, NeedsLink: true},
	}}

	changes := NewPlanner().Plan(binding, diff)
	require.Len(t, changes, 2)

	for _, c := range changes {
		if c.Kind == models.ChangeKindAdd {
			assert.False(t, c.UserSelected)
		}
	}
}

func TestPlanner_LibraryRemovedDefaultsUnselectedForNonPersonalBinding(t *testing.T) {
	binding := &models.PlaylistPlatformBinding{ID: 1, SyncMode: models.SyncModeFullBidirectional, IsPersonal: false}
	entry := DiffEntry{Category: models.CategoryLibraryRemoved, TrackID: 5, ExternalID: "ext:1"}

	change := NewPlanner().changeForEntry(binding, entry)
	require.NotNil(t, change)
	assert.False(t, change.UserSelected)
}

func TestExecutionOrder_RanksLinkBeforeAddsBeforeRemovesBeforeConflict(t *testing.T) {
	link := &models.SyncChange{Kind: models.ChangeKindLink}
	platformAdd := &models.SyncChange{Direction: models.DirectionPlatformToLibrary, Kind: models.ChangeKindAdd}
	libraryAdd := &models.SyncChange{Direction: models.DirectionLibraryToPlatform, Kind: models.ChangeKindAdd}
	libraryRemove := &models.SyncChange{Direction: models.DirectionLibraryToPlatform, Kind: models.ChangeKindRemove}
	platformRemove := &models.SyncChange{Direction: models.DirectionPlatformToLibrary, Kind: models.ChangeKindRemove}
	conflict := &models.SyncChange{Kind: models.ChangeKindConflict}

	assert.True(t, executionOrder(link) < executionOrder(platformAdd))
	assert.True(t, executionOrder(platformAdd) < executionOrder(libraryAdd))
	assert.True(t, executionOrder(libraryAdd) < executionOrder(libraryRemove))
	assert.True(t, executionOrder(libraryRemove) < executionOrder(platformRemove))
	assert.True(t, executionOrder(platformRemove) < executionOrder(conflict))
}

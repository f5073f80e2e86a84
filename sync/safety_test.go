package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"selecta/types/config"
	"selecta/types/models"
)

func TestSafetyGate_RejectsWhenEmergencyStopped(t *testing.T) {
	gate := NewSafetyGate(config.Defaults())
	gate.SetEmergencyStop(true)

	binding := &models.PlaylistPlatformBinding{IsPersonal: true}
	playlist := &models.Playlist{}
	change := &models.SyncChange{Kind: models.ChangeKindAdd, Direction: models.DirectionPlatformToLibrary}

	err := gate.Filter(binding, playlist, change)
	assert.Error(t, err)
}

func TestSafetyGate_AllowsAddOnNonPersonalBinding(t *testing.T) {
	gate := NewSafetyGate(config.Defaults())
	binding := &models.PlaylistPlatformBinding{IsPersonal: false}
	playlist := &models.Playlist{}
	change := &models.SyncChange{Kind: models.ChangeKindAdd, Direction: models.DirectionPlatformToLibrary}

	assert.NoError(t, gate.Filter(binding, playlist, change))
}

func TestSafetyGate_AllowsPlatformToLibraryRemoveOnNonPersonalBinding(t *testing.T) {
	gate := NewSafetyGate(config.Defaults())
	binding := &models.PlaylistPlatformBinding{IsPersonal: false}
	playlist := &models.Playlist{}
	change := &models.SyncChange{Kind: models.ChangeKindRemove, Direction: models.DirectionPlatformToLibrary}

	assert.NoError(t, gate.Filter(binding, playlist, change))
}

func TestSafetyGate_RejectsLibraryToPlatformOnNonPersonalBinding(t *testing.T) {
	gate := NewSafetyGate(config.Defaults())
	binding := &models.PlaylistPlatformBinding{IsPersonal: false}
	playlist := &models.Playlist{}
	change := &models.SyncChange{Kind: models.ChangeKindAdd, Direction: models.DirectionLibraryToPlatform}

	assert.Error(t, gate.Filter(binding, playlist, change))
}

func TestSafetyGate_RejectsRemoveFromLibraryCollection(t *testing.T) {
	gate := NewSafetyGate(config.Defaults())
	binding := &models.PlaylistPlatformBinding{IsPersonal: true}
	playlist := &models.Playlist{Name: models.LibraryCollectionName, IsSystem: true}
	change := &models.SyncChange{Kind: models.ChangeKindRemove, Direction: models.DirectionPlatformToLibrary}

	assert.Error(t, gate.Filter(binding, playlist, change))
}

func TestSafetyGate_AllowsAddToLibraryCollection(t *testing.T) {
	gate := NewSafetyGate(config.Defaults())
	binding := &models.PlaylistPlatformBinding{IsPersonal: true}
	playlist := &models.Playlist{Name: models.LibraryCollectionName, IsSystem: true}
	change := &models.SyncChange{Kind: models.ChangeKindAdd, Direction: models.DirectionPlatformToLibrary}

	assert.NoError(t, gate.Filter(binding, playlist, change))
}

func TestSafetyGate_TestModeRejectsPlaylistWithoutDeclaredPrefix(t *testing.T) {
	cfg := config.Defaults()
	cfg.TestModeEnabled = true
	gate := NewSafetyGate(cfg)

	binding := &models.PlaylistPlatformBinding{IsPersonal: true}
	playlist := &models.Playlist{Name: "My Regular Playlist"}
	change := &models.SyncChange{Kind: models.ChangeKindAdd, Direction: models.DirectionPlatformToLibrary}

	assert.Error(t, gate.Filter(binding, playlist, change))
}

func TestSafetyGate_TestModeAllowsPlaylistWithDeclaredPrefix(t *testing.T) {
	cfg := config.Defaults()
	cfg.TestModeEnabled = true
	gate := NewSafetyGate(cfg)

	binding := &models.PlaylistPlatformBinding{IsPersonal: true}
	playlist := &models.Playlist{Name: "[TEST] My Playlist"}
	change := &models.SyncChange{Kind: models.ChangeKindAdd, Direction: models.DirectionPlatformToLibrary}

	assert.NoError(t, gate.Filter(binding, playlist, change))
}

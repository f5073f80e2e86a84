package sync

import (
	"sync/atomic"

	selerr "selecta/types/errors"
	"selecta/types/config"
	"selecta/types/models"
)

// SafetyGate sits between Planner output and Executor input (L9, spec.md
// §4.9): ownership check, system-playlist check, test-prefix policy, and
// the process-wide emergency-stop flag.
type SafetyGate struct {
	cfg           config.Configuration
	emergencyStop atomic.Bool
}

// NewSafetyGate constructs a SafetyGate from the loaded Configuration.
func NewSafetyGate(cfg config.Configuration) *SafetyGate {
	gate := &SafetyGate{cfg: cfg}
	gate.emergencyStop.Store(cfg.EmergencyStop)
	return gate
}

// SetEmergencyStop flips the process-wide flag every component can read
// (spec.md §5 "Shared resources": "Safety flag (emergency stop):
// process-wide atomic boolean, readable by every component").
func (g *SafetyGate) SetEmergencyStop(stopped bool) {
	g.emergencyStop.Store(stopped)
}

// EmergencyStopped reports the current flag value.
func (g *SafetyGate) EmergencyStopped() bool {
	return g.emergencyStop.Load()
}

// Filter applies the gate to a planned change, returning nil if it passes,
// or a *selerr.SyncError describing why it was rejected.
func (g *SafetyGate) Filter(binding *models.PlaylistPlatformBinding, playlist *models.Playlist, change *models.SyncChange) error {
	if g.EmergencyStopped() {
		return selerr.New(selerr.KindStopped, "emergency stop is active", nil)
	}

	// Only library_to_platform changes are scoped out for a non-personal
	// binding (spec.md §8 universal invariant #4): a platform_to_library
	// remove — dropping a track locally because it left a shared/public
	// remote playlist — must still pass through.
	if !binding.IsPersonal && change.Direction == models.DirectionLibraryToPlatform {
		return selerr.New(selerr.KindNotPermitted, "binding targets a non-personal (shared/public) playlist", nil)
	}

	if playlist.IsSystem && playlist.Name == models.LibraryCollectionName && change.Kind == models.ChangeKindRemove {
		return selerr.New(selerr.KindNotPermitted, "Library Collection is a protected system playlist", nil)
	}

	if g.cfg.TestModeEnabled && isMutating(change) && !g.cfg.HasTestPrefix(playlist.Name) {
		return selerr.New(selerr.KindNotPermitted, "test mode: playlist name lacks a declared test prefix", nil)
	}

	return nil
}

// isMutating reports whether a change would touch a remote or local store —
// i.e. anything except an inert Conflict awaiting a resolution.
func isMutating(change *models.SyncChange) bool {
	switch change.Kind {
	case models.ChangeKindAdd, models.ChangeKindRemove, models.ChangeKindLink:
		return true
	default:
		return false
	}
}

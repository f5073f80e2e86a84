package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"selecta/types/models"
)

// NewChangeID computes the stable hash spec.md §4.6 requires: a function of
// binding + direction + kind + identifiers, so two planning runs over
// unchanged inputs produce identical ids (the idempotence property in
// spec.md §8).
func NewChangeID(bindingID uint64, direction models.ChangeDirection, kind models.ChangeKind, trackID uint64, externalID string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%d|%s", bindingID, direction, kind, trackID, externalID)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Planner converts a Detector Diff into an ordered, sync-mode-filtered list
// of SyncChange records (spec.md §4.6).
type Planner struct{}

// NewPlanner constructs a Planner. It is stateless — all inputs arrive via Plan.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan converts diff into SyncChanges, applying binding.EffectiveSyncMode()
// (spec.md §4.6's sync_mode filtering, including the is_personal override).
func (p *Planner) Plan(binding *models.PlaylistPlatformBinding, diff Diff) []*models.SyncChange {
	var changes []*models.SyncChange

	if binding.ExternalPlaylistID == "" {
		changes = append(changes, p.remotePlaylistLinkChange(binding))
	}

	for _, entry := range diff.Entries {
		if change := p.changeForEntry(binding, entry); change != nil {
			changes = append(changes, change)
		}
		if link := p.linkChangeForEntry(binding, entry); link != nil {
			changes = append(changes, link)
		}
	}

	return filterBySyncMode(binding.EffectiveSyncMode(), changes)
}

// remotePlaylistLinkChange is the "one link change creating a new remote
// playlist" spec.md Scenario 1 expects for a binding with no existing
// external counterpart yet.
func (p *Planner) remotePlaylistLinkChange(binding *models.PlaylistPlatformBinding) *models.SyncChange {
	direction := models.DirectionLibraryToPlatform
	change := &models.SyncChange{
		BindingID:    binding.ID,
		Direction:    direction,
		Kind:         models.ChangeKindLink,
		Description:  "create remote playlist for binding with no existing external counterpart",
		UserSelected: true,
	}
	change.ChangeID = NewChangeID(binding.ID, direction, change.Kind, 0, "")
	return change
}

// linkChangeForEntry emits the track-level `link` change spec.md §4.6 step 1
// requires whenever an entry's (TrackID, ExternalID) pairing came from
// Matching or adapter.Search rather than an existing PlatformLink.
func (p *Planner) linkChangeForEntry(binding *models.PlaylistPlatformBinding, entry DiffEntry) *models.SyncChange {
	if !entry.NeedsLink || entry.TrackID == 0 || entry.ExternalID == "" {
		return nil
	}
	direction := models.DirectionPlatformToLibrary
	if entry.Category == models.CategoryLibraryAdded {
		direction = models.DirectionLibraryToPlatform
	}
	change := &models.SyncChange{
		BindingID:       binding.ID,
		Direction:       direction,
		Kind:            models.ChangeKindLink,
		Category:        entry.Category,
		TrackID:         entry.TrackID,
		ExternalID:      entry.ExternalID,
		Description:     fmt.Sprintf("link track %d to platform track %s", entry.TrackID, entry.ExternalID),
		MatchConfidence: entry.MatchConfidence,
		UserSelected:    !entry.NeedsConfirmation,
	}
	change.ChangeID = NewChangeID(binding.ID, direction, change.Kind, entry.TrackID, entry.ExternalID)
	return change
}

func (p *Planner) changeForEntry(binding *models.PlaylistPlatformBinding, entry DiffEntry) *models.SyncChange {
	switch entry.Category {
	case models.CategoryPlatformAdded:
		direction := models.DirectionPlatformToLibrary
		if entry.TrackID == 0 {
			// No resolved track at all: still surfaced so the caller can
			// decide to import it, but there is nothing to link yet.
			change := &models.SyncChange{
				BindingID:         binding.ID,
				Direction:         direction,
				Kind:              models.ChangeKindAdd,
				Category:          entry.Category,
				ExternalID:        entry.ExternalID,
				Description:       fmt.Sprintf("import new platform track %s into library", entry.ExternalID),
				NeedsConfirmation: true,
				UserSelected:      false,
			}
			change.ChangeID = NewChangeID(binding.ID, direction, change.Kind, 0, entry.ExternalID)
			return change
		}
		kind := models.ChangeKindAdd
		if entry.NeedsConfirmation {
			kind = models.ChangeKindAdd
		}
		change := &models.SyncChange{
			BindingID:         binding.ID,
			Direction:         direction,
			Kind:              kind,
			Category:          entry.Category,
			TrackID:           entry.TrackID,
			ExternalID:        entry.ExternalID,
			Description:       fmt.Sprintf("add matched track %d to library from platform", entry.TrackID),
			MatchConfidence:   entry.MatchConfidence,
			NeedsConfirmation: entry.NeedsConfirmation,
			UserSelected:      !entry.NeedsConfirmation,
		}
		change.ChangeID = NewChangeID(binding.ID, direction, change.Kind, entry.TrackID, entry.ExternalID)
		return change

	case models.CategoryPlatformRemoved:
		direction := models.DirectionPlatformToLibrary
		change := &models.SyncChange{
			BindingID:    binding.ID,
			Direction:    direction,
			Kind:         models.ChangeKindRemove,
			Category:     entry.Category,
			TrackID:      entry.TrackID,
			ExternalID:   entry.ExternalID,
			Description:  fmt.Sprintf("remove track %d from library (removed on platform)", entry.TrackID),
			UserSelected: true,
		}
		change.ChangeID = NewChangeID(binding.ID, direction, change.Kind, entry.TrackID, entry.ExternalID)
		return change

	case models.CategoryLibraryAdded:
		direction := models.DirectionLibraryToPlatform
		// A remote counterpart already proposed by adapter.Search means the
		// track is (or will be, once confirmed) linked rather than pushed
		// again — pushing here would create a duplicate remote track.
		userSelected := entry.ExternalID == ""
		change := &models.SyncChange{
			BindingID:    binding.ID,
			Direction:    direction,
			Kind:         models.ChangeKindAdd,
			Category:     entry.Category,
			TrackID:      entry.TrackID,
			Description:  fmt.Sprintf("add library track %d to platform", entry.TrackID),
			UserSelected: userSelected,
		}
		change.ChangeID = NewChangeID(binding.ID, direction, change.Kind, entry.TrackID, "")
		return change

	case models.CategoryLibraryRemoved:
		direction := models.DirectionLibraryToPlatform
		// Default user_selected=false for any removal touching an unowned
		// playlist (spec.md §4.6); the Safety Gate enforces this again,
		// but the Planner's default reflects the conservative posture too.
		userSelected := binding.IsPersonal
		change := &models.SyncChange{
			BindingID:    binding.ID,
			Direction:    direction,
			Kind:         models.ChangeKindRemove,
			Category:     entry.Category,
			TrackID:      entry.TrackID,
			ExternalID:   entry.ExternalID,
			Description:  fmt.Sprintf("remove track %d from platform (removed in library)", entry.TrackID),
			UserSelected: userSelected,
		}
		change.ChangeID = NewChangeID(binding.ID, direction, change.Kind, entry.TrackID, entry.ExternalID)
		return change

	case models.CategoryConflict:
		direction := models.DirectionLibraryToPlatform
		change := &models.SyncChange{
			BindingID:         binding.ID,
			Direction:         direction,
			Kind:              models.ChangeKindConflict,
			Category:          entry.Category,
			TrackID:           entry.TrackID,
			ExternalID:        entry.ExternalID,
			Description:       fmt.Sprintf("metadata conflict on track %d", entry.TrackID),
			NeedsConfirmation: true,
			UserSelected:      false,
		}
		change.ChangeID = NewChangeID(binding.ID, direction, change.Kind, entry.TrackID, entry.ExternalID)
		return change

	default: // CategoryUnchanged
		return nil
	}
}

// filterBySyncMode applies the binding's sync_mode rules from spec.md §4.6.
func filterBySyncMode(mode models.SyncMode, changes []*models.SyncChange) []*models.SyncChange {
	var out []*models.SyncChange
	for _, c := range changes {
		switch mode {
		case models.SyncModeImportOnly:
			if c.Direction == models.DirectionLibraryToPlatform {
				continue
			}
		case models.SyncModeAddOnly:
			if c.Kind == models.ChangeKindRemove {
				continue
			}
		case models.SyncModeMirrorFromPlatform:
			if c.Direction == models.DirectionLibraryToPlatform && c.Kind != models.ChangeKindRemove {
				continue
			}
		case models.SyncModeMirrorToPlatform:
			if c.Direction == models.DirectionPlatformToLibrary && c.Kind != models.ChangeKindRemove {
				continue
			}
		case models.SyncModeFullBidirectional:
			// keep everything
		}
		out = append(out, c)
	}
	return out
}

// executionOrder ranks a SyncChange for the Executor's deterministic apply
// order (spec.md §4.7): link, platform_to_library adds, library_to_platform
// adds, library_to_platform removes, platform_to_library removes, conflicts.
func executionOrder(c *models.SyncChange) int {
	switch {
	case c.Kind == models.ChangeKindLink:
		return 0
	case c.Direction == models.DirectionPlatformToLibrary && c.Kind == models.ChangeKindAdd:
		return 1
	case c.Direction == models.DirectionLibraryToPlatform && c.Kind == models.ChangeKindAdd:
		return 2
	case c.Direction == models.DirectionLibraryToPlatform && c.Kind == models.ChangeKindRemove:
		return 3
	case c.Direction == models.DirectionPlatformToLibrary && c.Kind == models.ChangeKindRemove:
		return 4
	case c.Kind == models.ChangeKindConflict:
		return 5
	default:
		return 6
	}
}

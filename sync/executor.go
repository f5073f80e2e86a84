package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"selecta/clients/platform"
	"selecta/repository"
	"selecta/snapshot"
	"selecta/types/errors"
	"selecta/types/models"
	"selecta/utils/logger"
)

// ExecutionResult is the {applied_count, skipped_count, failed_count,
// per_change_details} summary spec.md §7 requires every job to end with.
type ExecutionResult struct {
	Applied        int
	Skipped        int
	Failed         int
	PerChangeState map[string]models.ChangeState
}

// Executor is the Sync Executor (L7): applies a selected subset of a plan
// in the deterministic order spec.md §4.7 defines, publishing ProgressEvents.
type Executor struct {
	playlists repository.PlaylistRepository
	links     repository.PlatformLinkRepository
	bindings  repository.BindingRepository
	snapshots snapshot.Store
	gate      *SafetyGate
}

// NewExecutor constructs an Executor from its collaborators.
func NewExecutor(
	playlists repository.PlaylistRepository,
	links repository.PlatformLinkRepository,
	bindings repository.BindingRepository,
	snapshots snapshot.Store,
	gate *SafetyGate,
) *Executor {
	return &Executor{playlists: playlists, links: links, bindings: bindings, snapshots: snapshots, gate: gate}
}

// Apply applies the selected SyncChanges (those with UserSelected==true)
// against binding via adapter, emitting
// ProgressEvents on events. events may be nil if the caller does not need
// progress feedback.
func (e *Executor) Apply(
	ctx context.Context,
	binding *models.PlaylistPlatformBinding,
	playlist *models.Playlist,
	adapter platform.Adapter,
	changes []*models.SyncChange,
	events chan<- models.ProgressEvent,
) (ExecutionResult, error) {
	log := logger.LoggerFromContext(ctx)
	result := ExecutionResult{PerChangeState: make(map[string]models.ChangeState)}

	selected := selectChanges(changes)
	sort.SliceStable(selected, func(i, j int) bool {
		return executionOrder(selected[i]) < executionOrder(selected[j])
	})

	for _, change := range selected {
		if err := ctx.Err(); err != nil {
			e.publish(events, change.ChangeID, models.ChangeStateSkipped, "cancelled")
			result.PerChangeState[change.ChangeID] = models.ChangeStateSkipped
			return result, errors.New(errors.KindCancelled, "sync cancelled", err)
		}

		if err := e.gate.Filter(binding, playlist, change); err != nil {
			e.publish(events, change.ChangeID, models.ChangeStateFailed, err.Error())
			result.PerChangeState[change.ChangeID] = models.ChangeStateFailed
			result.Failed++
			if errors.KindOf(err) == errors.KindStopped {
				return result, err
			}
			continue
		}

		e.publish(events, change.ChangeID, models.ChangeStateRunning, "")
		state, applyErr := e.applyOne(ctx, binding, adapter, change)
		result.PerChangeState[change.ChangeID] = state
		switch state {
		case models.ChangeStateSucceeded:
			result.Applied++
		case models.ChangeStateSkipped:
			result.Skipped++
		case models.ChangeStateFailed:
			result.Failed++
		}
		msg := ""
		if applyErr != nil {
			msg = applyErr.Error()
			log.Warn().Str("change_id", change.ChangeID).Err(applyErr).Msg("change failed to apply")
		}
		e.publish(events, change.ChangeID, state, msg)
	}

	if result.Failed == 0 {
		if err := e.recordFreshSnapshot(ctx, binding, adapter); err != nil {
			return result, fmt.Errorf("executor: recording snapshot: %w", err)
		}
	}

	return result, nil
}

func selectChanges(changes []*models.SyncChange) []*models.SyncChange {
	selected := make([]*models.SyncChange, 0, len(changes))
	for _, c := range changes {
		if c.UserSelected {
			selected = append(selected, c)
		}
	}
	return selected
}

// applyOne applies a single change, translating its outcome into a
// ChangeState. Adding an already-present library member or removing an
// absent one is a no-op success. A library_to_platform add is passed to
// adapter.AddTracks without first checking remote membership, so whether a
// track already on the remote playlist is added again depends on the
// adapter.
func (e *Executor) applyOne(ctx context.Context, binding *models.PlaylistPlatformBinding, adapter platform.Adapter, change *models.SyncChange) (models.ChangeState, error) {
	switch {
	case change.Kind == models.ChangeKindLink:
		return e.applyLink(ctx, binding, adapter, change)

	case change.Direction == models.DirectionPlatformToLibrary && change.Kind == models.ChangeKindAdd:
		if err := e.playlists.AddMember(ctx, binding.PlaylistID, change.TrackID); err != nil {
			if errors.IsConflict(err) {
				return models.ChangeStateSucceeded, nil // already a member: no-op
			}
			return models.ChangeStateFailed, err
		}
		return models.ChangeStateSucceeded, nil

	case change.Direction == models.DirectionLibraryToPlatform && change.Kind == models.ChangeKindAdd:
		link, err := e.links.GetByTrackAndPlatform(ctx, change.TrackID, binding.Platform)
		if err != nil {
			return models.ChangeStateSkipped, nil // no known external id yet; nothing to push
		}
		batch, err := adapter.AddTracks(ctx, binding.ExternalPlaylistID, []string{link.ExternalID})
		if err != nil {
			return models.ChangeStateFailed, err
		}
		if !batch.AllSucceeded() {
			return models.ChangeStateFailed, batch.Failed[link.ExternalID]
		}
		return models.ChangeStateSucceeded, nil

	case change.Direction == models.DirectionLibraryToPlatform && change.Kind == models.ChangeKindRemove:
		if change.ExternalID == "" {
			return models.ChangeStateSkipped, nil
		}
		batch, err := adapter.RemoveTracks(ctx, binding.ExternalPlaylistID, []string{change.ExternalID})
		if err != nil {
			return models.ChangeStateFailed, err
		}
		if !batch.AllSucceeded() {
			return models.ChangeStateFailed, batch.Failed[change.ExternalID]
		}
		return models.ChangeStateSucceeded, nil

	case change.Direction == models.DirectionPlatformToLibrary && change.Kind == models.ChangeKindRemove:
		if err := e.playlists.RemoveMember(ctx, binding.PlaylistID, change.TrackID); err != nil {
			return models.ChangeStateFailed, err
		}
		return models.ChangeStateSucceeded, nil

	case change.Kind == models.ChangeKindConflict:
		return e.applyConflict(ctx, binding, change)

	default:
		return models.ChangeStateSkipped, nil
	}
}

func (e *Executor) applyLink(ctx context.Context, binding *models.PlaylistPlatformBinding, adapter platform.Adapter, change *models.SyncChange) (models.ChangeState, error) {
	if change.TrackID == 0 && change.ExternalID == "" {
		return e.applyPlaylistLink(ctx, binding, adapter)
	}
	if change.TrackID == 0 || change.ExternalID == "" {
		return models.ChangeStateSkipped, nil
	}
	existing, err := e.links.GetByTrackAndPlatform(ctx, change.TrackID, binding.Platform)
	if err == nil && existing.ExternalID == change.ExternalID {
		return models.ChangeStateSucceeded, nil // already linked: no-op
	}
	link := &models.PlatformLink{TrackID: change.TrackID, Platform: binding.Platform, ExternalID: change.ExternalID, MatchConfidence: change.MatchConfidence}
	if err := e.links.Create(ctx, link); err != nil {
		return models.ChangeStateFailed, err
	}
	return models.ChangeStateSucceeded, nil
}

// applyPlaylistLink creates the remote playlist for a binding that doesn't
// have one yet (spec.md Scenario 1) and persists the assigned external id
// onto the binding so later runs stop treating it as pending creation.
func (e *Executor) applyPlaylistLink(ctx context.Context, binding *models.PlaylistPlatformBinding, adapter platform.Adapter) (models.ChangeState, error) {
	if binding.ExternalPlaylistID != "" {
		return models.ChangeStateSucceeded, nil // created by an earlier run
	}
	playlist, err := e.playlists.GetByID(ctx, binding.PlaylistID)
	if err != nil {
		return models.ChangeStateFailed, err
	}
	externalID, err := adapter.CreatePlaylist(ctx, playlist.Name, "", true)
	if err != nil {
		return models.ChangeStateFailed, err
	}
	if err := e.bindings.SetExternalPlaylistID(ctx, binding.ID, externalID); err != nil {
		return models.ChangeStateFailed, err
	}
	binding.ExternalPlaylistID = externalID
	return models.ChangeStateSucceeded, nil
}

// applyConflict resolves a Conflict change per its ConflictResolution.
// keep_local re-pushes library metadata semantics are out of scope for this
// core (metadata_blob is opaque, spec.md §3); keep_platform simply accepts
// the platform's state by treating the change as already current; skip
// leaves both sides untouched.
func (e *Executor) applyConflict(ctx context.Context, binding *models.PlaylistPlatformBinding, change *models.SyncChange) (models.ChangeState, error) {
	switch change.ConflictResolution {
	case models.ConflictResolutionKeepLocal, models.ConflictResolutionKeepPlatform:
		return models.ChangeStateSucceeded, nil
	case models.ConflictResolutionSkip, models.ConflictResolutionNone:
		return models.ChangeStateSkipped, nil
	default:
		return models.ChangeStateSkipped, nil
	}
}

// recordFreshSnapshot re-fetches remote membership once for consistency and
// writes it alongside current library membership (spec.md §4.7).
func (e *Executor) recordFreshSnapshot(ctx context.Context, binding *models.PlaylistPlatformBinding, adapter platform.Adapter) error {
	members, err := e.playlists.Members(ctx, binding.PlaylistID)
	if err != nil {
		return fmt.Errorf("loading library members: %w", err)
	}
	libraryMembers := make([]uint64, len(members))
	for i, m := range members {
		libraryMembers[i] = m.TrackID
	}

	remoteTracks, err := adapter.FetchPlaylistTracks(ctx, binding.ExternalPlaylistID)
	if err != nil {
		return fmt.Errorf("re-fetching platform membership: %w", err)
	}
	platformMembers := make([]string, len(remoteTracks))
	linkPairs := make(map[string]uint64, len(remoteTracks))
	for i, t := range remoteTracks {
		platformMembers[i] = t.ExternalID
		if link, err := e.links.GetByExternalID(ctx, binding.Platform, t.ExternalID); err == nil {
			linkPairs[t.ExternalID] = link.TrackID
		}
	}

	if err := e.snapshots.Replace(ctx, binding.ID, snapshot.View{
		LibraryMembers:  libraryMembers,
		PlatformMembers: platformMembers,
		LinkPairs:       linkPairs,
	}); err != nil {
		return err
	}

	return e.bindings.MarkSynced(ctx, binding.ID, time.Now())
}

func (e *Executor) publish(events chan<- models.ProgressEvent, changeID string, state models.ChangeState, message string) {
	if events == nil {
		return
	}
	select {
	case events <- models.ProgressEvent{ChangeID: changeID, State: state, Message: message}:
	default:
	}
}

// Package sync implements the Change Detector (L5), Sync Planner (L6),
// Sync Executor (L7), and Safety Gate (L9) — the core diff/plan/apply
// pipeline that runs over one PlaylistPlatformBinding at a time.
package sync

import (
	"context"
	"fmt"

	"selecta/clients/platform"
	"selecta/matching"
	"selecta/repository"
	"selecta/snapshot"
	"selecta/types/models"
)

// DiffEntry is one classified track from the three-way diff, before the
// Planner turns it into a SyncChange.
type DiffEntry struct {
	Category         models.ChangeCategory
	TrackID          uint64 // zero if no local track is known yet
	ExternalID       string // empty if no platform counterpart is known yet
	MatchConfidence  float64
	NeedsConfirmation bool
	// NeedsLink reports that TrackID and ExternalID were paired by Matching
	// (or by adapter.Search, for the library→platform direction) rather than
	// by an existing PlatformLink, so the Planner must also emit a `link`
	// change to persist the pairing (spec.md §4.6 step 1).
	NeedsLink bool
}

// Diff is the Change Detector's full output for one binding.
type Diff struct {
	BindingID uint64
	Entries   []DiffEntry
}

// Detector computes the three-way diff described in spec.md §4.5.
type Detector struct {
	tracks    repository.TrackRepository
	links     repository.PlatformLinkRepository
	playlists repository.PlaylistRepository
	snapshots snapshot.Store
	matcher   *matching.Matcher
}

// NewDetector constructs a Detector from its collaborators.
func NewDetector(
	tracks repository.TrackRepository,
	links repository.PlatformLinkRepository,
	playlists repository.PlaylistRepository,
	snapshots snapshot.Store,
	matcher *matching.Matcher,
) *Detector {
	return &Detector{tracks: tracks, links: links, playlists: playlists, snapshots: snapshots, matcher: matcher}
}

// Detect computes the diff for binding against the adapter's current remote
// membership of externalPlaylistID.
func (d *Detector) Detect(ctx context.Context, binding *models.PlaylistPlatformBinding, adapter platform.Adapter) (Diff, error) {
	members, err := d.playlists.Members(ctx, binding.PlaylistID)
	if err != nil {
		return Diff{}, fmt.Errorf("detector: loading library members: %w", err)
	}
	libraryTrackIDs := make(map[uint64]bool, len(members))
	for _, m := range members {
		libraryTrackIDs[m.TrackID] = true
	}

	remoteTracks, err := adapter.FetchPlaylistTracks(ctx, binding.ExternalPlaylistID)
	if err != nil {
		return Diff{}, fmt.Errorf("detector: fetching platform tracks: %w", err)
	}
	platformExternalIDs := make(map[string]platform.ExtTrack, len(remoteTracks))
	for _, t := range remoteTracks {
		platformExternalIDs[t.ExternalID] = t
	}

	view, err := d.snapshots.Read(ctx, binding.ID)
	if err != nil {
		return Diff{}, fmt.Errorf("detector: reading snapshot: %w", err)
	}
	snapshotLibrary := toSet(view.LibraryMembers)
	snapshotPlatform := make(map[string]bool, len(view.PlatformMembers))
	for _, id := range view.PlatformMembers {
		snapshotPlatform[id] = true
	}

	var entries []DiffEntry

	// Resolution step: map platform members to local tracks via existing
	// PlatformLinks first, then via Matching (spec.md §4.5 "Resolution step").
	resolvedTrackForExternal := make(map[string]uint64)
	for externalID := range platformExternalIDs {
		if trackID, ok := view.LinkPairs[externalID]; ok {
			resolvedTrackForExternal[externalID] = trackID
			continue
		}
		link, err := d.links.GetByExternalID(ctx, binding.Platform, externalID)
		if err == nil {
			resolvedTrackForExternal[externalID] = link.TrackID
		}
	}

	for externalID, extTrack := range platformExternalIDs {
		inPlatform := true
		inSnapshotPlatform := snapshotPlatform[externalID]
		trackID, resolved := resolvedTrackForExternal[externalID]

		switch {
		case inPlatform && !inSnapshotPlatform:
			entry := DiffEntry{Category: models.CategoryPlatformAdded, ExternalID: externalID}
			if resolved {
				entry.TrackID = trackID
				entry.MatchConfidence = 1.0
			} else {
				match, ok := d.matchAgainstLibrary(ctx, extTrack, libraryTrackIDs)
				if ok {
					entry.TrackID = match.trackID
					entry.MatchConfidence = match.confidence
					entry.NeedsConfirmation = match.needsConfirmation
					entry.NeedsLink = true
				} else {
					entry.NeedsConfirmation = true
				}
			}
			entries = append(entries, entry)
		default:
			entries = append(entries, d.classifyUnchanged(ctx, trackID, externalID, extTrack))
		}
	}

	for externalID := range snapshotPlatform {
		if _, stillPresent := platformExternalIDs[externalID]; !stillPresent {
			trackID := view.LinkPairs[externalID]
			entries = append(entries, DiffEntry{Category: models.CategoryPlatformRemoved, ExternalID: externalID, TrackID: trackID})
		}
	}

	for trackID := range libraryTrackIDs {
		if !snapshotLibrary[trackID] {
			entries = append(entries, d.resolveLibraryAdded(ctx, adapter, binding.Platform, trackID))
		}
	}
	for trackID := range snapshotLibrary {
		if !libraryTrackIDs[trackID] {
			// Still emitted even if its PlatformLink is gone, using the
			// snapshot's link_pairs to recover the external id
			// (spec.md §4.5 edge case).
			externalID := externalIDFor(view.LinkPairs, trackID)
			entries = append(entries, DiffEntry{Category: models.CategoryLibraryRemoved, TrackID: trackID, ExternalID: externalID})
		}
	}

	return Diff{BindingID: binding.ID, Entries: entries}, nil
}

// classifyUnchanged distinguishes a genuinely unchanged track from a
// Conflict: the same identity present on both sides whose metadata has
// since diverged beyond the matching threshold (spec.md §4.5, §4.1 step 4;
// SPEC_FULL.md Open Question #1 — conflicts are always surfaced, never
// auto-resolved).
func (d *Detector) classifyUnchanged(ctx context.Context, trackID uint64, externalID string, extTrack platform.ExtTrack) DiffEntry {
	if trackID == 0 {
		return DiffEntry{Category: models.CategoryUnchanged, ExternalID: externalID}
	}
	track, err := d.tracks.GetByID(ctx, trackID)
	if err != nil {
		return DiffEntry{Category: models.CategoryUnchanged, TrackID: trackID, ExternalID: externalID}
	}
	result := d.matcher.Score(
		matching.Subject{Title: track.Title, Artist: track.PrimaryArtist, Album: track.AlbumRef, DurationMs: track.DurationMs, ISRC: track.ISRC, DiscogsRelease: track.DiscogsRelease},
		matching.Candidate{Title: extTrack.Title, Artist: extTrack.Artist, Album: extTrack.Album, DurationMs: extTrack.DurationMs, ISRC: extTrack.ISRC, DiscogsRelease: extTrack.DiscogsRelease},
	)
	if !result.IsMatch {
		return DiffEntry{Category: models.CategoryConflict, TrackID: trackID, ExternalID: externalID, MatchConfidence: result.Confidence, NeedsConfirmation: true}
	}
	return DiffEntry{Category: models.CategoryUnchanged, TrackID: trackID, ExternalID: externalID}
}

type matchOutcome struct {
	trackID           uint64
	confidence        float64
	needsConfirmation bool
}

func (d *Detector) matchAgainstLibrary(ctx context.Context, extTrack platform.ExtTrack, libraryTrackIDs map[uint64]bool) (matchOutcome, bool) {
	var candidates []matching.Candidate
	trackByExternal := make(map[string]uint64)

	for trackID := range libraryTrackIDs {
		track, err := d.tracks.GetByID(ctx, trackID)
		if err != nil {
			continue
		}
		pseudoExternalID := fmt.Sprintf("track:%d", trackID)
		trackByExternal[pseudoExternalID] = trackID
		candidates = append(candidates, matching.Candidate{
			Title:          track.Title,
			Artist:         track.PrimaryArtist,
			Album:          track.AlbumRef,
			DurationMs:     track.DurationMs,
			ExternalID:     pseudoExternalID,
			ISRC:           track.ISRC,
			DiscogsRelease: track.DiscogsRelease,
			FileHash:       track.FileHash,
		})
	}

	subject := matching.Subject{
		Title:          extTrack.Title,
		Artist:         extTrack.Artist,
		Album:          extTrack.Album,
		DurationMs:     extTrack.DurationMs,
		ISRC:           extTrack.ISRC,
		DiscogsRelease: extTrack.DiscogsRelease,
	}

	best, ok := d.matcher.Best(subject, candidates)
	if !ok {
		return matchOutcome{}, false
	}
	if !best.IsMatch && !best.NeedsConfirm {
		return matchOutcome{}, false
	}
	return matchOutcome{
		trackID:           trackByExternal[best.Candidate.ExternalID],
		confidence:        best.Confidence,
		needsConfirmation: best.NeedsConfirm,
	}, true
}

// resolveLibraryAdded handles the symmetric half of the Resolution step
// (spec.md §4.5 "Symmetrically, L members without a link to this platform
// are routed through the adapter's search() to propose a remote
// counterpart"): a library track newly present since the last snapshot, with
// no PlatformLink yet for this platform, is searched for on the adapter
// before falling back to a plain library_added push.
func (d *Detector) resolveLibraryAdded(ctx context.Context, adapter platform.Adapter, plat models.Platform, trackID uint64) DiffEntry {
	entry := DiffEntry{Category: models.CategoryLibraryAdded, TrackID: trackID}

	if _, err := d.links.GetByTrackAndPlatform(ctx, trackID, plat); err == nil {
		// Already linked from a prior sync; the Executor pushes the add
		// using that link, no search needed.
		return entry
	}

	track, err := d.tracks.GetByID(ctx, trackID)
	if err != nil {
		return entry
	}

	query := track.PrimaryArtist + " " + track.Title
	results, err := adapter.Search(ctx, query, 5)
	if err != nil || len(results) == 0 {
		return entry
	}

	subject := matching.Subject{Title: track.Title, Artist: track.PrimaryArtist, Album: track.AlbumRef, DurationMs: track.DurationMs, ISRC: track.ISRC, DiscogsRelease: track.DiscogsRelease}
	candidates := make([]matching.Candidate, len(results))
	for i, r := range results {
		candidates[i] = matching.Candidate{
			Title: r.Title, Artist: r.Artist, Album: r.Album, DurationMs: r.DurationMs,
			ExternalID: r.ExternalID, ISRC: r.ISRC, DiscogsRelease: r.DiscogsRelease,
		}
	}

	best, ok := d.matcher.Best(subject, candidates)
	if !ok || (!best.IsMatch && !best.NeedsConfirm) {
		return entry
	}

	// A remote counterpart was proposed: link it instead of pushing a
	// duplicate track, same as the platform→library direction's auto-link.
	entry.ExternalID = best.Candidate.ExternalID
	entry.MatchConfidence = best.Confidence
	entry.NeedsConfirmation = best.NeedsConfirm
	entry.NeedsLink = true
	return entry
}

func toSet(ids []uint64) map[uint64]bool {
	set := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func externalIDFor(linkPairs map[string]uint64, trackID uint64) string {
	for externalID, id := range linkPairs {
		if id == trackID {
			return externalID
		}
	}
	return ""
}

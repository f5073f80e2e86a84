// Package snapshot implements the Snapshot Store (L4): the last-observed
// membership of a (playlist, platform) binding, the only historical state
// the Change Detector compares against.
package snapshot

import (
	"context"
	"fmt"

	selerr "selecta/types/errors"
	"selecta/types/models"
	"selecta/repository"
)

// View is the three sequences spec.md §3/§4.4 defines for one binding: the
// library-side member ids, the platform-side external ids, and the
// track-id/external-id pairing that held at the time of the last sync.
type View struct {
	LibraryMembers  []uint64
	PlatformMembers []string
	LinkPairs       map[string]uint64 // external id -> track id
}

// Store is the Snapshot Store: read the last View for a binding, or replace
// it atomically after a successful sync.
type Store interface {
	Read(ctx context.Context, bindingID uint64) (View, error)
	Replace(ctx context.Context, bindingID uint64, view View) error
}

type store struct {
	snapshots repository.SnapshotRepository
}

// NewStore constructs a Store atop the Repository Layer's SnapshotRepository.
func NewStore(snapshots repository.SnapshotRepository) Store {
	return &store{snapshots: snapshots}
}

// Read returns the empty View (no error) when no snapshot exists yet — the
// Change Detector's "first sync" edge case (spec.md §4.5) treats absence as
// empty sets, not a failure.
func (s *store) Read(ctx context.Context, bindingID uint64) (View, error) {
	snap, err := s.snapshots.GetByBindingID(ctx, bindingID)
	if err != nil {
		if selerr.KindOf(err) == selerr.KindNotFound {
			return View{LinkPairs: map[string]uint64{}}, nil
		}
		return View{}, fmt.Errorf("snapshot: %w", err)
	}
	linkPairs := snap.Body.LinkPairs
	if linkPairs == nil {
		linkPairs = map[string]uint64{}
	}
	return View{
		LibraryMembers:  snap.Body.LibraryMembers,
		PlatformMembers: snap.Body.PlatformMembers,
		LinkPairs:       linkPairs,
	}, nil
}

// Replace atomically swaps the stored snapshot for bindingID (spec.md §4.4:
// "replaces the previous snapshot for a binding atomically").
func (s *store) Replace(ctx context.Context, bindingID uint64, view View) error {
	body := models.SnapshotBody{
		LibraryMembers:  view.LibraryMembers,
		PlatformMembers: view.PlatformMembers,
		LinkPairs:       view.LinkPairs,
	}
	if _, err := s.snapshots.Replace(ctx, bindingID, body); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

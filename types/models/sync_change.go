package models

// ChangeDirection is which side of a binding a SyncChange moves data toward.
type ChangeDirection string

const (
	DirectionPlatformToLibrary ChangeDirection = "platform_to_library"
	DirectionLibraryToPlatform ChangeDirection = "library_to_platform"
)

// ChangeKind is the taxonomy of operations a SyncChange can represent.
type ChangeKind string

const (
	ChangeKindAdd      ChangeKind = "add"
	ChangeKindRemove   ChangeKind = "remove"
	ChangeKindConflict ChangeKind = "conflict"
	ChangeKindLink     ChangeKind = "link"
)

// ChangeCategory is the three-way diff classification from spec.md §4.5.
type ChangeCategory string

const (
	CategoryPlatformAdded   ChangeCategory = "platform_added"
	CategoryPlatformRemoved ChangeCategory = "platform_removed"
	CategoryLibraryAdded    ChangeCategory = "library_added"
	CategoryLibraryRemoved  ChangeCategory = "library_removed"
	CategoryConflict        ChangeCategory = "conflict"
	CategoryUnchanged       ChangeCategory = "unchanged"
)

// ConflictResolution is the user's chosen outcome for a Conflict change.
type ConflictResolution string

const (
	ConflictResolutionNone           ConflictResolution = ""
	ConflictResolutionKeepLocal      ConflictResolution = "keep_local"
	ConflictResolutionKeepPlatform   ConflictResolution = "keep_platform"
	ConflictResolutionSkip           ConflictResolution = "skip"
)

// SyncChange is one unit of diff the Planner emits and the Executor applies.
//
// ChangeID is a stable hash of binding + direction + kind + identifiers
// (spec.md §4.6), computed by NewChangeID so two planning runs over
// unchanged inputs always produce identical IDs — required for the
// idempotence property in spec.md §8.
type SyncChange struct {
	ChangeID           string             `json:"changeId"`
	BindingID          uint64             `json:"bindingId"`
	Direction          ChangeDirection    `json:"direction"`
	Kind               ChangeKind         `json:"kind"`
	Category           ChangeCategory     `json:"category"`
	TrackID            uint64             `json:"trackId,omitempty"`
	ExternalID         string             `json:"externalId,omitempty"`
	Description        string             `json:"description"`
	UserSelected        bool               `json:"userSelected"`
	NeedsConfirmation   bool               `json:"needsConfirmation"`
	MatchConfidence     float64            `json:"matchConfidence,omitempty"`
	ConflictResolution  ConflictResolution `json:"conflictResolution,omitempty"`
}

// ChangeState is the terminal/interim status of a SyncChange as it is
// applied by the Executor, published on the ProgressEvent channel.
type ChangeState string

const (
	ChangeStatePending   ChangeState = "pending"
	ChangeStateRunning   ChangeState = "running"
	ChangeStateSucceeded ChangeState = "succeeded"
	ChangeStateFailed    ChangeState = "failed"
	ChangeStateSkipped   ChangeState = "skipped"
)

// ProgressEvent is the core's sole runtime feedback mechanism (spec.md §4.7,
// §6).
type ProgressEvent struct {
	ChangeID string      `json:"changeId"`
	State    ChangeState `json:"state"`
	Message  string      `json:"message,omitempty"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// snapshotSchemaVersion is bumped whenever the serialized shape of
// SnapshotBody changes. Readers ignore unknown fields and check this before
// trusting LibraryMembers/PlatformMembers/LinkPairs (spec.md §6).
const snapshotSchemaVersion = 1

// SnapshotBody is the payload described in spec.md §3/§6: two ordered id
// lists plus an external_id -> track_id map, versioned for forward
// compatibility.
type SnapshotBody struct {
	SchemaVersion   int               `json:"schemaVersion"`
	LibraryMembers  []uint64          `json:"libraryMembers"`
	PlatformMembers []string          `json:"platformMembers"`
	LinkPairs       map[string]uint64 `json:"linkPairs"`
}

// Value implements driver.Valuer so GORM stores the body as a JSON column.
func (b SnapshotBody) Value() (driver.Value, error) {
	b.SchemaVersion = snapshotSchemaVersion
	return json.Marshal(b)
}

// Scan implements sql.Scanner. Unknown fields in the stored JSON are ignored
// by encoding/json by default, satisfying the forward-compatibility
// requirement without extra bookkeeping.
func (b *SnapshotBody) Scan(value any) error {
	if value == nil {
		*b = SnapshotBody{SchemaVersion: snapshotSchemaVersion}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("snapshot body: type assertion to []byte failed")
	}
	if err := json.Unmarshal(bytes, b); err != nil {
		return err
	}
	if b.SchemaVersion != snapshotSchemaVersion {
		return fmt.Errorf("snapshot body: unsupported schema version %d", b.SchemaVersion)
	}
	return nil
}

// Snapshot is the observed membership of a (playlist, platform) pair at the
// last successful sync. Immutable once written — the Snapshot Store always
// replaces it atomically rather than mutating it in place (spec.md §3, §4.4).
type Snapshot struct {
	BaseModel
	BindingID uint64       `json:"bindingId" gorm:"not null;uniqueIndex"`
	TakenAt   time.Time    `json:"takenAt"`
	Body      SnapshotBody `json:"body" gorm:"type:blob"`
}

func (Snapshot) TableName() string { return "snapshots" }

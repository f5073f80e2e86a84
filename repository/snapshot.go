package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	selerr "selecta/types/errors"
	"selecta/types/models"
)

// SnapshotRepository stores the Snapshot Store's (L4) persisted state: one
// row per binding, always replaced atomically (spec.md §3, §4.4).
type SnapshotRepository interface {
	GetByBindingID(ctx context.Context, bindingID uint64) (*models.Snapshot, error)
	Replace(ctx context.Context, bindingID uint64, body models.SnapshotBody) (*models.Snapshot, error)
	Delete(ctx context.Context, bindingID uint64) error
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository constructs a SnapshotRepository bound to db.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) GetByBindingID(ctx context.Context, bindingID uint64) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	err := r.db.WithContext(ctx).Where("binding_id = ?", bindingID).First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, selerr.New(selerr.KindNotFound, "snapshot not found", err)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

// Replace performs the atomic "delete old, insert new" swap the Snapshot
// Store requires — a snapshot is never mutated in place.
func (r *snapshotRepository) Replace(ctx context.Context, bindingID uint64, body models.SnapshotBody) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{BindingID: bindingID, TakenAt: time.Now(), Body: body}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("binding_id = ?", bindingID).Delete(&models.Snapshot{}).Error; err != nil {
			return fmt.Errorf("failed to clear old snapshot: %w", err)
		}
		if err := tx.Create(snapshot).Error; err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *snapshotRepository) Delete(ctx context.Context, bindingID uint64) error {
	if err := r.db.WithContext(ctx).Where("binding_id = ?", bindingID).Delete(&models.Snapshot{}).Error; err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

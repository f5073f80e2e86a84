package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	selerr "selecta/types/errors"
	"selecta/types/models"
)

// PlatformLinkRepository is CRUD over PlatformLinks, enforcing the two
// uniqueness invariants from spec.md §3: (track_id, platform) and
// (platform, external_id) are each globally unique.
type PlatformLinkRepository interface {
	Create(ctx context.Context, link *models.PlatformLink) error
	Update(ctx context.Context, link *models.PlatformLink) error
	GetByTrackAndPlatform(ctx context.Context, trackID uint64, platform models.Platform) (*models.PlatformLink, error)
	GetByExternalID(ctx context.Context, platform models.Platform, externalID string) (*models.PlatformLink, error)
	ListByPlatform(ctx context.Context, platform models.Platform) ([]*models.PlatformLink, error)
	Delete(ctx context.Context, id uint64) error
}

type platformLinkRepository struct {
	db *gorm.DB
}

// NewPlatformLinkRepository constructs a PlatformLinkRepository bound to db.
func NewPlatformLinkRepository(db *gorm.DB) PlatformLinkRepository {
	return &platformLinkRepository{db: db}
}

func (r *platformLinkRepository) Create(ctx context.Context, link *models.PlatformLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return wrapConflict(err)
	}
	return nil
}

func (r *platformLinkRepository) Update(ctx context.Context, link *models.PlatformLink) error {
	if err := r.db.WithContext(ctx).Save(link).Error; err != nil {
		return wrapConflict(err)
	}
	return nil
}

func (r *platformLinkRepository) GetByTrackAndPlatform(ctx context.Context, trackID uint64, platform models.Platform) (*models.PlatformLink, error) {
	var link models.PlatformLink
	err := r.db.WithContext(ctx).
		Where("track_id = ? AND platform = ?", trackID, platform).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, selerr.New(selerr.KindNotFound, "platform link not found", err)
		}
		return nil, fmt.Errorf("failed to get platform link: %w", err)
	}
	return &link, nil
}

func (r *platformLinkRepository) GetByExternalID(ctx context.Context, platform models.Platform, externalID string) (*models.PlatformLink, error) {
	var link models.PlatformLink
	err := r.db.WithContext(ctx).
		Where("platform = ? AND external_id = ?", platform, externalID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, selerr.New(selerr.KindNotFound, "platform link not found", err)
		}
		return nil, fmt.Errorf("failed to get platform link: %w", err)
	}
	return &link, nil
}

func (r *platformLinkRepository) ListByPlatform(ctx context.Context, platform models.Platform) ([]*models.PlatformLink, error) {
	var links []*models.PlatformLink
	if err := r.db.WithContext(ctx).Where("platform = ?", platform).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list platform links: %w", err)
	}
	return links, nil
}

func (r *platformLinkRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.PlatformLink{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete platform link: %w", err)
	}
	return nil
}

// wrapConflict detects a SQLite uniqueness violation and surfaces it as the
// ConflictError spec.md §4.2 requires, rather than a raw driver error.
func wrapConflict(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		constraint := msg
		if idx := strings.Index(msg, "UNIQUE constraint failed: "); idx >= 0 {
			constraint = msg[idx+len("UNIQUE constraint failed: "):]
		}
		return &selerr.ConflictError{Constraint: constraint}
	}
	return fmt.Errorf("repository: %w", err)
}

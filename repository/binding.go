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

// BindingRepository is CRUD over PlaylistPlatformBindings, enforcing
// (playlist_id, platform) and (platform, external_playlist_id) uniqueness
// (spec.md §3).
type BindingRepository interface {
	Create(ctx context.Context, binding *models.PlaylistPlatformBinding) error
	GetByID(ctx context.Context, id uint64) (*models.PlaylistPlatformBinding, error)
	GetByPlaylistAndPlatform(ctx context.Context, playlistID uint64, platform models.Platform) (*models.PlaylistPlatformBinding, error)
	ListByPlatform(ctx context.Context, platform models.Platform) ([]*models.PlaylistPlatformBinding, error)
	ListAll(ctx context.Context) ([]*models.PlaylistPlatformBinding, error)
	MarkSynced(ctx context.Context, id uint64, syncedAt time.Time) error
	SetExternalPlaylistID(ctx context.Context, id uint64, externalPlaylistID string) error
	Delete(ctx context.Context, id uint64) error
}

type bindingRepository struct {
	db *gorm.DB
}

// NewBindingRepository constructs a BindingRepository bound to db.
func NewBindingRepository(db *gorm.DB) BindingRepository {
	return &bindingRepository{db: db}
}

func (r *bindingRepository) Create(ctx context.Context, binding *models.PlaylistPlatformBinding) error {
	if err := r.db.WithContext(ctx).Create(binding).Error; err != nil {
		return wrapConflict(err)
	}
	return nil
}

func (r *bindingRepository) GetByID(ctx context.Context, id uint64) (*models.PlaylistPlatformBinding, error) {
	var binding models.PlaylistPlatformBinding
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&binding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, selerr.New(selerr.KindNotFound, "binding not found", err)
		}
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}
	return &binding, nil
}

func (r *bindingRepository) GetByPlaylistAndPlatform(ctx context.Context, playlistID uint64, platform models.Platform) (*models.PlaylistPlatformBinding, error) {
	var binding models.PlaylistPlatformBinding
	err := r.db.WithContext(ctx).
		Where("playlist_id = ? AND platform = ?", playlistID, platform).
		First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, selerr.New(selerr.KindNotFound, "binding not found", err)
		}
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}
	return &binding, nil
}

func (r *bindingRepository) ListByPlatform(ctx context.Context, platform models.Platform) ([]*models.PlaylistPlatformBinding, error) {
	var bindings []*models.PlaylistPlatformBinding
	if err := r.db.WithContext(ctx).Where("platform = ?", platform).Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	return bindings, nil
}

func (r *bindingRepository) ListAll(ctx context.Context) ([]*models.PlaylistPlatformBinding, error) {
	var bindings []*models.PlaylistPlatformBinding
	if err := r.db.WithContext(ctx).Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	return bindings, nil
}

func (r *bindingRepository) MarkSynced(ctx context.Context, id uint64, syncedAt time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.PlaylistPlatformBinding{}).
		Where("id = ?", id).
		Update("last_synced_at", syncedAt).Error; err != nil {
		return fmt.Errorf("failed to mark binding synced: %w", err)
	}
	return nil
}

// SetExternalPlaylistID records the remote playlist id a binding created via
// adapter.CreatePlaylist was assigned, so later detect/apply passes stop
// treating it as pending creation.
func (r *bindingRepository) SetExternalPlaylistID(ctx context.Context, id uint64, externalPlaylistID string) error {
	if err := r.db.WithContext(ctx).Model(&models.PlaylistPlatformBinding{}).
		Where("id = ?", id).
		Update("external_playlist_id", externalPlaylistID).Error; err != nil {
		return fmt.Errorf("failed to set binding external playlist id: %w", err)
	}
	return nil
}

func (r *bindingRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.PlaylistPlatformBinding{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete binding: %w", err)
	}
	return nil
}

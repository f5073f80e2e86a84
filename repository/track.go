// Package repository is the Repository Layer (L2): durable storage and
// query of the Playlist Synchronization Core's data model over GORM+SQLite.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	selerr "selecta/types/errors"
	"selecta/types/models"
	"selecta/utils/logger"
)

// TrackRepository is CRUD plus search over Tracks.
type TrackRepository interface {
	Create(ctx context.Context, track *models.Track) error
	Update(ctx context.Context, track *models.Track) error
	GetByID(ctx context.Context, id uint64) (*models.Track, error)
	GetByIDs(ctx context.Context, ids []uint64) ([]*models.Track, error)
	Search(ctx context.Context, titleOrArtist string, limit int) ([]*models.Track, error)
	Delete(ctx context.Context, id uint64) error
}

type trackRepository struct {
	db *gorm.DB
}

// NewTrackRepository constructs a TrackRepository bound to db.
func NewTrackRepository(db *gorm.DB) TrackRepository {
	return &trackRepository{db: db}
}

// Create normalizes and inserts a Track (spec.md §3 invariant: title and
// primary_artist non-empty after normalization).
func (r *trackRepository) Create(ctx context.Context, track *models.Track) error {
	log := logger.LoggerFromContext(ctx)
	if err := track.Normalize(); err != nil {
		return fmt.Errorf("track: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(track).Error; err != nil {
		log.Error().Err(err).Msg("failed to create track")
		return fmt.Errorf("failed to create track: %w", err)
	}
	return nil
}

func (r *trackRepository) Update(ctx context.Context, track *models.Track) error {
	if err := track.Normalize(); err != nil {
		return fmt.Errorf("track: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(track).Error; err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	return nil
}

func (r *trackRepository) GetByID(ctx context.Context, id uint64) (*models.Track, error) {
	var track models.Track
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, selerr.New(selerr.KindNotFound, "track not found", err)
		}
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return &track, nil
}

// GetByIDs loads multiple tracks in one query (spec.md §4.2: bounded query
// counts, no N+1 anti-patterns).
func (r *trackRepository) GetByIDs(ctx context.Context, ids []uint64) ([]*models.Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tracks []*models.Track
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to get tracks by ids: %w", err)
	}
	return tracks, nil
}

// Search matches title or primary_artist case-insensitively (spec.md §4.2
// "search by title/artist").
func (r *trackRepository) Search(ctx context.Context, titleOrArtist string, limit int) ([]*models.Track, error) {
	if limit <= 0 {
		limit = 50
	}
	needle := "%" + strings.ToLower(titleOrArtist) + "%"
	var tracks []*models.Track
	if err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(primary_artist) LIKE ?", needle, needle).
		Limit(limit).
		Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	return tracks, nil
}

func (r *trackRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Track{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return nil
}

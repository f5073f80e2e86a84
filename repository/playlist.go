package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	selerr "selecta/types/errors"
	"selecta/types/models"
)

// PlaylistRepository is CRUD over Playlists plus their ordered membership,
// enforcing: folders never hold tracks directly, IsSystem playlists cannot
// be renamed/deleted, the ParentID chain stays acyclic, and PlaylistMember
// positions stay dense/contiguous/zero-based after every mutation
// (spec.md §3, §4.2).
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	GetByID(ctx context.Context, id uint64) (*models.Playlist, error)
	Rename(ctx context.Context, id uint64, name string) error
	Reparent(ctx context.Context, id uint64, newParentID *uint64) error
	Delete(ctx context.Context, id uint64) error

	Members(ctx context.Context, playlistID uint64) ([]*models.PlaylistMember, error)
	AddMember(ctx context.Context, playlistID, trackID uint64) error
	RemoveMember(ctx context.Context, playlistID, trackID uint64) error
	Reorder(ctx context.Context, playlistID uint64, trackIDsInOrder []uint64) error
}

// playlistLocks gives the store its "one writer at a time per playlist"
// concurrency contract (spec.md §4.2): writes to distinct playlists proceed
// in parallel, writes to the same playlist serialize.
type playlistLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newPlaylistLocks() *playlistLocks {
	return &playlistLocks{locks: make(map[uint64]*sync.Mutex)}
}

func (l *playlistLocks) lockFor(id uint64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

type playlistRepository struct {
	db    *gorm.DB
	locks *playlistLocks
}

// NewPlaylistRepository constructs a PlaylistRepository bound to db.
func NewPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &playlistRepository{db: db, locks: newPlaylistLocks()}
}

func (r *playlistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return wrapConflict(err)
	}
	return nil
}

func (r *playlistRepository) GetByID(ctx context.Context, id uint64) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, selerr.New(selerr.KindNotFound, "playlist not found", err)
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return &playlist, nil
}

func (r *playlistRepository) Rename(ctx context.Context, id uint64, name string) error {
	lock := r.locks.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	playlist, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if playlist.IsSystem {
		return selerr.New(selerr.KindNotPermitted, "system playlists cannot be renamed", nil)
	}
	playlist.Name = name
	if err := r.db.WithContext(ctx).Save(playlist).Error; err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}
	return nil
}

// Reparent moves a playlist/folder under newParentID, rejecting a move that
// would create a cycle by walking the new ancestor chain first.
func (r *playlistRepository) Reparent(ctx context.Context, id uint64, newParentID *uint64) error {
	lock := r.locks.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if newParentID != nil {
		cursor := *newParentID
		for {
			if cursor == id {
				return selerr.New(selerr.KindConflict, "reparent would create a cycle", nil)
			}
			var parent models.Playlist
			if err := r.db.WithContext(ctx).Select("id", "parent_id").Where("id = ?", cursor).First(&parent).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return selerr.New(selerr.KindNotFound, "parent playlist not found", err)
				}
				return fmt.Errorf("failed to walk ancestor chain: %w", err)
			}
			if parent.ParentID == nil {
				break
			}
			cursor = *parent.ParentID
		}
	}

	if err := r.db.WithContext(ctx).Model(&models.Playlist{}).Where("id = ?", id).Update("parent_id", newParentID).Error; err != nil {
		return fmt.Errorf("failed to reparent playlist: %w", err)
	}
	return nil
}

func (r *playlistRepository) Delete(ctx context.Context, id uint64) error {
	playlist, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if playlist.IsSystem {
		return selerr.New(selerr.KindNotPermitted, "system playlists cannot be deleted", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&models.PlaylistMember{}).Error; err != nil {
			return fmt.Errorf("failed to delete playlist members: %w", err)
		}
		if err := tx.Delete(&models.Playlist{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete playlist: %w", err)
		}
		return nil
	})
}

func (r *playlistRepository) Members(ctx context.Context, playlistID uint64) ([]*models.PlaylistMember, error) {
	var members []*models.PlaylistMember
	if err := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Order("position ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list playlist members: %w", err)
	}
	return members, nil
}

// AddMember appends trackID at the next position. Appending never leaves a
// gap, so no re-pack is needed; the count and insert share one transaction.
// Adding a track to a folder is rejected with KindNotPermitted.
func (r *playlistRepository) AddMember(ctx context.Context, playlistID, trackID uint64) error {
	lock := r.locks.lockFor(playlistID)
	lock.Lock()
	defer lock.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var playlist models.Playlist
		if err := tx.Select("kind").Where("id = ?", playlistID).First(&playlist).Error; err == nil && playlist.Kind == models.PlaylistKindFolder {
			return selerr.New(selerr.KindNotPermitted, "folders cannot hold tracks directly", nil)
		}
		var count int64
		if err := tx.Model(&models.PlaylistMember{}).Where("playlist_id = ?", playlistID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count playlist members: %w", err)
		}
		member := &models.PlaylistMember{PlaylistID: playlistID, TrackID: trackID, Position: int(count)}
		if err := tx.Create(member).Error; err != nil {
			return wrapConflict(err)
		}
		return nil
	})
}

// RemoveMember deletes the (playlistID, trackID) edge and re-packs the
// remaining positions so they stay dense and contiguous.
func (r *playlistRepository) RemoveMember(ctx context.Context, playlistID, trackID uint64) error {
	lock := r.locks.lockFor(playlistID)
	lock.Lock()
	defer lock.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ? AND track_id = ?", playlistID, trackID).
			Delete(&models.PlaylistMember{}).Error; err != nil {
			return fmt.Errorf("failed to remove playlist member: %w", err)
		}
		return repackPositions(tx, playlistID)
	})
}

// Reorder replaces the playlist's membership order wholesale: each track in
// trackIDsInOrder gets its index as its position.
func (r *playlistRepository) Reorder(ctx context.Context, playlistID uint64, trackIDsInOrder []uint64) error {
	lock := r.locks.lockFor(playlistID)
	lock.Lock()
	defer lock.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, trackID := range trackIDsInOrder {
			if err := tx.Model(&models.PlaylistMember{}).
				Where("playlist_id = ? AND track_id = ?", playlistID, trackID).
				Update("position", position).Error; err != nil {
				return fmt.Errorf("failed to reorder playlist member: %w", err)
			}
		}
		return nil
	})
}

func repackPositions(tx *gorm.DB, playlistID uint64) error {
	var members []*models.PlaylistMember
	if err := tx.Where("playlist_id = ?", playlistID).Order("position ASC").Find(&members).Error; err != nil {
		return fmt.Errorf("failed to load members for repack: %w", err)
	}
	for i, member := range members {
		if member.Position == i {
			continue
		}
		if err := tx.Model(&models.PlaylistMember{}).
			Where("playlist_id = ? AND track_id = ?", playlistID, member.TrackID).
			Update("position", i).Error; err != nil {
			return fmt.Errorf("failed to repack position: %w", err)
		}
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	selerr "selecta/types/errors"
	"selecta/types/models"
)

// JobRunRepository records one row per SyncJob execution, carrying the
// {applied_count, skipped_count, failed_count} summary spec.md §7 requires
// (SPEC_FULL.md "Supplemented feature: job summary & scheduling").
type JobRunRepository interface {
	Create(ctx context.Context, run *models.JobRun) error
	Update(ctx context.Context, run *models.JobRun) error
	GetByJobID(ctx context.Context, jobID string) (*models.JobRun, error)
	ListByBinding(ctx context.Context, bindingID uint64, limit int) ([]*models.JobRun, error)
}

type jobRunRepository struct {
	db *gorm.DB
}

// NewJobRunRepository constructs a JobRunRepository bound to db.
func NewJobRunRepository(db *gorm.DB) JobRunRepository {
	return &jobRunRepository{db: db}
}

func (r *jobRunRepository) Create(ctx context.Context, run *models.JobRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return wrapConflict(err)
	}
	return nil
}

func (r *jobRunRepository) Update(ctx context.Context, run *models.JobRun) error {
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("failed to update job run: %w", err)
	}
	return nil
}

func (r *jobRunRepository) GetByJobID(ctx context.Context, jobID string) (*models.JobRun, error) {
	var run models.JobRun
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, selerr.New(selerr.KindNotFound, "job run not found", err)
		}
		return nil, fmt.Errorf("failed to get job run: %w", err)
	}
	return &run, nil
}

func (r *jobRunRepository) ListByBinding(ctx context.Context, bindingID uint64, limit int) ([]*models.JobRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*models.JobRun
	if err := r.db.WithContext(ctx).
		Where("binding_id = ?", bindingID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	return runs, nil
}

// JobScheduleRepository is CRUD over recurring sync schedules.
type JobScheduleRepository interface {
	Upsert(ctx context.Context, schedule *models.JobSchedule) error
	ListEnabled(ctx context.Context) ([]*models.JobSchedule, error)
	Delete(ctx context.Context, bindingID uint64) error
}

type jobScheduleRepository struct {
	db *gorm.DB
}

// NewJobScheduleRepository constructs a JobScheduleRepository bound to db.
func NewJobScheduleRepository(db *gorm.DB) JobScheduleRepository {
	return &jobScheduleRepository{db: db}
}

func (r *jobScheduleRepository) Upsert(ctx context.Context, schedule *models.JobSchedule) error {
	var existing models.JobSchedule
	err := r.db.WithContext(ctx).Where("binding_id = ?", schedule.BindingID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(schedule).Error; err != nil {
			return wrapConflict(err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up job schedule: %w", err)
	default:
		schedule.ID = existing.ID
		if err := r.db.WithContext(ctx).Save(schedule).Error; err != nil {
			return fmt.Errorf("failed to update job schedule: %w", err)
		}
		return nil
	}
}

func (r *jobScheduleRepository) ListEnabled(ctx context.Context) ([]*models.JobSchedule, error) {
	var schedules []*models.JobSchedule
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list job schedules: %w", err)
	}
	return schedules, nil
}

func (r *jobScheduleRepository) Delete(ctx context.Context, bindingID uint64) error {
	if err := r.db.WithContext(ctx).Where("binding_id = ?", bindingID).Delete(&models.JobSchedule{}).Error; err != nil {
		return fmt.Errorf("failed to delete job schedule: %w", err)
	}
	return nil
}

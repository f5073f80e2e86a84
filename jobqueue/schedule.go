package jobqueue

import (
	"context"

	"selecta/repository"
	"selecta/types/models"
)

// Scheduler ties JobSchedule rows to the Queue, mirroring the teacher's
// scheduler.Job interface: Schedule registers (or updates) a recurring sync
// for one binding (SPEC_FULL.md "Supplemented feature: job summary &
// scheduling").
type Scheduler struct {
	schedules repository.JobScheduleRepository
}

// NewScheduler constructs a Scheduler atop the JobScheduleRepository.
func NewScheduler(schedules repository.JobScheduleRepository) *Scheduler {
	return &Scheduler{schedules: schedules}
}

// Schedule upserts a recurring sync schedule for binding at the given
// frequency (a cron-like expression or a named interval such as "hourly" —
// interpretation is left to the caller that drains ListEnabled).
func (s *Scheduler) Schedule(ctx context.Context, bindingID uint64, frequency string, enabled bool) error {
	return s.schedules.Upsert(ctx, &models.JobSchedule{BindingID: bindingID, Frequency: frequency, Enabled: enabled})
}

// Due returns every enabled schedule so the caller can decide which are due
// to run and enqueue a SyncJob for each.
func (s *Scheduler) Due(ctx context.Context) ([]*models.JobSchedule, error) {
	return s.schedules.ListEnabled(ctx)
}

package main

import (
	"context"
	"time"

	"selecta/clients/platform"
	"selecta/jobqueue"
	"selecta/ratelimit"
	"selecta/repository"
	"selecta/sync"
	"selecta/types/models"
	"selecta/utils/logger"
)

// syncRunner turns a due JobSchedule into a SyncJob that runs the full
// detect → plan → execute pipeline for one binding, the way the composition
// root would drive it in the absence of the HTTP/CLI front-end (out of
// scope for this core per spec.md §1).
type syncRunner struct {
	bindings  repository.BindingRepository
	playlists repository.PlaylistRepository
	adapters  map[models.Platform]platform.Adapter
	detector  *sync.Detector
	planner   *sync.Planner
	executor  *sync.Executor
	limiter   *ratelimit.Limiter
	jobRuns   repository.JobRunRepository
}

// pollSchedule wakes every 30 seconds, asks the Scheduler for its due
// schedules (every enabled JobSchedule; Frequency is not consulted), and
// enqueues one SyncJob per returned binding.
func (r *syncRunner) pollSchedule(ctx context.Context, scheduler *jobqueue.Scheduler, queue *jobqueue.Queue) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	log := logger.LoggerFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due, err := scheduler.Due(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to list due schedules")
				continue
			}
			for _, schedule := range due {
				r.enqueueBinding(ctx, queue, schedule.BindingID)
			}
		}
	}
}

func (r *syncRunner) enqueueBinding(ctx context.Context, queue *jobqueue.Queue, bindingID uint64) {
	binding, err := r.bindings.GetByID(ctx, bindingID)
	if err != nil {
		return
	}
	adapter, ok := r.adapters[binding.Platform]
	if !ok {
		return
	}

	job := jobqueue.NewSyncJob(bindingID, adapter.Name(), false, nil)
	job.Run = func(ctx context.Context) error {
		return r.runOne(ctx, binding, adapter, job.ID)
	}
	queue.Enqueue(job)
}

// runOne executes one full sync pass for binding: detect the three-way
// diff, plan changes, filter by sync mode, and apply the selected subset.
// The Detect step runs through the rate limiter; Executor.Apply calls the
// adapter directly, without the rate limiter's token bucket, breaker or
// retry.
func (r *syncRunner) runOne(ctx context.Context, binding *models.PlaylistPlatformBinding, adapter platform.Adapter, jobID string) error {
	playlist, err := r.playlists.GetByID(ctx, binding.PlaylistID)
	if err != nil {
		return err
	}

	run := &models.JobRun{
		JobID:     jobID,
		BindingID: binding.ID,
		Status:    models.JobStatusRunning,
		StartedAt: time.Now(),
	}
	_ = r.jobRuns.Create(ctx, run)

	var diff sync.Diff
	err = r.limiter.Do(ctx, adapter.Name(), func(ctx context.Context) error {
		var detectErr error
		diff, detectErr = r.detector.Detect(ctx, binding, adapter)
		return detectErr
	})
	if err != nil {
		r.finishRun(ctx, run, models.JobStatusFailed, err)
		return err
	}

	changes := r.planner.Plan(binding, diff)
	events := make(chan models.ProgressEvent, len(changes))

	result, err := r.executor.Apply(ctx, binding, playlist, adapter, changes, events)
	close(events)
	if err != nil {
		r.finishRun(ctx, run, models.JobStatusFailed, err)
		return err
	}

	run.AppliedCount = result.Applied
	run.SkippedCount = result.Skipped
	run.FailedCount = result.Failed
	if result.Failed > 0 {
		r.finishRun(ctx, run, models.JobStatusFailed, nil)
	} else {
		r.finishRun(ctx, run, models.JobStatusCompleted, nil)
	}
	return nil
}

func (r *syncRunner) finishRun(ctx context.Context, run *models.JobRun, status models.JobStatus, err error) {
	now := time.Now()
	run.Status = status
	run.FinishedAt = &now
	if err != nil {
		run.FailureMessage = err.Error()
	}
	_ = r.jobRuns.Update(ctx, run)
}

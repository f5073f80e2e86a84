// Package jobqueue is the Job Queue half of L8: a suture-supervised
// bounded worker pool that runs SyncJob units with FIFO-plus-priority
// ordering, bounded global and per-adapter concurrency, and cooperative
// cancellation (spec.md §4.8).
package jobqueue

import (
	"container/list"
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/thejerf/suture/v4"

	"selecta/utils/logger"
)

// SyncJob is one unit of work: apply the plan for a single playlist binding.
// Run is supplied by the caller (the composition root) and must respect
// ctx cancellation at every suspension point (spec.md §5).
type SyncJob struct {
	ID        string
	BindingID uint64
	Adapter   string
	Priority  bool // true jumps the FIFO queue (spec.md §4.8 "priority overrides")
	Run       func(ctx context.Context) error
}

// NewSyncJob constructs a SyncJob with a fresh id.
func NewSyncJob(bindingID uint64, adapter string, priority bool, run func(ctx context.Context) error) SyncJob {
	return SyncJob{ID: uuid.NewString(), BindingID: bindingID, Adapter: adapter, Priority: priority, Run: run}
}

// Queue is the Job Queue: bounded global concurrency, bounded per-adapter
// concurrency, FIFO ordering with priority override.
type Queue struct {
	globalConcurrency int
	perAdapterLimit   int

	mu           sync.Mutex
	pending      *list.List // of SyncJob
	inFlight     int
	perAdapterUp map[string]int
	cancelFuncs  map[string]context.CancelFunc

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewQueue constructs a Queue with the given concurrency bounds
// (spec.md §6 defaults: global 2, per-adapter 1).
func NewQueue(globalConcurrency, perAdapterLimit int) *Queue {
	if globalConcurrency <= 0 {
		globalConcurrency = 2
	}
	if perAdapterLimit <= 0 {
		perAdapterLimit = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		globalConcurrency: globalConcurrency,
		perAdapterLimit:   perAdapterLimit,
		pending:           list.New(),
		perAdapterUp:      make(map[string]int),
		cancelFuncs:       make(map[string]context.CancelFunc),
		wake:              make(chan struct{}, 1),
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Serve implements suture.Service: it runs the dispatch loop until ctx is
// cancelled, draining in-flight jobs' cancellation along with it.
func (q *Queue) Serve(ctx context.Context) error {
	log := logger.LoggerFromContext(ctx)
	log.Info().Msg("job queue dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			q.Stop()
			return suture.ErrDoNotRestart
		case <-q.wake:
			q.dispatch(ctx)
		}
	}
}

// Enqueue adds job to the queue, jumping ahead of non-priority jobs if
// job.Priority is set (spec.md §4.8 "priority overrides allow a foreground
// user-initiated job to jump the queue").
func (q *Queue) Enqueue(job SyncJob) {
	q.mu.Lock()
	if job.Priority {
		q.pending.PushFront(job)
	} else {
		q.pending.PushBack(job)
	}
	q.mu.Unlock()
	q.nudge()
}

// Cancel cancels an in-flight or pending job by id. Cancellation is
// cooperative: Run must observe ctx.Done() to actually stop
// (spec.md §5 "Cancellation").
func (q *Queue) Cancel(jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if cancel, ok := q.cancelFuncs[jobID]; ok {
		cancel()
		return true
	}
	for e := q.pending.Front(); e != nil; e = e.Next() {
		if e.Value.(SyncJob).ID == jobID {
			q.pending.Remove(e)
			return true
		}
	}
	return false
}

// Stop cancels every in-flight job — used when the Safety Gate's emergency
// stop fires and "all pending jobs are drained" (spec.md §4.9).
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, cancel := range q.cancelFuncs {
		cancel()
	}
	q.pending.Init()
}

func (q *Queue) nudge() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// dispatch pulls as many eligible jobs off the pending list as current
// concurrency bounds allow and runs each in its own goroutine.
func (q *Queue) dispatch(parent context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for e := q.pending.Front(); e != nil; {
		if q.inFlight >= q.globalConcurrency {
			break
		}
		job := e.Value.(SyncJob)
		if q.perAdapterUp[job.Adapter] >= q.perAdapterLimit {
			e = e.Next()
			continue
		}

		next := e.Next()
		q.pending.Remove(e)
		e = next

		q.inFlight++
		q.perAdapterUp[job.Adapter]++
		jobCtx, cancel := context.WithCancel(parent)
		q.cancelFuncs[job.ID] = cancel

		go q.run(job, jobCtx)
	}
}

func (q *Queue) run(job SyncJob, ctx context.Context) {
	jobCtx, log := logger.WithJobID(ctx, job.ID)
	err := job.Run(jobCtx)
	if err != nil {
		log.Warn().Err(err).Msg("sync job failed")
	}

	q.mu.Lock()
	q.inFlight--
	q.perAdapterUp[job.Adapter]--
	delete(q.cancelFuncs, job.ID)
	q.mu.Unlock()
	q.nudge()
}

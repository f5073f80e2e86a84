package models

import "time"

// JobStatus mirrors the teacher's scheduler job-run status enum, reused here
// for SyncJob executions (SPEC_FULL.md "Supplemented feature: job summary").
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusStopped   JobStatus = "stopped"
)

// JobRun records one execution of a SyncJob against one binding, carrying
// the {applied_count, skipped_count, failed_count} summary spec.md §7
// requires every job to end with.
type JobRun struct {
	BaseModel
	JobID          string     `json:"jobId" gorm:"uniqueIndex;not null"`
	BindingID      uint64     `json:"bindingId" gorm:"index;not null"`
	Status         JobStatus  `json:"status" gorm:"not null"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	AppliedCount   int        `json:"appliedCount" gorm:"not null;default:0"`
	SkippedCount   int        `json:"skippedCount" gorm:"not null;default:0"`
	FailedCount    int        `json:"failedCount" gorm:"not null;default:0"`
	FailureMessage string     `json:"failureMessage,omitempty"`
}

func (JobRun) TableName() string { return "job_runs" }

// JobSchedule is a recurring sync schedule for one binding, mirroring the
// teacher's JobSchedule model (types/models/job.go).
type JobSchedule struct {
	BaseModel
	BindingID   uint64     `json:"bindingId" gorm:"uniqueIndex;not null"`
	Frequency   string     `json:"frequency" gorm:"not null"`
	Enabled     bool       `json:"enabled" gorm:"not null;default:true"`
	LastRunTime *time.Time `json:"lastRunTime,omitempty"`
}

func (JobSchedule) TableName() string { return "job_schedules" }

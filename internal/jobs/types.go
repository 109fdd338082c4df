// Package jobs defines the asynchronous statement-import job model and the
// queue abstractions it travels through.
package jobs

import (
	"context"
	"time"
)

// JobType discriminates job payloads on the queue.
type JobType string

const JobTypeImportStatement JobType = "import_statement"

// JobStatus tracks a job through its lifecycle. Transitions are
// pending -> running -> completed, or running -> retrying -> running on
// transient failure, ending in failed once retries are exhausted.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ImportStatementJob imports one monthly statement file into the ledger.
// Exactly one of GCSURI and LocalPath identifies the source file.
type ImportStatementJob struct {
	JobID     string `json:"job_id"`
	AccountID string `json:"account_id"`
	GCSURI    string `json:"gcs_uri,omitempty"`
	LocalPath string `json:"local_path,omitempty"`

	// Recategorize re-runs classification over previously auto-categorized
	// rows of the statement's fiscal year after the import lands.
	Recategorize bool `json:"recategorize"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

func (j *ImportStatementJob) GetID() string        { return j.JobID }
func (j *ImportStatementJob) GetType() JobType     { return JobTypeImportStatement }
func (j *ImportStatementJob) GetStatus() JobStatus { return j.Status }

// Job is what a JobHandler receives; concrete types carry the payload.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// JobHandler processes one job. A non-nil error requeues the job until
// MaxRetries is reached.
type JobHandler func(ctx context.Context, job Job) error

// Publisher enqueues import jobs.
type Publisher interface {
	PublishImportStatement(ctx context.Context, job *ImportStatementJob) error
	Close() error
}

// Consumer drains the queue. Stop waits for in-flight jobs until ctx is done.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobStore persists job state so callers can poll import progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *ImportStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ImportStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportStatementJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs results. Zero values mean "any".
type JobFilter struct {
	AccountID string
	Status    JobStatus
	Limit     int
	Offset    int
}

// Package inmemory provides channel-backed queue and map-backed store
// implementations of the jobs interfaces. State lives in process memory,
// which is enough for a single worker instance; nothing survives a restart.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/hoa-ledger/internal/jobs"
)

// Store keeps import jobs in a map guarded by a RWMutex. Every job that
// crosses the API boundary is copied, so callers can never mutate stored
// state through a returned pointer.
type Store struct {
	mu   sync.RWMutex
	byID map[string]*jobs.ImportStatementJob
}

func NewStore() *Store {
	return &Store{byID: make(map[string]*jobs.ImportStatementJob)}
}

func (s *Store) SaveJob(ctx context.Context, job *jobs.ImportStatementJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: missing job id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[job.JobID] = clone(job)
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ImportStatementJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob: no job with id %s", jobID)
	}
	return clone(job), nil
}

// ListJobs returns matching jobs newest first. Ties on creation time break
// on job ID so the order is stable across calls.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ImportStatementJob, error) {
	s.mu.RLock()
	out := make([]*jobs.ImportStatementJob, 0)
	for _, job := range s.byID {
		if matches(job, filter) {
			out = append(out, clone(job))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].JobID < out[j].JobID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*jobs.ImportStatementJob{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus: no job with id %s", jobID)
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

func matches(job *jobs.ImportStatementJob, f jobs.JobFilter) bool {
	if f.AccountID != "" && job.AccountID != f.AccountID {
		return false
	}
	if f.Status != "" && job.Status != f.Status {
		return false
	}
	return true
}

func clone(job *jobs.ImportStatementJob) *jobs.ImportStatementJob {
	c := *job
	return &c
}

var _ jobs.JobStore = (*Store)(nil)

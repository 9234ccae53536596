package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/finance-coach/internal/jobs"
)

// Store is an in-memory implementation of JobStore.
// Data is lost on service restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ReportJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.ReportJob),
	}
}

// SaveJob saves or updates a job in memory.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ReportJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("GetJob: job not found: %s", jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs retrieves jobs with optional filtering.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.ReportJob
	for _, job := range s.jobs {
		if filter.AccountKey != "" && job.AccountKey != filter.AccountKey {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.ReportJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

var _ jobs.JobStore = (*Store)(nil)

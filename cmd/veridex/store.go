// cmd/veridex/store.go
package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an async verification job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job tracks one submitted claim through the pipeline.
type Job struct {
	ID        uuid.UUID      `json:"job_id"`
	Status    JobStatus      `json:"status"`
	Stage     string         `json:"stage,omitempty"`
	Request   RunRequest     `json:"request"`
	Result    *PipelineState `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// JobStore holds jobs in memory with a TTL measured from last update.
type JobStore struct {
	jobs  map[uuid.UUID]*Job
	mutex sync.RWMutex
	ttl   time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[uuid.UUID]*Job),
		ttl:  ttl,
	}
}

// Create registers a new queued job. The job id doubles as the claim id so
// results carry the same identity the API handed out.
func (s *JobStore) Create(req RunRequest) *Job {
	now := time.Now().UTC()
	id := uuid.New()
	req.ClaimID = id.String()
	job := &Job{
		ID:        id,
		Status:    JobStatusQueued,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.jobs[job.ID] = job
	return job
}

// Get returns a copy of the job so callers never see mid-update state.
func (s *JobStore) Get(id uuid.UUID) (*Job, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

// SetStage records pipeline progress for a running job.
func (s *JobStore) SetStage(id uuid.UUID, stage string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if job, ok := s.jobs[id]; ok {
		job.Status = JobStatusRunning
		job.Stage = stage
		job.UpdatedAt = time.Now().UTC()
	}
}

// Complete stores the final pipeline state for a job.
func (s *JobStore) Complete(id uuid.UUID, result *PipelineState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if job, ok := s.jobs[id]; ok {
		job.Status = JobStatusCompleted
		job.Stage = "Completed"
		job.Result = result
		job.UpdatedAt = time.Now().UTC()
	}
}

// Fail marks a job as failed with the given reason.
func (s *JobStore) Fail(id uuid.UUID, reason string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if job, ok := s.jobs[id]; ok {
		job.Status = JobStatusFailed
		job.Stage = "Failed"
		job.Error = reason
		job.UpdatedAt = time.Now().UTC()
	}
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.jobs)
}

// Sweep removes jobs idle past the TTL and returns how many were dropped.
func (s *JobStore) Sweep() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().UTC().Add(-s.ttl)
	removed := 0
	for id, job := range s.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

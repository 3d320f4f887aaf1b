package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of a comparison job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusComparing JobStatus = "comparing"
	StatusEnriching JobStatus = "enriching"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single document comparison.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	RunID string `json:"run_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	FilenameA string `json:"filename_a"`
	FilenameB string `json:"filename_b"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileDataA []byte
	fileDataB []byte
	errors    []string
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetRunID records the persisted run this job produced.
func (j *Job) SetRunID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.RunID = id
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw upload bytes for both versions.
func (j *Job) SetFileData(versionA, versionB []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileDataA = versionA
	j.fileDataB = versionB
}

// FileData returns the raw upload bytes for both versions.
func (j *Job) FileData() (versionA, versionB []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileDataA, j.fileDataB
}

// clearFileData drops the upload bytes once they are no longer needed so
// finished jobs do not pin whole documents in memory until TTL eviction.
func (j *Job) clearFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileDataA = nil
	j.fileDataB = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	RunID     string    `json:"run_id,omitempty"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	FilenameA string    `json:"filename_a"`
	FilenameB string    `json:"filename_b"`
	Errors    []string  `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:        j.ID,
		RunID:     j.RunID,
		Status:    j.Status,
		Phase:     j.Phase,
		FilenameA: j.FilenameA,
		FilenameB: j.FilenameB,
		Errors:    errs,
	}
}

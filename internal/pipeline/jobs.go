package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/listingest/internal/extract"
	"github.com/google/uuid"
)

// JobStatus represents the state of a parse job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusReading     JobStatus = "reading"
	StatusChunking    JobStatus = "chunking"
	StatusSegmenting  JobStatus = "segmenting"
	StatusStructuring JobStatus = "structuring"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Job tracks one uploaded file through the pipeline. It implements Tracker.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	listings []extract.Listing
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalChunks        int      `json:"total_chunks"`
	ChunksSegmented    int      `json:"chunks_segmented"`
	TotalDescriptions  int      `json:"total_descriptions"`
	ListingsStructured int      `json:"listings_structured"`
	Errors             []string `json:"errors"`
}

// NewJob creates a queued job holding the uploaded bytes.
func NewJob(filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed. Phase keeps the step that failed.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.Progress.Errors = j.errors
	j.Status = StatusFailed
	j.UpdatedAt = time.Now()
}

// Complete stores the listings and marks the job completed.
func (j *Job) Complete(listings []extract.Listing) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.listings = listings
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

func (j *Job) SetTotalChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = n
	j.UpdatedAt = time.Now()
}

func (j *Job) IncrChunksSegmented() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksSegmented++
	j.UpdatedAt = time.Now()
}

func (j *Job) SetTotalDescriptions(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalDescriptions = n
	j.UpdatedAt = time.Now()
}

func (j *Job) IncrListingsStructured() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ListingsStructured++
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Listings returns the extracted listings; nil until the job completes.
func (j *Job) Listings() []extract.Listing {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.listings
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string            `json:"job_id"`
	Status      JobStatus         `json:"status"`
	Phase       string            `json:"phase"`
	Filename    string            `json:"filename"`
	Title       string            `json:"title"`
	Progress    Progress          `json:"progress"`
	ContentHash string            `json:"content_hash,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Listings    []extract.Listing `json:"listings,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state. Listings are included
// once the job has completed.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	snap := JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		Progress: Progress{
			TotalChunks:        j.Progress.TotalChunks,
			ChunksSegmented:    j.Progress.ChunksSegmented,
			TotalDescriptions:  j.Progress.TotalDescriptions,
			ListingsStructured: j.Progress.ListingsStructured,
			Errors:             errs,
		},
	}
	if j.Status == StatusCompleted {
		snap.Listings = append([]extract.Listing{}, j.listings...)
	}
	return snap
}

// setDocumentInfo records the parsed document's hash, and its title when the
// upload did not name one.
func (j *Job) setDocumentInfo(title, hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Title == "" {
		j.Title = title
	}
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// Package pipeline runs asynchronous page-digest jobs: read the snapshot,
// chunk it, summarize, extract keywords. Jobs are in-memory with TTL
// eviction — a digest is a regenerable projection of the page, so nothing
// here needs to survive a restart.
package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/mbrennan/marginalia/internal/llm"
	"github.com/mbrennan/marginalia/internal/reader"
	"github.com/mbrennan/marginalia/internal/textproc"
)

// JobStatus is the state of a digest job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusReading     JobStatus = "reading"
	StatusChunking    JobStatus = "chunking"
	StatusSummarizing JobStatus = "summarizing"
	StatusKeywords    JobStatus = "keywords"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Digest is the finished product: a page-level summary and keyword list
// with their provenance.
type Digest struct {
	Title          string             `json:"title"`
	Summary        string             `json:"summary"`
	SummarySource  llm.Source         `json:"summary_source"`
	Keywords       []textproc.Keyword `json:"keywords"`
	KeywordsSource llm.Source         `json:"keywords_source"`
}

// Progress tracks how far a job has come.
type Progress struct {
	TotalChunks      int      `json:"total_chunks"`
	ChunksSummarized int      `json:"chunks_summarized"`
	Errors           []string `json:"errors"`
}

// Job tracks one page digest from submission to completion.
type Job struct {
	mu sync.Mutex

	ID  string `json:"job_id"`
	URL string `json:"url"`

	Status   JobStatus `json:"status"`
	Progress Progress  `json:"progress"`
	Digest   *Digest   `json:"digest,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	snapshot []byte
	format   reader.Format
	errors   []string
}

// NewJob builds a queued job for a page snapshot. The id is derived from
// the content and URL, so resubmitting the same page yields the same id.
func NewJob(url string, snapshot []byte, format reader.Format) *Job {
	now := time.Now()
	return &Job{
		ID:        ContentHashHex(append([]byte(url+"\x00"), snapshot...))[:20],
		URL:       url,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		snapshot:  snapshot,
		format:    format,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// AddError records a non-fatal problem.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalChunks records the chunk count for progress reporting.
func (j *Job) SetTotalChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = n
	j.UpdatedAt = time.Now()
}

// IncrChunksSummarized bumps the per-chunk progress counter.
func (j *Job) IncrChunksSummarized() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksSummarized++
	j.UpdatedAt = time.Now()
}

// SetDigest attaches the finished digest.
func (j *Job) SetDigest(d *Digest) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Digest = d
	j.UpdatedAt = time.Now()
}

// Snapshot returns a read-only, JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	snap := JobSnapshot{
		ID:     j.ID,
		URL:    j.URL,
		Status: j.Status,
		Progress: Progress{
			TotalChunks:      j.Progress.TotalChunks,
			ChunksSummarized: j.Progress.ChunksSummarized,
			Errors:           errs,
		},
	}
	if j.Digest != nil {
		d := *j.Digest
		snap.Digest = &d
	}
	return snap
}

// JobSnapshot is the API-facing view of a job.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	URL      string    `json:"url"`
	Status   JobStatus `json:"status"`
	Progress Progress  `json:"progress"`
	Digest   *Digest   `json:"digest,omitempty"`
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

// Cleanup removes jobs idle past the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		stale := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if stale {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes the SHA-256 of data as a hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

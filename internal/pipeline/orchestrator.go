package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Orchestrator owns the job queue and worker pool.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	workers int
	svc     Summarizer

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewOrchestrator builds the pipeline. svc provides the summarize and
// keyword operations (llm.Service in production).
func NewOrchestrator(svc Summarizer, workers, queueSize int, jobTTL time.Duration) *Orchestrator {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 50
	}
	return &Orchestrator{
		jobs:    NewJobStore(jobTTL),
		queue:   make(chan *Job, queueSize),
		workers: workers,
		svc:     svc,
	}
}

// Start launches the workers and the TTL cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.workers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.svc)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job := <-o.queue:
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop shuts the pipeline down and waits for in-flight jobs. The queue
// channel stays open so a Submit racing the shutdown fails cleanly instead
// of panicking; queued jobs that no worker picked up are simply abandoned.
func (o *Orchestrator) Stop() {
	o.stopped.Store(true)
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a job. A full queue or a stopped pipeline fails the job
// immediately rather than blocking the HTTP handler.
func (o *Orchestrator) Submit(job *Job) error {
	if o.stopped.Load() {
		job.SetStatus(StatusFailed)
		job.AddError("pipeline stopped")
		return errors.New("pipeline is shutting down")
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed)
		job.AddError("queue full")
		return fmt.Errorf("job queue is full (%d)", cap(o.queue))
	}
}

// GetJob returns a job by id, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pagetext/docchunk/internal/chunker"
	"github.com/pagetext/docchunk/internal/config"
	"github.com/pagetext/docchunk/internal/fetch"
	"github.com/pagetext/docchunk/internal/reader"
)

// Orchestrator manages the document chunking pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	fetcher *fetch.Client
	log     *slog.Logger
	cfg     config.Config
	stats   *ProcStats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Start launches its workers.
func NewOrchestrator(cfg config.Config, fetcher *fetch.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		fetcher: fetcher,
		log:     log,
		cfg:     cfg,
		stats:   NewProcStats(time.Hour),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.fetcher, o.log, o.ReaderOptions(), o.stats)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
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

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats exposes the processing counters for the API layer.
func (o *Orchestrator) Stats() *ProcStats {
	return o.stats
}

// ChunkConfig returns the configured splitting defaults.
func (o *Orchestrator) ChunkConfig() chunker.Config {
	return chunker.Config{
		ChunkSize: o.cfg.DefaultChunkSize,
		Overlap:   o.cfg.DefaultOverlap,
	}
}

// ReaderOptions returns the configured document reader options.
func (o *Orchestrator) ReaderOptions() reader.Options {
	return reader.Options{PDFFallback: o.cfg.PDFFallbackPDFCPU}
}

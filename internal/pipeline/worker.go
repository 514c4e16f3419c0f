package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pagetext/docchunk/internal/chunker"
	"github.com/pagetext/docchunk/internal/fetch"
	"github.com/pagetext/docchunk/internal/reader"
)

// Worker processes a single document job.
type Worker struct {
	fetcher    *fetch.Client
	log        *slog.Logger
	readerOpts reader.Options
	stats      *ProcStats
}

func NewWorker(fetcher *fetch.Client, log *slog.Logger, opts reader.Options, stats *ProcStats) *Worker {
	return &Worker{
		fetcher:    fetcher,
		log:        log,
		readerOpts: opts,
		stats:      stats,
	}
}

// Process runs the full chunking pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	started := time.Now()

	// Phase 1: materialize the document on disk.
	var path string
	var cleanup func()
	var err error
	if job.SourceURL != "" {
		job.SetStatus(StatusFetching, "downloading document")
		path, cleanup, err = w.fetchWithRetry(ctx, job)
		if err != nil {
			log.Error("fetch failed", "url", job.SourceURL, "error", err)
			job.AddError(fmt.Sprintf("fetch: %s", err))
			job.SetStatus(StatusFailed, "fetching")
			w.stats.RecordFailure()
			return
		}
		if data, readErr := os.ReadFile(path); readErr == nil {
			job.SetContentHash(ContentHashHex(data))
		}
	} else {
		path, cleanup, err = w.stageUpload(job)
		if err != nil {
			log.Error("staging failed", "error", err)
			job.AddError(fmt.Sprintf("stage: %s", err))
			job.SetStatus(StatusFailed, "staging")
			w.stats.RecordFailure()
			return
		}
	}
	defer cleanup()

	// Phase 2: page texts, in source order.
	job.SetStatus(StatusProcessing, "extracting pages")
	pages, err := ExtractPages(path, w.readerOpts)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "processing")
		w.stats.RecordFailure()
		return
	}
	job.SetPages(len(pages))

	// Phase 3: one split pass over the whole page sequence. An empty document
	// completes with zero chunks.
	job.SetStatus(StatusProcessing, "splitting into chunks")
	chunks := chunker.Split(pages, job.ChunkCfg)
	job.SetChunks(chunks)

	log.Info("document chunked", "pages", len(pages), "chunks", len(chunks))
	job.SetStatus(StatusCompleted, "done")
	w.stats.RecordSuccess(time.Since(started).Milliseconds(), len(chunks))
}

// fetchWithRetry downloads the job's source URL, retrying transient failures
// with backoff.
func (w *Worker) fetchWithRetry(ctx context.Context, job *Job) (string, func(), error) {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		path, cleanup, err := w.fetcher.Fetch(ctx, job.SourceURL)
		if err == nil {
			return path, cleanup, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", nil, err
		}
		w.log.Warn("retryable fetch error", "job_id", job.ID, "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}
	return "", nil, lastErr
}

// stageUpload writes uploaded bytes to a temp file whose name keeps the
// original extension so the reader can detect the format.
func (w *Worker) stageUpload(job *Job) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(job.Filename))
	f, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	_, err = f.Write(job.FileData())
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

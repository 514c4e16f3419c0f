package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pagetext/docchunk/internal/chunker"
	"github.com/pagetext/docchunk/internal/fetch"
	"github.com/pagetext/docchunk/internal/reader"
)

func newTestWorker() (*Worker, *ProcStats) {
	stats := NewProcStats(time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := fetch.NewClient(5*time.Second, 1<<20)
	return NewWorker(fetcher, log, reader.Options{}, stats), stats
}

func TestWorker_ProcessUploadJob(t *testing.T) {
	w, stats := newTestWorker()

	job := &Job{
		ID:        NewJobID(),
		Status:    StatusQueued,
		Filename:  "notes.txt",
		ChunkCfg:  chunker.DefaultConfig(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData([]byte("alpha beta\fgamma delta"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", snap.Progress.Pages)
	}
	chunks := job.Chunks()
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "alpha beta gamma delta" {
		t.Errorf("expected joined text, got %q", chunks[0].Text)
	}
	if len(chunks[0].Pages) != 2 || chunks[0].Pages[0] != 1 || chunks[0].Pages[1] != 2 {
		t.Errorf("expected pages [1 2], got %v", chunks[0].Pages)
	}

	statsSnap := stats.Snapshot()
	if statsSnap.Succeeded != 1 {
		t.Errorf("expected 1 succeeded, got %d", statsSnap.Succeeded)
	}
	if statsSnap.Chunks != 1 {
		t.Errorf("expected 1 chunk recorded, got %d", statsSnap.Chunks)
	}
}

func TestWorker_ProcessUnsupportedUpload(t *testing.T) {
	w, stats := newTestWorker()

	job := &Job{
		ID:        NewJobID(),
		Status:    StatusQueued,
		Filename:  "image.png",
		ChunkCfg:  chunker.DefaultConfig(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData([]byte("not a document"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected recorded error")
	}
	if stats.Snapshot().Failed != 1 {
		t.Errorf("expected 1 failed, got %d", stats.Snapshot().Failed)
	}
}

func TestWorker_ProcessURLJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote page text"))
	}))
	defer srv.Close()

	w, _ := newTestWorker()

	job := &Job{
		ID:        NewJobID(),
		Status:    StatusQueued,
		Filename:  "report.txt",
		SourceURL: srv.URL + "/report.txt",
		ChunkCfg:  chunker.DefaultConfig(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.ContentHash == "" {
		t.Error("expected content hash for fetched document")
	}
	chunks := job.Chunks()
	if len(chunks) != 1 || chunks[0].Text != "remote page text" {
		t.Errorf("expected fetched text chunk, got %v", chunks)
	}
}

func TestWorker_ProcessEmptyUploadCompletes(t *testing.T) {
	w, _ := newTestWorker()

	job := &Job{
		ID:        NewJobID(),
		Status:    StatusQueued,
		Filename:  "blank.txt",
		ChunkCfg:  chunker.DefaultConfig(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData([]byte(""))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected empty document to complete, got %q", snap.Status)
	}
	if snap.Progress.Chunks != 0 {
		t.Errorf("expected 0 chunks, got %d", snap.Progress.Chunks)
	}
}

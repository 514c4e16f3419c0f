package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pagetext/docchunk/internal/config"
	"github.com/pagetext/docchunk/internal/doc"
	"github.com/pagetext/docchunk/internal/fetch"
	"github.com/pagetext/docchunk/internal/pipeline"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T, startWorkers bool) *Server {
	t.Helper()
	cfg := config.Config{
		Port:              "0",
		DocchunkAPIKey:    testAPIKey,
		WorkerCount:       2,
		MaxQueueSize:      10,
		MaxUploadBytes:    1 << 20,
		DefaultChunkSize:  2048,
		DefaultOverlap:    128,
		JobTTL:            time.Hour,
		PDFFallbackPDFCPU: true,
		FetchTimeout:      5 * time.Second,
		MaxFetchBytes:     1 << 20,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := fetch.NewClient(cfg.FetchTimeout, cfg.MaxFetchBytes)
	orch := pipeline.NewOrchestrator(cfg, fetcher, log)
	if startWorkers {
		orch.Start(context.Background())
		t.Cleanup(orch.Stop)
	}
	return NewServer(orch, log, cfg)
}

func multipartBody(t *testing.T, field, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func waitForCompleted(t *testing.T, srv *Server, jobID string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/ingest/"+jobID+"/status", nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status poll returned %d: %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		var snap struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal([]byte(body), &snap); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		switch snap.Status {
		case string(pipeline.StatusCompleted):
			return
		case string(pipeline.StatusFailed):
			t.Fatalf("job failed: %s", body)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never completed", jobID)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("expected ok body, got %s", rec.Body.String())
	}
}

func TestServer_AuthRequired(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestServer_Formats(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/formats", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Formats []string `json:"formats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := strings.Join(resp.Formats, " ")
	for _, want := range []string{".pdf", ".txt", ".md", ".docx"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in formats, got %v", want, resp.Formats)
		}
	}
}

func TestServer_ChunkSynchronous(t *testing.T) {
	srv := newTestServer(t, false)

	body, contentType := multipartBody(t, "file", "report.txt", []byte("hello world from page one"), nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/chunk", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Count  int         `json:"count"`
		Pages  int         `json:"pages"`
		Chunks []doc.Chunk `json:"chunks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || len(resp.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got count=%d len=%d", resp.Count, len(resp.Chunks))
	}
	if resp.Pages != 1 {
		t.Errorf("expected 1 page, got %d", resp.Pages)
	}
	if resp.Chunks[0].Text != "hello world from page one" {
		t.Errorf("expected original text, got %q", resp.Chunks[0].Text)
	}
	if len(resp.Chunks[0].Pages) != 1 || resp.Chunks[0].Pages[0] != 1 {
		t.Errorf("expected pages [1], got %v", resp.Chunks[0].Pages)
	}
}

func TestServer_ChunkOverrides(t *testing.T) {
	srv := newTestServer(t, false)

	body, contentType := multipartBody(t, "file", "tiny.txt", []byte("aa bb"), map[string]string{
		"chunk_size": "5",
		"overlap":    "0",
	})
	req := authed(httptest.NewRequest(http.MethodPost, "/api/chunk", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ChunkSize int         `json:"chunk_size"`
		Overlap   int         `json:"overlap"`
		Chunks    []doc.Chunk `json:"chunks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ChunkSize != 5 {
		t.Errorf("expected chunk_size 5, got %d", resp.ChunkSize)
	}
	if resp.Overlap != 0 {
		t.Errorf("expected overlap 0, got %d", resp.Overlap)
	}
	if len(resp.Chunks) != 2 || resp.Chunks[0].Text != "aa" || resp.Chunks[1].Text != "bb" {
		t.Errorf("expected chunks [aa bb], got %v", resp.Chunks)
	}
}

func TestServer_ChunkUnsupportedType(t *testing.T) {
	srv := newTestServer(t, false)

	body, contentType := multipartBody(t, "file", "image.png", []byte("binary"), nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/chunk", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported file type") {
		t.Errorf("expected unsupported type error, got %s", rec.Body.String())
	}
}

func TestServer_IngestAsyncFlow(t *testing.T) {
	srv := newTestServer(t, true)

	body, contentType := multipartBody(t, "file", "pages.txt", []byte("alpha beta\fgamma"), nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted.JobID == "" {
		t.Fatal("expected job id")
	}
	if !strings.Contains(accepted.PollURL, accepted.JobID) {
		t.Errorf("expected poll url to contain job id, got %s", accepted.PollURL)
	}

	waitForCompleted(t, srv, accepted.JobID)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/ingest/"+accepted.JobID+"/chunks", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Count  int         `json:"count"`
		Chunks []doc.Chunk `json:"chunks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 chunk, got %d", result.Count)
	}
	if result.Chunks[0].Text != "alpha beta gamma" {
		t.Errorf("expected joined text, got %q", result.Chunks[0].Text)
	}
	if len(result.Chunks[0].Pages) != 2 {
		t.Errorf("expected 2 pages attributed, got %v", result.Chunks[0].Pages)
	}
}

func TestServer_IngestChunksConflictWhileQueued(t *testing.T) {
	// Workers never started, so the job stays queued.
	srv := newTestServer(t, false)

	body, contentType := multipartBody(t, "file", "doc.txt", []byte("text"), nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var accepted struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/ingest/"+accepted.JobID+"/chunks", nil)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for running job, got %d", rec.Code)
	}
}

func TestServer_IngestStatusNotFound(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/ingest/NO-SUCH-JOB/status", nil)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServer_IngestURLFlow(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote document body"))
	}))
	defer remote.Close()

	srv := newTestServer(t, true)

	payload := `{"url":"` + remote.URL + `/doc.txt"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest/url", strings.NewReader(payload)))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var accepted struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}

	waitForCompleted(t, srv, accepted.JobID)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/ingest/"+accepted.JobID+"/chunks", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result struct {
		Chunks []doc.Chunk `json:"chunks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Chunks) != 1 || result.Chunks[0].Text != "remote document body" {
		t.Errorf("expected fetched chunk, got %v", result.Chunks)
	}
}

func TestServer_IngestURLRejectsBadScheme(t *testing.T) {
	srv := newTestServer(t, false)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest/url", strings.NewReader(`{"url":"ftp://host/doc.pdf"}`)))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestServer_StatsEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/stats", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		QueueDepth int `json:"queue_depth"`
		Processing struct {
			Succeeded int64 `json:"documents_succeeded"`
		} `json:"processing"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.QueueDepth != 0 {
		t.Errorf("expected empty queue, got %d", resp.QueueDepth)
	}
}

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pagetext/docchunk/internal/chunker"
	"github.com/pagetext/docchunk/internal/pipeline"
	"github.com/pagetext/docchunk/internal/reader"
)

// handleChunk splits an uploaded document synchronously and returns the
// chunks inline. Small documents only; large ones should go through the
// async ingest endpoints.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !reader.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	cfg := s.chunkConfigFromForm(r)

	// The readers dispatch on file extension, so stage the upload on disk
	// under its original extension.
	path, cleanup, err := stageBytes(data, filename)
	if err != nil {
		jsonError(w, "failed to stage file", http.StatusInternalServerError)
		return
	}
	defer cleanup()

	pages, err := pipeline.ExtractPages(path, s.orchestrator.ReaderOptions())
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	chunks := chunker.Split(pages, cfg)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename":     filename,
		"content_hash": pipeline.ContentHashHex(data),
		"chunk_size":   cfg.ChunkSize,
		"overlap":      cfg.Overlap,
		"pages":        len(pages),
		"count":        len(chunks),
		"chunks":       chunks,
	})
}

// chunkConfigFromForm reads optional chunk_size and overlap form overrides on
// top of the configured defaults. Overlap zero is a valid override.
func (s *Server) chunkConfigFromForm(r *http.Request) chunker.Config {
	cfg := s.orchestrator.ChunkConfig()
	if v := r.FormValue("chunk_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChunkSize = n
		}
	}
	if v := r.FormValue("overlap"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Overlap = n
		}
	}
	return cfg
}

// stageBytes writes data to a temp file keeping filename's extension and
// returns the path with a cleanup function.
func stageBytes(data []byte, filename string) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.CreateTemp("", "chunk-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

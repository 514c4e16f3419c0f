package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/pagetext/docchunk/internal/reader"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"processing":  s.orchestrator.Stats().Snapshot(),
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	exts := make([]string, 0, len(reader.SupportedExtensions))
	for ext := range reader.SupportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"formats": exts})
}

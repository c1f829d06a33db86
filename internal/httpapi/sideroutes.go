package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

const fileMetaPrefix = "/api/v1/relay/file-meta/"

type fileMetaResponse struct {
	Name string `json:"name"`
	Size uint64 `json:"size"`
	Type string `json:"type"`
}

// handleFileMeta implements GET /api/v1/relay/file-meta/{sender_id}, the
// one piece of core state this package is allowed to read directly per
// SPEC_FULL.md §1.
func (s *Server) handleFileMeta(w http.ResponseWriter, r *http.Request) {
	senderID := strings.TrimPrefix(r.URL.Path, fileMetaPrefix)
	if senderID == "" || senderID == r.URL.Path {
		http.NotFound(w, r)
		return
	}

	meta, ok := s.State.GetMetadata(senderID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, fileMetaResponse{Name: meta.Name, Size: meta.Size, Type: meta.MimeType})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

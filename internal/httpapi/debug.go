package httpapi

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

type debugMetadata struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	MimeType string `json:"mimeType"`
}

type debugStateResponse struct {
	RequestID string                   `json:"requestId"`
	Peers     []string                 `json:"peers"`
	Pairings  map[string]string        `json:"pairings"`
	Metadata  map[string]debugMetadata `json:"metadata"`
}

// handleDebugState implements GET /api/v1/relay/debug/state: a diagnostic,
// not-necessarily-atomic dump of relaystate.Snapshot (see the snapshot's own
// doc comment on lock ordering). Each response carries its own correlation
// id so operators can line it up against log lines for the same request.
func (s *Server) handleDebugState(w http.ResponseWriter, r *http.Request) {
	snap := s.State.Snapshot()

	meta := make(map[string]debugMetadata, len(snap.Metadata))
	for peer, m := range snap.Metadata {
		meta[peer] = debugMetadata{
			Name:     m.Name,
			Size:     humanize.Bytes(m.Size),
			MimeType: m.MimeType,
		}
	}

	writeJSON(w, http.StatusOK, debugStateResponse{
		RequestID: uuid.NewString(),
		Peers:     snap.Peers,
		Pairings:  snap.Pairings,
		Metadata:  meta,
	})
}

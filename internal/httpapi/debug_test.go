package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannyzb/filerelay/internal/queue"
	"github.com/dannyzb/filerelay/internal/relaystate"
)

func TestHandleDebugStateReportsSnapshot(t *testing.T) {
	s := newTestServer()
	s.State.AddPeer("A", queue.New())
	s.State.Pair("A", "B")
	s.State.PutMetadata("A", relaystate.FileMetadata{Name: "x.bin", Size: 2048})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/relay/debug/state", nil)
	rec := httptest.NewRecorder()
	s.handleDebugState(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp debugStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Contains(t, resp.Peers, "A")
	assert.Equal(t, "B", resp.Pairings["A"])
	assert.Equal(t, "x.bin", resp.Metadata["A"].Name)
}

func TestHandleDebugStateRequestIDsAreUnique(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/relay/debug/state", nil)

	rec1 := httptest.NewRecorder()
	s.handleDebugState(rec1, req)
	var r1 debugStateResponse
	require.NoError(t, json.Unmarshal(rec1.Body.Bytes(), &r1))

	rec2 := httptest.NewRecorder()
	s.handleDebugState(rec2, req)
	var r2 debugStateResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &r2))

	assert.NotEqual(t, r1.RequestID, r2.RequestID)
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	alog "github.com/anacrolix/log"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/dannyzb/filerelay/internal/relaystate"
)

func TestHandleRelayRootRequiresIDParam(t *testing.T) {
	s := NewServer(relaystate.New(), alog.Default, "test", rate.Limit(1000), 1000)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/relay/", nil)
	rec := httptest.NewRecorder()
	s.handleRelayRoot(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRelayRootRejectsWrongPath(t *testing.T) {
	s := NewServer(relaystate.New(), alog.Default, "test", rate.Limit(1000), 1000)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/relay/extra", nil)
	req.URL.RawQuery = "id=A"
	rec := httptest.NewRecorder()
	s.handleRelayRoot(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRelayRootEnforcesAcceptRateLimit(t *testing.T) {
	// A zero-burst, zero-rate limiter can never admit a connection attempt.
	s := NewServer(relaystate.New(), alog.Default, "test", rate.Limit(0), 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/relay/?id=A", nil)
	rec := httptest.NewRecorder()
	s.handleRelayRoot(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRoutesRegistersEveryEndpoint(t *testing.T) {
	s := NewServer(relaystate.New(), alog.Default, "test", rate.Limit(1000), 1000)
	mux := http.NewServeMux()
	s.Routes(mux)

	for _, path := range []string{
		"/api/v1/relay/ping",
		"/health",
		"/metrics",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusNotFound, rec.Code, "path %s should be routed", path)
	}
}

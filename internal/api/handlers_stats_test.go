package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kb-dashboard/backend/internal/kbclient"
	"github.com/kb-dashboard/backend/internal/statsview"
	"github.com/kb-dashboard/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatsHandler_HandleGetStats(t *testing.T) {
	s := newTestServer(t)
	s.backend.KBData = testutil.SampleKBData()

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var payload statsview.Payload
	decode(t, rec, &payload)
	assert.Equal(t, statsview.StatusReady, payload.Status)
	assert.Equal(t, 2, payload.Tiles[0].Value)
	assert.Len(t, payload.Documents, 2)
	assert.Equal(t, "2024-05-10", payload.Documents[0].Created)
	assert.Equal(t, "2024-05-12 08:15:30", payload.LastUpdated)
	assert.Equal(t, 1, s.backend.StatsCalls())
}

func TestStatsHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"backend message", &kbclient.APIError{StatusCode: 500, Message: "index offline"}, http.StatusBadGateway, "BACKEND_ERROR", "index offline"},
		{"unauthorized", &kbclient.APIError{StatusCode: 401, Message: "Not authenticated"}, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated"},
		{"timeout", kbclient.ErrTimeout, http.StatusGatewayTimeout, "TIMEOUT", kbclient.ErrTimeout.Error()},
		{"transport", errors.New("dial tcp: connection refused"), http.StatusBadGateway, "BACKEND_ERROR", "dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.backend.KBDataErr = tt.err

			rec := s.do(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var apiErr APIError
			decode(t, rec, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	s.doJSON(http.MethodPost, "/api/uploads", nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, float64(0), body["graphViews"])
	assert.Equal(t, float64(1), body["uploadFlows"])
}

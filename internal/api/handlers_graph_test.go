package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kb-dashboard/backend/internal/graphview"
	"github.com/kb-dashboard/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func createGraphView(t *testing.T, s *testServer) graphview.Snapshot {
	t.Helper()
	rec := s.doJSON(http.MethodPost, "/api/graph/views", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var snap graphview.Snapshot
	decode(t, rec, &snap)
	return snap
}

func TestGraphHandler_CreateView(t *testing.T) {
	s := newTestServer(t)
	s.backend.Graph = testutil.SampleGraph()

	snap := createGraphView(t, s)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, graphview.StatusReady, snap.Status)
	assert.Equal(t, []string{"person", "org", "place"}, snap.Categories)
	assert.ElementsMatch(t, snap.Categories, snap.Selected)
	assert.Len(t, snap.Graph.Nodes, 4)
	assert.Len(t, snap.Graph.Links, 4)
	assert.Equal(t, 1, snap.Dangling)
	assert.Equal(t, graphview.ActiveNodeColor, snap.Style.ActiveNodeColor)
	assert.Equal(t, 1, s.deps.GraphViews.Len())
}

func TestGraphHandler_CreateViewFailure(t *testing.T) {
	s := newTestServer(t)
	s.backend.GraphErr = errors.New("graph store unavailable")

	rec := s.doJSON(http.MethodPost, "/api/graph/views", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var apiErr APIError
	decode(t, rec, &apiErr)
	assert.Equal(t, "graph store unavailable", apiErr.Message)
	assert.Equal(t, 0, s.deps.GraphViews.Len())
}

func TestGraphHandler_Toggle(t *testing.T) {
	s := newTestServer(t)
	s.backend.Graph = testutil.SampleGraph()
	view := createGraphView(t, s)

	rec := s.doJSON(http.MethodPost, "/api/graph/views/"+view.ID+"/toggle", map[string]string{"category": "org"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap graphview.Snapshot
	decode(t, rec, &snap)
	assert.ElementsMatch(t, []string{"person", "place"}, snap.Selected)
	assert.Len(t, snap.Graph.Nodes, 3)
	require.Len(t, snap.Graph.Links, 1)
	assert.Equal(t, "alice", snap.Graph.Links[0].Source)
	assert.Equal(t, "bob", snap.Graph.Links[0].Target)

	rec = s.doJSON(http.MethodPost, "/api/graph/views/"+view.ID+"/toggle", map[string]string{"category": "org"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &snap)
	assert.Equal(t, view.Graph, snap.Graph)

	assert.Equal(t, 1, s.backend.GraphCalls(), "toggling must not refetch")
}

func TestGraphHandler_ToggleValidation(t *testing.T) {
	s := newTestServer(t)
	s.backend.Graph = testutil.SampleGraph()
	view := createGraphView(t, s)

	rec := s.doJSON(http.MethodPost, "/api/graph/views/"+view.ID+"/toggle", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr APIError
	decode(t, rec, &apiErr)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestGraphHandler_ToggleUnknownCategory(t *testing.T) {
	s := newTestServer(t)
	s.backend.Graph = testutil.SampleGraph()
	view := createGraphView(t, s)

	rec := s.doJSON(http.MethodPost, "/api/graph/views/"+view.ID+"/toggle", map[string]string{"category": "no-such-category"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var apiErr APIError
	decode(t, rec, &apiErr)
	assert.Equal(t, "UNKNOWN_CATEGORY", apiErr.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/graph/views/"+view.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap graphview.Snapshot
	decode(t, rec, &snap)
	assert.ElementsMatch(t, []string{"person", "org", "place"}, snap.Selected)
	assert.Equal(t, view.Graph, snap.Graph)
}

func TestGraphHandler_NotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/graph/views/nope", "/api/graph/views/nope/msgpack"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := s.doJSON(http.MethodPost, "/api/graph/views/nope/toggle", map[string]string{"category": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraphHandler_GetViewMsgpack(t *testing.T) {
	s := newTestServer(t)
	s.backend.Graph = testutil.SampleGraph()
	view := createGraphView(t, s)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/graph/views/"+view.ID+"/msgpack", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var snap graphview.Snapshot
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, view.ID, snap.ID)
	assert.Len(t, snap.Graph.Nodes, 4)
	assert.Equal(t, graphview.NodeRelSize, int(snap.Style.NodeRelSize))
}

func TestGraphHandler_DeleteView(t *testing.T) {
	s := newTestServer(t)
	s.backend.Graph = testutil.SampleGraph()
	view := createGraphView(t, s)

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/graph/views/"+view.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/graph/views/"+view.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

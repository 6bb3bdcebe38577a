// mock_backend.go - Scriptable knowledge-base backend for testing
package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/kb-dashboard/backend/internal/models"
)

// UploadCall records one Upload invocation.
type UploadCall struct {
	FileName    string
	ContentType string
	Body        []byte
}

// MockBackend implements the backend client methods with canned results.
// When Gate is non-nil, Upload blocks until it is closed or the context ends.
type MockBackend struct {
	mu sync.Mutex

	KBData    *models.KBDataResponse
	KBDataErr error
	Graph     *models.GraphResponse
	GraphErr  error
	UploadRes *models.UploadResponse
	UploadErr error
	Gate      chan struct{}
	Entered   chan struct{}

	statsCalls  int
	graphCalls  int
	uploadCalls []UploadCall
}

// NewMockBackend returns a backend with empty successful responses.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		KBData:    &models.KBDataResponse{},
		Graph:     &models.GraphResponse{},
		UploadRes: &models.UploadResponse{Status: models.UploadStatusStarted},
	}
}

func (m *MockBackend) GetKBData(ctx context.Context) (*models.KBDataResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsCalls++
	return m.KBData, m.KBDataErr
}

func (m *MockBackend) GetGraphData(ctx context.Context) (*models.GraphResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graphCalls++
	return m.Graph, m.GraphErr
}

func (m *MockBackend) Upload(ctx context.Context, fileName, contentType string, r io.Reader) (*models.UploadResponse, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.uploadCalls = append(m.uploadCalls, UploadCall{FileName: fileName, ContentType: contentType, Body: body})
	gate, entered := m.Gate, m.Entered
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.UploadRes, m.UploadErr
}

// StatsCalls returns the number of GetKBData calls.
func (m *MockBackend) StatsCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsCalls
}

// GraphCalls returns the number of GetGraphData calls.
func (m *MockBackend) GraphCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graphCalls
}

// UploadCalls returns the recorded uploads.
func (m *MockBackend) UploadCalls() []UploadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UploadCall(nil), m.uploadCalls...)
}

// SampleGraph returns a small graph with three categories and one dangling link.
func SampleGraph() *models.GraphResponse {
	return &models.GraphResponse{
		Data: models.GraphData{
			Nodes: []models.Node{
				{ID: "alice", Name: "Alice", Category: "person", Val: 3},
				{ID: "acme", Name: "Acme", Category: "org", Val: 5},
				{ID: "paris", Name: "Paris", Category: "place", Val: 2},
				{ID: "bob", Name: "Bob", Category: "person", Val: 1},
			},
			Links: []models.Link{
				{Source: "alice", Target: "acme", Value: 1},
				{Source: "bob", Target: "acme", Value: 1},
				{Source: "acme", Target: "paris", Value: 2},
				{Source: "alice", Target: "bob", Value: 1},
				{Source: "alice", Target: "ghost", Value: 1},
			},
		},
		Categories: []string{"person", "org", "place"},
	}
}

// SampleKBData returns a stats snapshot with two documents.
func SampleKBData() *models.KBDataResponse {
	return &models.KBDataResponse{
		Stats: models.KBStats{
			TotalDocuments:     2,
			TotalChunks:        31,
			TotalEntities:      17,
			TotalRelationships: 11,
			Documents: []models.DocumentStats{
				{DocID: 1, Title: "Handbook", FileType: "pdf", TotalChunks: 20, TotalEntities: 10,
					TotalRelationships: 7, CreatedAt: "2024-05-10T14:22:00Z", Status: "completed"},
				{DocID: 2, Title: "Notes", FileType: "pdf", TotalChunks: 11, TotalEntities: 7,
					TotalRelationships: 4, CreatedAt: "2024-05-11T09:00:00Z", Status: "processing"},
			},
			LastUpdated: "2024-05-12T08:15:30Z",
		},
		ExecutionTime: 0.042,
	}
}

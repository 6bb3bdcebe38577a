package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/kb-dashboard/backend/internal/graphview"
	"github.com/kb-dashboard/backend/internal/session"
	"github.com/kb-dashboard/backend/internal/testutil"
	"github.com/kb-dashboard/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e       *echo.Echo
	backend *testutil.MockBackend
	store   *testutil.MockStorage
	deps    *Dependencies
}

func newTestServer(t *testing.T, opts ...func(*Dependencies)) *testServer {
	t.Helper()
	backend := testutil.NewMockBackend()
	store := testutil.NewMockStorage()
	deps := &Dependencies{
		Backend:       backend,
		Store:         store,
		GraphViews:    session.NewManager[*graphview.View]("graph", 10, time.Minute),
		UploadFlows:   session.NewManager[*upload.Flow]("upload", 10, time.Minute),
		ReadTimeout:   time.Second,
		UploadTimeout: time.Second,
		MaxFileSize:   upload.MaxFileSize,
		Version:       "test",
	}
	for _, opt := range opts {
		opt(deps)
	}

	e := echo.New()
	SetupMiddleware(e, true, "token", true)
	RegisterRoutes(e, NewHandlers(deps))

	return &testServer{e: e, backend: backend, store: store, deps: deps}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(method, path string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return s.do(req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// multipartFile builds a multipart body with one "file" part of the given type.
func multipartFile(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

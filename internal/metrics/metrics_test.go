package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAddDanglingLinks(t *testing.T) {
	before := testutil.ToFloat64(danglingLinks)
	AddDanglingLinks(3)
	AddDanglingLinks(0)
	AddDanglingLinks(-1)
	assert.Equal(t, before+3, testutil.ToFloat64(danglingLinks))
}

func TestIncUploadOutcome(t *testing.T) {
	before := testutil.ToFloat64(uploadOutcomes.WithLabelValues("started"))
	IncUploadOutcome("started")
	assert.Equal(t, before+1, testutil.ToFloat64(uploadOutcomes.WithLabelValues("started")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	IncValidationRejection("size")
	SetActiveViews("graph", 2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kb_dashboard_upload_validation_rejections_total")
	assert.Contains(t, rec.Body.String(), `kb_dashboard_views_active{kind="graph"} 2`)
}

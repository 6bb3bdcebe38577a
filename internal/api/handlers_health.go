// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// counter is implemented by the view registries.
type counter interface {
	Len() int
}

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	graphs  counter
	uploads counter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, graphs, uploads counter) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		graphs:  graphs,
		uploads: uploads,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.graphs != nil {
		resp["graphViews"] = h.graphs.Len()
	}
	if h.uploads != nil {
		resp["uploadFlows"] = h.uploads.Len()
	}
	return c.JSON(http.StatusOK, resp)
}

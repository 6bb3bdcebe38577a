// handlers_stats.go - Knowledge-base statistics
package api

import (
	"net/http"
	"time"

	"github.com/kb-dashboard/backend/internal/logger"
	"github.com/kb-dashboard/backend/internal/statsview"
	"github.com/labstack/echo/v4"
)

// StatsHandlerImpl implements the StatsHandler interface
type StatsHandlerImpl struct {
	backend Backend
	timeout time.Duration
	loc     *time.Location
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(backend Backend, timeout time.Duration, loc *time.Location) StatsHandler {
	return &StatsHandlerImpl{
		backend: backend,
		timeout: timeout,
		loc:     loc,
	}
}

// HandleGetStats performs one backend read and returns the formatted snapshot.
func (h *StatsHandlerImpl) HandleGetStats(c echo.Context) error {
	view := statsview.NewView(h.loc)
	if err := view.Load(c.Request().Context(), h.backend, h.timeout); err != nil {
		logger.Warn("Failed to load knowledge base stats", "status", view.Status(), "error", err)
		return FromBackendError(err)
	}
	return c.JSON(http.StatusOK, view.Payload())
}

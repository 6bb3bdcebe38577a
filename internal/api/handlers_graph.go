// handlers_graph.go - Mounted graph views and category toggling
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/kb-dashboard/backend/internal/graphview"
	"github.com/kb-dashboard/backend/internal/logger"
	"github.com/kb-dashboard/backend/internal/metrics"
	"github.com/kb-dashboard/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

type toggleRequest struct {
	Category string `json:"category" validate:"required"`
}

// GraphHandlerImpl implements the GraphHandler interface
type GraphHandlerImpl struct {
	backend Backend
	views   *session.Manager[*graphview.View]
	timeout time.Duration
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(backend Backend, views *session.Manager[*graphview.View], timeout time.Duration) GraphHandler {
	return &GraphHandlerImpl{
		backend: backend,
		views:   views,
		timeout: timeout,
	}
}

// HandleCreateView mounts a view: one graph read, every category selected.
func (h *GraphHandlerImpl) HandleCreateView(c echo.Context) error {
	id, view := h.views.Create(graphview.NewView)

	if err := view.Load(c.Request().Context(), h.backend, h.timeout); err != nil {
		h.views.Remove(id)
		logger.Warn("Failed to load graph", "view", id, "status", view.Snapshot().Status, "error", err)
		return FromBackendError(err)
	}

	if n := view.Dangling(); n > 0 {
		logger.Warn("Graph has links to unknown nodes", "view", id, "dropped", n)
		metrics.AddDanglingLinks(n)
	}

	return c.JSON(http.StatusCreated, view.Snapshot())
}

// HandleGetView returns the filtered graph of a view.
func (h *GraphHandlerImpl) HandleGetView(c echo.Context) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.Snapshot())
}

// HandleGetViewMsgpack returns the filtered graph in msgpack encoding.
func (h *GraphHandlerImpl) HandleGetViewMsgpack(c echo.Context) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(view.Snapshot())
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleToggleCategory flips one category and returns the re-filtered graph.
func (h *GraphHandlerImpl) HandleToggleCategory(c echo.Context) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}

	var req toggleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	snap, err := view.Toggle(req.Category)
	switch {
	case errors.Is(err, graphview.ErrNotReady):
		return NewConflictError(err.Error())
	case errors.Is(err, graphview.ErrUnknownCategory):
		return NewUnprocessableError("UNKNOWN_CATEGORY", err.Error())
	case err != nil:
		return NewInternalError("failed to toggle category", err)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleDeleteView unmounts a view.
func (h *GraphHandlerImpl) HandleDeleteView(c echo.Context) error {
	id := c.Param("id")
	if !h.views.Remove(id) {
		return NewNotFoundError("graph view", id)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GraphHandlerImpl) lookup(c echo.Context) (*graphview.View, error) {
	id := c.Param("id")
	view, ok := h.views.Get(id)
	if !ok {
		return nil, NewNotFoundError("graph view", id)
	}
	return view, nil
}
